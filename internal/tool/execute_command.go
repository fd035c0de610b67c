package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-assistant/internal/command"
)

// ExecuteCommandRequest is the NLU output bundle: an intent plus its raw
// entities object.
type ExecuteCommandRequest struct {
	UserID   string          `json:"user_id,omitempty" jsonschema:"acting user, defaults to the bound user"`
	Intent   string          `json:"intent" jsonschema:"classified intent, e.g. send_email or fetch_email"`
	Entities json.RawMessage `json:"entities,omitempty" jsonschema:"intent entities as extracted by the NLU"`
}

// ExecuteCommandResponse wraps the executed command's result.
type ExecuteCommandResponse struct {
	Success bool            `json:"success" jsonschema:"whether the command completed"`
	Message string          `json:"message" jsonschema:"human-readable outcome"`
	Result  json.RawMessage `json:"result,omitempty" jsonschema:"full intent-specific result object"`
}

type executeCommandSvc interface {
	Execute(ctx context.Context, userID string, intent command.Intent, entities json.RawMessage) (any, error)
}

// NewExecuteCommand creates the execute_command tool.
func NewExecuteCommand(svc executeCommandSvc, defaultUser string) *ExecuteCommand {
	return &ExecuteCommand{svc: svc, defaultUser: defaultUser}
}

// ExecuteCommand dispatches classified commands to the executor.
type ExecuteCommand struct {
	svc         executeCommandSvc
	defaultUser string
}

// ExecuteCommand runs the intent and reflects the executor's structured
// result back to the caller.
func (t *ExecuteCommand) ExecuteCommand(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExecuteCommandRequest,
) (*mcp.CallToolResult, ExecuteCommandResponse, error) {
	result, err := t.svc.Execute(ctx, orDefault(input.UserID, t.defaultUser), command.Intent(input.Intent), input.Entities)
	if err != nil {
		return nil, ExecuteCommandResponse{}, fmt.Errorf("svc.Execute failed: %w", err)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, ExecuteCommandResponse{}, fmt.Errorf("json.Marshal failed: %w", err)
	}

	// Every executor result carries the success/message pair.
	var status command.Status
	if err := json.Unmarshal(encoded, &status); err != nil {
		return nil, ExecuteCommandResponse{}, fmt.Errorf("json.Unmarshal failed: %w", err)
	}

	return nil, ExecuteCommandResponse{
		Success: status.Success,
		Message: status.Message,
		Result:  encoded,
	}, nil
}
