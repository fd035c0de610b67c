package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-assistant/internal/command"
)

// FetchEmailsRequest carries the fetch entities.
type FetchEmailsRequest struct {
	UserID string `json:"user_id,omitempty" jsonschema:"acting user, defaults to the bound user"`
	Sender string `json:"sender,omitempty" jsonschema:"optional sender filter: name or email address"`
	Count  string `json:"count,omitempty" jsonschema:"how many emails to fetch, clamped to configured bounds"`
}

// FetchEmailsResponse carries the summaries plus the speech digest.
type FetchEmailsResponse struct {
	Success       bool                   `json:"success" jsonschema:"whether the fetch completed"`
	Message       string                 `json:"message" jsonschema:"human-readable outcome"`
	Emails        []command.EmailSummary `json:"emails" jsonschema:"fetched email summaries in provider order"`
	SpeechSummary string                 `json:"speech_summary" jsonschema:"digest meant to be read aloud"`
	Sender        string                 `json:"sender,omitempty" jsonschema:"normalized sender filter"`
	Count         int                    `json:"count" jsonschema:"clamped fetch count"`
}

type fetchEmailsSvc interface {
	FetchEmails(ctx context.Context, userID string, ent command.FetchEntities) (*command.FetchResult, error)
}

// NewFetchEmails creates the fetch_emails tool.
func NewFetchEmails(svc fetchEmailsSvc, defaultUser string) *FetchEmails {
	return &FetchEmails{svc: svc, defaultUser: defaultUser}
}

// FetchEmails lists and summarizes recent mail.
type FetchEmails struct {
	svc         fetchEmailsSvc
	defaultUser string
}

// FetchEmails executes the fetch.
func (t *FetchEmails) FetchEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchEmailsRequest,
) (*mcp.CallToolResult, FetchEmailsResponse, error) {
	ent := command.FetchEntities{Sender: input.Sender}
	if input.Count != "" {
		ent.Count = input.Count
	}

	result, err := t.svc.FetchEmails(ctx, orDefault(input.UserID, t.defaultUser), ent)
	if err != nil {
		return nil, FetchEmailsResponse{}, fmt.Errorf("svc.FetchEmails failed: %w", err)
	}

	return nil, FetchEmailsResponse{
		Success:       result.Success,
		Message:       result.Message,
		Emails:        result.Emails,
		SpeechSummary: result.SpeechSummary,
		Sender:        result.Query.Sender,
		Count:         result.Query.Count,
	}, nil
}
