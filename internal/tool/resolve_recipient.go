package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-assistant/internal/resolve"
)

// ResolveRecipientRequest names the reference to resolve.
type ResolveRecipientRequest struct {
	UserID string `json:"user_id,omitempty" jsonschema:"acting user, defaults to the bound user"`
	Query  string `json:"query" jsonschema:"recipient reference: name, partial name or garbled address"`
	Strict bool   `json:"strict,omitempty" jsonschema:"fail instead of synthesizing a fallback address"`
}

// ResolveRecipientResponse reports the resolution outcome. Under the lenient
// policy Found is always true.
type ResolveRecipientResponse struct {
	Found      bool   `json:"found" jsonschema:"whether an address was resolved"`
	Email      string `json:"email,omitempty" jsonschema:"resolved email address"`
	Confidence string `json:"confidence,omitempty" jsonschema:"resolution confidence tier"`
	Source     string `json:"source,omitempty" jsonschema:"resolution source stage"`
	Message    string `json:"message" jsonschema:"human-readable outcome"`
}

type resolveRecipientSvc interface {
	ResolveRecipient(ctx context.Context, userID, query string, policy resolve.Policy) (*resolve.Result, error)
}

// NewResolveRecipient creates the resolve_recipient tool.
func NewResolveRecipient(svc resolveRecipientSvc, defaultUser string) *ResolveRecipient {
	return &ResolveRecipient{svc: svc, defaultUser: defaultUser}
}

// ResolveRecipient exposes the resolution pipeline for interactive testing.
type ResolveRecipient struct {
	svc         resolveRecipientSvc
	defaultUser string
}

// ResolveRecipient runs one resolution. A strict miss is reported as a
// structured not-found result, not a tool error.
func (t *ResolveRecipient) ResolveRecipient(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveRecipientRequest,
) (*mcp.CallToolResult, ResolveRecipientResponse, error) {
	policy := resolve.SynthesizeDefault
	if input.Strict {
		policy = resolve.Fail
	}

	result, err := t.svc.ResolveRecipient(ctx, orDefault(input.UserID, t.defaultUser), input.Query, policy)
	if errors.Is(err, resolve.ErrRecipientNotFound) {
		return nil, ResolveRecipientResponse{
			Found:   false,
			Message: fmt.Sprintf("No recipient found for %q", input.Query),
		}, nil
	}
	if err != nil {
		return nil, ResolveRecipientResponse{}, fmt.Errorf("svc.ResolveRecipient failed: %w", err)
	}

	return nil, ResolveRecipientResponse{
		Found:      true,
		Email:      result.Email,
		Confidence: string(result.Confidence),
		Source:     string(result.Source),
		Message: fmt.Sprintf("Found recipient: %s (confidence: %s, source: %s)",
			result.Email, result.Confidence, result.Source),
	}, nil
}
