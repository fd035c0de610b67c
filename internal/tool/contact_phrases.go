package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ContactPhrasesRequest selects the user whose directory to read.
type ContactPhrasesRequest struct {
	UserID string `json:"user_id,omitempty" jsonschema:"acting user, defaults to the bound user"`
}

// ContactPhrasesResponse lists the phrase set.
type ContactPhrasesResponse struct {
	Phrases []string `json:"phrases" jsonschema:"unique contact names, addresses and local parts"`
	Total   int      `json:"total" jsonschema:"number of phrases"`
}

type contactPhrasesSvc interface {
	ContactPhrases(ctx context.Context, userID string) ([]string, error)
}

// NewContactPhrases creates the contact_phrases tool.
func NewContactPhrases(svc contactPhrasesSvc, defaultUser string) *ContactPhrases {
	return &ContactPhrases{svc: svc, defaultUser: defaultUser}
}

// ContactPhrases lists phrases used to boost speech recognition of contact
// references in transcripts.
type ContactPhrases struct {
	svc         contactPhrasesSvc
	defaultUser string
}

// ContactPhrases reads the phrase set.
func (t *ContactPhrases) ContactPhrases(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContactPhrasesRequest,
) (*mcp.CallToolResult, ContactPhrasesResponse, error) {
	phrases, err := t.svc.ContactPhrases(ctx, orDefault(input.UserID, t.defaultUser))
	if err != nil {
		return nil, ContactPhrasesResponse{}, fmt.Errorf("svc.ContactPhrases failed: %w", err)
	}

	return nil, ContactPhrasesResponse{
		Phrases: phrases,
		Total:   len(phrases),
	}, nil
}
