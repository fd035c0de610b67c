package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-assistant/internal/command"
)

// SendEmailRequest carries the send entities.
type SendEmailRequest struct {
	UserID    string `json:"user_id,omitempty" jsonschema:"acting user, defaults to the bound user"`
	Recipient string `json:"recipient" jsonschema:"recipient reference: name, partial name or email address"`
	Body      string `json:"body" jsonschema:"email body text"`
	Subject   string `json:"subject,omitempty" jsonschema:"email subject, generic default when omitted"`
}

// SendEmailResponse reports the send outcome with resolution provenance.
type SendEmailResponse struct {
	Success           bool   `json:"success" jsonschema:"whether the email was sent"`
	Message           string `json:"message" jsonschema:"human-readable outcome"`
	ResolvedEmail     string `json:"resolved_email" jsonschema:"address the recipient resolved to"`
	OriginalRecipient string `json:"original_recipient" jsonschema:"recipient reference as given"`
	Confidence        string `json:"confidence" jsonschema:"resolution confidence: high, medium or low"`
	Source            string `json:"source" jsonschema:"resolution source: direct_email, google_contacts or email_history"`
}

type sendEmailSvc interface {
	SendEmail(ctx context.Context, userID string, ent command.SendEntities) (*command.SendResult, error)
}

// NewSendEmail creates the send_email tool.
func NewSendEmail(svc sendEmailSvc, defaultUser string) *SendEmail {
	return &SendEmail{svc: svc, defaultUser: defaultUser}
}

// SendEmail resolves and sends a single message.
type SendEmail struct {
	svc         sendEmailSvc
	defaultUser string
}

// SendEmail executes the send. Resolution failure surfaces as a tool error;
// no message is sent in that case.
func (t *SendEmail) SendEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SendEmailRequest,
) (*mcp.CallToolResult, SendEmailResponse, error) {
	result, err := t.svc.SendEmail(ctx, orDefault(input.UserID, t.defaultUser), command.SendEntities{
		Recipient: input.Recipient,
		Body:      input.Body,
		Subject:   input.Subject,
	})
	if err != nil {
		return nil, SendEmailResponse{}, fmt.Errorf("svc.SendEmail failed: %w", err)
	}

	return nil, SendEmailResponse{
		Success:           result.Success,
		Message:           result.Message,
		ResolvedEmail:     result.ResolvedEmail,
		OriginalRecipient: result.OriginalRecipient,
		Confidence:        string(result.Confidence),
		Source:            string(result.Source),
	}, nil
}
