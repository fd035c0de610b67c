package command

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hal9000y/mail-assistant/internal/contacts"
	"github.com/hal9000y/mail-assistant/internal/gservice"
	"github.com/hal9000y/mail-assistant/internal/resolve"
)

const defaultSubject = "Email from AI Assistant"

// SendResult reports a completed send with resolution provenance.
type SendResult struct {
	Status
	ResolvedEmail     string             `json:"resolvedEmail"`
	OriginalRecipient string             `json:"originalRecipient"`
	Confidence        resolve.Confidence `json:"confidence"`
	Source            resolve.Source     `json:"source"`
}

// SendEmail resolves the recipient through the strict pipeline and sends one
// message. Resolution failure is terminal: no partial send, no default
// recipient. Low-confidence resolutions proceed but are logged.
func (e *Executor) SendEmail(ctx context.Context, userID string, ent SendEntities) (*SendResult, error) {
	if ent.Recipient == "" {
		return nil, errors.New("send_email requires a recipient")
	}
	if ent.Body == "" {
		return nil, errors.New("send_email requires a body")
	}

	var result *SendResult
	err := e.svc.Do(ctx, userID, func(api gservice.API) error {
		resolver := resolve.New(contacts.NewDirectory(api), api)

		resolved, err := resolver.Resolve(ctx, ent.Recipient, resolve.Fail)
		if err != nil {
			return err
		}

		log.Printf("Resolved %q to %s (confidence: %s, source: %s)",
			ent.Recipient, resolved.Email, resolved.Confidence, resolved.Source)

		if resolved.Confidence == resolve.ConfidenceLow {
			log.Printf("Low confidence match for %q -> %s, consider asking the user to confirm",
				ent.Recipient, resolved.Email)
		}

		raw := encodeRawMessage(resolved.Email, ent.Subject, ent.Body)
		if _, err := api.SendMessage(ctx, raw); err != nil {
			return err
		}

		log.Printf("Email sent to %s for user %s", resolved.Email, userID)

		result = &SendResult{
			Status: Status{
				Success: true,
				Message: fmt.Sprintf("Email successfully sent to %s", resolved.Email),
			},
			ResolvedEmail:     resolved.Email,
			OriginalRecipient: ent.Recipient,
			Confidence:        resolved.Confidence,
			Source:            resolved.Source,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// encodeRawMessage assembles a minimal RFC 2822 message and encodes it the
// way the Gmail send endpoint expects.
func encodeRawMessage(to, subject, body string) string {
	if subject == "" {
		subject = defaultSubject
	}

	msg := strings.Join([]string{
		"To: " + to,
		"From: me",
		"Subject: " + subject,
		"",
		body,
	}, "\n")

	return base64.URLEncoding.EncodeToString([]byte(msg))
}
