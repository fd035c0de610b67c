// Package command dispatches NLU-classified intents to mail provider actions.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hal9000y/mail-assistant/internal/contacts"
	"github.com/hal9000y/mail-assistant/internal/gservice"
	"github.com/hal9000y/mail-assistant/internal/resolve"
)

// ErrUnauthenticated indicates the request carried no verified user identity.
var ErrUnauthenticated = errors.New("user not authenticated")

// Intent is the NLU-produced command class.
type Intent string

// Known intents. create_event is recognized but not executed.
const (
	IntentSendEmail   Intent = "send_email"
	IntentFetchEmail  Intent = "fetch_email"
	IntentCreateEvent Intent = "create_event"
)

// SendEntities is the entity bundle for send_email.
type SendEntities struct {
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Subject   string `json:"subject,omitempty"`
}

// FetchEntities is the entity bundle for fetch_email. Count arrives from the
// NLU as either a number or a string and is clamped before use.
type FetchEntities struct {
	Sender string `json:"sender,omitempty"`
	Count  any    `json:"count,omitempty"`
}

// Status is the common result shape: every execution path reports success
// and a human-readable message, never an ambiguous partial result.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Config holds the executor tunables, mirroring the upstream defaults.
type Config struct {
	MinFetchCount     int
	MaxFetchCount     int
	DefaultFetchCount int
	SnippetMaxLength  int
}

// DefaultConfig returns the standard bounds.
func DefaultConfig() Config {
	return Config{
		MinFetchCount:     1,
		MaxFetchCount:     10,
		DefaultFetchCount: 5,
		SnippetMaxLength:  160,
	}
}

type runner interface {
	Do(ctx context.Context, userID string, fn func(api gservice.API) error) error
}

// Executor runs classified commands against the mail provider on behalf of a
// verified user.
type Executor struct {
	svc runner
	cfg Config
}

// NewExecutor creates an Executor over the authenticated provider runner.
func NewExecutor(svc runner, cfg Config) *Executor {
	return &Executor{svc: svc, cfg: cfg}
}

// Execute dispatches an intent/entities bundle. Unknown intents and the
// create_event placeholder return a failed Status, not an error; callers
// branch on Success.
func (e *Executor) Execute(ctx context.Context, userID string, intent Intent, entities json.RawMessage) (any, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	log.Printf("Executing %q for user %s", intent, userID)

	switch intent {
	case IntentSendEmail:
		var ent SendEntities
		if err := json.Unmarshal(entities, &ent); err != nil {
			return nil, fmt.Errorf("decode send_email entities failed: %w", err)
		}
		return e.SendEmail(ctx, userID, ent)

	case IntentFetchEmail:
		var ent FetchEntities
		if len(entities) > 0 {
			if err := json.Unmarshal(entities, &ent); err != nil {
				return nil, fmt.Errorf("decode fetch_email entities failed: %w", err)
			}
		}
		return e.FetchEmails(ctx, userID, ent)

	case IntentCreateEvent:
		return Status{Success: false, Message: "Create event not yet implemented"}, nil

	default:
		return Status{Success: false, Message: fmt.Sprintf("Unknown intent: %s", intent)}, nil
	}
}

// ResolveRecipient exposes the resolution pipeline directly, mainly for the
// interactive resolve tool. The SynthesizeDefault policy never fails.
func (e *Executor) ResolveRecipient(ctx context.Context, userID, query string, policy resolve.Policy) (*resolve.Result, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	var result *resolve.Result
	err := e.svc.Do(ctx, userID, func(api gservice.API) error {
		r := resolve.New(contacts.NewDirectory(api), api)

		res, err := r.Resolve(ctx, query, policy)
		if err != nil {
			return err
		}
		result = res

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ContactPhrases returns the user's contact phrase set for speech boosting.
func (e *Executor) ContactPhrases(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	var phrases []string
	err := e.svc.Do(ctx, userID, func(api gservice.API) error {
		p, err := contacts.NewDirectory(api).Phrases(ctx)
		if err != nil {
			return err
		}
		phrases = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return phrases, nil
}
