// Package resolve turns ambiguous, possibly speech-garbled recipient
// references into concrete email addresses with confidence and provenance.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// ErrRecipientNotFound indicates every resolution stage came up empty under
// the Fail policy. Senders must abort, never default.
var ErrRecipientNotFound = errors.New("recipient not found")

// Confidence is the qualitative trust tier of a resolved address.
type Confidence string

// Confidence tiers, from exact to guessed.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Source tags which stage produced an address.
type Source string

// Resolution sources.
const (
	SourceDirectEmail    Source = "direct_email"
	SourceGoogleContacts Source = "google_contacts"
	SourceEmailHistory   Source = "email_history"
	SourceSynthesized    Source = "synthesized"
)

// Policy selects what happens when no stage produces an address.
type Policy int

const (
	// Fail returns ErrRecipientNotFound when resolution exhausts all stages.
	// Used for sends, where a wrong guess is worse than a refusal.
	Fail Policy = iota
	// SynthesizeDefault never fails: transcript cleanup runs first and a
	// <username>@gmail.com guess is constructed as the last resort.
	SynthesizeDefault
)

// Result is a resolved recipient. Email is always non-empty.
type Result struct {
	Email      string
	Confidence Confidence
	Source     Source
}

type contactFinder interface {
	FindEmailByName(ctx context.Context, name string) (string, bool, error)
}

type messageSearcher interface {
	ListMessages(ctx context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessage(ctx context.Context, msgID string) (*gmail.Message, error)
}

const (
	historyListMax   = 10
	historyDetailMax = 5
)

// Resolver chains direct-email detection, contact lookup, history search and
// transcript cleanup into one pipeline. Results are produced fresh per call,
// never cached.
type Resolver struct {
	contacts contactFinder
	mail     messageSearcher
}

// New creates a Resolver over the contact directory and message history.
func New(contacts contactFinder, mail messageSearcher) *Resolver {
	return &Resolver{contacts: contacts, mail: mail}
}

// Resolve maps query to an email address. Under Fail it returns
// ErrRecipientNotFound when nothing matches; under SynthesizeDefault it
// always returns a result.
func (r *Resolver) Resolve(ctx context.Context, query string, policy Policy) (*Result, error) {
	log.Printf("Resolving recipient: %q", query)

	if looksLikeEmail(query) {
		log.Printf("Recipient %q is already an email address", query)
		return &Result{Email: query, Confidence: ConfidenceHigh, Source: SourceDirectEmail}, nil
	}

	if policy == SynthesizeDefault {
		return r.resolveLenient(ctx, query)
	}

	return r.resolveStrict(ctx, query)
}

func (r *Resolver) resolveStrict(ctx context.Context, query string) (*Result, error) {
	email, found, err := r.contacts.FindEmailByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("contact lookup failed: %w", err)
	}
	if found {
		log.Printf("Found %q in contacts: %s", query, email)
		return &Result{Email: email, Confidence: ConfidenceHigh, Source: SourceGoogleContacts}, nil
	}

	result, err := r.searchHistory(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("history search failed: %w", err)
	}
	if result != nil {
		log.Printf("Found %q in email history: %s", query, result.Email)
		return result, nil
	}

	log.Printf("No recipient found for %q in contacts or email history", query)

	return nil, fmt.Errorf("%w: %q", ErrRecipientNotFound, query)
}

// resolveLenient never fails: cleanup first, contacts second, synthesized
// @gmail.com guess last. Lookup errors degrade to the guess instead of
// propagating.
func (r *Resolver) resolveLenient(ctx context.Context, query string) (*Result, error) {
	cleaned := CleanSpeechArtifacts(query)

	if looksLikeEmail(cleaned) {
		email := strings.ToLower(cleaned)
		log.Printf("Recipient %q cleaned to email: %s", query, email)
		return &Result{Email: email, Confidence: ConfidenceHigh, Source: SourceDirectEmail}, nil
	}

	username := DeriveUsername(cleaned)

	email, found, err := r.contacts.FindEmailByName(ctx, username)
	if err != nil {
		log.Printf("Contact lookup failed for %q, falling back to default: %v", username, err)
	} else if found {
		return &Result{Email: email, Confidence: ConfidenceHigh, Source: SourceGoogleContacts}, nil
	}

	guess := username + "@gmail.com"
	log.Printf("No contact found for %q, using default email: %s", username, guess)

	return &Result{Email: guess, Confidence: ConfidenceLow, Source: SourceSynthesized}, nil
}

// searchHistory mines past correspondence for candidate addresses. Returns
// nil when the stage yields nothing; that is not an error.
func (r *Resolver) searchHistory(ctx context.Context, term string) (*Result, error) {
	query := fmt.Sprintf("(to:%s OR from:%s)", term, term)
	log.Printf("Searching Gmail history with query: %s", query)

	listed, err := r.mail.ListMessages(ctx, query, historyListMax)
	if err != nil {
		return nil, fmt.Errorf("mail.ListMessages failed: %w", err)
	}
	if listed == nil || len(listed.Messages) == 0 {
		log.Printf("No email history found for: %s", term)
		return nil, nil
	}

	msgs := listed.Messages
	if len(msgs) > historyDetailMax {
		msgs = msgs[:historyDetailMax]
	}

	// First-seen order is preserved; the provider decides it. Candidate
	// ordering is intentionally weak, see the medium-confidence fallback.
	var candidates []string
	seen := make(map[string]struct{})

	for _, m := range msgs {
		detail, err := r.mail.GetMessage(ctx, m.Id)
		if err != nil {
			log.Printf("Failed to load message %s: %v", m.Id, err)
			continue
		}
		if detail == nil || detail.Payload == nil {
			continue
		}

		for _, header := range detail.Payload.Headers {
			if header.Name != "To" && header.Name != "From" {
				continue
			}

			for _, addr := range extractAddresses(header.Value) {
				if addr == "me" || strings.Contains(addr, "noreply") || strings.Contains(addr, "no-reply") {
					continue
				}
				if _, ok := seen[addr]; ok {
					continue
				}
				seen[addr] = struct{}{}
				candidates = append(candidates, addr)
			}
		}
	}

	if len(candidates) == 0 {
		log.Printf("No valid email addresses found in history for: %s", term)
		return nil, nil
	}

	lowerTerm := strings.ToLower(term)
	for _, addr := range candidates {
		local := strings.ToLower(strings.SplitN(addr, "@", 2)[0])
		if strings.Contains(local, lowerTerm) || strings.Contains(lowerTerm, local) {
			return &Result{Email: addr, Confidence: ConfidenceHigh, Source: SourceEmailHistory}, nil
		}
	}

	log.Printf("Using first email from history: %s for search term: %s", candidates[0], term)

	return &Result{Email: candidates[0], Confidence: ConfidenceMedium, Source: SourceEmailHistory}, nil
}
