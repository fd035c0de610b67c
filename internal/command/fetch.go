package command

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/mail-assistant/internal/gservice"
)

// Detail fetches are independent metadata reads; a small bound keeps the
// fan-out polite toward the API quota.
const fetchDetailConcurrency = 4

const speechDetailLimit = 3

// EmailSummary is a read-only projection of a fetched message.
type EmailSummary struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

// FetchQuery echoes the normalized query parameters back to the caller.
type FetchQuery struct {
	Sender string `json:"sender,omitempty"`
	Count  int    `json:"count"`
}

// FetchResult carries the fetched summaries plus a speech-friendly digest.
type FetchResult struct {
	Status
	Emails        []EmailSummary `json:"emails"`
	SpeechSummary string         `json:"speechSummary"`
	Query         FetchQuery     `json:"query"`
}

// FetchEmails lists up to the clamped count of messages (optionally filtered
// by sender) and loads their metadata. A single failed detail fetch is logged
// and skipped; the batch continues. Result order is the provider's listing
// order.
func (e *Executor) FetchEmails(ctx context.Context, userID string, ent FetchEntities) (*FetchResult, error) {
	count := clampCount(ent.Count, e.cfg)
	sender := strings.TrimSpace(ent.Sender)
	query := buildFetchQuery(sender)

	var emails []EmailSummary
	err := e.svc.Do(ctx, userID, func(api gservice.API) error {
		loaded, err := e.loadEmails(ctx, api, query, count)
		if err != nil {
			return err
		}
		emails = loaded

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Status: Status{
			Success: true,
			Message: fetchMessage(len(emails), sender),
		},
		Emails:        emails,
		SpeechSummary: buildSpeechSummary(emails, sender),
		Query:         FetchQuery{Sender: sender, Count: count},
	}, nil
}

func (e *Executor) loadEmails(ctx context.Context, api gservice.API, query string, count int) ([]EmailSummary, error) {
	listed, err := api.ListMessages(ctx, query, int64(count))
	if err != nil {
		return nil, fmt.Errorf("api.ListMessages failed: %w", err)
	}
	if listed == nil || len(listed.Messages) == 0 {
		return nil, nil
	}

	// Fetch details concurrently but keep listing order in the results.
	slots := make([]*EmailSummary, len(listed.Messages))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(fetchDetailConcurrency)

	for i, m := range listed.Messages {
		grp.Go(func() error {
			detail, err := api.GetMessageMetadata(grpCtx, m.Id)
			if err != nil {
				log.Printf("Failed to load Gmail message %s: %v", m.Id, err)
				return nil
			}

			summary := e.summarize(detail, m.Id)
			slots[i] = &summary

			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	emails := make([]EmailSummary, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			emails = append(emails, *s)
		}
	}

	return emails, nil
}

func (e *Executor) summarize(detail *gmail.Message, listedID string) EmailSummary {
	subject := headerValue(detail, "Subject")
	if subject == "" {
		subject = "(No subject)"
	}

	from := headerValue(detail, "From")
	if from == "" {
		from = "Unknown sender"
	}

	id := detail.Id
	if id == "" {
		id = listedID
	}
	if id == "" {
		id = uuid.NewString()
	}

	return EmailSummary{
		ID:      id,
		Subject: subject,
		From:    from,
		Snippet: sanitizeSnippet(detail.Snippet, e.cfg.SnippetMaxLength),
		Date:    formatDateISO(detail.InternalDate, headerValue(detail, "Date")),
	}
}

// clampCount coerces the NLU-supplied count (number or numeric string) into
// the configured inclusive bounds; anything unparsable becomes the default.
func clampCount(value any, cfg Config) int {
	clamp := func(n int) int {
		return min(max(n, cfg.MinFetchCount), cfg.MaxFetchCount)
	}

	switch v := value.(type) {
	case nil:
		return cfg.DefaultFetchCount
	case int:
		return clamp(v)
	case int64:
		return clamp(int(v))
	case float64:
		return clamp(int(v))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg.DefaultFetchCount
		}
		return clamp(n)
	default:
		return cfg.DefaultFetchCount
	}
}

// buildFetchQuery quotes the sender only when it contains whitespace, so
// multi-word names stay one Gmail search term.
func buildFetchQuery(sender string) string {
	if sender == "" {
		return ""
	}
	if strings.ContainsAny(sender, " \t") {
		return fmt.Sprintf("from:%q", sender)
	}

	return "from:" + sender
}

func headerValue(msg *gmail.Message, name string) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}

	for _, header := range msg.Payload.Headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}

	return ""
}

// sanitizeSnippet collapses whitespace and truncates to maxLen-1 characters
// plus an ellipsis when over the limit.
func sanitizeSnippet(snippet string, maxLen int) string {
	if snippet == "" {
		return ""
	}

	cleaned := strings.TrimSpace(whitespaceRun.ReplaceAllString(snippet, " "))
	if len([]rune(cleaned)) <= maxLen {
		return cleaned
	}

	return string([]rune(cleaned)[:maxLen-1]) + "…"
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// formatDateISO prefers the provider's internal millisecond timestamp, falls
// back to the Date header, then to now.
func formatDateISO(internalDate int64, headerDate string) string {
	if internalDate > 0 {
		return time.UnixMilli(internalDate).UTC().Format(time.RFC3339)
	}

	if headerDate != "" {
		if parsed, err := mail.ParseDate(headerDate); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
	}

	return time.Now().UTC().Format(time.RFC3339)
}

func fetchMessage(n int, sender string) string {
	if n == 0 {
		if sender != "" {
			return fmt.Sprintf("No recent emails found from %s.", sender)
		}
		return "No recent emails found."
	}

	plural := ""
	if n > 1 {
		plural = "s"
	}

	if sender != "" {
		return fmt.Sprintf("Fetched %d recent email%s from %s.", n, plural, sender)
	}

	return fmt.Sprintf("Fetched %d recent email%s.", n, plural)
}

// buildSpeechSummary renders a digest meant to be read aloud: an intro, at
// most three per-message lines, and a truncation notice when more results
// exist than were read out.
func buildSpeechSummary(emails []EmailSummary, sender string) string {
	if len(emails) == 0 {
		if sender != "" {
			return fmt.Sprintf("I could not find any recent emails from %s.", sender)
		}
		return "I could not find any recent emails."
	}

	var b strings.Builder
	if sender != "" {
		fmt.Fprintf(&b, "Here are the latest %d emails from %s.", len(emails), sender)
	} else {
		fmt.Fprintf(&b, "Here are your latest %d emails.", len(emails))
	}

	shown := min(len(emails), speechDetailLimit)
	for i := 0; i < shown; i++ {
		email := emails[i]

		dateLabel := "recently"
		if parsed, err := time.Parse(time.RFC3339, email.Date); err == nil {
			dateLabel = "on " + parsed.Format("Jan 2")
		}

		fmt.Fprintf(&b, " %d. From %s, subject %s, %s.", i+1, email.From, email.Subject, dateLabel)
		if email.Snippet != "" {
			fmt.Fprintf(&b, " %s", email.Snippet)
		}
	}

	if len(emails) > shown {
		fmt.Fprintf(&b, " Showing the first %d of %d emails.", shown, len(emails))
	}

	return b.String()
}
