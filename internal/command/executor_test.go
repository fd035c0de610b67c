package command_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/people/v1"

	"github.com/hal9000y/mail-assistant/internal/command"
	"github.com/hal9000y/mail-assistant/internal/gservice"
	"github.com/hal9000y/mail-assistant/internal/resolve"
)

// apiFake implements gservice.API in memory and records provider calls.
type apiFake struct {
	persons []*people.Person

	listResponses map[string]*gmail.ListMessagesResponse
	details       map[string]*gmail.Message

	listedQueries []string
	listedMax     []int64
	sentRaw       []string
	sendErr       error
}

func (f *apiFake) ListMessages(_ context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	f.listedQueries = append(f.listedQueries, query)
	f.listedMax = append(f.listedMax, maxResults)

	res, ok := f.listResponses[query]
	if !ok {
		return &gmail.ListMessagesResponse{}, nil
	}

	// Honor maxResults the way the provider would.
	out := *res
	if int64(len(out.Messages)) > maxResults {
		out.Messages = out.Messages[:maxResults]
	}

	return &out, nil
}

func (f *apiFake) GetMessageMetadata(_ context.Context, msgID string) (*gmail.Message, error) {
	msg, ok := f.details[msgID]
	if !ok {
		return nil, fmt.Errorf("simulated detail failure: %s", msgID)
	}
	return msg, nil
}

func (f *apiFake) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	return f.GetMessageMetadata(ctx, msgID)
}

func (f *apiFake) SendMessage(_ context.Context, raw string) (*gmail.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sentRaw = append(f.sentRaw, raw)

	return &gmail.Message{Id: "sent-1"}, nil
}

func (f *apiFake) ListConnections(_ context.Context, _ int64) ([]*people.Person, error) {
	return f.persons, nil
}

// runnerFake hands the fake API straight to the callback, bypassing the real
// token lifecycle which has its own tests.
type runnerFake struct {
	api gservice.API
	err error
}

func (r *runnerFake) Do(_ context.Context, _ string, fn func(api gservice.API) error) error {
	if r.err != nil {
		return r.err
	}
	return fn(r.api)
}

func newExecutor(api *apiFake) *command.Executor {
	return command.NewExecutor(&runnerFake{api: api}, command.DefaultConfig())
}

func contactFixture() []*people.Person {
	return []*people.Person{
		{
			Names:          []*people.Name{{DisplayName: "Sarah Connor", GivenName: "Sarah", FamilyName: "Connor"}},
			EmailAddresses: []*people.EmailAddress{{Value: "sarah.connor@example.com"}},
		},
	}
}

func TestExecuteCreateEventPlaceholder(t *testing.T) {
	exec := newExecutor(&apiFake{})

	result, err := exec.Execute(context.Background(), "u-1", command.IntentCreateEvent,
		json.RawMessage(`{"title":"standup","date":"tomorrow","time":"9am"}`))
	require.NoError(t, err)

	assert.Equal(t, command.Status{Success: false, Message: "Create event not yet implemented"}, result)
}

func TestExecuteUnknownIntent(t *testing.T) {
	exec := newExecutor(&apiFake{})

	result, err := exec.Execute(context.Background(), "u-1", "dance", nil)
	require.NoError(t, err)

	assert.Equal(t, command.Status{Success: false, Message: "Unknown intent: dance"}, result)
}

func TestExecuteRequiresUserID(t *testing.T) {
	exec := newExecutor(&apiFake{})

	_, err := exec.Execute(context.Background(), "", command.IntentFetchEmail, nil)
	require.ErrorIs(t, err, command.ErrUnauthenticated)
}

func TestSendEmailResolvesContact(t *testing.T) {
	api := &apiFake{persons: contactFixture()}
	exec := newExecutor(api)

	result, err := exec.SendEmail(context.Background(), "u-1", command.SendEntities{
		Recipient: "sarah",
		Body:      "See you at noon",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "sarah.connor@example.com", result.ResolvedEmail)
	assert.Equal(t, "sarah", result.OriginalRecipient)
	assert.Equal(t, resolve.ConfidenceHigh, result.Confidence)
	assert.Equal(t, resolve.SourceGoogleContacts, result.Source)
	assert.Equal(t, "Email successfully sent to sarah.connor@example.com", result.Message)

	require.Len(t, api.sentRaw, 1)
	decoded, err := base64.URLEncoding.DecodeString(api.sentRaw[0])
	require.NoError(t, err)
	assert.Equal(t,
		"To: sarah.connor@example.com\nFrom: me\nSubject: Email from AI Assistant\n\nSee you at noon",
		string(decoded))
}

func TestSendEmailDirectAddressSkipsProviderLookups(t *testing.T) {
	api := &apiFake{}
	exec := newExecutor(api)

	result, err := exec.SendEmail(context.Background(), "u-1", command.SendEntities{
		Recipient: "bob@x.com",
		Subject:   "Lunch",
		Body:      "Pizza?",
	})
	require.NoError(t, err)

	assert.Equal(t, resolve.SourceDirectEmail, result.Source)
	assert.Empty(t, api.listedQueries, "no history search for a direct address")
	require.Len(t, api.sentRaw, 1)
}

func TestSendEmailRecipientNotFoundAbortsSend(t *testing.T) {
	api := &apiFake{}
	exec := newExecutor(api)

	_, err := exec.SendEmail(context.Background(), "u-1", command.SendEntities{
		Recipient: "nobody",
		Body:      "hello",
	})
	require.ErrorIs(t, err, resolve.ErrRecipientNotFound)
	assert.Empty(t, api.sentRaw, "send must not be attempted")
}

func TestSendEmailValidatesEntities(t *testing.T) {
	exec := newExecutor(&apiFake{})

	_, err := exec.SendEmail(context.Background(), "u-1", command.SendEntities{Body: "hi"})
	require.Error(t, err)

	_, err = exec.SendEmail(context.Background(), "u-1", command.SendEntities{Recipient: "bob@x.com"})
	require.Error(t, err)
}

func metadataMessage(id, subject, from string, date time.Time, snippet string) *gmail.Message {
	return &gmail.Message{
		Id:           id,
		Snippet:      snippet,
		InternalDate: date.UnixMilli(),
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: from},
			},
		},
	}
}

func TestFetchEmailsQuotesMultiWordSender(t *testing.T) {
	now := time.Date(2025, 9, 14, 12, 0, 0, 0, time.UTC)
	api := &apiFake{
		listResponses: map[string]*gmail.ListMessagesResponse{
			`from:"john smith"`: {Messages: []*gmail.Message{{Id: "m-1"}}},
		},
		details: map[string]*gmail.Message{
			"m-1": metadataMessage("m-1", "Hello", "John Smith <js@x.com>", now, "hey there"),
		},
	}
	exec := newExecutor(api)

	result, err := exec.FetchEmails(context.Background(), "u-1", command.FetchEntities{
		Sender: "john smith",
		Count:  float64(2),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{`from:"john smith"`}, api.listedQueries)
	assert.Equal(t, []int64{2}, api.listedMax)

	require.Len(t, result.Emails, 1)
	assert.Equal(t, command.EmailSummary{
		ID:      "m-1",
		Subject: "Hello",
		From:    "John Smith <js@x.com>",
		Snippet: "hey there",
		Date:    "2025-09-14T12:00:00Z",
	}, result.Emails[0])

	assert.Equal(t, "Fetched 1 recent email from john smith.", result.Message)
	assert.Equal(t, command.FetchQuery{Sender: "john smith", Count: 2}, result.Query)
	assert.Contains(t, result.SpeechSummary, "Here are the latest 1 emails from john smith.")
}

func TestFetchEmailsClampsCount(t *testing.T) {
	now := time.Now()

	msgs := make([]*gmail.Message, 20)
	details := make(map[string]*gmail.Message, 20)
	for i := range msgs {
		id := fmt.Sprintf("m-%02d", i)
		msgs[i] = &gmail.Message{Id: id}
		details[id] = metadataMessage(id, "S", "f@x.com", now, "")
	}

	api := &apiFake{
		listResponses: map[string]*gmail.ListMessagesResponse{"": {Messages: msgs}},
		details:       details,
	}
	exec := newExecutor(api)

	result, err := exec.FetchEmails(context.Background(), "u-1", command.FetchEntities{Count: float64(999)})
	require.NoError(t, err)

	assert.Equal(t, []int64{10}, api.listedMax)
	assert.Len(t, result.Emails, 10)

	// Unparsable count falls back to the default.
	api.listedMax = nil
	result, err = exec.FetchEmails(context.Background(), "u-1", command.FetchEntities{Count: "abc"})
	require.NoError(t, err)

	assert.Equal(t, []int64{5}, api.listedMax)
	assert.Len(t, result.Emails, 5)
}

func TestFetchEmailsSkipsFailedDetails(t *testing.T) {
	now := time.Date(2025, 9, 14, 12, 0, 0, 0, time.UTC)
	api := &apiFake{
		listResponses: map[string]*gmail.ListMessagesResponse{
			"": {Messages: []*gmail.Message{{Id: "m-1"}, {Id: "m-broken"}, {Id: "m-3"}}},
		},
		details: map[string]*gmail.Message{
			"m-1": metadataMessage("m-1", "First", "a@x.com", now, ""),
			"m-3": metadataMessage("m-3", "Third", "c@x.com", now, ""),
		},
	}
	exec := newExecutor(api)

	result, err := exec.FetchEmails(context.Background(), "u-1", command.FetchEntities{Count: float64(3)})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Emails, 2)
	assert.Equal(t, "First", result.Emails[0].Subject)
	assert.Equal(t, "Third", result.Emails[1].Subject)
}

func TestFetchEmailsEmptyMailbox(t *testing.T) {
	exec := newExecutor(&apiFake{})

	result, err := exec.FetchEmails(context.Background(), "u-1", command.FetchEntities{Sender: "sarah"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Emails)
	assert.Equal(t, "No recent emails found from sarah.", result.Message)
	assert.Equal(t, "I could not find any recent emails from sarah.", result.SpeechSummary)
}

func TestFetchEmailsDefaultSubjectAndSender(t *testing.T) {
	api := &apiFake{
		listResponses: map[string]*gmail.ListMessagesResponse{
			"": {Messages: []*gmail.Message{{Id: "m-1"}}},
		},
		details: map[string]*gmail.Message{
			"m-1": {Id: "m-1", InternalDate: time.Now().UnixMilli(), Payload: &gmail.MessagePart{}},
		},
	}
	exec := newExecutor(api)

	result, err := exec.FetchEmails(context.Background(), "u-1", command.FetchEntities{})
	require.NoError(t, err)

	require.Len(t, result.Emails, 1)
	assert.Equal(t, "(No subject)", result.Emails[0].Subject)
	assert.Equal(t, "Unknown sender", result.Emails[0].From)
}

func TestResolveRecipientLenient(t *testing.T) {
	exec := newExecutor(&apiFake{persons: contactFixture()})

	result, err := exec.ResolveRecipient(context.Background(), "u-1", "unknownperson", resolve.SynthesizeDefault)
	require.NoError(t, err)

	assert.Equal(t, "unknownperson@gmail.com", result.Email)
	assert.Equal(t, resolve.ConfidenceLow, result.Confidence)
	assert.Equal(t, resolve.SourceSynthesized, result.Source)
}

func TestContactPhrases(t *testing.T) {
	exec := newExecutor(&apiFake{persons: contactFixture()})

	phrases, err := exec.ContactPhrases(context.Background(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Sarah Connor", "Sarah", "Connor",
		"sarah.connor@example.com", "sarah.connor",
	}, phrases)
}
