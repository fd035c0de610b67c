// Package gservice builds authenticated Google API clients per user and owns
// the token refresh lifecycle around provider calls.
package gservice

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/hal9000y/mail-assistant/internal/tokenstore"
)

const gmailUserID = "me"

// Gmail publishes per-method quota unit costs; the limiter budget stays under
// the 250 units/sec per-user ceiling.
// See https://developers.google.com/gmail/api/reference/quota
const (
	quotaUnitsMessagesList = 5
	quotaUnitsMessagesGet  = 5
	quotaUnitsMessagesSend = 100
	quotaUnitsPeopleList   = 1

	quotaUnitsPerSecond = 250
	rateLimitPerSecond  = quotaUnitsPerSecond * 0.8
	rateLimitBurst      = quotaUnitsPerSecond
)

// ErrTokenRefresh indicates the refresh-token exchange itself failed. The
// user has to reconnect their Google account.
var ErrTokenRefresh = errors.New("token refresh failed")

// API is the provider surface handed to Do callbacks.
type API interface {
	ListMessages(ctx context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error)
	GetMessage(ctx context.Context, msgID string) (*gmail.Message, error)
	SendMessage(ctx context.Context, raw string) (*gmail.Message, error)
	ListConnections(ctx context.Context, pageSize int64) ([]*people.Person, error)
}

// Service builds per-user Gmail/People clients from stored token pairs.
type Service struct {
	cfg     *oauth2.Config
	store   tokenstore.Store
	limiter *rate.Limiter
}

// New creates a Service over the OAuth config and token store.
func New(cfg *oauth2.Config, store tokenstore.Store) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		limiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst),
	}
}

// Do runs fn against authenticated clients for userID. If fn fails with an
// authorization error and a refresh token is on file, the pair is refreshed
// exactly once, persisted, and fn retried with rebuilt clients. The retry's
// error, not the original, propagates. No refresh token, or a second failure,
// is terminal.
func (s *Service) Do(ctx context.Context, userID string, fn func(api API) error) error {
	pair, err := s.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("store.Get failed: %w", err)
	}

	api, err := s.newClients(ctx, pair)
	if err != nil {
		return fmt.Errorf("newClients failed: %w", err)
	}

	err = fn(api)
	if err == nil || Classify(err) != KindUnauthorized || pair.RefreshToken == "" {
		return err
	}

	log.Printf("Provider call unauthorized for user %s, refreshing token", userID)

	refreshed, err := s.refresh(ctx, userID, pair)
	if err != nil {
		return err
	}

	api, err = s.newClients(ctx, refreshed)
	if err != nil {
		return fmt.Errorf("newClients failed: %w", err)
	}

	return fn(api)
}

// refresh exchanges the refresh token for a new access token and persists the
// resulting pair. Google may omit the refresh token in the response; the old
// one is kept in that case.
func (s *Service) refresh(ctx context.Context, userID string, pair tokenstore.TokenPair) (tokenstore.TokenPair, error) {
	src := s.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: pair.RefreshToken})

	tok, err := src.Token()
	if err != nil {
		return tokenstore.TokenPair{}, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}
	if tok.AccessToken == "" {
		return tokenstore.TokenPair{}, ErrTokenRefresh
	}

	refreshed := tokenstore.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}

	if err := s.store.Put(ctx, userID, refreshed); err != nil {
		return tokenstore.TokenPair{}, fmt.Errorf("store.Put failed: %w", err)
	}

	log.Printf("Refreshed Google token for user %s", userID)

	return refreshed, nil
}

func (s *Service) newClients(ctx context.Context, pair tokenstore.TokenPair) (*clients, error) {
	// Static token with no expiry: the oauth2 transport must not refresh
	// behind our back, refresh happens explicitly in Do.
	clt := s.cfg.Client(ctx, &oauth2.Token{AccessToken: pair.AccessToken})

	gmailSvc, err := gmail.NewService(ctx, option.WithHTTPClient(clt))
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	peopleSvc, err := people.NewService(ctx, option.WithHTTPClient(clt))
	if err != nil {
		return nil, fmt.Errorf("people.NewService failed: %w", err)
	}

	return &clients{
		gmail:   gmailSvc,
		people:  peopleSvc,
		limiter: s.limiter,
	}, nil
}

type clients struct {
	gmail   *gmail.Service
	people  *people.Service
	limiter *rate.Limiter
}

func (c *clients) ListMessages(ctx context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsMessagesList); err != nil {
		return nil, fmt.Errorf("limiter.WaitN failed: %w", err)
	}

	call := c.gmail.Users.Messages.List(gmailUserID).
		MaxResults(maxResults).
		Context(ctx)
	if query != "" {
		call = call.Q(query)
	}

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}

	return result, nil
}

func (c *clients) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsMessagesGet); err != nil {
		return nil, fmt.Errorf("limiter.WaitN failed: %w", err)
	}

	msg, err := c.gmail.Users.Messages.Get(gmailUserID, msgID).
		Format("metadata").
		MetadataHeaders("Subject", "From", "To", "Date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

func (c *clients) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsMessagesGet); err != nil {
		return nil, fmt.Errorf("limiter.WaitN failed: %w", err)
	}

	msg, err := c.gmail.Users.Messages.Get(gmailUserID, msgID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

func (c *clients) SendMessage(ctx context.Context, raw string) (*gmail.Message, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsMessagesSend); err != nil {
		return nil, fmt.Errorf("limiter.WaitN failed: %w", err)
	}

	msg, err := c.gmail.Users.Messages.Send(gmailUserID, &gmail.Message{Raw: raw}).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Send failed: %w", err)
	}

	return msg, nil
}

func (c *clients) ListConnections(ctx context.Context, pageSize int64) ([]*people.Person, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsPeopleList); err != nil {
		return nil, fmt.Errorf("limiter.WaitN failed: %w", err)
	}

	result, err := c.people.People.Connections.List("people/me").
		PersonFields("names,emailAddresses").
		PageSize(pageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("connections.List failed: %w", err)
	}

	return result.Connections, nil
}
