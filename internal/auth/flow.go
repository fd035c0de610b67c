// Package auth handles the per-user OAuth2 authorization flow.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"golang.org/x/oauth2"

	"github.com/hal9000y/mail-assistant/internal/tokenstore"
)

// ErrInvalidState indicates an unknown, expired or reused state parameter.
var ErrInvalidState = errors.New("invalid or expired state parameter")

// Flow drives the OAuth2 authorization-code round-trip for individual users
// and persists the resulting token pairs.
type Flow struct {
	cfg    *oauth2.Config
	states StateStore
	store  tokenstore.Store
}

// NewFlow creates a Flow over the OAuth config, state store and token store.
func NewFlow(cfg *oauth2.Config, states StateStore, store tokenstore.Store) *Flow {
	return &Flow{cfg: cfg, states: states, store: store}
}

// AuthURL builds the consent URL for userID with a fresh random state.
// Offline access and a forced consent prompt make Google return a refresh
// token.
func (f *Flow) AuthURL(userID string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	state := hex.EncodeToString(b)

	f.states.Put(state, userID)

	return f.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// HandleCallback validates the state, exchanges the code and persists the
// token pair. Returns the user the state was bound to.
func (f *Flow) HandleCallback(ctx context.Context, state, code string) (string, error) {
	userID, ok := f.states.Take(state)
	if !ok {
		return "", ErrInvalidState
	}

	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("cfg.Exchange failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token exchange returned no access token")
	}

	pair := tokenstore.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if err := f.store.Put(ctx, userID, pair); err != nil {
		return "", fmt.Errorf("store.Put failed: %w", err)
	}

	log.Printf("Stored Google tokens for user %s", userID)

	return userID, nil
}

// Connected reports whether userID has stored credentials.
func (f *Flow) Connected(ctx context.Context, userID string) (bool, error) {
	_, err := f.store.Get(ctx, userID)
	if errors.Is(err, tokenstore.ErrNotConnected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
