// Package tokenstore persists per-user OAuth token pairs.
package tokenstore

import (
	"context"
	"errors"
)

// ErrNotConnected indicates the user has no stored Google account credentials.
var ErrNotConnected = errors.New("google account not connected")

// TokenPair holds a user's OAuth credentials. RefreshToken is empty when the
// user never granted offline access.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Store persists token pairs keyed by user ID. Put overwrites any previous
// pair; concurrent writers for the same user are resolved last-write-wins.
type Store interface {
	Get(ctx context.Context, userID string) (TokenPair, error)
	Put(ctx context.Context, userID string, pair TokenPair) error
}
