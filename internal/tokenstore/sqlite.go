package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);`

// SQLite is a Store backed by a local sqlite database. Token values are
// encrypted at rest when an encryption key is provided.
type SQLite struct {
	db  *sql.DB
	enc *cryptor
}

// OpenSQLite opens (creating if needed) the accounts database at path.
// hexKey is a 64-hex-char AES-256 key; empty disables encryption.
func OpenSQLite(path, hexKey string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create accounts table failed: %w", err)
	}

	s := &SQLite{db: db}
	if hexKey != "" {
		enc, err := newCryptor(hexKey)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("newCryptor failed: %w", err)
		}
		s.enc = enc
	}

	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get returns the stored pair for userID, or ErrNotConnected.
func (s *SQLite) Get(ctx context.Context, userID string) (TokenPair, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM accounts WHERE user_id = ?`, userID)

	var pair TokenPair
	if err := row.Scan(&pair.AccessToken, &pair.RefreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrNotConnected
		}

		return TokenPair{}, fmt.Errorf("row.Scan failed: %w", err)
	}

	if s.enc != nil {
		var err error
		if pair.AccessToken, err = s.enc.decrypt(pair.AccessToken); err != nil {
			return TokenPair{}, fmt.Errorf("decrypt access token failed: %w", err)
		}
		if pair.RefreshToken, err = s.enc.decrypt(pair.RefreshToken); err != nil {
			return TokenPair{}, fmt.Errorf("decrypt refresh token failed: %w", err)
		}
	}

	return pair, nil
}

// Put upserts the pair for userID. Concurrent refreshes for the same user are
// not serialized here; the last write wins, matching the upstream behavior.
func (s *SQLite) Put(ctx context.Context, userID string, pair TokenPair) error {
	if s.enc != nil {
		var err error
		if pair.AccessToken, err = s.enc.encrypt(pair.AccessToken); err != nil {
			return fmt.Errorf("encrypt access token failed: %w", err)
		}
		if pair.RefreshToken, err = s.enc.encrypt(pair.RefreshToken); err != nil {
			return fmt.Errorf("encrypt refresh token failed: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO accounts (user_id, access_token, refresh_token, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	access_token = excluded.access_token,
	refresh_token = excluded.refresh_token,
	updated_at = excluded.updated_at`,
		userID, pair.AccessToken, pair.RefreshToken, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert account failed: %w", err)
	}

	return nil
}
