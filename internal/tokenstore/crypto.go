package tokenstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// cryptor encrypts token values before they hit disk. AES-256-GCM with a
// random nonce prepended to the ciphertext, hex-encoded for storage.
type cryptor struct {
	aead cipher.AEAD
}

func newCryptor(hexKey string) (*cryptor, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("hex.DecodeString failed: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher failed: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM failed: %w", err)
	}

	return &cryptor{aead: aead}, nil
}

func (c *cryptor) encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)

	return hex.EncodeToString(sealed), nil
}

func (c *cryptor) decrypt(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}

	raw, err := hex.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("hex.DecodeString failed: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("stored value shorter than nonce")
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]

	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("aead.Open failed: %w", err)
	}

	return string(plain), nil
}
