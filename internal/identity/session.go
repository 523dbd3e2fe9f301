// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes  = 32             // 32 bytes = 64 hex chars
	DefaultSessionTTL  = 24 * time.Hour // default session lifetime
	SessionTokenLength = SessionTokenBytes * 2
)

// Session is a server-side session bound to a validated account identity.
// Sessions live only in the session store, never in the relational store.
type Session struct {
	ID        ulid.ULID `json:"id"`
	AccountID ulid.ULID `json:"account_id"`
	ProfileID int       `json:"profile_id"`
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession creates a validated Session instance.
func NewSession(ident AccountIdentity, tokenHash string, expiresAt time.Time) (*Session, error) {
	if ident.AccountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	return &Session{
		ID:        ulid.Make(),
		AccountID: ident.AccountID,
		ProfileID: ident.ProfileID,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is handed to the client; only the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(token)

	return token, hash, nil
}

// HashSessionToken computes the SHA256 hash of a session token.
// The store is keyed by this hash so a store dump never exposes live handles.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionStore persists sessions keyed by token hash.
type SessionStore interface {
	// Put stores a session. The write must be durable before Put returns.
	Put(ctx context.Context, session *Session) error

	// Get retrieves a session by its token hash.
	// Returns ErrNotFound if no live session matches.
	Get(ctx context.Context, tokenHash string) (*Session, error)

	// Delete removes a session by its token hash.
	// Returns ErrNotFound if no live session matches.
	Delete(ctx context.Context, tokenHash string) error
}
