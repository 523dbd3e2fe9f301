// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// SessionManager issues and destroys server-side sessions.
//
// Session contents are never logged; only session IDs appear in log output.
type SessionManager struct {
	store  SessionStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionManager creates a new SessionManager. A non-positive ttl falls
// back to DefaultSessionTTL.
func NewSessionManager(store SessionStore, ttl time.Duration) (*SessionManager, error) {
	return NewSessionManagerWithLogger(store, ttl, slog.Default())
}

// NewSessionManagerWithLogger creates a SessionManager with an explicit logger.
func NewSessionManagerWithLogger(store SessionStore, ttl time.Duration, logger *slog.Logger) (*SessionManager, error) {
	if store == nil {
		return nil, oops.Errorf("session store is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{store: store, ttl: ttl, logger: logger}, nil
}

// Create builds a session for a validated identity and persists it.
// Returns the session and the plaintext token to hand to the client.
// The session exists only once the store write has succeeded; on store
// failure no session is considered to exist even though credentials were
// valid (fail-closed).
func (m *SessionManager) Create(ctx context.Context, ident AccountIdentity) (*Session, string, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(ident, tokenHash, time.Now().Add(m.ttl))
	if err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "build session").
			Wrap(err)
	}

	if err := m.store.Put(ctx, session); err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	m.logger.Info("session created", "session_id", session.ID.String())
	return session, token, nil
}

// Destroy removes the session identified by the plaintext token.
// Destroying an absent session is not an infrastructure error: it yields a
// SESSION_NOT_ACTIVE failure wrapping ErrNotFound so callers can report it
// distinctly and still clear the client-side handle.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return oops.Code("SESSION_NOT_ACTIVE").Wrap(ErrNotFound)
	}

	err := m.store.Delete(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Wrap the bare sentinel: oops reports the deepest code in the
			// chain, so wrapping the store error would keep its code.
			return oops.Code("SESSION_NOT_ACTIVE").Wrap(ErrNotFound)
		}
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// Resolve returns the live session for a plaintext token.
// Returns a SESSION_NOT_ACTIVE failure for unknown or expired tokens.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_NOT_ACTIVE").Wrap(ErrNotFound)
	}

	session, err := m.store.Get(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_NOT_ACTIVE").Wrap(ErrNotFound)
		}
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get session").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, oops.Code("SESSION_NOT_ACTIVE").Wrap(ErrNotFound)
	}
	return session, nil
}
