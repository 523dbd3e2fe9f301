// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

// Package memory provides an in-memory session store for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/veridia/veridia/internal/identity"
)

// SessionStore is a map-backed identity.SessionStore. Expired sessions are
// dropped lazily on Get.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*identity.Session
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*identity.Session)}
}

// Put stores the session under its token hash.
func (s *SessionStore) Put(_ context.Context, session *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.sessions[session.TokenHash] = &copied
	return nil
}

// Get returns the session stored under tokenHash, or identity.ErrNotFound if
// absent or expired.
func (s *SessionStore) Get(_ context.Context, tokenHash string) (*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[tokenHash]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if session.IsExpired() {
		delete(s.sessions, tokenHash)
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(identity.ErrNotFound)
	}

	copied := *session
	return &copied, nil
}

// Delete removes the session stored under tokenHash, returning
// identity.ErrNotFound when no such session exists.
func (s *SessionStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[tokenHash]; !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	delete(s.sessions, tokenHash)
	return nil
}

// Len reports the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Compile-time interface check.
var _ identity.SessionStore = (*SessionStore)(nil)
