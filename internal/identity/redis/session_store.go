// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

// Package redis provides a Redis-backed implementation of the identity
// session store. Sessions live only here; expiry is enforced by Redis key
// TTLs so no reaper process is needed.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/veridia/veridia/internal/identity"
)

const keyPrefix = "session:"

// SessionStore implements identity.SessionStore on a Redis client.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client) (*SessionStore, error) {
	if client == nil {
		return nil, oops.Errorf("redis client is required")
	}
	return &SessionStore{client: client}, nil
}

// Put stores the session under its token hash with a TTL matching the
// session expiry. A session that is already expired is rejected rather than
// written with a non-positive TTL.
func (s *SessionStore) Put(ctx context.Context, session *identity.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return oops.Code("SESSION_STORE_FAILED").
			Errorf("session already expired")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return oops.Code("SESSION_STORE_FAILED").
			With("operation", "marshal session").
			Wrap(err)
	}

	if err := s.client.Set(ctx, keyPrefix+session.TokenHash, payload, ttl).Err(); err != nil {
		return oops.Code("SESSION_STORE_FAILED").
			With("operation", "set session key").
			Wrap(err)
	}
	return nil
}

// Get returns the session stored under tokenHash, or identity.ErrNotFound if
// the key is absent or has expired.
func (s *SessionStore) Get(ctx context.Context, tokenHash string) (*identity.Session, error) {
	payload, err := s.client.Get(ctx, keyPrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session key").
			Wrap(err)
	}

	var session identity.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "unmarshal session").
			Wrap(err)
	}
	return &session, nil
}

// Delete removes the session stored under tokenHash. Deleting an absent key
// returns identity.ErrNotFound so callers can distinguish a no-op teardown.
func (s *SessionStore) Delete(ctx context.Context, tokenHash string) error {
	deleted, err := s.client.Del(ctx, keyPrefix+tokenHash).Result()
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session key").
			Wrap(err)
	}
	if deleted == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	return nil
}

// Compile-time interface check.
var _ identity.SessionStore = (*SessionStore)(nil)
