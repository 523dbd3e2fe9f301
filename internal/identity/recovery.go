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

// Recovery token configuration.
const (
	RecoveryTokenBytes  = 32        // 32 bytes = 64 hex chars
	RecoveryTokenExpiry = time.Hour // fixed 1 hour validity window
)

// RecoveryToken is a single-use, time-bounded password recovery token.
// A token transitions Issued -> Consumed exactly once, or expires.
type RecoveryToken struct {
	ID         ulid.ULID
	AccountID  ulid.ULID
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	ConsumedAt *time.Time
}

// NewRecoveryToken creates a validated RecoveryToken instance.
func NewRecoveryToken(accountID ulid.ULID, tokenHash string, expiresAt time.Time) (*RecoveryToken, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("RECOVERY_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("RECOVERY_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("RECOVERY_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	return &RecoveryToken{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpired returns true if the token has expired.
func (t *RecoveryToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsConsumed returns true if the token has already authorized a password change.
func (t *RecoveryToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// GenerateRecoveryToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is delivered to the user; the hash is stored.
func GenerateRecoveryToken() (token, hash string, err error) {
	tokenBytes := make([]byte, RecoveryTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("RECOVERY_TOKEN_GENERATE_FAILED").Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashRecoveryToken(token)

	return token, hash, nil
}

// HashRecoveryToken computes the SHA256 hash of a recovery token.
func HashRecoveryToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// RecoveryTokenRepository manages recovery token persistence.
type RecoveryTokenRepository interface {
	// Create stores a newly issued token.
	Create(ctx context.Context, token *RecoveryToken) error

	// Consume marks the token Consumed and updates the account's password
	// digest as one atomic unit. Returns the account ID on success, or
	// ErrNotFound (wrapped) when the token is unknown, already consumed, or
	// expired. The conditional consume is the authoritative tie-breaker for
	// concurrent redemptions.
	Consume(ctx context.Context, tokenHash, newPasswordHash string) (ulid.ULID, error)

	// DeleteExpired removes expired tokens and returns the count deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}

// Notifier delivers a recovery token to an account's email address.
// Delivery is independent of issuance: a failed delivery does not invalidate
// the issued token.
type Notifier interface {
	SendRecovery(ctx context.Context, email, token string) error
}
