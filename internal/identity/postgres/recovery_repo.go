// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/veridia/veridia/internal/identity"
)

// RecoveryTokenRepository implements identity.RecoveryTokenRepository using
// PostgreSQL.
type RecoveryTokenRepository struct {
	db Gateway
}

// NewRecoveryTokenRepository creates a new RecoveryTokenRepository.
func NewRecoveryTokenRepository(db Gateway) *RecoveryTokenRepository {
	return &RecoveryTokenRepository{db: db}
}

// Create persists a new recovery token.
func (r *RecoveryTokenRepository) Create(ctx context.Context, token *identity.RecoveryToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO recovery_tokens (id, account_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token.ID.String(), token.AccountID.String(), token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return oops.Code("RECOVERY_CREATE_FAILED").
			With("operation", "insert recovery token").
			Wrap(err)
	}
	return nil
}

// Consume marks the token consumed and replaces the account's password hash
// in one transaction. The consuming UPDATE is guarded so a token that is
// unknown, already consumed, or past its expiry affects zero rows; that case
// is reported as identity.ErrNotFound and the password is left untouched.
func (r *RecoveryTokenRepository) Consume(ctx context.Context, tokenHash, newPasswordHash string) (ulid.ULID, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return ulid.ULID{}, oops.Code("RECOVERY_TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var accountIDStr string
	err = tx.QueryRow(ctx, `
		UPDATE recovery_tokens
		SET consumed_at = $2
		WHERE token_hash = $1
		  AND consumed_at IS NULL
		  AND expires_at > $2
		RETURNING account_id
	`, tokenHash, time.Now()).Scan(&accountIDStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, oops.Code("RECOVERY_TOKEN_INVALID").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return ulid.ULID{}, oops.Code("RECOVERY_CONSUME_FAILED").
			With("operation", "consume recovery token").
			Wrap(err)
	}

	accountID, err := ulid.Parse(accountIDStr)
	if err != nil {
		return ulid.ULID{}, oops.Code("RECOVERY_INVALID_ID").
			With("operation", "parse account id").
			With("id", accountIDStr).
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE user_accounts SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, accountIDStr, newPasswordHash, time.Now())
	if err != nil {
		return ulid.ULID{}, oops.Code("RECOVERY_PASSWORD_UPDATE_FAILED").
			With("operation", "update password hash").
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ulid.ULID{}, oops.Code("RECOVERY_TX_COMMIT_FAILED").Wrap(err)
	}
	return accountID, nil
}

// DeleteExpired removes tokens past their expiry and returns the count.
// Consumed tokens are retained until they expire so repeated use of a spent
// token stays distinguishable in the audit trail.
func (r *RecoveryTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM recovery_tokens WHERE expires_at <= $1
	`, time.Now())
	if err != nil {
		return 0, oops.Code("RECOVERY_PURGE_FAILED").
			With("operation", "delete expired recovery tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ identity.RecoveryTokenRepository = (*RecoveryTokenRepository)(nil)
