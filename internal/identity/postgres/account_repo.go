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

// AccountRepository implements identity.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db Gateway
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db Gateway) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetCredential resolves a username (case-insensitive) to its stored
// credential material.
func (r *AccountRepository) GetCredential(ctx context.Context, username string) (*identity.Credential, error) {
	row := r.db.QueryRow(ctx, `
		SELECT ua.id, ua.password_hash, pa.profile_id
		FROM user_accounts ua
		JOIN profile_assignments pa ON pa.account_id = ua.id
		WHERE LOWER(ua.username) = LOWER($1)
		ORDER BY pa.created_at
		LIMIT 1
	`, username)

	var (
		idStr        string
		passwordHash string
		profileID    int
	)
	err := row.Scan(&idStr, &passwordHash, &profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_CREDENTIAL_FAILED").
			With("operation", "get credential by username").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	return &identity.Credential{
		AccountID:    id,
		ProfileID:    profileID,
		PasswordHash: passwordHash,
	}, nil
}

// GetIDByEmail resolves an email (case-insensitive) to an account ID.
func (r *AccountRepository) GetIDByEmail(ctx context.Context, email string) (ulid.ULID, error) {
	row := r.db.QueryRow(ctx, `
		SELECT ua.id
		FROM user_accounts ua
		JOIN persons p ON p.id = ua.person_id
		WHERE LOWER(p.email) = LOWER($1)
	`, email)

	var idStr string
	err := row.Scan(&idStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, oops.Code("ACCOUNT_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	return id, nil
}

// List returns a summary of all accounts.
func (r *AccountRepository) List(ctx context.Context) ([]identity.AccountSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ua.id, ua.username, p.name, p.last_name, p.email, pa.profile_id
		FROM user_accounts ua
		JOIN persons p ON p.id = ua.person_id
		JOIN profile_assignments pa ON pa.account_id = ua.id
		ORDER BY ua.created_at
	`)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "list accounts").
			Wrap(err)
	}
	defer rows.Close()

	var summaries []identity.AccountSummary
	for rows.Next() {
		var (
			idStr   string
			summary identity.AccountSummary
		)
		if err := rows.Scan(&idStr, &summary.Username, &summary.Name, &summary.LastName, &summary.Email, &summary.ProfileID); err != nil {
			return nil, oops.Code("ACCOUNT_SCAN_FAILED").
				With("operation", "scan account row").
				Wrap(err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("ACCOUNT_INVALID_ID").
				With("operation", "parse account id").
				With("id", idStr).
				Wrap(err)
		}
		summary.AccountID = id
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_ROWS_ERROR").
			With("operation", "iterate account rows").
			Wrap(err)
	}
	return summaries, nil
}

// UpdateProfile updates the person fields for an account. Document and
// credential columns are never touched.
func (r *AccountRepository) UpdateProfile(ctx context.Context, accountID ulid.ULID, fields identity.ProfileFields) error {
	result, err := r.db.Exec(ctx, `
		UPDATE persons SET
			name = $2,
			last_name = $3,
			phone = $4,
			email = $5,
			address = $6,
			updated_at = $7
		FROM user_accounts ua
		WHERE ua.id = $1 AND persons.id = ua.person_id
	`, accountID.String(), fields.Name, fields.LastName, fields.Phone, fields.Email, fields.Address, time.Now())
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_PROFILE_FAILED").
			With("operation", "update profile").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("account_id", accountID.String()).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// Compile-time interface check.
var _ identity.AccountRepository = (*AccountRepository)(nil)
