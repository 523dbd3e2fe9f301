// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/veridia/veridia/internal/identity"
)

// RegistrationStore implements identity.RegistrationStore using PostgreSQL.
// The four inserts run strictly sequentially inside one transaction; the
// connection backing the transaction is released on every exit path by the
// deferred rollback (a no-op after commit).
type RegistrationStore struct {
	db Gateway
}

// NewRegistrationStore creates a new RegistrationStore.
func NewRegistrationStore(db Gateway) *RegistrationStore {
	return &RegistrationStore{db: db}
}

// CreateAccount creates the document, person, account, and profile assignment
// as one atomic unit. The username pre-check runs inside the transaction; a
// unique-constraint violation at insert time is treated identically
// (identity.ErrDuplicateAccount), making the constraint the authoritative
// tie-breaker for concurrent registrations.
func (s *RegistrationStore) CreateAccount(ctx context.Context, reg *identity.Registration) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return oops.Code("REGISTRATION_TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var one int
	err = tx.QueryRow(ctx, `
		SELECT 1 FROM user_accounts WHERE LOWER(username) = LOWER($1)
	`, reg.Account.Username).Scan(&one)
	if err == nil {
		return oops.Code("REGISTRATION_DUPLICATE").
			With("username", reg.Account.Username).
			Wrap(identity.ErrDuplicateAccount)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return oops.Code("REGISTRATION_CHECK_FAILED").
			With("operation", "check username").
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, number, type_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, reg.Document.ID.String(), reg.Document.Number, reg.Document.TypeID, reg.Document.CreatedAt)
	if err != nil {
		return oops.Code("REGISTRATION_INSERT_FAILED").
			With("operation", "insert document").
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO persons (id, name, last_name, phone, email, address, active, document_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		reg.Person.ID.String(),
		reg.Person.Name,
		reg.Person.LastName,
		reg.Person.Phone,
		reg.Person.Email,
		reg.Person.Address,
		reg.Person.Active,
		reg.Person.DocumentID.String(),
		reg.Person.CreatedAt,
		reg.Person.UpdatedAt,
	)
	if err != nil {
		return oops.Code("REGISTRATION_INSERT_FAILED").
			With("operation", "insert person").
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_accounts (id, username, password_hash, person_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		reg.Account.ID.String(),
		reg.Account.Username,
		reg.Account.PasswordHash,
		reg.Account.PersonID.String(),
		reg.Account.CreatedAt,
		reg.Account.UpdatedAt,
	)
	if err != nil {
		// A concurrent registration may have won the race since the
		// pre-check; the unique constraint is the backstop.
		if isUniqueViolation(err) {
			return oops.Code("REGISTRATION_DUPLICATE").
				With("username", reg.Account.Username).
				Wrap(identity.ErrDuplicateAccount)
		}
		return oops.Code("REGISTRATION_INSERT_FAILED").
			With("operation", "insert user account").
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO profile_assignments (account_id, profile_id, created_at)
		VALUES ($1, $2, $3)
	`, reg.Profile.AccountID.String(), reg.Profile.ProfileID, reg.Profile.CreatedAt)
	if err != nil {
		return oops.Code("REGISTRATION_INSERT_FAILED").
			With("operation", "insert profile assignment").
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("REGISTRATION_TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ identity.RegistrationStore = (*RegistrationStore)(nil)
