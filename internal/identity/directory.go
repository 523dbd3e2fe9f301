// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Directory provides read/update operations over existing accounts.
// These are single-statement operations with no cross-entity atomicity.
type Directory struct {
	accounts AccountRepository
	logger   *slog.Logger
}

// NewDirectory creates a new Directory.
func NewDirectory(accounts AccountRepository) (*Directory, error) {
	return NewDirectoryWithLogger(accounts, slog.Default())
}

// NewDirectoryWithLogger creates a Directory with an explicit logger.
func NewDirectoryWithLogger(accounts AccountRepository, logger *slog.Logger) (*Directory, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Directory{accounts: accounts, logger: logger}, nil
}

// ListAccounts returns all account summaries available at call time.
func (d *Directory) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	summaries, err := d.accounts.List(ctx)
	if err != nil {
		return nil, oops.Code("DIRECTORY_LIST_FAILED").
			With("operation", "list accounts").
			Wrap(err)
	}
	return summaries, nil
}

// UpdateProfile updates the person fields for an account.
// Document and credential data are never touched by this path.
func (d *Directory) UpdateProfile(ctx context.Context, accountID ulid.ULID, fields ProfileFields) error {
	if err := d.accounts.UpdateProfile(ctx, accountID, fields); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").
				With("account_id", accountID.String()).
				Wrap(ErrNotFound)
		}
		return oops.Code("DIRECTORY_UPDATE_FAILED").
			With("operation", "update profile").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return nil
}
