// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// dummyPasswordHash is used when a username doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// CredentialValidator checks username/password pairs against stored credentials.
type CredentialValidator struct {
	accounts AccountRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewCredentialValidator creates a new CredentialValidator.
func NewCredentialValidator(accounts AccountRepository, hasher PasswordHasher) (*CredentialValidator, error) {
	return NewCredentialValidatorWithLogger(accounts, hasher, slog.Default())
}

// NewCredentialValidatorWithLogger creates a CredentialValidator with an explicit logger.
func NewCredentialValidatorWithLogger(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*CredentialValidator, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &CredentialValidator{accounts: accounts, hasher: hasher, logger: logger}, nil
}

// Validate checks the pair against stored credentials.
// Returns (nil, nil) on non-match so callers can tell bad credentials apart
// from infrastructure failure. An unknown username and a wrong password are
// indistinguishable to the caller, and verification runs against a dummy
// digest for unknown usernames to keep response time consistent.
func (v *CredentialValidator) Validate(ctx context.Context, username, password string) (*AccountIdentity, error) {
	cred, lookupErr := v.accounts.GetCredential(ctx, username)

	targetHash := dummyPasswordHash
	known := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_VALIDATE_FAILED").
				With("operation", "get credential").
				Wrap(lookupErr)
		}
	} else {
		targetHash = cred.PasswordHash
		known = true
	}

	valid, verifyErr := v.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// Dummy hash verification errors just mean no match.
		if !known {
			return nil, nil
		}
		return nil, oops.Code("AUTH_VALIDATE_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !known || !valid {
		return nil, nil
	}

	return &AccountIdentity{AccountID: cred.AccountID, ProfileID: cred.ProfileID}, nil
}
