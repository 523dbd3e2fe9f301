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

// RecoveryService issues and redeems password recovery tokens.
type RecoveryService struct {
	accounts AccountRepository
	tokens   RecoveryTokenRepository
	hasher   PasswordHasher
	notifier Notifier
	logger   *slog.Logger
}

// NewRecoveryService creates a new RecoveryService.
func NewRecoveryService(accounts AccountRepository, tokens RecoveryTokenRepository, hasher PasswordHasher, notifier Notifier) (*RecoveryService, error) {
	return NewRecoveryServiceWithLogger(accounts, tokens, hasher, notifier, slog.Default())
}

// NewRecoveryServiceWithLogger creates a RecoveryService with an explicit logger.
func NewRecoveryServiceWithLogger(accounts AccountRepository, tokens RecoveryTokenRepository, hasher PasswordHasher, notifier Notifier, logger *slog.Logger) (*RecoveryService, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("recovery token repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &RecoveryService{
		accounts: accounts,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Request issues a recovery token for the account matching email and hands it
// to the notifier for delivery.
// Fails with RECOVERY_ACCOUNT_NOT_FOUND when no account matches. A delivery
// failure is reported as RECOVERY_DELIVERY_FAILED but does not invalidate the
// issued token; issuance and delivery are independent operations.
func (s *RecoveryService) Request(ctx context.Context, email string) error {
	accountID, err := s.accounts.GetIDByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Wrap the bare sentinel so the inner repo code does not win.
			return oops.Code("RECOVERY_ACCOUNT_NOT_FOUND").Wrap(ErrNotFound)
		}
		return oops.Code("RECOVERY_REQUEST_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	token, hash, err := GenerateRecoveryToken()
	if err != nil {
		return oops.Code("RECOVERY_REQUEST_FAILED").
			With("operation", "generate token").
			Wrap(err)
	}

	rec, err := NewRecoveryToken(accountID, hash, time.Now().Add(RecoveryTokenExpiry))
	if err != nil {
		return oops.Code("RECOVERY_REQUEST_FAILED").
			With("operation", "build token").
			Wrap(err)
	}

	if err := s.tokens.Create(ctx, rec); err != nil {
		return oops.Code("RECOVERY_REQUEST_FAILED").
			With("operation", "persist token").
			Wrap(err)
	}

	if err := s.notifier.SendRecovery(ctx, email, token); err != nil {
		s.logger.Warn("recovery delivery failed, token remains valid",
			"operation", "send_recovery",
			"token_id", rec.ID.String(),
			"error", err.Error(),
		)
		return oops.Code("RECOVERY_DELIVERY_FAILED").
			With("token_id", rec.ID.String()).
			Wrap(err)
	}

	s.logger.Info("recovery token issued", "token_id", rec.ID.String())
	return nil
}

// Reset redeems a recovery token and changes the account password.
// The token consume and the password update happen as one atomic unit in the
// repository. An unknown, consumed, or expired token fails with
// RECOVERY_TOKEN_INVALID and leaves the password digest unchanged.
func (s *RecoveryService) Reset(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return oops.Code("RECOVERY_TOKEN_INVALID").Errorf("new password cannot be empty")
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RECOVERY_RESET_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	accountID, err := s.tokens.Consume(ctx, HashRecoveryToken(token), newHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RECOVERY_TOKEN_INVALID").Wrap(ErrNotFound)
		}
		return oops.Code("RECOVERY_RESET_FAILED").
			With("operation", "consume token").
			Wrap(err)
	}

	s.logger.Info("password reset completed", "account_id", accountID.String())
	return nil
}

// PurgeExpired removes expired recovery tokens and returns the count deleted.
func (s *RecoveryService) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("RECOVERY_PURGE_FAILED").Wrap(err)
	}
	if count > 0 {
		s.logger.Info("expired recovery tokens purged", "count", count)
	}
	return count, nil
}
