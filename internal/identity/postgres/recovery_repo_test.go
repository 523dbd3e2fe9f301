// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridia/veridia/internal/identity"
	"github.com/veridia/veridia/internal/identity/postgres"
	"github.com/veridia/veridia/pkg/errutil"
)

func TestRecoveryTokenRepository_Create(t *testing.T) {
	ctx := context.Background()
	accountID := ulid.Make()

	token, err := identity.NewRecoveryToken(accountID, "token-hash", time.Now().Add(time.Hour))
	require.NoError(t, err)

	t.Run("inserts token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO recovery_tokens`).
			WithArgs(token.ID.String(), token.AccountID.String(), token.TokenHash,
				token.ExpiresAt, token.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := postgres.NewRecoveryTokenRepository(mock)
		require.NoError(t, repo.Create(ctx, token))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure surfaces", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO recovery_tokens`).
			WithArgs(token.ID.String(), token.AccountID.String(), token.TokenHash,
				token.ExpiresAt, token.CreatedAt).
			WillReturnError(errors.New("unique violation"))

		repo := postgres.NewRecoveryTokenRepository(mock)
		err = repo.Create(ctx, token)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RECOVERY_CREATE_FAILED")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecoveryTokenRepository_Consume(t *testing.T) {
	ctx := context.Background()
	accountID := ulid.Make()

	t.Run("consumes token and updates password atomically", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE recovery_tokens`).
			WithArgs("token-hash", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"account_id"}).AddRow(accountID.String()))
		mock.ExpectExec(`UPDATE user_accounts SET password_hash`).
			WithArgs(accountID.String(), "new-hash", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		repo := postgres.NewRecoveryTokenRepository(mock)
		got, err := repo.Consume(ctx, "token-hash", "new-hash")
		require.NoError(t, err)
		assert.Equal(t, accountID, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("spent or expired token reports not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE recovery_tokens`).
			WithArgs("spent-hash", pgxmock.AnyArg()).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		repo := postgres.NewRecoveryTokenRepository(mock)
		_, err = repo.Consume(ctx, "spent-hash", "new-hash")
		require.Error(t, err)
		assert.ErrorIs(t, err, identity.ErrNotFound)
		errutil.AssertErrorCode(t, err, "RECOVERY_TOKEN_INVALID")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("password update failure rolls back the consume", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE recovery_tokens`).
			WithArgs("token-hash", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"account_id"}).AddRow(accountID.String()))
		mock.ExpectExec(`UPDATE user_accounts SET password_hash`).
			WithArgs(accountID.String(), "new-hash", pgxmock.AnyArg()).
			WillReturnError(errors.New("connection lost"))
		mock.ExpectRollback()

		repo := postgres.NewRecoveryTokenRepository(mock)
		_, err = repo.Consume(ctx, "token-hash", "new-hash")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RECOVERY_PASSWORD_UPDATE_FAILED")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecoveryTokenRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("returns purge count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM recovery_tokens`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("DELETE", 4))

		repo := postgres.NewRecoveryTokenRepository(mock)
		count, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete failure surfaces", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM recovery_tokens`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnError(errors.New("timeout"))

		repo := postgres.NewRecoveryTokenRepository(mock)
		_, err = repo.DeleteExpired(ctx)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RECOVERY_PURGE_FAILED")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
