// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

// Package postgres provides PostgreSQL implementations of the identity stores.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Gateway abstracts parameterized statement execution and transaction
// control. It is satisfied by both *pgxpool.Pool and pgxmock.PgxPoolIface so
// repository and coordinator logic is testable without a real database.
type Gateway interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
