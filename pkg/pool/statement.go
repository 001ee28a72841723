package pool

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BindFunc produces the argument values for one parametrized statement
// execution. It runs after the transaction is open so it may do work that
// must be paired with the write, and returning an error aborts the
// transaction before anything executes.
type BindFunc func() ([]any, error)

// txBeginner is the narrow connection surface the statement executor needs.
// *Conn satisfies it; it is split out, like withConn, so the transaction
// protocol can be exercised without a live pool.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ExecPrepared runs a single parametrized statement inside an explicit
// transaction on a borrowed connection:
//
//	borrow -> begin (autocommit off) -> bind -> exec -> commit -> release
//
// The connection is released on every exit path. Failures are logged and
// returned to the caller; nothing here retries.
func (m *Manager) ExecPrepared(ctx context.Context, env, sql string, bind BindFunc) error {
	err := m.WithConn(ctx, env, func(conn *Conn) error {
		return execPrepared(ctx, conn, sql, bind)
	})

	if err != nil {
		m.logger.Error("prepared statement failed", "environment", env, "sql", sql, "error", err)
		return err
	}
	return nil
}

// execPrepared drives the transaction. The deferred rollback makes failure
// handling explicit rather than relying on the server aborting an open
// transaction when the connection closes; after a successful commit it is a
// no-op.
func execPrepared(ctx context.Context, conn txBeginner, sql string, bind BindFunc) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	args, err := bind()
	if err != nil {
		return fmt.Errorf("failed to bind statement values: %w", err)
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("statement failed: %w", err)
	}

	return tx.Commit(ctx)
}
