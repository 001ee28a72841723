package pool

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn wraps a pooled connection with release tracking. Ownership is
// transient and exclusive to the borrower; every borrowed Conn must be
// released exactly once, which Release enforces by ignoring repeat calls.
type Conn struct {
	conn     *pgxpool.Conn
	release  func()
	released bool
}

func newConn(conn *pgxpool.Conn) *Conn {
	return &Conn{conn: conn, release: conn.Release}
}

// Release returns the connection to the pool.
// It is safe to call Release multiple times.
func (c *Conn) Release() {
	if c.released {
		return
	}
	c.released = true
	c.release()
}

// Exec executes sql against the borrowed connection.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.panicIfReleased()
	return c.conn.Exec(ctx, sql, args...)
}

// Query executes a query against the borrowed connection.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.panicIfReleased()
	return c.conn.Query(ctx, sql, args...)
}

// QueryRow executes a single-row query against the borrowed connection.
func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.panicIfReleased()
	return c.conn.QueryRow(ctx, sql, args...)
}

// Begin starts a transaction on the borrowed connection, taking it out of
// autocommit until Commit or Rollback.
func (c *Conn) Begin(ctx context.Context) (pgx.Tx, error) {
	c.panicIfReleased()
	return c.conn.Begin(ctx)
}

func (c *Conn) panicIfReleased() {
	if c.released {
		panic("pool: use of released connection")
	}
}
