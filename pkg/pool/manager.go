// Package pool manages the process-wide connection pools, one per
// configured database environment.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inferlab/ddstore/pkg/config"
)

// Manager owns one pgx pool per configured environment. It is an explicit
// handle: callers that need connections hold a *Manager rather than reaching
// for package-level state, so tests and multi-instance deployments can run
// several managers side by side.
//
// Acquire/Release on the underlying pools is safe for concurrent use; the
// environment map itself is guarded for the Close path.
type Manager struct {
	logger *slog.Logger

	mu    sync.RWMutex
	pools map[string]*pgxpool.Pool
}

// NewManager creates the pools for every configured environment eagerly so
// min-idle settings take effect at startup. On any failure the pools created
// so far are closed and the error is returned; NewManager is not idempotent
// and is expected to run once at process start.
func NewManager(ctx context.Context, cfg *config.Config, secrets *config.SecretCache, logger *slog.Logger) (*Manager, error) {
	m := &Manager{
		logger: logger,
		pools:  make(map[string]*pgxpool.Pool),
	}

	for name, env := range cfg.Environments {
		poolCfg, err := env.PoolConfig(ctx, secrets)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("environment %q: failed to create pool: %w", name, err)
		}

		m.pools[name] = pool
		logger.Info("created connection pool",
			"environment", name,
			"host", env.Host,
			"database", env.Database,
			"max_conns", env.PoolMaxConns)
	}

	return m, nil
}

// Pool returns the pool for the given environment.
func (m *Manager) Pool(env string) (*pgxpool.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pool, ok := m.pools[env]
	if !ok {
		return nil, fmt.Errorf("no pool for environment %q", env)
	}
	return pool, nil
}

// Acquire borrows a connection from the environment's pool. The caller owns
// the connection until it calls Release, and must release it on every exit
// path. Prefer WithConn, which does this for you.
func (m *Manager) Acquire(ctx context.Context, env string) (*Conn, error) {
	pool, err := m.Pool(env)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for %q: %w", env, err)
	}

	return newConn(conn), nil
}

// WithConn borrows a connection, runs fn, and releases the connection on
// every exit path: normal return, error, or panic.
func (m *Manager) WithConn(ctx context.Context, env string, fn func(*Conn) error) error {
	conn, err := m.Acquire(ctx, env)
	if err != nil {
		return err
	}
	return withConn(conn, fn)
}

// withConn is split out from WithConn so the release-on-every-path behavior
// can be exercised without a live pool.
func withConn(conn *Conn, fn func(*Conn) error) error {
	defer conn.Release()
	return fn(conn)
}

// Close releases every pooled connection and tears down all pools. The
// manager is unusable afterwards; this is terminal and process-wide.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, pool := range m.pools {
		pool.Close()
		m.logger.Info("closed connection pool", "environment", name)
	}
	m.pools = make(map[string]*pgxpool.Pool)
}
