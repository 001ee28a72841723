package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseConfig describes one database environment and its pool settings.
// Pool settings map onto pgxpool's keyword/value connection string options.
type DatabaseConfig struct {
	Host     string  `json:"host"`
	Port     *uint16 `json:"port,omitempty"`
	Database string  `json:"database"`

	User     SecretRef `json:"user"`
	Password SecretRef `json:"password"`

	// ConnectTimeout is in seconds, per libpq convention.
	ConnectTimeout *string `json:"connect_timeout,omitempty"`
	SSLMode        *string `json:"ssl_mode,omitempty"`

	PoolMaxConns        int32   `json:"pool_max_conns"`
	PoolMinIdleConns    *int32  `json:"pool_min_idle_conns,omitempty"`
	PoolMaxConnLifetime *string `json:"pool_max_conn_lifetime,omitempty"`
	PoolMaxConnIdleTime *string `json:"pool_max_conn_idle_time,omitempty"`
}

// PoolConfigString builds the keyword/value connection string for this
// environment, without credentials. Credentials are resolved separately and
// set on the parsed config so secret values never pass through string
// formatting.
func (d DatabaseConfig) PoolConfigString() string {
	var parts []string
	add := func(key, value string) {
		parts = append(parts, key+"="+quoteConnValue(value))
	}

	add("host", d.Host)
	if d.Port != nil {
		add("port", fmt.Sprintf("%d", *d.Port))
	}
	add("dbname", d.Database)
	if d.ConnectTimeout != nil {
		add("connect_timeout", *d.ConnectTimeout)
	}
	if d.SSLMode != nil {
		add("sslmode", *d.SSLMode)
	}

	add("pool_max_conns", fmt.Sprintf("%d", d.PoolMaxConns))
	if d.PoolMinIdleConns != nil {
		add("pool_min_idle_conns", fmt.Sprintf("%d", *d.PoolMinIdleConns))
	}
	if d.PoolMaxConnLifetime != nil {
		add("pool_max_conn_lifetime", *d.PoolMaxConnLifetime)
	}
	if d.PoolMaxConnIdleTime != nil {
		add("pool_max_conn_idle_time", *d.PoolMaxConnIdleTime)
	}

	return strings.Join(parts, " ")
}

// PoolConfig builds a pgxpool.Config for this environment, resolving the
// user and password secrets.
func (d DatabaseConfig) PoolConfig(ctx context.Context, secrets *SecretCache) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(d.PoolConfigString())
	if err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	user, err := secrets.Get(ctx, d.User)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	password, err := secrets.Get(ctx, d.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to get password: %w", err)
	}

	cfg.ConnConfig.User = user
	cfg.ConnConfig.Password = password
	return cfg, nil
}

// quoteConnValue quotes a keyword/value connection string value when it
// contains spaces or quotes, per libpq rules.
func quoteConnValue(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
