// Package config handles interpreting the ddstore.json config file.
package config

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultNamespacePrefix is the table-name prefix that marks a table as
// managed by this store. Destructive DDL is refused for any other name.
const DefaultNamespacePrefix = "dd_"

// Config holds the ddstore configuration.
type Config struct {
	// Environments maps an environment name ("default", "staging", ...) to
	// the database it connects to. One connection pool is created per entry.
	Environments map[string]DatabaseConfig `json:"environments"`

	// Executor configures the external SQL-execution program used for raw
	// SQL text. Optional; the driver-based runner needs no executor.
	Executor ExecutorConfig `json:"executor,omitzero"`

	// NamespacePrefix overrides the managed-table prefix. Defaults to "dd_".
	NamespacePrefix string `json:"namespace_prefix,omitempty"`
}

// ParseConfig parses a JSON configuration string and returns a Config.
func ParseConfig(jsonStr string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return nil, err
	}
	if cfg.NamespacePrefix == "" {
		cfg.NamespacePrefix = DefaultNamespacePrefix
	}
	return &cfg, nil
}

// ReadConfigFile reads and parses a configuration file from the given path.
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(string(data))
}

// Validate verifies the configuration is valid:
// - At least one environment is configured
// - Every environment produces a valid pool config
// - All secrets are accessible
// - The executor timeout, if set, parses as a duration
// It does not stop at the first error; all errors are accumulated and
// returned together.
func (c *Config) Validate(ctx context.Context, secrets *SecretCache) error {
	var errs []error

	if len(c.Environments) == 0 {
		errs = append(errs, errors.New("no environments configured"))
	}

	for name, env := range c.Environments {
		if _, err := env.PoolConfig(ctx, secrets); err != nil {
			errs = append(errs, fmt.Errorf("environments[%q]: %w", name, err))
		}
	}

	if err := c.Executor.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("executor: %w", err))
	}

	return errors.Join(errs...)
}

// ExecutorConfig configures the external SQL-execution program.
type ExecutorConfig struct {
	// Program is the path of the SQL-execution binary. When empty, raw SQL
	// must be run through the driver-based runner instead.
	Program string `json:"program,omitempty"`

	// Args are passed to the program before the "sql" subcommand.
	Args []string `json:"args,omitempty"`

	// Timeout bounds a single invocation, e.g. "90s" or "5m".
	// Defaults to 5m. A stalled program is killed when it expires.
	Timeout string `json:"timeout,omitempty"`
}

// DefaultExecutorTimeout bounds one external-program invocation when the
// config does not say otherwise.
const DefaultExecutorTimeout = 5 * time.Minute

// Validate checks the executor settings.
func (e ExecutorConfig) Validate() error {
	if _, err := e.ParseTimeout(); err != nil {
		return err
	}
	return nil
}

// ParseTimeout returns the configured timeout, or DefaultExecutorTimeout
// when unset.
func (e ExecutorConfig) ParseTimeout() (time.Duration, error) {
	if e.Timeout == "" {
		return DefaultExecutorTimeout, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", e.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout %q must be positive", e.Timeout)
	}
	return d, nil
}
