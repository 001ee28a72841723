// Package capability detects the engine variant and feature availability of
// a database environment via catalog and version queries.
package capability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/inferlab/ddstore/pkg/sqlrun"
)

// Engine variant names as reported by Variant and consumed by the dialect
// registry.
const (
	VariantPostgres   = "postgres"
	VariantGreenplum  = "greenplum"
	VariantPostgresXL = "postgres-xl"
)

// Probe answers capability questions about one database environment.
//
// Catalog-existence and Greenplum probes hit the database on every call.
// The Postgres-XL flag is computed at most once and treated as constant for
// the process lifetime afterwards, even if a later direct version probe
// would answer differently. Only a successful probe is cached; a transient
// failure surfaces to the caller and the next call probes again.
type Probe struct {
	runner sqlrun.Runner
	logger *slog.Logger

	xl struct {
		mu   sync.Mutex
		done bool
		val  bool
	}
}

// NewProbe creates a probe over the given runner.
func NewProbe(runner sqlrun.Runner, logger *slog.Logger) *Probe {
	return &Probe{runner: runner, logger: logger}
}

// ExistsLanguage reports whether the procedural language is installed.
// Recomputed on every call.
func (p *Probe) ExistsLanguage(ctx context.Context, name string) (bool, error) {
	sql := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM pg_language WHERE lanname = %s);",
		quoteLiteral(name))
	return sqlrun.EvalBool(ctx, p.runner, sql)
}

// ExistsFunction reports whether a function with the given name exists.
// Recomputed on every call.
func (p *Probe) ExistsFunction(ctx context.Context, name string) (bool, error) {
	sql := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = %s);",
		quoteLiteral(name))
	return sqlrun.EvalBool(ctx, p.runner, sql)
}

// IsGreenplum reports whether the environment is a Greenplum cluster.
// Recomputed on every call.
func (p *Probe) IsGreenplum(ctx context.Context) (bool, error) {
	version, err := p.version(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(version, "Greenplum"), nil
}

// IsPostgresXL reports whether the environment is a Postgres-XL cluster.
// The answer is computed at most once per process. A failed version query is
// not cached: the error is returned and the next call retries the probe.
func (p *Probe) IsPostgresXL(ctx context.Context) (bool, error) {
	p.xl.mu.Lock()
	defer p.xl.mu.Unlock()

	if p.xl.done {
		return p.xl.val, nil
	}

	version, err := p.version(ctx)
	if err != nil {
		return false, err
	}

	p.xl.val = strings.Contains(version, "Postgres-XL")
	p.xl.done = true
	p.logger.Debug("detected engine", "postgres_xl", p.xl.val)
	return p.xl.val, nil
}

// Unlogged returns the unlogged-table modifier for generated CREATE TABLE
// statements: "UNLOGGED " on Postgres-XL, empty otherwise.
func (p *Probe) Unlogged(ctx context.Context) (string, error) {
	xl, err := p.IsPostgresXL(ctx)
	if err != nil {
		return "", err
	}
	if xl {
		return "UNLOGGED ", nil
	}
	return "", nil
}

// Variant returns the engine variant name for dialect selection.
func (p *Probe) Variant(ctx context.Context) (string, error) {
	if xl, err := p.IsPostgresXL(ctx); err != nil {
		return "", err
	} else if xl {
		return VariantPostgresXL, nil
	}

	if gp, err := p.IsGreenplum(ctx); err != nil {
		return "", err
	} else if gp {
		return VariantGreenplum, nil
	}

	return VariantPostgres, nil
}

func (p *Probe) version(ctx context.Context) (string, error) {
	return p.runner.EvalTSV(ctx, "SELECT version();", 0)
}

// quoteLiteral renders a SQL string literal with embedded quotes doubled.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
