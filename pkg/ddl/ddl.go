package ddl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inferlab/ddstore/pkg/capability"
	"github.com/inferlab/ddstore/pkg/dialect"
	"github.com/inferlab/ddstore/pkg/sqlrun"
)

// DDL executes guarded schema operations for one database environment. All
// destructive helpers check the namespace guard before any SQL is generated
// or dispatched.
type DDL struct {
	runner  sqlrun.Runner
	guard   Guard
	probe   *capability.Probe
	dialect dialect.Dialect
	logger  *slog.Logger
}

// New assembles a DDL helper from its collaborators.
func New(runner sqlrun.Runner, guard Guard, probe *capability.Probe, d dialect.Dialect, logger *slog.Logger) *DDL {
	return &DDL{runner: runner, guard: guard, probe: probe, dialect: d, logger: logger}
}

// DropAndCreateTable drops the table if it exists and recreates it from the
// given column definition text. On Postgres-XL the table is created
// UNLOGGED, since pipeline tables are rebuilt from scratch on every run.
func (d *DDL) DropAndCreateTable(ctx context.Context, name, schema string) error {
	if err := d.guard.CheckTableNamespace(name); err != nil {
		return err
	}

	unlogged, err := d.probe.Unlogged(ctx)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE; CREATE %sTABLE %s (%s);",
		name, unlogged, name, schema)
	return d.runner.RunQueries(ctx, sql)
}

// DropAndCreateTableAs drops the table if it exists and recreates it from
// the result of the given query.
func (d *DDL) DropAndCreateTableAs(ctx context.Context, name, query string) error {
	if err := d.guard.CheckTableNamespace(name); err != nil {
		return err
	}

	unlogged, err := d.probe.Unlogged(ctx)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE; CREATE %sTABLE %s AS %s;",
		name, unlogged, name, query)
	return d.runner.RunQueries(ctx, sql)
}

// CreateTableIfNotExists creates the table from column definition text when
// it does not already exist. Non-destructive, but still guarded so pipeline
// code cannot create stray objects outside the namespace.
func (d *DDL) CreateTableIfNotExists(ctx context.Context, name, schema string) error {
	if err := d.guard.CheckTableNamespace(name); err != nil {
		return err
	}

	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", name, schema)
	return d.runner.RunQueries(ctx, sql)
}

// CreateTableIfNotExistsLike creates the table copying another table's
// structure when it does not already exist.
func (d *DDL) CreateTableIfNotExistsLike(ctx context.Context, name, source string) error {
	if err := d.guard.CheckTableNamespace(name); err != nil {
		return err
	}

	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (LIKE %s);", name, source)
	return d.runner.RunQueries(ctx, sql)
}

// DropTable drops the table if it exists.
func (d *DDL) DropTable(ctx context.Context, name string) error {
	if err := d.guard.CheckTableNamespace(name); err != nil {
		return err
	}

	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", name)
	return d.runner.RunQueries(ctx, sql)
}

// AnalyzeTable refreshes planner statistics for the table using the
// engine-appropriate statement.
func (d *DDL) AnalyzeTable(ctx context.Context, name string) error {
	if err := d.guard.CheckTableNamespace(name); err != nil {
		return err
	}

	d.logger.Debug("analyzing table", "table", name)
	return d.runner.RunQueries(ctx, d.dialect.AnalyzeTable(name))
}
