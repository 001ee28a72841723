package sqlrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inferlab/ddstore/pkg/pool"
)

// DriverRunner executes SQL directly through the driver over a pooled
// connection, with the same contract as ProcessRunner: multi-statement text
// via RunQueries, scalar extraction via EvalTSV. Result values are rendered
// in PostgreSQL text format so scalar handling matches the external
// program's output (booleans as "t"/"f", NULL as the empty string).
type DriverRunner struct {
	manager *pool.Manager
	env     string
	logger  *slog.Logger
}

// NewDriverRunner creates a runner bound to one environment of the manager.
func NewDriverRunner(manager *pool.Manager, env string, logger *slog.Logger) *DriverRunner {
	return &DriverRunner{manager: manager, env: env, logger: logger}
}

// RunQueries executes the SQL text on a borrowed connection. pgx runs
// multi-statement text in an implicit transaction, matching the external
// program's single-invocation semantics.
func (d *DriverRunner) RunQueries(ctx context.Context, sql string) error {
	d.logger.Info("executing sql", "environment", d.env, "sql", sql)

	err := d.manager.WithConn(ctx, d.env, func(conn *pool.Conn) error {
		_, err := conn.Exec(ctx, sql)
		return err
	})
	if err != nil {
		return driverExecError(err, sql)
	}
	return nil
}

// EvalTSV executes a scalar query and returns the index-th field of the
// first result row, formatted as tab-separated text.
func (d *DriverRunner) EvalTSV(ctx context.Context, sql string, index int) (string, error) {
	stripped := stripTerminator(sql)
	d.logger.Debug("evaluating sql", "environment", d.env, "sql", stripped)

	var line string
	err := d.manager.WithConn(ctx, d.env, func(conn *pool.Conn) error {
		rows, err := conn.Query(ctx, stripped)
		if err != nil {
			return err
		}
		defer rows.Close()

		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return &ConvError{Field: "", Type: "tsv line", SQL: sql}
		}

		values, err := rows.Values()
		if err != nil {
			return err
		}

		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = formatTextValue(v)
		}
		line = strings.Join(fields, "\t")
		return nil
	})
	if err != nil {
		var convErr *ConvError
		if errors.As(err, &convErr) {
			return "", convErr
		}
		return "", driverExecError(err, sql)
	}

	return selectField(line, sql, index)
}

// formatTextValue renders a driver value the way the server's text protocol
// would, so both runners agree on scalar text.
func formatTextValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "t"
		}
		return "f"
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// driverExecError maps a driver failure to the ExecError contract. Server
// errors carry their SQLSTATE; anything else (resource errors, cancels)
// propagates unchanged.
func driverExecError(err error, sql string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	code := 1
	if pgerrcode.IsSyntaxErrororAccessRuleViolation(pgErr.Code) {
		code = 2
	}
	return &ExecError{
		ExitCode: code,
		SQL:      sql,
		Err:      fmt.Errorf("%s: %w", pgErr.Code, err),
	}
}
