// Package sqlrun executes raw SQL text against a database environment,
// either by delegating to an external SQL-execution program or directly
// through the driver. Scalar results come back as tab-separated text.
package sqlrun

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Runner executes raw SQL text. Implementations must surface every failure
// to the caller synchronously and must never retry.
type Runner interface {
	// RunQueries executes one or more SQL statements. A nil return means
	// the whole text executed successfully.
	RunQueries(ctx context.Context, sql string) error

	// EvalTSV executes a single scalar query and returns the index-th
	// tab-separated field of the first non-empty result line. The trailing
	// statement terminator is stripped before execution.
	EvalTSV(ctx context.Context, sql string, index int) (string, error)
}

// EvalBool evaluates sql and reports whether field 0 is the PostgreSQL
// boolean text literal "t". Any other field value, including "f", "" and
// "true", is false.
func EvalBool(ctx context.Context, r Runner, sql string) (bool, error) {
	return EvalBoolField(ctx, r, sql, 0)
}

// EvalBoolField is EvalBool for an explicit field index.
func EvalBoolField(ctx context.Context, r Runner, sql string, index int) (bool, error) {
	field, err := r.EvalTSV(ctx, sql, index)
	if err != nil {
		return false, err
	}
	return field == "t", nil
}

// EvalInt64 evaluates sql and parses field 0 as an integer.
func EvalInt64(ctx context.Context, r Runner, sql string) (int64, error) {
	return EvalInt64Field(ctx, r, sql, 0)
}

// EvalInt64Field is EvalInt64 for an explicit field index.
func EvalInt64Field(ctx context.Context, r Runner, sql string, index int) (int64, error) {
	field, err := r.EvalTSV(ctx, sql, index)
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, &ConvError{Field: field, Type: "int64", SQL: sql}
	}
	return n, nil
}

// stripTerminator removes surrounding whitespace and one trailing statement
// terminator from a scalar query, as required by the executor's eval mode.
func stripTerminator(sql string) string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSuffix(sql, ";")
	return strings.TrimRight(sql, " \t\r\n")
}

// firstDataLine returns the first non-empty line of execution output. When
// an eval produces several lines (notices, trailing status), the first
// non-empty one carries the requested scalar.
func firstDataLine(output string) (string, bool) {
	for line := range strings.Lines(output) {
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			return line, true
		}
	}
	return "", false
}

// selectField returns the index-th tab-separated field of line.
func selectField(line, sql string, index int) (string, error) {
	fields := strings.Split(line, "\t")
	if index < 0 || index >= len(fields) {
		return "", &ConvError{
			Field: fmt.Sprintf("field %d of %d", index, len(fields)),
			Type:  "tsv field",
			SQL:   sql,
		}
	}
	return fields[index], nil
}
