// Package dialect defines the engine-capability contract each supported
// backend variant implements: quoting, casting, sequence and id assignment,
// concatenation, and statistics. The variant set is closed; there is no
// partially-implemented base to fall back to, so a dialect value always
// answers every capability.
package dialect

import (
	"fmt"
	"strings"

	"github.com/inferlab/ddstore/pkg/capability"
)

// Dialect generates engine-specific SQL text. Implementations are stateless
// and safe for concurrent use.
type Dialect interface {
	// Variant returns the engine variant name this dialect targets.
	Variant() string

	// CreateSequenceFunction returns SQL that (re)creates the named id
	// sequence.
	CreateSequenceFunction(name string) string

	// Cast wraps an expression in a cast to the given SQL type.
	Cast(expr, typ string) string

	// QuoteColumn quotes a column name for use in generated SQL.
	QuoteColumn(name string) string

	// RandomFunction returns the engine's uniform-random expression.
	RandomFunction() string

	// Concat joins expressions into one string expression, with an optional
	// delimiter between elements.
	Concat(exprs []string, delimiter string) string

	// CreateSpecialUDFs returns SQL installing any helper functions the
	// variant needs for id assignment. Empty when the variant needs none.
	CreateSpecialUDFs() string

	// AnalyzeTable returns the statement refreshing planner statistics.
	AnalyzeTable(table string) string

	// AssignIDs returns SQL numbering every row of table consecutively from
	// startID, advancing sequence past the last assigned id.
	AssignIDs(table string, startID int64, sequence string) string

	// AssignIDsOrdered is AssignIDs with ids following the given ORDER BY
	// expression.
	AssignIDsOrdered(table string, startID int64, sequence, orderBy string) string

	// ExistsTable returns a boolean query testing whether table exists.
	ExistsTable(table string) string
}

// ForVariant returns the dialect for an engine variant name as reported by
// the capability probe. Unknown variants are an error; there is no default.
func ForVariant(name string) (Dialect, error) {
	switch name {
	case capability.VariantPostgres:
		return Postgres{}, nil
	case capability.VariantGreenplum:
		return Greenplum{}, nil
	case capability.VariantPostgresXL:
		return PostgresXL{}, nil
	default:
		return nil, fmt.Errorf("unknown backend variant %q", name)
	}
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral renders a SQL string literal, doubling embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// castExpr is the ANSI cast shared by every variant.
func castExpr(expr, typ string) string {
	return fmt.Sprintf("CAST(%s AS %s)", expr, typ)
}

// concatExprs renders string concatenation. With a delimiter the result is
// an array_to_string over an array constructor; without one the expressions
// are joined with the || operator.
func concatExprs(exprs []string, delimiter string) string {
	if delimiter == "" {
		return strings.Join(exprs, " || ")
	}
	return fmt.Sprintf("array_to_string(ARRAY[%s], %s)",
		strings.Join(exprs, ", "), quoteLiteral(delimiter))
}

// existsTableQuery tests table existence via the information schema.
func existsTableQuery(table string) string {
	return fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = %s);",
		quoteLiteral(table))
}
