package dialect

import (
	"fmt"

	"github.com/inferlab/ddstore/pkg/capability"
)

// Postgres targets a standard single-node PostgreSQL server. Rows have
// unique ctids, so id assignment can update in place against a row_number
// window.
type Postgres struct{}

func (Postgres) Variant() string { return capability.VariantPostgres }

func (Postgres) CreateSequenceFunction(name string) string {
	return fmt.Sprintf("DROP SEQUENCE IF EXISTS %s CASCADE; CREATE SEQUENCE %s MINVALUE -1 START 1;", name, name)
}

func (Postgres) Cast(expr, typ string) string { return castExpr(expr, typ) }

func (Postgres) QuoteColumn(name string) string { return quoteIdent(name) }

func (Postgres) RandomFunction() string { return "RANDOM()" }

func (Postgres) Concat(exprs []string, delimiter string) string {
	return concatExprs(exprs, delimiter)
}

// CreateSpecialUDFs returns nothing: plain PostgreSQL assigns ids with
// ordinary sequences and window functions, no helper functions required.
func (Postgres) CreateSpecialUDFs() string { return "" }

func (Postgres) AnalyzeTable(table string) string {
	return fmt.Sprintf("ANALYZE %s;", table)
}

func (Postgres) AssignIDs(table string, startID int64, sequence string) string {
	return fmt.Sprintf(
		"SELECT setval(%s, %d, false); UPDATE %s SET id = nextval(%s);",
		quoteLiteral(sequence), startID, table, quoteLiteral(sequence))
}

func (Postgres) AssignIDsOrdered(table string, startID int64, sequence, orderBy string) string {
	return fmt.Sprintf(
		"UPDATE %s t SET id = s.rn + %d - 1"+
			" FROM (SELECT ctid, row_number() OVER (ORDER BY %s) AS rn FROM %s) s"+
			" WHERE t.ctid = s.ctid;"+
			" SELECT setval(%s, %d + (SELECT count(*) FROM %s), false);",
		table, startID, orderBy, table,
		quoteLiteral(sequence), startID, table)
}

func (Postgres) ExistsTable(table string) string { return existsTableQuery(table) }
