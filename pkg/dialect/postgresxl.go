package dialect

import (
	"fmt"

	"github.com/inferlab/ddstore/pkg/capability"
)

// PostgresXL targets a Postgres-XL cluster. Rows are identified by
// (xc_node_id, ctid), and sequences live on the GTM, so they are created
// with a large cache to avoid a GTM round trip per nextval.
type PostgresXL struct{}

func (PostgresXL) Variant() string { return capability.VariantPostgresXL }

func (PostgresXL) CreateSequenceFunction(name string) string {
	return fmt.Sprintf("DROP SEQUENCE IF EXISTS %s CASCADE; CREATE SEQUENCE %s MINVALUE -1 START 1 CACHE 1000;", name, name)
}

func (PostgresXL) Cast(expr, typ string) string { return castExpr(expr, typ) }

func (PostgresXL) QuoteColumn(name string) string { return quoteIdent(name) }

func (PostgresXL) RandomFunction() string { return "RANDOM()" }

func (PostgresXL) Concat(exprs []string, delimiter string) string {
	return concatExprs(exprs, delimiter)
}

func (PostgresXL) CreateSpecialUDFs() string { return reserveIDBlockUDF }

func (PostgresXL) AnalyzeTable(table string) string {
	return fmt.Sprintf("ANALYZE %s;", table)
}

func (PostgresXL) AssignIDs(table string, startID int64, sequence string) string {
	return mppAssignIDs("xc_node_id", table, startID, sequence, "")
}

func (PostgresXL) AssignIDsOrdered(table string, startID int64, sequence, orderBy string) string {
	return mppAssignIDs("xc_node_id", table, startID, sequence, orderBy)
}

func (PostgresXL) ExistsTable(table string) string { return existsTableQuery(table) }
