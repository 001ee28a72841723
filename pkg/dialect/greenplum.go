package dialect

import (
	"fmt"

	"github.com/inferlab/ddstore/pkg/capability"
)

// Greenplum targets a Greenplum MPP cluster. A ctid is only unique within a
// segment, so id assignment joins on (gp_segment_id, ctid), and sequences
// are created with a large cache to keep segments from serializing on the
// master for every nextval.
type Greenplum struct{}

func (Greenplum) Variant() string { return capability.VariantGreenplum }

func (Greenplum) CreateSequenceFunction(name string) string {
	return fmt.Sprintf("DROP SEQUENCE IF EXISTS %s CASCADE; CREATE SEQUENCE %s MINVALUE -1 START 1 CACHE 1000;", name, name)
}

func (Greenplum) Cast(expr, typ string) string { return castExpr(expr, typ) }

func (Greenplum) QuoteColumn(name string) string { return quoteIdent(name) }

func (Greenplum) RandomFunction() string { return "RANDOM()" }

func (Greenplum) Concat(exprs []string, delimiter string) string {
	return concatExprs(exprs, delimiter)
}

func (Greenplum) CreateSpecialUDFs() string { return reserveIDBlockUDF }

func (Greenplum) AnalyzeTable(table string) string {
	return fmt.Sprintf("ANALYZE %s;", table)
}

func (Greenplum) AssignIDs(table string, startID int64, sequence string) string {
	return mppAssignIDs("gp_segment_id", table, startID, sequence, "")
}

func (Greenplum) AssignIDsOrdered(table string, startID int64, sequence, orderBy string) string {
	return mppAssignIDs("gp_segment_id", table, startID, sequence, orderBy)
}

func (Greenplum) ExistsTable(table string) string { return existsTableQuery(table) }

// reserveIDBlockUDF installs a helper that reserves a contiguous block of n
// ids from a sequence in one round trip, for loaders that number rows on
// the segments without hitting the sequence per row.
const reserveIDBlockUDF = `CREATE OR REPLACE FUNCTION dd_reserve_id_block(seq text, n bigint) RETURNS bigint AS $fn$
DECLARE
	first_id bigint;
BEGIN
	EXECUTE format('SELECT nextval(%L)', seq) INTO first_id;
	PERFORM setval(seq, first_id + n - 1, true);
	RETURN first_id;
END;
$fn$ LANGUAGE plpgsql;
`

// mppAssignIDs numbers every row consecutively from startID on a cluster
// where rows are identified by (nodeCol, ctid), then advances the sequence
// past the last assigned id. An empty orderBy numbers rows in scan order.
func mppAssignIDs(nodeCol, table string, startID int64, sequence, orderBy string) string {
	window := "OVER ()"
	if orderBy != "" {
		window = fmt.Sprintf("OVER (ORDER BY %s)", orderBy)
	}
	return fmt.Sprintf(
		"UPDATE %s t SET id = s.rn + %d - 1"+
			" FROM (SELECT %s AS node, ctid, row_number() %s AS rn FROM %s) s"+
			" WHERE t.%s = s.node AND t.ctid = s.ctid;"+
			" SELECT setval(%s, %d + (SELECT count(*) FROM %s), false);",
		table, startID,
		nodeCol, window, table,
		nodeCol,
		quoteLiteral(sequence), startID, table)
}
