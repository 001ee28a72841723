package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferlab/ddstore/pkg/capability"
)

func TestForVariant(t *testing.T) {
	for _, name := range []string{
		capability.VariantPostgres,
		capability.VariantGreenplum,
		capability.VariantPostgresXL,
	} {
		d, err := ForVariant(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Variant())
	}

	_, err := ForVariant("oracle")
	assert.Error(t, err, "unknown variants have no default dialect")
}

func TestSharedCapabilities(t *testing.T) {
	for _, d := range []Dialect{Postgres{}, Greenplum{}, PostgresXL{}} {
		t.Run(d.Variant(), func(t *testing.T) {
			assert.Equal(t, "CAST(f.v AS bigint)", d.Cast("f.v", "bigint"))
			assert.Equal(t, `"weird ""col"""`, d.QuoteColumn(`weird "col"`))
			assert.Equal(t, "RANDOM()", d.RandomFunction())
			assert.Equal(t, "ANALYZE dd_labels;", d.AnalyzeTable("dd_labels"))
			assert.Equal(t,
				"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'dd_labels');",
				d.ExistsTable("dd_labels"))
		})
	}
}

func TestConcat(t *testing.T) {
	d := Postgres{}

	assert.Equal(t, "a || b || c", d.Concat([]string{"a", "b", "c"}, ""))
	assert.Equal(t, "array_to_string(ARRAY[a, b], '-')", d.Concat([]string{"a", "b"}, "-"))
	assert.Equal(t, "array_to_string(ARRAY[a], '''')", d.Concat([]string{"a"}, "'"))
}

func TestPostgres_AssignIDs(t *testing.T) {
	d := Postgres{}

	assert.Equal(t,
		"SELECT setval('dd_seq', 100, false); UPDATE dd_labels SET id = nextval('dd_seq');",
		d.AssignIDs("dd_labels", 100, "dd_seq"))

	ordered := d.AssignIDsOrdered("dd_labels", 1, "dd_seq", "created_at")
	assert.Contains(t, ordered, "row_number() OVER (ORDER BY created_at)")
	assert.Contains(t, ordered, "WHERE t.ctid = s.ctid")
}

func TestMPP_AssignIDs(t *testing.T) {
	t.Run("greenplum joins on segment id", func(t *testing.T) {
		sql := Greenplum{}.AssignIDs("dd_labels", 1, "dd_seq")
		assert.Contains(t, sql, "gp_segment_id")
		assert.Contains(t, sql, "row_number() OVER ()")
		assert.Contains(t, sql, "setval('dd_seq'")
	})

	t.Run("postgres-xl joins on node id", func(t *testing.T) {
		sql := PostgresXL{}.AssignIDsOrdered("dd_labels", 50, "dd_seq", "id DESC")
		assert.Contains(t, sql, "xc_node_id")
		assert.Contains(t, sql, "row_number() OVER (ORDER BY id DESC)")
	})
}

func TestCreateSpecialUDFs(t *testing.T) {
	assert.Empty(t, Postgres{}.CreateSpecialUDFs(), "plain postgres installs no helpers")

	for _, d := range []Dialect{Greenplum{}, PostgresXL{}} {
		sql := d.CreateSpecialUDFs()
		assert.Contains(t, sql, "dd_reserve_id_block", "variant %s", d.Variant())
		assert.Contains(t, sql, "LANGUAGE plpgsql")
	}
}

func TestCreateSequenceFunction(t *testing.T) {
	assert.Equal(t,
		"DROP SEQUENCE IF EXISTS dd_seq CASCADE; CREATE SEQUENCE dd_seq MINVALUE -1 START 1;",
		Postgres{}.CreateSequenceFunction("dd_seq"))

	// MPP variants cache sequence blocks to avoid coordinator round trips.
	assert.Contains(t, Greenplum{}.CreateSequenceFunction("dd_seq"), "CACHE 1000")
	assert.Contains(t, PostgresXL{}.CreateSequenceFunction("dd_seq"), "CACHE 1000")
}
