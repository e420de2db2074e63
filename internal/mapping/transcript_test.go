package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerline-io/layerline/internal/layer"
)

func runTranscript(t *testing.T, content string) ([]*Fragment, []Row) {
	t.Helper()
	return extractTranscript(splitLines(content))
}

func TestTranscript_SingleHeader(t *testing.T) {
	fragments, rows := runTranscript(t, "ODP: CUSTOMERS\ncust_id\nname_first")

	require.Len(t, fragments, 1)
	assert.Empty(t, rows)
	assert.Equal(t, "CUSTOMERS", fragments[0].Name)
	assert.Equal(t, layer.Origination, fragments[0].Layer)
	assert.Equal(t, []string{"cust_id", "name_first"}, fragments[0].Fields)
}

func TestTranscript_HeaderSeparators(t *testing.T) {
	tests := []struct {
		line  string
		name  string
		layer layer.Layer
	}{
		{"ODP: CUSTOMERS", "CUSTOMERS", layer.Origination},
		{"FDP_ORDERS", "ORDERS", layer.Foundational},
		{"CDP - revenue", "revenue", layer.Consumption},
		{"RAW  events", "events", layer.Origination},
		{"FOUNDATION: dims", "dims", layer.Foundational},
		{"CONSUMPTION: marts", "marts", layer.Consumption},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			fragments, _ := runTranscript(t, tt.line)
			require.Len(t, fragments, 1)
			assert.Equal(t, tt.name, fragments[0].Name)
			assert.Equal(t, tt.layer, fragments[0].Layer)
		})
	}
}

func TestTranscript_DotNotationMultiHeader(t *testing.T) {
	fragments, _ := runTranscript(t, "ODP.CUST FDP.CUST_CLEAN\nCUST_ID NAME")

	require.Len(t, fragments, 2)
	cust, clean := fragments[0], fragments[1]
	assert.Equal(t, "CUST", cust.Name)
	assert.Equal(t, layer.Origination, cust.Layer)
	assert.Equal(t, "CUST_CLEAN", clean.Name)
	assert.Equal(t, layer.Foundational, clean.Layer)

	// Two active tables and two tokens distribute positionally.
	assert.Equal(t, []string{"CUST_ID"}, cust.Fields)
	assert.Equal(t, []string{"NAME"}, clean.Fields)
}

func TestTranscript_DotHeaderReplacesActive(t *testing.T) {
	content := `ODP: OLD_TABLE
ODP.LEFT FDP.RIGHT
col_a col_b`
	fragments, _ := runTranscript(t, content)

	require.Len(t, fragments, 3)
	byName := fragmentsByName(fragments)
	// The dot-notation header replaced the active set, so fields land
	// on LEFT and RIGHT, never on OLD_TABLE.
	assert.Empty(t, byName["OLD_TABLE"].Fields)
	assert.Equal(t, []string{"col_a"}, byName["LEFT"].Fields)
	assert.Equal(t, []string{"col_b"}, byName["RIGHT"].Fields)
}

func TestTranscript_DotHeaderCanonicalLayers(t *testing.T) {
	fragments, _ := runTranscript(t, "RAW.events FOUNDATION.facts CONSUMPTION.report")

	require.Len(t, fragments, 3)
	assert.Equal(t, layer.Origination, fragments[0].Layer)
	assert.Equal(t, layer.Foundational, fragments[1].Layer)
	assert.Equal(t, layer.Consumption, fragments[2].Layer)
}

func TestTranscript_ArrowQualified(t *testing.T) {
	fragments, rows := runTranscript(t, "raw_customers.cust_id -> fdp_customer.id")

	// Even though the table names start with layer tokens, the line
	// must reach the arrow rule, not become a header fragment.
	assert.Empty(t, fragments)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "raw_customers", row.SourceTable)
	assert.Equal(t, "cust_id", row.SourceField)
	assert.Equal(t, "fdp_customer", row.TargetTable)
	assert.Equal(t, "id", row.TargetField)
	assert.Equal(t, layer.Origination, row.SourceLayer)
	assert.Equal(t, layer.Foundational, row.TargetLayer)
}

// Bare field arrows inherit their tables from the two most recent
// single headers: the first active table on the source side, the last
// on the target side.
func TestTranscript_ArrowTableInheritance(t *testing.T) {
	content := `ODP: SRC
FDP: TGT
id -> id`
	fragments, rows := runTranscript(t, content)

	require.Len(t, fragments, 2)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "SRC", row.SourceTable)
	assert.Equal(t, "TGT", row.TargetTable)
	assert.Equal(t, "id", row.SourceField)
	assert.Equal(t, "id", row.TargetField)
	assert.Equal(t, layer.Origination, row.SourceLayer)
	assert.Equal(t, layer.Foundational, row.TargetLayer)
}

func TestTranscript_ArrowMixedQualification(t *testing.T) {
	content := `ODP: SRC
FDP: TGT
cust_name -> fdp_customer.name`
	_, rows := runTranscript(t, content)

	require.Len(t, rows, 1)
	assert.Equal(t, "SRC", rows[0].SourceTable)
	assert.Equal(t, "cust_name", rows[0].SourceField)
	assert.Equal(t, "fdp_customer", rows[0].TargetTable)
	assert.Equal(t, "name", rows[0].TargetField)
}

func TestTranscript_BareArrowWithoutHeadersIgnored(t *testing.T) {
	fragments, rows := runTranscript(t, "id -> id")
	assert.Empty(t, fragments)
	assert.Empty(t, rows)
}

func TestTranscript_ArrowDoesNotMutateActive(t *testing.T) {
	content := `ODP: SRC
FDP: TGT
id -> id
amount_cents`
	fragments, _ := runTranscript(t, content)

	byName := fragmentsByName(fragments)
	// Loose fields still append to the last active table after an
	// arrow line.
	assert.Equal(t, []string{"amount_cents"}, byName["TGT"].Fields)
	assert.Empty(t, byName["SRC"].Fields)
}

func TestTranscript_FieldDistribution_SingleColumn(t *testing.T) {
	content := `FDP: ORDERS
order_id amount
status`
	fragments, _ := runTranscript(t, content)

	require.Len(t, fragments, 1)
	assert.Equal(t, []string{"order_id", "amount", "status"}, fragments[0].Fields)
}

func TestTranscript_FieldDistribution_NoiseTokens(t *testing.T) {
	content := `FDP: ORDERS
order_id | ID | NULL | x | ?? | amount`
	fragments, _ := runTranscript(t, content)

	require.Len(t, fragments, 1)
	// Reserved words, single characters, and punctuation are noise.
	assert.Equal(t, []string{"order_id", "amount"}, fragments[0].Fields)
}

func TestTranscript_FieldDistribution_FewerTokensThanTables(t *testing.T) {
	content := `ODP.LEFT FDP.RIGHT
only_one`
	fragments, _ := runTranscript(t, content)

	byName := fragmentsByName(fragments)
	// With fewer valid tokens than active tables, everything goes to
	// the last active table.
	assert.Empty(t, byName["LEFT"].Fields)
	assert.Equal(t, []string{"only_one"}, byName["RIGHT"].Fields)
}

func TestTranscript_FieldDistribution_Idempotent(t *testing.T) {
	content := `FDP: ORDERS
order_id amount
order_id
order_id amount`
	fragments, _ := runTranscript(t, content)

	require.Len(t, fragments, 1)
	assert.Equal(t, []string{"order_id", "amount"}, fragments[0].Fields)
}

func TestTranscript_HeaderLookupOrCreate(t *testing.T) {
	content := `ODP: CUSTOMERS
cust_id
ODP: CUSTOMERS
cust_name`
	fragments, _ := runTranscript(t, content)

	// Re-declaring the same (name, layer) header reuses the fragment.
	require.Len(t, fragments, 1)
	assert.Equal(t, []string{"cust_id", "cust_name"}, fragments[0].Fields)
}

func TestTranscript_UnmatchedLinesIgnored(t *testing.T) {
	content := `### scanned page 3 ###
ODP: CUSTOMERS
cust_id
!!! @@@ %%%`
	fragments, rows := runTranscript(t, content)

	require.Len(t, fragments, 1)
	assert.Empty(t, rows)
	assert.Equal(t, []string{"cust_id"}, fragments[0].Fields)
}

func fragmentsByName(fragments []*Fragment) map[string]*Fragment {
	m := make(map[string]*Fragment, len(fragments))
	for _, f := range fragments {
		m[f.Name] = f
	}
	return m
}
