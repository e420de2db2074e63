package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerline-io/layerline/internal/layer"
	"github.com/layerline-io/layerline/internal/mapping"
	"github.com/layerline-io/layerline/internal/schema"
)

func TestParse_CSVRoundTrip(t *testing.T) {
	result, err := Parse("raw_customers,customer_id,fdp_customer,id,STRING\n")
	require.NoError(t, err)

	assert.Equal(t, mapping.FormatCSV, result.Format)
	require.Len(t, result.Tables, 2)

	byName := tablesByName(result.Tables)
	source := byName["raw_customers"]
	target := byName["fdp_customer"]
	require.NotNil(t, source)
	require.NotNil(t, target)

	assert.Equal(t, layer.Origination, source.Layer)
	assert.Equal(t, "origination-raw_customers", source.ID)
	assert.Equal(t, layer.Foundational, target.Layer)
	assert.Equal(t, "foundational-fdp_customer", target.ID)

	require.Len(t, target.Sources, 1)
	ref := target.Sources[0]
	assert.Equal(t, "raw_customers", ref.SourceTable)
	require.Len(t, ref.Mappings, 1)
	assert.Equal(t, "customer_id", ref.Mappings[0].SourceField)
	assert.Equal(t, "id", ref.Mappings[0].TargetField)

	assert.Equal(t, []string{"raw_customers"}, result.Lineage["fdp_customer"])
	assert.Equal(t, 1, result.Summary.MappingRows)
	assert.Equal(t, 1, result.Summary.TablesPerLayer[layer.Origination])
	assert.Equal(t, 1, result.Summary.TablesPerLayer[layer.Foundational])
}

func TestParse_TranscriptEndToEnd(t *testing.T) {
	content := `ODP: SRC
FDP: TGT
id -> id
cust_name -> full_name`
	result, err := Parse(content)
	require.NoError(t, err)

	assert.Equal(t, mapping.FormatTranscript, result.Format)
	byName := tablesByName(result.Tables)
	require.Contains(t, byName, "SRC")
	require.Contains(t, byName, "TGT")

	tgt := byName["TGT"]
	require.Len(t, tgt.Sources, 1)
	assert.Equal(t, "SRC", tgt.Sources[0].SourceTable)
	assert.Len(t, tgt.Sources[0].Mappings, 2)
	assert.True(t, tgt.HasColumn("full_name"))
	assert.True(t, byName["SRC"].HasColumn("cust_name"))

	assert.Equal(t, []string{"SRC"}, result.Lineage["TGT"])
	assert.Equal(t, 2, result.Summary.MappingRows)
}

// A transcript made only of dot-notation headers and field lines must
// be detected as transcript input and distribute fields positionally.
func TestParse_DotHeaderTranscript(t *testing.T) {
	result, err := Parse("ODP.CUST FDP.CUST_CLEAN\nCUST_ID NAME")
	require.NoError(t, err)

	assert.Equal(t, mapping.FormatTranscript, result.Format)
	byName := tablesByName(result.Tables)
	require.Contains(t, byName, "CUST")
	require.Contains(t, byName, "CUST_CLEAN")

	assert.Equal(t, layer.Origination, byName["CUST"].Layer)
	assert.Equal(t, layer.Foundational, byName["CUST_CLEAN"].Layer)
	assert.True(t, byName["CUST"].HasColumn("CUST_ID"))
	assert.False(t, byName["CUST"].HasColumn("NAME"))
	assert.True(t, byName["CUST_CLEAN"].HasColumn("NAME"))
	assert.False(t, byName["CUST_CLEAN"].HasColumn("CUST_ID"))
}

// Parsing the same transcript twice and merging by name yields the same
// column sets as parsing once: field insertion is idempotent.
func TestParse_IdempotentFieldInsertion(t *testing.T) {
	content := `ODP.CUST FDP.CUST_CLEAN
CUST_ID NAME
CUST_ID NAME`
	once, err := Parse(content)
	require.NoError(t, err)
	twice, err := Parse(content + "\n" + content)
	require.NoError(t, err)

	onceByName := tablesByName(once.Tables)
	twiceByName := tablesByName(twice.Tables)
	require.Len(t, twiceByName, len(onceByName))
	for name, tbl := range onceByName {
		assert.ElementsMatch(t, tbl.Columns, twiceByName[name].Columns, "table %s", name)
	}
}

func TestParse_UnrecognizedInput(t *testing.T) {
	for _, content := range []string{"", "?!. ,;:"} {
		_, err := Parse(content)
		assert.ErrorIs(t, err, mapping.ErrUnrecognizedInput, "content %q", content)
	}
}

func TestParse_FreshStatePerInvocation(t *testing.T) {
	e := New(Config{})

	first, err := e.Parse("ODP: ONE\nfield_a")
	require.NoError(t, err)
	second, err := e.Parse("ODP: TWO\nfield_b")
	require.NoError(t, err)

	assert.Len(t, first.Tables, 1)
	assert.Len(t, second.Tables, 1)
	assert.Equal(t, "TWO", second.Tables[0].Name)
}

func tablesByName(tables []*schema.Table) map[string]*schema.Table {
	m := make(map[string]*schema.Table, len(tables))
	for _, tbl := range tables {
		m[tbl.Name] = tbl
	}
	return m
}
