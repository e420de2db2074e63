package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	var buf bytes.Buffer

	// A plain buffer is not a terminal, so auto resolves to markdown.
	r := NewRenderer(&buf, &buf, ModeAuto)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r = NewRenderer(&buf, &buf, ModeJSON)
	assert.Equal(t, ModeJSON, r.EffectiveMode())

	r = NewRenderer(&buf, &buf, ModeText)
	assert.Equal(t, ModeText, r.EffectiveMode())
}

func TestHeader_Markdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeMarkdown)
	r.Header(2, "Tables")
	assert.Equal(t, "## Tables\n", buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)
	require.NoError(t, r.JSON(map[string]int{"tables": 3}))

	var out map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 3, out["tables"])
}

func TestTable_Markdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeMarkdown)
	r.Table([]string{"name", "layer"}, [][]string{{"raw_a", "origination"}})

	out := buf.String()
	assert.True(t, strings.Contains(strings.ToLower(out), "| name "), out)
	assert.Contains(t, out, "raw_a")
}

func TestWarn_GoesToErrStream(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeMarkdown)
	r.Warn("verify before import")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "verify before import")
}
