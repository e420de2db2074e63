package mapping

import (
	"strings"

	"github.com/layerline-io/layerline/internal/layer"
)

// extractCSV parses comma-separated mapping rows. Each line binds
// positionally: source_table, source_field, target_table, target_field,
// then an optional data type (default STRING) and an optional
// transformation expression. Comment lines, header lines, lines with
// fewer than four values, and lines where any of the four required
// values is blank after trimming (a row like "a,,b,c" carries no usable
// mapping) are all skipped as noise. No header or active-table state is
// needed in this mode.
func extractCSV(lines []string) []Row {
	var rows []Row
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if isCSVHeader(line) {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 4 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] == "" || parts[1] == "" || parts[2] == "" || parts[3] == "" {
			continue
		}

		row := Row{
			SourceTable: parts[0],
			SourceField: parts[1],
			TargetTable: parts[2],
			TargetField: parts[3],
			DataType:    DefaultDataType,
			SourceLayer: layer.Classify(parts[0]),
			TargetLayer: layer.Classify(parts[2]),
		}
		if len(parts) > 4 && parts[4] != "" {
			row.DataType = parts[4]
		}
		if len(parts) > 5 && parts[5] != "" {
			row.Transformation = parts[5]
		}
		rows = append(rows, row)
	}
	return rows
}

func isCSVHeader(line string) bool {
	return strings.HasPrefix(strings.ToLower(line), "source_table")
}
