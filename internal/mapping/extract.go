package mapping

import "errors"

// ErrUnrecognizedInput is returned when a whole input blob yields no
// table fragments and no mapping rows. It is the parser's only failure:
// individual noisy lines are dropped silently, but an input in which
// nothing at all was recognized is surfaced to the caller, with no
// partial result and no retry.
var ErrUnrecognizedInput = errors.New("unrecognized input: no table declarations or field mappings found")

// Extract runs format detection and the matching extraction engine over
// raw mapping text. It returns the table fragments declared by
// transcript headers (always empty in CSV mode) and the mapping rows,
// in input order.
func Extract(content string) ([]*Fragment, []Row, error) {
	lines := splitLines(content)

	var (
		fragments []*Fragment
		rows      []Row
	)
	switch DetectFormat(content) {
	case FormatTranscript:
		fragments, rows = extractTranscript(lines)
	default:
		rows = extractCSV(lines)
	}

	if len(fragments) == 0 && len(rows) == 0 {
		return nil, nil, ErrUnrecognizedInput
	}
	return fragments, rows, nil
}
