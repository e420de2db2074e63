package mapping

import "strings"

// Format identifies the shape of a raw mapping input blob.
type Format string

const (
	// FormatCSV is comma-separated mapping rows.
	FormatCSV Format = "csv"
	// FormatTranscript is free-form diagram transcription text.
	FormatTranscript Format = "transcript"
)

// transcriptMarkers flag diagram-transcript input. Their presence
// anywhere in the blob decides the format for the whole input.
var transcriptMarkers = []string{"ODP:", "FDP:", "CDP:", "->"}

// DetectFormat decides whether raw content is CSV-shaped or diagram
// transcript-shaped. Any literal transcript marker or dot-notation
// table header (ODP.CUSTOMERS) anywhere in the blob flags transcript
// format. This is a single global decision for the whole blob; mixed
// format input is not supported and produces undefined results (a known
// limitation, inherited from the noisy-input domain).
func DetectFormat(content string) Format {
	for _, m := range transcriptMarkers {
		if strings.Contains(content, m) {
			return FormatTranscript
		}
	}
	if dotHeaderPattern.MatchString(content) {
		return FormatTranscript
	}
	return FormatCSV
}

// splitLines splits raw content into trimmed, non-empty semantic lines.
func splitLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
