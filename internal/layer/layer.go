// Package layer classifies table names into the three architectural
// data-layers: origination (raw ingested), foundational (cleaned and
// conformed), and consumption (business-ready).
package layer

import "strings"

// Layer is the architectural tier a table belongs to.
type Layer string

const (
	// Origination holds raw data as it arrives from source systems.
	Origination Layer = "origination"
	// Foundational holds cleaned, conformed data.
	Foundational Layer = "foundational"
	// Consumption holds business-ready data products.
	Consumption Layer = "consumption"
)

// Marker vocabulary. Kept as data so that naming conventions can evolve
// without touching classification logic.
var (
	consumptionMarkers  = []string{"cdp", "_cdp", "consumption"}
	foundationalMarkers = []string{"fdp", "_fdp", "foundation"}

	// headerTokens maps the layer tokens that appear in diagram
	// transcripts (e.g. "ODP.CUSTOMERS", "FDP: ORDERS") to layers.
	headerTokens = map[string]Layer{
		"odp":         Origination,
		"raw":         Origination,
		"fdp":         Foundational,
		"foundation":  Foundational,
		"cdp":         Consumption,
		"consumption": Consumption,
	}

	// reservedWords are tokens that never name a field in loose
	// transcript lines.
	reservedWords = map[string]struct{}{
		"odp":  {},
		"fdp":  {},
		"cdp":  {},
		"id":   {},
		"null": {},
	}
)

// Classify maps a free-text table or token name to a layer.
// It is a pure, total function: checks run in fixed priority order
// (consumption markers, then foundational markers) and a name matching
// nothing defaults to Origination. A name matching multiple marker sets
// resolves to whichever check fires first; callers must treat that as
// the tie-break rule.
func Classify(name string) Layer {
	lower := strings.ToLower(name)
	for _, m := range consumptionMarkers {
		if strings.Contains(lower, m) {
			return Consumption
		}
	}
	for _, m := range foundationalMarkers {
		if strings.Contains(lower, m) {
			return Foundational
		}
	}
	return Origination
}

// FromToken resolves a transcript header token (ODP, FDP, CDP, RAW,
// FOUNDATION, CONSUMPTION) to its canonical layer. The second return
// value is false for unknown tokens.
func FromToken(token string) (Layer, bool) {
	l, ok := headerTokens[strings.ToLower(token)]
	return l, ok
}

// IsReserved reports whether a token is part of the reserved vocabulary
// (layer markers and SQL-ish noise words) rather than a field name.
func IsReserved(token string) bool {
	_, ok := reservedWords[strings.ToLower(token)]
	return ok
}

// Label returns the human-readable display label for the layer.
func (l Layer) Label() string {
	switch l {
	case Foundational:
		return "Foundational"
	case Consumption:
		return "Consumption"
	default:
		return "Origination"
	}
}

// Prefix returns the identifier prefix used when synthesizing table
// IDs: the lowercase first word of the display label.
func (l Layer) Prefix() string {
	return strings.ToLower(strings.Fields(l.Label())[0])
}

// All returns the layers in architectural order, origination first.
func All() []Layer {
	return []Layer{Origination, Foundational, Consumption}
}
