package mapping

import (
	"regexp"
	"strings"

	"github.com/layerline-io/layerline/internal/layer"
)

// Transcript line patterns, in rule priority order.
var (
	// ODP.CUSTOMERS, fdp.orders_clean; may occur several times per line
	// when a diagram lists tables side by side.
	dotHeaderPattern = regexp.MustCompile(`(?i)\b(ODP|FDP|CDP|RAW|FOUNDATION|CONSUMPTION)\.([A-Za-z0-9_]+)`)

	// ODP: CUSTOMERS, FDP_ORDERS, CDP - revenue
	headerPattern = regexp.MustCompile(`(?i)^(ODP|FDP|CDP|RAW|FOUNDATION|CONSUMPTION)[:\s_-]+([A-Za-z0-9_]+)`)

	// table.field -> table.field, or bare field -> field
	arrowPattern = regexp.MustCompile(`([A-Za-z0-9_]+)(?:\.([A-Za-z0-9_]+))?\s*->\s*([A-Za-z0-9_]+)(?:\.([A-Za-z0-9_]+))?`)

	tokenSplitPattern = regexp.MustCompile(`[\s|]+`)
	fieldTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

type fragmentKey struct {
	name  string
	layer layer.Layer
}

// transcriptParser walks transcript lines carrying the working set of
// "active" table fragments, the fragments seen so far, and the mapping
// rows emitted so far. Rules are tried per line in strict priority
// order; the first match wins and unmatched lines are ignored.
type transcriptParser struct {
	fragments []*Fragment
	byKey     map[fragmentKey]*Fragment
	rows      []Row

	// active is the ordered working set that subsequent unlabeled
	// lines attribute their tokens to. Header rules replace it; arrow
	// and field-distribution rules never mutate it.
	active []*Fragment
}

// lineRule attempts to apply one rule class to a line, reporting
// whether it fired. The ordered rule list makes the priority auditable.
type lineRule func(p *transcriptParser, line string) bool

var transcriptRules = []lineRule{
	(*transcriptParser).matchDotHeaders,
	(*transcriptParser).matchHeader,
	(*transcriptParser).matchArrow,
	(*transcriptParser).matchFieldDistribution,
}

func newTranscriptParser() *transcriptParser {
	return &transcriptParser{byKey: make(map[fragmentKey]*Fragment)}
}

// extractTranscript runs the transcript state machine over all lines.
func extractTranscript(lines []string) ([]*Fragment, []Row) {
	p := newTranscriptParser()
	for _, line := range lines {
		p.processLine(line)
	}
	return p.fragments, p.rows
}

func (p *transcriptParser) processLine(line string) {
	for _, rule := range transcriptRules {
		if rule(p, line) {
			return
		}
	}
}

// fragment looks up or creates the fragment keyed by (name, layer).
func (p *transcriptParser) fragment(name string, l layer.Layer) *Fragment {
	key := fragmentKey{name: name, layer: l}
	if f, ok := p.byKey[key]; ok {
		return f
	}
	f := &Fragment{Name: name, Layer: l}
	p.byKey[key] = f
	p.fragments = append(p.fragments, f)
	return f
}

// matchDotHeaders handles dot-notation multi-headers: every
// LAYER.NAME occurrence on the line becomes a fragment, and the full
// matched set replaces the active tables. This is how a diagram's
// column headers establish the current columns for the
// field-distribution lines that follow.
func (p *transcriptParser) matchDotHeaders(line string) bool {
	matches := dotHeaderPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return false
	}
	active := make([]*Fragment, 0, len(matches))
	for _, m := range matches {
		l, ok := layer.FromToken(m[1])
		if !ok {
			continue
		}
		active = append(active, p.fragment(m[2], l))
	}
	if len(active) == 0 {
		return false
	}
	p.active = active
	return true
}

// matchHeader handles a standard single header like "ODP: CUSTOMERS".
// Unlike dot-notation headers, single headers accumulate: declaring a
// source header and then a target header leaves both active, so a bare
// field arrow underneath inherits the pair.
//
// Lines carrying an arrow are left for the arrow rule: canonical table
// names start with layer tokens (raw_customers, fdp_customer), so a
// qualified arrow line would otherwise satisfy the header prefix and
// swallow the mapping.
func (p *transcriptParser) matchHeader(line string) bool {
	if strings.Contains(line, "->") {
		return false
	}
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	l, ok := layer.FromToken(m[1])
	if !ok {
		return false
	}
	f := p.fragment(m[2], l)
	for _, a := range p.active {
		if a == f {
			return true
		}
	}
	p.active = append(p.active, f)
	return true
}

// matchArrow handles "a.b -> c.d" and bare "b -> d" mappings. When the
// table component is omitted it is inherited from the active tables:
// the first for the source side, the last for the target side. Emits
// one row; does not touch the active set.
func (p *transcriptParser) matchArrow(line string) bool {
	m := arrowPattern.FindStringSubmatch(line)
	if m == nil {
		return false
	}

	row := Row{DataType: DefaultDataType}
	switch {
	case m[2] != "":
		row.SourceTable = m[1]
		row.SourceField = m[2]
		row.SourceLayer = layer.Classify(m[1])
	case len(p.active) > 0:
		first := p.active[0]
		row.SourceTable = first.Name
		row.SourceField = m[1]
		row.SourceLayer = first.Layer
	default:
		// Bare field arrow with no declared tables to inherit from.
		return false
	}

	switch {
	case m[4] != "":
		row.TargetTable = m[3]
		row.TargetField = m[4]
		row.TargetLayer = layer.Classify(m[3])
	case len(p.active) > 0:
		last := p.active[len(p.active)-1]
		row.TargetTable = last.Name
		row.TargetField = m[3]
		row.TargetLayer = last.Layer
	default:
		return false
	}

	p.rows = append(p.rows, row)
	return true
}

// matchFieldDistribution is the fallback rule for loose field lists.
// With two or more active tables and at least as many valid tokens,
// tokens map positionally: token i becomes a field on active table i,
// encoding a multi-column diagram layout where each visual column lists
// fields for a different table on the same row. Otherwise every valid
// token is appended to the last active table (single-column layout).
//
// The positional assumption means an OCR engine that reorders tokens
// within a line silently attaches fields to the wrong table. That is an
// accuracy limit of uncertain input, not something this rule tries to
// repair.
func (p *transcriptParser) matchFieldDistribution(line string) bool {
	if len(p.active) == 0 {
		return false
	}
	tokens := fieldTokens(line)
	if len(tokens) == 0 {
		return false
	}

	if len(p.active) >= 2 && len(tokens) >= len(p.active) {
		for i, f := range p.active {
			f.addField(tokens[i])
		}
		return true
	}

	last := p.active[len(p.active)-1]
	for _, tok := range tokens {
		last.addField(tok)
	}
	return true
}

// fieldTokens splits a line on whitespace and pipes and keeps only
// tokens that plausibly name a field: longer than one character, purely
// alphanumeric, and not a reserved word.
func fieldTokens(line string) []string {
	var out []string
	for _, tok := range tokenSplitPattern.Split(line, -1) {
		if len(tok) <= 1 {
			continue
		}
		if !fieldTokenPattern.MatchString(tok) {
			continue
		}
		if layer.IsReserved(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
