// Package output provides mode-aware CLI rendering. Terminal runs get
// styled text; piped runs get markdown, which is friendlier to scripts
// and agents; --output json selects machine-readable output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Mode selects the output rendering style.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// Renderer writes command output in the effective mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// NewRenderer creates a renderer. ModeAuto resolves to text on a
// terminal and markdown otherwise.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return &Renderer{out: out, errOut: errOut, mode: mode}
}

// EffectiveMode resolves ModeAuto against the output destination.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			return ModeText
		}
	}
	return ModeMarkdown
}

// Println writes a plain line.
func (r *Renderer) Println(s string) {
	fmt.Fprintln(r.out, s)
}

// Printf writes formatted plain text.
func (r *Renderer) Printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// Header writes a section header at the given level.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		fmt.Fprintln(r.out, strings.Repeat("#", level)+" "+text)
		return
	}
	fmt.Fprintln(r.out, headerStyle.Render(text))
}

// Success writes a highlighted success line.
func (r *Renderer) Success(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		fmt.Fprintln(r.out, s)
		return
	}
	fmt.Fprintln(r.out, successStyle.Render(s))
}

// Warn writes a warning line to the error stream.
func (r *Renderer) Warn(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		fmt.Fprintln(r.errOut, "> "+s)
		return
	}
	fmt.Fprintln(r.errOut, warnStyle.Render(s))
}

// Muted writes a de-emphasized line.
func (r *Renderer) Muted(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		fmt.Fprintln(r.out, s)
		return
	}
	fmt.Fprintln(r.out, mutedStyle.Render(s))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes a table, rendered as markdown when the effective mode
// calls for it.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, c := range row {
			tr[i] = c
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}
