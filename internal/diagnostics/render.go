package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"ghoulc/colors"
	"ghoulc/internal/source"
)

// Render writes a human-readable rendering of d to w: file path, span,
// severity-colored message, a source snippet with a caret label under the
// primary span, notes, and a help suggestion.
func Render(w io.Writer, d *Diagnostic) {
	sevColor := colors.RED
	if d.Severity == Warning {
		sevColor = colors.YELLOW
	}

	if loc, ok := d.primaryLocation(); ok {
		colors.GREY.Fprintf(w, "%s: ", loc.String())
	}
	sevColor.Fprintf(w, "%s: ", d.Severity)
	fmt.Fprintln(w, d.Message)

	for _, label := range d.Labels {
		printLabel(w, label)
	}
	for _, n := range d.Notes {
		colors.CYAN.Fprintf(w, "  note: ")
		fmt.Fprintln(w, n)
	}
	if d.Help != "" {
		colors.GREEN.Fprintf(w, "  help: ")
		fmt.Fprintln(w, d.Help)
	}
}

func printLabel(w io.Writer, label Label) {
	loc := label.Location
	if loc.Filename == "" {
		return
	}
	lines, err := source.GetSourceLinesRange(loc.Filename, loc.Start.Line, loc.Start.Line)
	if err != nil || len(lines) == 0 {
		return
	}
	line := lines[0]
	fmt.Fprintf(w, "  %4d | %s\n", loc.Start.Line, line)

	caretCount := loc.End.Column - loc.Start.Column
	if caretCount < 1 {
		caretCount = 1
	}
	marker := colors.RED
	if label.Style == Secondary {
		marker = colors.GREY
	}
	padding := strings.Repeat(" ", max(0, loc.Start.Column-1))
	fmt.Fprintf(w, "       | %s%s %s\n", padding, marker.Sprintf(strings.Repeat("^", caretCount)), label.Message)
}
