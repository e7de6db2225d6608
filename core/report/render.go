package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/Galley/core/span"
)

// Render writes every diagnostic in a caret-underlined, human-readable
// layout:
//
//	warning: invalid value for unit
//	 --> pancakes.cook:4:12
//	  |
//	4 | @flour{200%}
//	  |            ^ unit is empty
//	  = help: remove the trailing %
//
// name identifies the source in location lines and source is the full text
// the report's spans refer to.
func (r *Report) Render(w io.Writer, name, source string) error {
	idx := span.NewIndex(source)
	for i, d := range r.diags {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := renderDiag(w, d, name, idx); err != nil {
			return err
		}
	}
	return nil
}

// RenderString is Render into a string, for callers without a writer.
func (r *Report) RenderString(name, source string) string {
	var sb strings.Builder
	// strings.Builder never fails.
	_ = r.Render(&sb, name, source)
	return sb.String()
}

func renderDiag(w io.Writer, d *Diag, name string, idx *span.Index) error {
	head := d.Severity.String()
	if d.Code != "" {
		head += "[" + d.Code + "]"
	}
	if _, err := fmt.Fprintf(w, "%s: %s\n", head, d.Message); err != nil {
		return err
	}
	gutter := gutterWidth(d, idx)
	for i, lb := range d.Labels {
		if err := renderLabel(w, lb, name, idx, gutter, i == 0); err != nil {
			return err
		}
	}
	if d.Help != "" {
		pad := strings.Repeat(" ", gutter)
		if _, err := fmt.Fprintf(w, "%s = help: %s\n", pad, d.Help); err != nil {
			return err
		}
	}
	return nil
}

// gutterWidth is the width of the widest line number among the diag's
// labels, so every gutter in one diagnostic lines up.
func gutterWidth(d *Diag, idx *span.Index) int {
	width := 1
	for _, lb := range d.Labels {
		pos := idx.Position(lb.Span.Start)
		if n := len(fmt.Sprint(pos.Line)); n > width {
			width = n
		}
	}
	return width
}

func renderLabel(w io.Writer, lb Label, name string, idx *span.Index, gutter int, primary bool) error {
	pos := idx.Position(lb.Span.Start)
	arrow := "-->"
	if !primary {
		arrow = ":::"
	}
	pad := strings.Repeat(" ", gutter)
	if _, err := fmt.Fprintf(w, "%s%s %s:%s\n", pad, arrow, name, pos); err != nil {
		return err
	}
	line := idx.Line(pos.Line)
	if _, err := fmt.Fprintf(w, "%s |\n", pad); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%*d | %s\n", gutter, pos.Line, line); err != nil {
		return err
	}
	underline := carets(line, pos.Column, lb.Span.Len())
	marker := underline
	if lb.Text != "" {
		marker += " " + lb.Text
	}
	if _, err := fmt.Fprintf(w, "%s | %s\n", pad, marker); err != nil {
		return err
	}
	return nil
}

// carets builds the underline row: spaces under the runes before the span,
// then one caret per spanned rune on that line (at least one, even for
// empty spans). column is the 1-based byte column from span.Index.
func carets(line string, column, spanLen int) string {
	start := column - 1
	if start < 0 {
		start = 0
	}
	if start > len(line) {
		start = len(line)
	}
	end := start + spanLen
	if end > len(line) {
		end = len(line)
	}
	pad := utf8.RuneCountInString(line[:start])
	width := utf8.RuneCountInString(line[start:end])
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", pad) + strings.Repeat("^", width)
}
