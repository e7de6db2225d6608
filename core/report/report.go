// Package report collects and renders located diagnostics for one source
// text. Every pipeline stage (lexing is diagnostic-free, parsing, analysis,
// scaling) appends to a single Report; a completed parse always yields a
// usable model plus its report, and the caller decides whether any entry
// blocks further use.
package report

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/Galley/core/span"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityError marks a diagnostic the model could not recover cleanly
	// from (the model is still produced, possibly degraded).
	SeverityError Severity = iota
	// SeverityWarning marks a recoverable anomaly.
	SeverityWarning
)

// String returns the lowercase severity name used in rendered output.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Label attaches a message to a source span. The first label of a Diag is
// its primary location; any others point at related spans.
type Label struct {
	Span span.Span `json:"span"`
	Text string    `json:"text,omitempty"`
}

// Diag is a single located diagnostic.
type Diag struct {
	// Severity is error or warning.
	Severity Severity `json:"severity"`

	// Code identifies the stage that raised the diagnostic
	// ("parser", "analysis", "scale").
	Code string `json:"code,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Labels holds the primary span first, then secondary spans.
	Labels []Label `json:"labels,omitempty"`

	// Help is an optional hint on how to fix the input.
	Help string `json:"help,omitempty"`
}

// Primary returns the primary span, or an empty span when unlocated.
func (d *Diag) Primary() span.Span {
	if len(d.Labels) == 0 {
		return span.Span{}
	}
	return d.Labels[0].Span
}

// WithLabel appends a secondary labeled span and returns the diag for
// chaining.
func (d *Diag) WithLabel(sp span.Span, text string) *Diag {
	d.Labels = append(d.Labels, Label{Span: sp, Text: text})
	return d
}

// WithHelp sets the help text and returns the diag for chaining.
func (d *Diag) WithHelp(help string) *Diag {
	d.Help = help
	return d
}

// Error builds an error diag with a primary span.
func Error(code string, sp span.Span, format string, args ...any) *Diag {
	return &Diag{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Labels:   []Label{{Span: sp}},
	}
}

// Warning builds a warning diag with a primary span.
func Warning(code string, sp span.Span, format string, args ...any) *Diag {
	return &Diag{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Labels:   []Label{{Span: sp}},
	}
}

// Report is the ordered diagnostic collection for one source text.
// The zero value is not usable; construct with New.
type Report struct {
	diags []*Diag
}

// New creates an empty report.
func New() *Report {
	return &Report{}
}

// Add appends a diagnostic. Nil diags are ignored so call sites can pass
// optional results straight through.
func (r *Report) Add(d *Diag) {
	if d == nil {
		return
	}
	r.diags = append(r.diags, d)
}

// Append moves every diagnostic of other onto r, preserving order.
func (r *Report) Append(other *Report) {
	if other == nil {
		return
	}
	r.diags = append(r.diags, other.diags...)
}

// All returns every diagnostic in emission order. The returned slice is
// shared; callers must not mutate it.
func (r *Report) All() []*Diag {
	return r.diags
}

// Len returns the number of diagnostics.
func (r *Report) Len() int {
	return len(r.diags)
}

// IsEmpty reports whether the report holds no diagnostics.
func (r *Report) IsEmpty() bool {
	return len(r.diags) == 0
}

// HasErrors reports whether any diagnostic is an error.
func (r *Report) HasErrors() bool {
	for _, d := range r.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic is a warning.
func (r *Report) HasWarnings() bool {
	for _, d := range r.diags {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// Errors returns only the error diagnostics, in emission order.
func (r *Report) Errors() []*Diag {
	var out []*Diag
	for _, d := range r.diags {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the warning diagnostics, in emission order.
func (r *Report) Warnings() []*Diag {
	var out []*Diag
	for _, d := range r.diags {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// RemoveWarnings returns a new report retaining only errors. The receiver
// is left untouched.
func (r *Report) RemoveWarnings() *Report {
	out := New()
	out.diags = r.Errors()
	return out
}

// Zip merges two reports over the same source into a new one, ordering by
// primary span start. The sort is stable, so diagnostics at the same offset
// and diagnostics without spans keep their relative emission order.
func (r *Report) Zip(other *Report) *Report {
	extra := 0
	if other != nil {
		extra = other.Len()
	}
	out := New()
	out.diags = make([]*Diag, 0, len(r.diags)+extra)
	out.diags = append(out.diags, r.diags...)
	if other != nil {
		out.diags = append(out.diags, other.diags...)
	}
	sort.SliceStable(out.diags, func(i, j int) bool {
		return out.diags[i].Primary().Start < out.diags[j].Primary().Start
	})
	return out
}
