// Package parser turns recipe markup into a stream of structural events.
//
// Parsing is fault tolerant by construction: malformed markup degrades to
// text events plus diagnostics, so any input yields a complete event
// sequence. Events carry source spans and raw payloads; resolving names,
// units and references is the analyzer's job.
package parser

import (
	"strings"

	"github.com/FocuswithJustin/Galley/core/quantity"
	"github.com/FocuswithJustin/Galley/core/span"
)

// Event is one structural parse event. The concrete types below form a
// closed set consumed by type switch. Within one parse, event spans are
// non-overlapping and monotonically increasing.
type Event interface {
	// Span covers the source bytes the event was produced from.
	Span() span.Span
	eventNode()
}

// TextRun is a piece of prose with its source span. Value has comments
// stripped and escape sequences rendered; the span still covers the
// original bytes.
type TextRun struct {
	Value string    `json:"value"`
	Sp    span.Span `json:"span"`
}

// IsEmpty reports whether the run holds no visible text.
func (t TextRun) IsEmpty() bool {
	return strings.TrimSpace(t.Value) == ""
}

// Trimmed returns the run text without surrounding whitespace.
func (t TextRun) Trimmed() string {
	return strings.TrimSpace(t.Value)
}

// Metadata is one `>> key: value` entry.
type Metadata struct {
	Key   TextRun
	Value TextRun
	Sp    span.Span
}

// Section starts a new section. Name is empty for an unnamed `=` marker.
type Section struct {
	Name TextRun
	Sp   span.Span
}

// StepStart opens a step. IsText marks a `>` text step, whose content is a
// single prose run with no components.
type StepStart struct {
	IsText bool
	Sp     span.Span
}

// StepEnd closes the step opened by the matching StepStart.
type StepEnd struct {
	IsText bool
	Sp     span.Span
}

// Text is a prose run inside a step.
type Text struct {
	Run TextRun
}

// Modifiers are the flags written between a component marker and its name.
type Modifiers uint8

const (
	// ModRecipe marks a reference to another recipe (`@@name`).
	ModRecipe Modifiers = 1 << iota
	// ModRef points the component at an earlier definition (`&`).
	ModRef
	// ModHidden keeps the component out of ingredient lists (`-`).
	ModHidden
	// ModOptional marks the component optional (`?`).
	ModOptional
	// ModNew forces a new entry instead of grouping (`+`).
	ModNew
)

// Has reports whether flag is set.
func (m Modifiers) Has(flag Modifiers) bool {
	return m&flag != 0
}

func (m Modifiers) String() string {
	var sb strings.Builder
	if m.Has(ModRecipe) {
		sb.WriteByte('@')
	}
	if m.Has(ModRef) {
		sb.WriteByte('&')
	}
	if m.Has(ModHidden) {
		sb.WriteByte('-')
	}
	if m.Has(ModOptional) {
		sb.WriteByte('?')
	}
	if m.Has(ModNew) {
		sb.WriteByte('+')
	}
	return sb.String()
}

// RefTarget selects what an intermediate reference points at.
type RefTarget uint8

const (
	// TargetStep points at a step of the current section.
	TargetStep RefTarget = iota
	// TargetSection points at a whole earlier section.
	TargetSection
)

func (t RefTarget) String() string {
	if t == TargetSection {
		return "section"
	}
	return "step"
}

// IntermediateRef is the `&(...)` target written after a reference
// modifier: `&(2)` step two, `&(~1)` one step back, `&(=2)` section two,
// `&(=~1)` one section back. Index is the written number, 1-based when
// absolute.
type IntermediateRef struct {
	Target   RefTarget `json:"target"`
	Relative bool      `json:"relative"`
	Index    int32     `json:"index"`
	Sp       span.Span `json:"span"`
}

// Amount is a parsed `{value % unit}` body.
type Amount struct {
	Value   quantity.Value `json:"value"`
	ValueSp span.Span      `json:"value_span"`
	// Unit is the raw unit label, empty when absent. UnitSep records that
	// a % separator was written even if no unit followed it.
	Unit    string    `json:"unit,omitempty"`
	UnitSp  span.Span `json:"unit_span"`
	UnitSep bool      `json:"unit_sep,omitempty"`
	Sp      span.Span `json:"span"`
}

// Quantity converts the amount to its model form.
func (a *Amount) Quantity() quantity.Quantity {
	if a == nil {
		return quantity.Quantity{}
	}
	return quantity.New(a.Value, a.Unit)
}

// Ingredient is an `@name` component.
type Ingredient struct {
	Name         TextRun
	Alias        TextRun
	Amount       *Amount
	Note         TextRun
	Modifiers    Modifiers
	ModSpan      span.Span
	Intermediate *IntermediateRef
	// Fixed marks the quantity as non-scalable (`*` after the component).
	Fixed bool
	Sp    span.Span
}

// Cookware is a `#name` component. Its amount never carries a unit and
// it cannot target an intermediate preparation.
type Cookware struct {
	Name      TextRun
	Alias     TextRun
	Amount    *Amount
	Note      TextRun
	Modifiers Modifiers
	ModSpan   span.Span
	Fixed     bool
	Sp        span.Span
}

// Timer is a `~name{duration}` component. Name may be empty when a
// duration is present.
type Timer struct {
	Name   TextRun
	Amount *Amount
	Sp     span.Span
}

func (e Metadata) Span() span.Span   { return e.Sp }
func (e Section) Span() span.Span    { return e.Sp }
func (e StepStart) Span() span.Span  { return e.Sp }
func (e StepEnd) Span() span.Span    { return e.Sp }
func (e Text) Span() span.Span       { return e.Run.Sp }
func (e Ingredient) Span() span.Span { return e.Sp }
func (e Cookware) Span() span.Span   { return e.Sp }
func (e Timer) Span() span.Span      { return e.Sp }

func (Metadata) eventNode()   {}
func (Section) eventNode()    {}
func (StepStart) eventNode()  {}
func (StepEnd) eventNode()    {}
func (Text) eventNode()       {}
func (Ingredient) eventNode() {}
func (Cookware) eventNode()   {}
func (Timer) eventNode()      {}
