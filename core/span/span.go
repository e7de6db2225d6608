// Package span provides source locations for recipe markup.
// A Span is a half-open byte range [Start, End) into the original source
// text; every token, parse event and diagnostic carries one. Positions
// (line/column) are derived lazily through an Index so the hot path never
// pays for line counting.
package span

import "fmt"

// Span is a half-open byte range into a source text.
type Span struct {
	// Start is the byte offset of the first byte covered.
	Start int `json:"start"`

	// End is the byte offset one past the last byte covered.
	End int `json:"end"`
}

// New creates a span from start and end offsets. Callers are expected to
// pass start <= end; the constructor normalizes reversed bounds.
func New(start, end int) Span {
	if end < start {
		start, end = end, start
	}
	return Span{Start: start, End: end}
}

// Point creates an empty span at a single offset.
func Point(offset int) Span {
	return Span{Start: offset, End: offset}
}

// Len returns the number of bytes covered.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Union returns the smallest span covering both s and other.
func (s Span) Union(other Span) Span {
	if s.IsEmpty() && !other.IsEmpty() {
		return other
	}
	if other.IsEmpty() && !s.IsEmpty() {
		return s
	}
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Text slices the covered bytes out of the source. Out-of-range spans are
// clamped so a stale span can never panic.
func (s Span) Text(source string) string {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(source) {
		end = len(source)
	}
	if start >= end {
		return ""
	}
	return source[start:end]
}

// String returns the span in "start..end" form.
func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Position is a 1-based line/column location in a source text.
// Column counts bytes from the line start; multi-byte runes count once per
// byte, which matches how the report renderer slices lines.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String returns the position in "line:column" form.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
