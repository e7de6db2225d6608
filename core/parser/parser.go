package parser

import (
	"github.com/FocuswithJustin/Galley/core/lexer"
	"github.com/FocuswithJustin/Galley/core/report"
)

// Stream is a pull-based event source over one recipe text. Blocks are
// parsed lazily as events are requested; diagnostics accumulate on the
// stream's report as parsing advances.
type Stream struct {
	source string
	sc     *lexer.Scanner
	ext    Extensions

	peeked *lexer.Token
	block  []lexer.Token
	queue  []Event
	qhead  int
	rep    *report.Report
	done   bool
}

// NewStream creates an event stream over source.
func NewStream(source string, ext Extensions) *Stream {
	return &Stream{
		source: source,
		sc:     lexer.New(source),
		ext:    ext,
		rep:    report.New(),
	}
}

// Next returns the next event. ok is false once the input is exhausted.
func (s *Stream) Next() (Event, bool) {
	for s.qhead >= len(s.queue) {
		if !s.nextBlock() {
			return nil, false
		}
	}
	ev := s.queue[s.qhead]
	s.qhead++
	return ev, true
}

// Report returns the diagnostics collected so far. It is complete once
// Next has returned ok false.
func (s *Stream) Report() *report.Report {
	return s.rep
}

// Parse consumes source eagerly and returns every event plus the full
// report. It never fails: malformed input degrades to text events with
// diagnostics attached.
func Parse(source string, ext Extensions) ([]Event, *report.Report) {
	s := NewStream(source, ext)
	var events []Event
	for {
		ev, ok := s.Next()
		if !ok {
			return events, s.Report()
		}
		events = append(events, ev)
	}
}

// ParseMetadata scans only `>> key: value` lines and returns their
// Metadata events. Everything else is skipped without being parsed, which
// makes this considerably cheaper than Parse for indexing.
func ParseMetadata(source string) ([]Event, *report.Report) {
	s := NewStream(source, NoExtensions)
	var events []Event
	for s.nextMetadataBlock() {
		for s.qhead < len(s.queue) {
			if ev, ok := s.queue[s.qhead].(Metadata); ok {
				events = append(events, ev)
			}
			s.qhead++
		}
	}
	return events, s.Report()
}

// peekToken looks one token ahead without consuming it.
func (s *Stream) peekToken() lexer.Token {
	if s.peeked == nil {
		t := s.sc.Next()
		s.peeked = &t
	}
	return *s.peeked
}

func (s *Stream) nextToken() lexer.Token {
	if s.peeked != nil {
		t := *s.peeked
		s.peeked = nil
		return t
	}
	return s.sc.Next()
}

// nextBlock gathers the next non-empty block of tokens and parses it,
// appending its events and diagnostics. It returns false at end of input.
func (s *Stream) nextBlock() bool {
	if s.done {
		return false
	}
	s.block = s.block[:0]

	for s.peekToken().Kind == lexer.Newline {
		s.nextToken()
	}
	first := s.peekToken()
	if first.Kind == lexer.EOF {
		s.done = true
		return false
	}

	// Metadata and section markers bind to a single line even when
	// multiline steps are on.
	singleLine := !s.ext.Has(Multiline) ||
		first.Kind == lexer.Meta || first.Kind == lexer.Eq

	for {
		tok := s.nextToken()
		if tok.Kind == lexer.EOF {
			break
		}
		if tok.Kind == lexer.Newline {
			if singleLine {
				break
			}
			next := s.peekToken()
			if next.Kind == lexer.Newline {
				s.nextToken()
				break
			}
			if next.Kind == lexer.Meta || next.Kind == lexer.Eq || next.Kind == lexer.EOF {
				break
			}
			// Soft break inside a multiline step.
			s.block = append(s.block, tok)
			continue
		}
		s.block = append(s.block, tok)
	}

	if len(s.block) == 0 {
		return s.nextBlock()
	}

	b := newBlockParser(s.block, s.source, s.ext)
	b.parseBlock()
	s.queue = append(s.queue, b.events...)
	for _, d := range b.diags {
		s.rep.Add(d)
	}
	return true
}

// nextMetadataBlock advances to the next metadata line, skipping every
// other kind of content unparsed. It returns false at end of input.
func (s *Stream) nextMetadataBlock() bool {
	if s.done {
		return false
	}
	s.block = s.block[:0]

	atLineStart := true
	inMeta := false
	for {
		tok := s.nextToken()
		if tok.Kind == lexer.EOF {
			break
		}
		if inMeta {
			if tok.Kind == lexer.Newline {
				break
			}
			s.block = append(s.block, tok)
			continue
		}
		if tok.Kind == lexer.Meta && atLineStart {
			s.block = append(s.block, tok)
			inMeta = true
			continue
		}
		atLineStart = tok.Kind == lexer.Newline
	}

	if !inMeta || len(s.block) == 0 {
		s.done = true
		return false
	}

	b := newBlockParser(s.block, s.source, s.ext)
	if !b.tryParse(b.metadataEntry) {
		b.degradeToText("malformed metadata entry")
	}
	s.queue = append(s.queue, b.events...)
	for _, d := range b.diags {
		s.rep.Add(d)
	}
	return true
}
