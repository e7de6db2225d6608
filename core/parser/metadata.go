package parser

import (
	"github.com/FocuswithJustin/Galley/core/lexer"
)

// metadataEntry parses a `>> key: value` block. The key and value runs
// keep their surrounding whitespace; trimming belongs to the analyzer so
// raw entries round-trip.
func (b *blockParser) metadataEntry() bool {
	if b.peek() != lexer.Meta {
		return false
	}
	b.bump()

	keyStart := b.pos
	for b.peek() != lexer.Colon && !b.atEnd() {
		b.bump()
	}
	if b.peek() != lexer.Colon {
		return false
	}
	key := b.textRun(keyStart)
	if key.IsEmpty() {
		return false
	}
	b.bump()

	valueStart := b.pos
	b.pos = len(b.tokens)
	value := b.textRun(valueStart)
	if value.IsEmpty() {
		b.warn("parser", key.Sp, "empty metadata value for key %q", key.Trimmed()).
			WithHelp("add a value after the colon or drop the entry")
	}

	b.event(Metadata{Key: key, Value: value, Sp: b.blockSpan()})
	return true
}
