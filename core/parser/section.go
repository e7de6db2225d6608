package parser

import (
	"github.com/FocuswithJustin/Galley/core/lexer"
)

// section parses a `= name =` block. The closing equals run is optional
// and anything after it makes the whole line ordinary step text.
func (b *blockParser) section() bool {
	if b.peek() != lexer.Eq {
		return false
	}
	for b.peek() == lexer.Eq {
		b.bump()
	}

	nameStart := b.pos
	for b.peek() != lexer.Eq && !b.atEnd() {
		b.bump()
	}
	name := b.textRun(nameStart)

	for b.peek() == lexer.Eq {
		b.bump()
	}
	b.skipWhitespace()
	if !b.atEnd() {
		return false
	}

	b.event(Section{Name: name, Sp: b.blockSpan()})
	return true
}
