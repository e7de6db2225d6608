package parser

import (
	"strings"

	"github.com/FocuswithJustin/Galley/core/lexer"
	"github.com/FocuswithJustin/Galley/core/report"
	"github.com/FocuswithJustin/Galley/core/span"
)

// blockParser walks one block's tokens with arbitrary lookahead and
// rollback. Events and diagnostics buffer locally so a failed parse
// attempt can be rolled back without leaking either.
type blockParser struct {
	tokens []lexer.Token
	pos    int
	source string
	ext    Extensions

	events []Event
	diags  []*report.Diag
}

func newBlockParser(tokens []lexer.Token, source string, ext Extensions) *blockParser {
	return &blockParser{tokens: tokens, source: source, ext: ext}
}

// parseBlock dispatches on the block's first token: metadata, section, or
// step. Failed metadata/section parses degrade to a step with a warning.
func (b *blockParser) parseBlock() {
	switch b.peek() {
	case lexer.Meta:
		if b.tryParse(b.metadataEntry) {
			return
		}
		b.warn("parser", b.blockSpan(), "malformed metadata entry, treating as step text")
	case lexer.Eq:
		if b.ext.Has(Sections) {
			if b.tryParse(b.section) {
				return
			}
			b.warn("parser", b.blockSpan(), "malformed section marker, treating as step text")
		}
	}
	b.step()
}

// tryParse runs rule and rolls position, events and diagnostics back when
// it reports failure.
func (b *blockParser) tryParse(rule func() bool) bool {
	pos, ne, nd := b.pos, len(b.events), len(b.diags)
	if rule() {
		return true
	}
	b.pos = pos
	b.events = b.events[:ne]
	b.diags = b.diags[:nd]
	return false
}

// peek returns the kind of the current token, or EOF past the end.
func (b *blockParser) peek() lexer.Kind {
	return b.peekAt(0)
}

func (b *blockParser) peekAt(n int) lexer.Kind {
	if b.pos+n >= len(b.tokens) {
		return lexer.EOF
	}
	return b.tokens[b.pos+n].Kind
}

// bump consumes and returns the current token. Calling it past the end is
// a parser bug; the zero token it returns keeps the walk total anyway.
func (b *blockParser) bump() lexer.Token {
	if b.pos >= len(b.tokens) {
		return lexer.Token{Kind: lexer.EOF, Span: span.Point(b.blockSpan().End)}
	}
	t := b.tokens[b.pos]
	b.pos++
	return t
}

func (b *blockParser) atEnd() bool {
	return b.pos >= len(b.tokens)
}

// text returns a token's lexeme.
func (b *blockParser) text(t lexer.Token) string {
	return t.Text(b.source)
}

// blockSpan covers the whole block.
func (b *blockParser) blockSpan() span.Span {
	if len(b.tokens) == 0 {
		return span.Span{}
	}
	return span.New(b.tokens[0].Span.Start, b.tokens[len(b.tokens)-1].Span.End)
}

// spanFrom covers the tokens from index start up to the current position.
func (b *blockParser) spanFrom(start int) span.Span {
	if start >= len(b.tokens) {
		return span.Point(b.blockSpan().End)
	}
	if b.pos <= start {
		return span.Point(b.tokens[start].Span.Start)
	}
	end := b.pos
	if end > len(b.tokens) {
		end = len(b.tokens)
	}
	return span.New(b.tokens[start].Span.Start, b.tokens[end-1].Span.End)
}

func (b *blockParser) skipWhitespace() {
	for b.peek() == lexer.Whitespace || b.peek() == lexer.LineComment || b.peek() == lexer.BlockComment {
		b.bump()
	}
}

func (b *blockParser) event(ev Event) {
	b.events = append(b.events, ev)
}

func (b *blockParser) warn(code string, sp span.Span, format string, args ...any) *report.Diag {
	d := report.Warning(code, sp, format, args...)
	b.diags = append(b.diags, d)
	return d
}

func (b *blockParser) error(code string, sp span.Span, format string, args ...any) *report.Diag {
	d := report.Error(code, sp, format, args...)
	b.diags = append(b.diags, d)
	return d
}

// renderToken appends a token's visible text to sb: escapes render as the
// escaped rune, comments vanish, soft breaks become a single newline.
func (b *blockParser) renderToken(sb *strings.Builder, t lexer.Token) {
	switch t.Kind {
	case lexer.LineComment, lexer.BlockComment:
	case lexer.Escaped:
		text := b.text(t)
		if len(text) > 1 {
			sb.WriteString(text[1:])
		}
	case lexer.Newline:
		sb.WriteByte('\n')
	default:
		sb.WriteString(b.text(t))
	}
}

// textRun renders the tokens in [start, b.pos) into a TextRun.
func (b *blockParser) textRun(start int) TextRun {
	var sb strings.Builder
	end := b.pos
	if end > len(b.tokens) {
		end = len(b.tokens)
	}
	for _, t := range b.tokens[start:end] {
		b.renderToken(&sb, t)
	}
	return TextRun{Value: sb.String(), Sp: b.spanFrom(start)}
}

// degradeToText consumes the rest of the block as one text step and warns.
// Used when a block-level construct is beyond recovery.
func (b *blockParser) degradeToText(reason string) {
	sp := b.blockSpan()
	b.warn("parser", sp, "%s", reason)
	b.pos = len(b.tokens)
	run := b.textRun(0)
	b.event(StepStart{Sp: span.Point(sp.Start)})
	b.event(Text{Run: run})
	b.event(StepEnd{Sp: span.Point(sp.End)})
}
