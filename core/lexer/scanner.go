package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/Galley/core/span"
)

// Scanner is a pull-based tokenizer over one source text. The zero value is
// not usable; construct with New.
type Scanner struct {
	source string
	pos    int
}

// New creates a scanner positioned at the start of source.
func New(source string) *Scanner {
	return &Scanner{source: source}
}

// Reset rewinds the scanner to the start of its source.
func (s *Scanner) Reset() {
	s.pos = 0
}

// Next returns the next token. At the end of input it returns an EOF token
// with an empty span, forever.
func (s *Scanner) Next() Token {
	start := s.pos
	if start >= len(s.source) {
		return Token{Kind: EOF, Span: span.Point(len(s.source))}
	}

	r, size := utf8.DecodeRuneInString(s.source[s.pos:])
	s.pos += size

	switch r {
	case '\n':
		return s.token(Newline, start)
	case '\r':
		if s.peekByte() == '\n' {
			s.pos++
		}
		return s.token(Newline, start)
	case ' ', '\t':
		for b := s.peekByte(); b == ' ' || b == '\t'; b = s.peekByte() {
			s.pos++
		}
		return s.token(Whitespace, start)
	case '-':
		if s.peekByte() == '-' {
			s.pos++
			s.skipToLineEnd()
			return s.token(LineComment, start)
		}
		return s.token(Minus, start)
	case '[':
		if s.peekByte() == '-' {
			s.pos++
			s.skipBlockComment()
			return s.token(BlockComment, start)
		}
		return s.token(Punct, start)
	case '\\':
		// An escaped rune renders literally; a backslash before a line
		// break stays a plain backslash so it cannot swallow the break.
		if s.pos < len(s.source) {
			nr, nsize := utf8.DecodeRuneInString(s.source[s.pos:])
			if nr != '\n' && nr != '\r' {
				s.pos += nsize
				return s.token(Escaped, start)
			}
		}
		return s.token(Punct, start)
	case '>':
		if s.peekByte() == '>' {
			s.pos++
			return s.token(Meta, start)
		}
		return s.token(TextMarker, start)
	case '@':
		return s.token(At, start)
	case '#':
		return s.token(Hash, start)
	case '~':
		return s.token(Tilde, start)
	case '{':
		return s.token(OpenBrace, start)
	case '}':
		return s.token(CloseBrace, start)
	case '(':
		return s.token(OpenParen, start)
	case ')':
		return s.token(CloseParen, start)
	case '|':
		return s.token(Or, start)
	case '%':
		return s.token(Percent, start)
	case '*':
		return s.token(Star, start)
	case '&':
		return s.token(And, start)
	case '+':
		return s.token(Plus, start)
	case '?':
		return s.token(Question, start)
	case '=':
		return s.token(Eq, start)
	case '/':
		return s.token(Slash, start)
	case ':':
		return s.token(Colon, start)
	case '.':
		if isDigitByte(s.peekByte()) {
			s.skipDigits()
			return s.token(Float, start)
		}
		return s.token(Punct, start)
	}

	if isDigit(r) {
		return s.scanNumber(start)
	}
	if isWordRune(r) {
		for s.pos < len(s.source) {
			nr, nsize := utf8.DecodeRuneInString(s.source[s.pos:])
			if !isWordRune(nr) {
				break
			}
			s.pos += nsize
		}
		return s.token(Word, start)
	}
	return s.token(Punct, start)
}

// All drains the scanner and returns every remaining token, including the
// final EOF. Mostly useful in tests.
func (s *Scanner) All() []Token {
	var out []Token
	for {
		t := s.Next()
		out = append(out, t)
		if t.Kind == EOF {
			return out
		}
	}
}

func (s *Scanner) scanNumber(start int) Token {
	s.skipDigits()
	// A dot makes a float only when digits follow, so "3." stays an int
	// and its own punct.
	if s.peekByte() == '.' && s.pos+1 < len(s.source) && isDigitByte(s.source[s.pos+1]) {
		s.pos++
		s.skipDigits()
		return s.token(Float, start)
	}
	return s.token(Int, start)
}

func (s *Scanner) skipDigits() {
	for isDigitByte(s.peekByte()) {
		s.pos++
	}
}

func (s *Scanner) skipToLineEnd() {
	for s.pos < len(s.source) && s.source[s.pos] != '\n' && s.source[s.pos] != '\r' {
		s.pos++
	}
}

// skipBlockComment consumes up to and including the closing "-]". An
// unterminated comment runs to the end of input.
func (s *Scanner) skipBlockComment() {
	for s.pos < len(s.source) {
		if s.source[s.pos] == '-' && s.pos+1 < len(s.source) && s.source[s.pos+1] == ']' {
			s.pos += 2
			return
		}
		s.pos++
	}
}

func (s *Scanner) peekByte() byte {
	if s.pos >= len(s.source) {
		return 0
	}
	return s.source[s.pos]
}

func (s *Scanner) token(kind Kind, start int) Token {
	return Token{Kind: kind, Span: span.New(start, s.pos)}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

// isWordRune reports whether r belongs in a word token. ASCII words are
// letters and underscores; every other ASCII rune has its own kind or falls
// to punct. Non-ASCII runs (accented names, CJK, symbols like °) group into
// words as long as they are not whitespace.
func isWordRune(r rune) bool {
	if r == '_' {
		return true
	}
	if r < utf8.RuneSelf {
		return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
	}
	return !unicode.IsSpace(r)
}
