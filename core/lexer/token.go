// Package lexer turns recipe markup source into a flat token stream.
//
// The scanner is total: every byte of the input lands in exactly one token
// and no input can make it fail. Tokens carry only a kind and a span; the
// lexeme is recovered by slicing the original source, so the stream stays
// cheap even for large recipes.
package lexer

import (
	"fmt"

	"github.com/FocuswithJustin/Galley/core/span"
)

// Kind classifies a token.
type Kind uint8

const (
	EOF          Kind = iota
	Newline           // \n, \r\n or a lone \r
	Whitespace        // run of spaces and tabs
	Word              // letters, underscores and non-ASCII runs
	Int               // digit run
	Float             // digits '.' digits, or '.' digits
	Punct             // any other single rune
	Escaped           // backslash plus the escaped rune
	LineComment       // "--" to end of line
	BlockComment      // "[- ... -]", newline-crossing
	At                // @
	Hash              // #
	Tilde             // ~
	OpenBrace         // {
	CloseBrace        // }
	OpenParen         // (
	CloseParen        // )
	Or                // |
	Percent           // %
	Star              // *
	And               // &
	Plus              // +
	Minus             // -
	Question          // ?
	Eq                // =
	Slash             // /
	Colon             // :
	Meta              // >>
	TextMarker        // >
)

var kindNames = map[Kind]string{
	EOF:          "eof",
	Newline:      "newline",
	Whitespace:   "whitespace",
	Word:         "word",
	Int:          "int",
	Float:        "float",
	Punct:        "punct",
	Escaped:      "escaped",
	LineComment:  "line comment",
	BlockComment: "block comment",
	At:           "@",
	Hash:         "#",
	Tilde:        "~",
	OpenBrace:    "{",
	CloseBrace:   "}",
	OpenParen:    "(",
	CloseParen:   ")",
	Or:           "|",
	Percent:      "%",
	Star:         "*",
	And:          "&",
	Plus:         "+",
	Minus:        "-",
	Question:     "?",
	Eq:           "=",
	Slash:        "/",
	Colon:        ":",
	Meta:         ">>",
	TextMarker:   ">",
}

// String returns the display name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one lexical unit of the source.
type Token struct {
	Kind Kind
	Span span.Span
}

// Text returns the token's lexeme from the source it was scanned from.
func (t Token) Text(source string) string {
	return t.Span.Text(source)
}

// Len returns the byte length of the token.
func (t Token) Len() int {
	return t.Span.Len()
}

// String renders the token for debugging and test failures.
func (t Token) String() string {
	return fmt.Sprintf("%s@%s", t.Kind, t.Span)
}
