package parser

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Galley/core/lexer"
	"github.com/FocuswithJustin/Galley/core/quantity"
	"github.com/FocuswithJustin/Galley/core/span"
)

// amountFrom parses the tokens strictly between the braces at open and
// close. Empty bodies return nil; malformed values degrade to text
// values with a diagnostic instead of failing the whole component.
func (b *blockParser) amountFrom(open, close int) *Amount {
	inner := b.tokens[open+1 : close]
	sp := span.New(b.tokens[open].Span.Start, b.tokens[close].Span.End)

	sep := -1
	for i, t := range inner {
		if t.Kind == lexer.Percent {
			sep = i
			break
		}
	}

	valueToks := inner
	var unitToks []lexer.Token
	if sep >= 0 {
		valueToks = inner[:sep]
		unitToks = inner[sep+1:]
	}

	value, vsp, ok := b.parseValue(valueToks)
	if !ok {
		if sep >= 0 {
			b.warn("parser", b.tokens[open+1+sep].Span, "missing value before the unit separator")
		}
		return nil
	}

	a := &Amount{Value: value, ValueSp: vsp, Sp: sp}
	if sep >= 0 {
		a.UnitSep = true
		unit, usp := b.renderTrimmed(unitToks)
		a.Unit = unit
		if unit == "" {
			usp = span.Point(b.tokens[open+1+sep].Span.End)
		}
		a.UnitSp = usp
	}
	return a
}

// parseValue reads a quantity value out of a token slice: a number, a
// fraction like 2 1/2, a range like 1-2, or opaque text when nothing
// numeric matches. ok is false only for an empty slice.
func (b *blockParser) parseValue(tokens []lexer.Token) (quantity.Value, span.Span, bool) {
	tokens = trimTokens(tokens)
	if len(tokens) == 0 {
		return nil, span.Span{}, false
	}
	sp := span.New(tokens[0].Span.Start, tokens[len(tokens)-1].Span.End)

	var sig []lexer.Token
	for _, t := range tokens {
		switch t.Kind {
		case lexer.Whitespace, lexer.LineComment, lexer.BlockComment:
		default:
			sig = append(sig, t)
		}
	}

	if v := b.numericValue(sig, sp); v != nil {
		return v, sp, true
	}
	return quantity.Text(b.renderTokens(tokens)), sp, true
}

func (b *blockParser) numericValue(sig []lexer.Token, sp span.Span) quantity.Value {
	is := func(i int, k lexer.Kind) bool { return sig[i].Kind == k }
	num := func(i int) bool { return is(i, lexer.Int) || is(i, lexer.Float) }

	switch {
	case len(sig) == 1 && num(0):
		n, err := quantity.ParseNumber(b.text(sig[0]))
		if err != nil {
			b.warn("parser", sig[0].Span, "number out of range, keeping it as text")
			return nil
		}
		return n
	case len(sig) == 3 && is(0, lexer.Int) && is(1, lexer.Slash) && is(2, lexer.Int):
		return b.fractionValue(nil, sig[0], sig[2], sp)
	case len(sig) == 4 && is(0, lexer.Int) && is(1, lexer.Int) && is(2, lexer.Slash) && is(3, lexer.Int):
		return b.fractionValue(&sig[0], sig[1], sig[3], sp)
	case len(sig) == 3 && is(1, lexer.Minus) && num(0) && num(2):
		if !b.ext.Has(RangeValues) {
			return nil
		}
		return b.rangeValue(sig[0], sig[2], sp)
	}
	return nil
}

func (b *blockParser) fractionValue(wholeTok *lexer.Token, numTok, denTok lexer.Token, sp span.Span) quantity.Value {
	var whole int64
	var err error
	if wholeTok != nil {
		whole, err = strconv.ParseInt(b.text(*wholeTok), 10, 32)
	}
	n, errN := strconv.ParseInt(b.text(numTok), 10, 32)
	d, errD := strconv.ParseInt(b.text(denTok), 10, 32)
	if err != nil || errN != nil || errD != nil {
		b.warn("parser", sp, "number out of range, keeping it as text")
		return nil
	}
	if d == 0 {
		b.error("parser", denTok.Span, "division by zero").
			WithHelp("the denominator of a fraction cannot be zero")
		return nil
	}
	f, ok := quantity.NewFraction(int32(whole), int32(n), int32(d))
	if !ok {
		b.warn("parser", sp, "fraction out of range, keeping it as text")
		return nil
	}
	return f
}

func (b *blockParser) rangeValue(loTok, hiTok lexer.Token, sp span.Span) quantity.Value {
	lo, errLo := quantity.ParseNumber(b.text(loTok))
	hi, errHi := quantity.ParseNumber(b.text(hiTok))
	if errLo != nil || errHi != nil {
		b.warn("parser", sp, "number out of range, keeping it as text")
		return nil
	}
	if lo.Float() > hi.Float() {
		b.warn("parser", sp, "range bounds are reversed, swapping them")
	}
	return quantity.NewRange(lo, hi)
}

func (b *blockParser) renderTokens(tokens []lexer.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		b.renderToken(&sb, t)
	}
	return sb.String()
}

// renderTrimmed renders a token slice with edge whitespace and comment
// tokens dropped, returning the covered span of what remains.
func (b *blockParser) renderTrimmed(tokens []lexer.Token) (string, span.Span) {
	tokens = trimTokens(tokens)
	if len(tokens) == 0 {
		return "", span.Span{}
	}
	return b.renderTokens(tokens), span.New(tokens[0].Span.Start, tokens[len(tokens)-1].Span.End)
}

func trimTokens(tokens []lexer.Token) []lexer.Token {
	blank := func(k lexer.Kind) bool {
		return k == lexer.Whitespace || k == lexer.LineComment || k == lexer.BlockComment
	}
	for len(tokens) > 0 && blank(tokens[0].Kind) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && blank(tokens[len(tokens)-1].Kind) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
