package parser

import (
	"strconv"
	"unicode"

	"github.com/FocuswithJustin/Galley/core/lexer"
	"github.com/FocuswithJustin/Galley/core/span"
)

// step parses one step block: prose interleaved with @ingredient,
// #cookware and ~timer components. Blocks holding only whitespace or
// comments produce no events at all.
func (b *blockParser) step() {
	isText := false
	if b.ext.Has(TextSteps) && b.peek() == lexer.TextMarker {
		b.bump()
		isText = true
	}

	mark := len(b.events)
	sp := b.blockSpan()
	b.event(StepStart{IsText: isText, Sp: span.Point(sp.Start)})

	if isText {
		start := b.pos
		b.pos = len(b.tokens)
		if run := b.textRun(start); run.Value != "" {
			b.event(Text{Run: run})
		}
	} else {
		b.stepContent()
	}

	visible := false
	for _, ev := range b.events[mark+1:] {
		if t, ok := ev.(Text); ok && t.Run.IsEmpty() {
			continue
		}
		visible = true
		break
	}
	if !visible {
		b.events = b.events[:mark]
		return
	}
	b.event(StepEnd{IsText: isText, Sp: span.Point(sp.End)})
}

// stepContent walks the block collecting prose and components. A marker
// that fails to parse as a component stays inside the running text.
func (b *blockParser) stepContent() {
	textStart := b.pos
	for !b.atEnd() {
		switch b.peek() {
		case lexer.At, lexer.Hash, lexer.Tilde:
			if b.tryParse(func() bool { return b.component(textStart) }) {
				textStart = b.pos
				continue
			}
			b.bump()
		default:
			b.bump()
		}
	}
	if b.pos > textStart {
		if run := b.textRun(textStart); run.Value != "" {
			b.event(Text{Run: run})
		}
	}
}

// component parses the component starting at the current marker token.
// The pending prose run since flushFrom is emitted first so events keep
// source order; on failure the caller's tryParse rolls that back too.
func (b *blockParser) component(flushFrom int) bool {
	if b.pos > flushFrom {
		if run := b.textRun(flushFrom); run.Value != "" {
			b.event(Text{Run: run})
		}
	}

	start := b.pos
	marker := b.bump()

	var mods Modifiers
	var modSpan span.Span
	var ref *IntermediateRef
	if marker.Kind != lexer.Tilde {
		mods, modSpan, ref = b.modifiers(marker.Kind == lexer.At)
	}

	if brace := b.findBrace(); brace >= 0 && b.aliasOK(brace) {
		b.closedComponent(marker.Kind, start, mods, modSpan, ref, brace)
		return true
	}
	return b.wordComponent(marker.Kind, start, mods, modSpan, ref)
}

// modifiers consumes the flag run after an @ or # marker. A duplicate
// flag is an error but parsing keeps going with the bit set once.
// Intermediate `&(...)` targets are only read when allowRef is set.
func (b *blockParser) modifiers(allowRef bool) (Modifiers, span.Span, *IntermediateRef) {
	start := b.pos
	if !b.ext.Has(ComponentModifiers) {
		return 0, b.spanFrom(start), nil
	}
	var mods Modifiers
	var ref *IntermediateRef
	for {
		var flag Modifiers
		switch b.peek() {
		case lexer.At:
			flag = ModRecipe
		case lexer.And:
			flag = ModRef
		case lexer.Minus:
			flag = ModHidden
		case lexer.Question:
			flag = ModOptional
		case lexer.Plus:
			flag = ModNew
		default:
			return mods, b.spanFrom(start), ref
		}
		tok := b.bump()
		if mods.Has(flag) {
			b.error("parser", tok.Span, "duplicate modifier %q", b.text(tok))
		}
		mods |= flag
		if flag == ModRef && allowRef && ref == nil &&
			b.ext.Has(IntermediateRefs) && b.peek() == lexer.OpenParen {
			b.tryParse(func() bool {
				ref = b.intermediateRef()
				return ref != nil
			})
		}
	}
}

// intermediateRef parses `(2)`, `(~1)`, `(=2)` or `(=~1)` after `&`.
// Anything else rolls back silently and the parens read as name text.
func (b *blockParser) intermediateRef() *IntermediateRef {
	start := b.pos
	b.bump() // (
	target := TargetStep
	relative := false
	if b.peek() == lexer.Eq {
		b.bump()
		target = TargetSection
	}
	if b.peek() == lexer.Tilde {
		b.bump()
		relative = true
	}
	if b.peek() != lexer.Int {
		return nil
	}
	tok := b.bump()
	n, err := strconv.ParseInt(b.text(tok), 10, 32)
	if err != nil {
		return nil
	}
	if b.peek() != lexer.CloseParen {
		return nil
	}
	b.bump()
	return &IntermediateRef{
		Target:   target,
		Relative: relative,
		Index:    int32(n),
		Sp:       b.spanFrom(start),
	}
}

// findBrace looks ahead for the opening brace of the long component form.
// The scan stops at other markers and at line breaks.
func (b *blockParser) findBrace() int {
	for i := b.pos; i < len(b.tokens); i++ {
		switch b.tokens[i].Kind {
		case lexer.OpenBrace:
			return i
		case lexer.At, lexer.Hash, lexer.Tilde, lexer.Newline:
			return -1
		}
	}
	return -1
}

// aliasOK reports whether the name region before the brace holds at most
// one alias separator. With a second `|` the long form is rejected and
// the marker falls back to the single word reading.
func (b *blockParser) aliasOK(brace int) bool {
	if !b.ext.Has(ComponentAlias) {
		return true
	}
	seen := false
	for i := b.pos; i < brace; i++ {
		if b.tokens[i].Kind == lexer.Or {
			if seen {
				return false
			}
			seen = true
		}
	}
	return true
}

// closedComponent parses the `name{...}` form. It always consumes the
// component one way or another; unrecoverable shapes degrade to a Text
// event over the same bytes plus a diagnostic.
func (b *blockParser) closedComponent(kind lexer.Kind, start int, mods Modifiers, modSpan span.Span, ref *IntermediateRef, brace int) {
	nameStart := b.pos
	orIdx := -1
	if b.ext.Has(ComponentAlias) {
		for i := b.pos; i < brace; i++ {
			if b.tokens[i].Kind == lexer.Or {
				orIdx = i
				break
			}
		}
	}

	nameEnd := brace
	if orIdx >= 0 {
		nameEnd = orIdx
	}
	b.pos = nameEnd
	name := b.textRun(nameStart)

	var alias TextRun
	if orIdx >= 0 {
		b.bump() // |
		aliasStart := b.pos
		b.pos = brace
		alias = b.textRun(aliasStart)
		if alias.IsEmpty() {
			b.warn("parser", span.Point(b.tokens[orIdx].Span.End), "empty alias, ignoring the separator")
			alias = TextRun{}
		}
	}

	closeIdx := -1
	for i := brace + 1; i < len(b.tokens); i++ {
		k := b.tokens[i].Kind
		if k == lexer.CloseBrace {
			closeIdx = i
			break
		}
		if k == lexer.Newline {
			break
		}
	}
	if closeIdx < 0 {
		for !b.atEnd() && b.peek() != lexer.Newline {
			b.bump()
		}
		b.warn("parser", b.tokens[brace].Span, "missing closing brace, treating the %s as text", componentName(kind)).
			WithHelp("add a matching } before the end of the line")
		b.event(Text{Run: b.textRun(start)})
		return
	}

	amount := b.amountFrom(brace, closeIdx)
	b.pos = closeIdx + 1

	if name.IsEmpty() {
		if kind != lexer.Tilde {
			b.error("parser", b.spanFrom(start), "missing %s name", componentName(kind)).
				WithHelp("write the name before the braces, e.g. @name{}")
			b.event(Text{Run: b.textRun(start)})
			return
		}
		if amount == nil {
			b.warn("parser", b.spanFrom(start), "timer with no name and no duration, treating it as text")
			b.event(Text{Run: b.textRun(start)})
			return
		}
	}

	if kind == lexer.Tilde && !alias.IsEmpty() {
		b.warn("parser", alias.Sp, "a timer cannot have an alias, ignoring it")
		alias = TextRun{}
	}
	if kind == lexer.Hash && amount != nil && amount.UnitSep {
		b.warn("parser", amount.UnitSp, "a cookware amount cannot have a unit, ignoring it")
		amount.Unit = ""
		amount.UnitSep = false
	}
	if kind == lexer.Tilde && amount == nil {
		b.timerMissingDuration(b.spanFrom(start), name)
	}

	note := b.noteAfter(kind)
	fixed := b.fixedMarker(kind)
	b.emitComponent(kind, b.spanFrom(start), name, alias, amount, note, mods, modSpan, ref, fixed)
}

// wordComponent parses the short `@word` form: a single run of word and
// number tokens right after the marker.
func (b *blockParser) wordComponent(kind lexer.Kind, start int, mods Modifiers, modSpan span.Span, ref *IntermediateRef) bool {
	if b.peek() != lexer.Word {
		return false
	}
	nameStart := b.pos
	for b.peek() == lexer.Word || b.peek() == lexer.Int {
		b.bump()
	}
	name := b.textRun(nameStart)
	b.checkName(name)

	if b.peek() == lexer.Float {
		b.warn("parser", b.tokens[b.pos].Span, "number right after the %s name is ambiguous", componentName(kind)).
			WithHelp("separate it with a space or use the {} form")
	}

	if kind == lexer.Tilde {
		b.timerMissingDuration(b.spanFrom(start), name)
	}

	note := b.noteAfter(kind)
	fixed := b.fixedMarker(kind)
	b.emitComponent(kind, b.spanFrom(start), name, TextRun{}, nil, note, mods, modSpan, ref, fixed)
	return true
}

// checkName warns once about characters that do not belong in a short
// component name.
func (b *blockParser) checkName(name TextRun) {
	for _, r := range name.Value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			continue
		}
		b.warn("parser", name.Sp, "invalid character %q in component name", r).
			WithHelp("use the {} form for names with punctuation")
		return
	}
}

func (b *blockParser) timerMissingDuration(sp span.Span, name TextRun) {
	diag := b.warn
	if b.ext.Has(TimerRequiresTime) {
		diag = b.error
	}
	diag("parser", sp, "timer %q has no duration", name.Trimmed()).
		WithHelp("write it as ~name{1%min}")
}

// noteAfter parses a trailing `(note)`. An unterminated note rolls back
// and the parenthesis stays step text.
func (b *blockParser) noteAfter(kind lexer.Kind) TextRun {
	if kind == lexer.Tilde || !b.ext.Has(ComponentNote) || b.peek() != lexer.OpenParen {
		return TextRun{}
	}
	var note TextRun
	b.tryParse(func() bool {
		b.bump() // (
		inner := b.pos
		for b.peek() != lexer.CloseParen {
			if b.atEnd() || b.peek() == lexer.Newline {
				return false
			}
			b.bump()
		}
		note = b.textRun(inner)
		b.bump() // )
		return true
	})
	return note
}

// fixedMarker consumes a `*` directly after the component, pinning its
// quantity against scaling. Timers never scale so the star stays text.
func (b *blockParser) fixedMarker(kind lexer.Kind) bool {
	if kind == lexer.Tilde || b.peek() != lexer.Star {
		return false
	}
	b.bump()
	return true
}

func (b *blockParser) emitComponent(kind lexer.Kind, sp span.Span, name, alias TextRun, amount *Amount, note TextRun, mods Modifiers, modSpan span.Span, ref *IntermediateRef, fixed bool) {
	switch kind {
	case lexer.At:
		b.event(Ingredient{
			Name:         name,
			Alias:        alias,
			Amount:       amount,
			Note:         note,
			Modifiers:    mods,
			ModSpan:      modSpan,
			Intermediate: ref,
			Fixed:        fixed,
			Sp:           sp,
		})
	case lexer.Hash:
		b.event(Cookware{
			Name:      name,
			Alias:     alias,
			Amount:    amount,
			Note:      note,
			Modifiers: mods,
			ModSpan:   modSpan,
			Fixed:     fixed,
			Sp:        sp,
		})
	case lexer.Tilde:
		b.event(Timer{Name: name, Amount: amount, Sp: sp})
	}
}

func componentName(kind lexer.Kind) string {
	switch kind {
	case lexer.At:
		return "ingredient"
	case lexer.Hash:
		return "cookware"
	case lexer.Tilde:
		return "timer"
	}
	return "component"
}
