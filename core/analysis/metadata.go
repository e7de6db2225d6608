package analysis

import (
	"fmt"

	"github.com/FocuswithJustin/Galley/core/parser"
	"github.com/FocuswithJustin/Galley/core/recipe"
	"github.com/FocuswithJustin/Galley/core/span"
)

// metadata records one raw entry and interprets it: recognized keys parse
// into the special set first, then the caller's validator gets its say.
// The raw key and value always land in the entry list so metadata
// round-trips unchanged.
func (a *analyzer) metadata(ev parser.Metadata) {
	key, value := ev.Key.Trimmed(), ev.Value.Trimmed()
	a.out.Metadata.Add(key, value)

	if sk, ok := recipe.CanonicalKey(key); ok {
		a.specialKey(sk, value, ev)
	}

	if a.opts.MetadataCheck == nil {
		return
	}
	res := a.opts.MetadataCheck(key, value)
	if !res.Rejected {
		return
	}
	msg := res.Reason
	if msg == "" {
		msg = fmt.Sprintf("invalid metadata entry %q", key)
	}
	if res.Fatal {
		a.error(ev.Sp, "%s", msg)
	} else {
		a.warn(ev.Sp, "%s", msg)
	}
}

// specialKey parses a recognized key's value. Parse failures warn and
// leave only the raw entry; a repeat of an already applied key warns,
// with the later value winning.
func (a *analyzer) specialKey(sk recipe.SpecialKey, value string, ev parser.Metadata) {
	redefined := a.seen[sk]
	sp := ev.Value.Sp
	special := &a.out.Metadata.Special

	switch sk {
	case recipe.KeyServings:
		a.servings(value, sp)

	case recipe.KeyTime:
		mins, err := recipe.ParseTimeValue(value)
		if err != nil {
			a.warn(sp, "invalid time value: %v", err)
			return
		}
		if t := special.Time; t != nil {
			if t.Composed {
				a.warn(sp, "total time replaces the prep/cook times declared before")
			} else {
				a.warn(sp, "redefined special key %q", sk)
			}
		}
		special.Time = &recipe.RecipeTime{Total: mins}
		a.timeSp = ev.Sp
		a.seen[sk] = true

	case recipe.KeyPrepTime, recipe.KeyCookTime:
		a.composedTimePart(sk, value, ev)

	case recipe.KeyTags:
		valid, invalid := recipe.ParseTags(value)
		for _, tag := range invalid {
			a.warn(sp, "invalid tag %q", tag).
				WithHelp("tags are lowercase words joined by dashes, up to 32 characters")
		}
		if redefined {
			a.warn(sp, "redefined special key %q", sk)
		}
		special.Tags = valid
		a.seen[sk] = true

	case recipe.KeyEmoji:
		if !recipe.IsEmoji(value) {
			a.warn(sp, "%q is not an emoji", value)
			return
		}
		if redefined {
			a.warn(sp, "redefined special key %q", sk)
		}
		special.Emoji = value
		a.seen[sk] = true

	case recipe.KeyAuthor, recipe.KeySource:
		who, err := recipe.ParseNameAndURL(value)
		if err != nil {
			a.warn(sp, "invalid %s: %v", sk, err)
			return
		}
		if redefined {
			a.warn(sp, "redefined special key %q", sk)
		}
		if sk == recipe.KeyAuthor {
			special.Author = &who
		} else {
			special.Source = &who
		}
		a.seen[sk] = true
	}
}

// servings interprets one servings line. The recipe scales from exactly
// one declared count, so several distinct amounts on a line, or a second
// line changing the amount, are errors rather than warnings.
func (a *analyzer) servings(value string, sp span.Span) {
	vals, err := recipe.ParseServings(value)
	if err != nil {
		a.warn(sp, "invalid servings value: %v", err)
		return
	}
	n := vals[0]
	for _, v := range vals[1:] {
		if v != n {
			a.error(sp, "conflicting servings amounts").
				WithHelp("declare a single amount, e.g. `>> servings: 4`")
			return
		}
	}
	if declared := a.out.Metadata.Special.Servings; declared != nil {
		if *declared != n {
			a.error(sp, "servings already declared as %d", *declared).
				WithHelp("remove one of the declarations or make them match")
			return
		}
		a.warn(sp, "redefined special key %q", recipe.KeyServings)
		return
	}
	a.out.Metadata.Special.Servings = &n
	a.seen[recipe.KeyServings] = true
}

// composedTimePart folds a prep or cook time into the composed form. The
// composed and total forms are exclusive; declaring one after the other
// replaces the earlier declaration.
func (a *analyzer) composedTimePart(sk recipe.SpecialKey, value string, ev parser.Metadata) {
	mins, err := recipe.ParseTimeValue(value)
	if err != nil {
		a.warn(ev.Value.Sp, "invalid %s value: %v", sk, err)
		return
	}
	special := &a.out.Metadata.Special
	t := special.Time
	if t != nil && !t.Composed {
		a.warn(ev.Value.Sp, "%s replaces the total time declared before", sk)
		t = nil
	}
	if t == nil {
		t = &recipe.RecipeTime{Composed: true}
		special.Time = t
	}
	part := &t.Prep
	if sk == recipe.KeyCookTime {
		part = &t.Cook
	}
	if *part != nil {
		a.warn(ev.Value.Sp, "redefined special key %q", sk)
	}
	v := mins
	*part = &v
	a.timeSp = ev.Sp
	a.seen[sk] = true
}

// timeRedundancy fires the single warning for a recipe that declares a
// time and also has step timers: one of the two is redundant, and the
// configured precedence picks which.
func (a *analyzer) timeRedundancy() {
	if a.out.Metadata.Special.Time == nil || !a.hasTimers {
		return
	}
	if a.opts.TimePrecedence == ComposedWins {
		a.warn(a.timeSp, "step timers override the declared time")
		return
	}
	a.warn(a.timeSp, "declared time overrides the total composed from step timers")
}
