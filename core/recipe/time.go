package recipe

import (
	"fmt"
	"math"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// RecipeTime is a recipe's time metadata, in whole minutes: either one
// declared total or a prep/cook composition.
type RecipeTime struct {
	// Total is the declared total, meaningful when Composed is false.
	Total uint32 `json:"total,omitempty"`

	// Prep and Cook are the composed parts; nil when undeclared.
	Prep *uint32 `json:"prep,omitempty"`
	Cook *uint32 `json:"cook,omitempty"`

	// Composed distinguishes the prep/cook form from a single total.
	Composed bool `json:"composed,omitempty"`
}

// Minutes returns the minutes the entry stands for: the total, or the sum
// of the declared composed parts.
func (t *RecipeTime) Minutes() uint32 {
	if !t.Composed {
		return t.Total
	}
	var total uint32
	if t.Prep != nil {
		total += *t.Prep
	}
	if t.Cook != nil {
		total += *t.Cook
	}
	return total
}

func (t *RecipeTime) String() string {
	m := t.Minutes()
	if h := m / 60; h > 0 && m%60 > 0 {
		return fmt.Sprintf("%dh %dmin", h, m%60)
	} else if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dmin", m)
}

// timeGrammar matches human time strings: a bare number of minutes, or a
// sequence of value/unit pairs.
// Examples: "90", "45 min", "1h 30min", "2 hours 15 minutes", "1.5h"
//
type timeGrammar struct {
	Parts []timePart `parser:"@@+"`
}

type timePart struct {
	Value float64 `parser:"(@Float | @Int)"`
	Unit  string  `parser:"@Ident?"`
}

var timeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Float", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var timeParser = participle.MustBuild[timeGrammar](
	participle.Lexer(timeLexer),
	participle.Elide("Whitespace"),
)

// timeUnitSeconds maps a lowercased time unit spelling to seconds.
var timeUnitSeconds = map[string]float64{
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1,
	"m": 60, "min": 60, "mins": 60, "minute": 60, "minutes": 60,
	"h": 3600, "hr": 3600, "hrs": 3600, "hour": 3600, "hours": 3600,
	"d": 86400, "day": 86400, "days": 86400,
}

// ParseTimeValue reads a time metadata value into whole minutes, rounding
// partial minutes up. A bare number counts as minutes; with more than one
// part every part needs a unit.
func ParseTimeValue(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time value")
	}
	parsed, err := timeParser.ParseString("", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}

	var secs float64
	for _, p := range parsed.Parts {
		if p.Unit == "" {
			if len(parsed.Parts) > 1 {
				return 0, fmt.Errorf("missing unit in time %q", s)
			}
			secs = p.Value * 60
			break
		}
		mult, ok := timeUnitSeconds[strings.ToLower(p.Unit)]
		if !ok {
			return 0, fmt.Errorf("unknown time unit %q", p.Unit)
		}
		secs += p.Value * mult
	}

	mins := math.Ceil(secs / 60)
	if mins > math.MaxUint32 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return uint32(mins), nil
}
