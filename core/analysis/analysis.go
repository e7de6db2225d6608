// Package analysis resolves a parse event stream into the recipe model.
//
// The analyzer walks the events in order, building the section list and
// the component arenas, linking repeated occurrences through relations,
// interpreting the recognized metadata keys and checking unit labels
// against the converter. Every anomaly becomes a diagnostic on the
// returned report; analysis never fails and the model is always complete.
package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Galley/core/parser"
	"github.com/FocuswithJustin/Galley/core/quantity"
	"github.com/FocuswithJustin/Galley/core/recipe"
	"github.com/FocuswithJustin/Galley/core/report"
	"github.com/FocuswithJustin/Galley/core/span"
	"github.com/FocuswithJustin/Galley/core/units"
)

// MetadataResult is a metadata validator's verdict on one entry.
type MetadataResult struct {
	// Rejected flags the entry; Fatal upgrades the diagnostic from a
	// warning to an error.
	Rejected bool
	Fatal    bool

	// Reason replaces the default diagnostic message when set.
	Reason string
}

// Accept passes the entry unchanged.
func Accept() MetadataResult {
	return MetadataResult{}
}

// Reject flags the entry with a warning.
func Reject(reason string) MetadataResult {
	return MetadataResult{Rejected: true, Reason: reason}
}

// RejectFatal flags the entry with an error.
func RejectFatal(reason string) MetadataResult {
	return MetadataResult{Rejected: true, Fatal: true, Reason: reason}
}

// MetadataCheck vets one metadata entry after the recognized keys have
// been interpreted. The key and value arrive trimmed.
type MetadataCheck func(key, value string) MetadataResult

// RefCheckKind classifies a recipe reference lookup.
type RefCheckKind uint8

const (
	// RefFound means the referenced recipe exists.
	RefFound RefCheckKind = iota
	// RefNotFound means no recipe has that name.
	RefNotFound
	// RefAmbiguous means several recipes match the name.
	RefAmbiguous
)

// RefCheck is a recipe reference checker's verdict. Message, when set,
// replaces the default diagnostic text.
type RefCheck struct {
	Kind    RefCheckKind
	Message string
}

// RecipeChecker resolves `@@name` references against some recipe store.
type RecipeChecker func(name string) RefCheck

// TimePrecedence picks the redundancy warning direction when a recipe
// declares a time and also has step timers.
type TimePrecedence uint8

const (
	// DeclaredWins treats the declared time metadata as authoritative.
	DeclaredWins TimePrecedence = iota
	// ComposedWins treats the timer-composed total as authoritative.
	ComposedWins
)

// Options configures one analysis run. The zero value analyzes without a
// converter and without caller checks.
type Options struct {
	// Extensions should match the set the events were parsed with.
	Extensions parser.Extensions

	// Converter resolves unit labels and finds inline temperatures. Nil
	// skips every unit check.
	Converter *units.Converter

	// MetadataCheck, when set, vets each metadata entry after the
	// recognized keys have been interpreted.
	MetadataCheck MetadataCheck

	// RecipeChecker, when set, resolves `@@name` references.
	RecipeChecker RecipeChecker

	// TimePrecedence picks the wording of the redundancy warning fired
	// when a declared time and step timers coexist.
	TimePrecedence TimePrecedence
}

// Analyze folds a parse event stream into the recipe model. The returned
// report carries the semantic diagnostics only; zip it with the parser's
// report for the full picture.
func Analyze(events []parser.Event, opts Options) (*recipe.Recipe, *report.Report) {
	a := &analyzer{
		opts:          opts,
		out:           &recipe.Recipe{},
		rep:           report.New(),
		ingredientIdx: make(map[string]int32),
		cookwareIdx:   make(map[string]int32),
		seen:          make(map[recipe.SpecialKey]bool),
	}
	if opts.Converter != nil && opts.Extensions.Has(parser.Temperature) {
		a.tempRx = opts.Converter.TemperatureFinder()
	}
	for _, ev := range events {
		a.event(ev)
	}
	a.finish()
	return a.out, a.rep
}

// analyzer is the running state of one Analyze call.
type analyzer struct {
	opts Options
	out  *recipe.Recipe
	rep  *report.Report

	// section is the one being built, nil until a marker or content
	// arrives; steps counts its numbered steps so far.
	section *recipe.Section
	steps   int32

	// items collects the open step's content.
	items  []recipe.Item
	inStep bool
	isText bool

	// Definitions index by case-folded name and alias; references
	// resolve against the latest entry.
	ingredientIdx map[string]int32
	cookwareIdx   map[string]int32

	seen   map[recipe.SpecialKey]bool
	tempRx *regexp.Regexp

	// timeSp remembers the last time metadata line so the redundancy
	// warning against step timers can point at it.
	timeSp    span.Span
	hasTimers bool
}

func (a *analyzer) event(ev parser.Event) {
	switch e := ev.(type) {
	case parser.Metadata:
		a.metadata(e)
	case parser.Section:
		a.sectionMarker(e)
	case parser.StepStart:
		a.inStep = true
		a.isText = e.IsText
		a.items = nil
	case parser.StepEnd:
		a.endStep()
	case parser.Text:
		a.text(e)
	case parser.Ingredient:
		a.ingredient(e)
	case parser.Cookware:
		a.cookware(e)
	case parser.Timer:
		a.timer(e)
	}
}

func (a *analyzer) finish() {
	a.closeSection()
	a.timeRedundancy()
}

// ensureSection opens the implicit leading section when content arrives
// before any marker.
func (a *analyzer) ensureSection() *recipe.Section {
	if a.section == nil {
		a.section = &recipe.Section{}
	}
	return a.section
}

func (a *analyzer) closeSection() {
	if a.section == nil {
		return
	}
	a.out.Sections = append(a.out.Sections, *a.section)
	a.section = nil
	a.steps = 0
}

// sectionMarker closes the running section and opens the next. Explicit
// markers always produce a section, even an empty one, so intermediate
// section references count what the author wrote.
func (a *analyzer) sectionMarker(ev parser.Section) {
	a.closeSection()
	a.section = &recipe.Section{Name: ev.Name.Trimmed()}
}

func (a *analyzer) endStep() {
	if !a.inStep {
		return
	}
	a.inStep = false
	items := trimStepText(a.items)
	a.items = nil
	if len(items) == 0 {
		return
	}
	sec := a.ensureSection()
	if a.isText {
		var sb strings.Builder
		for _, it := range items {
			if t, ok := it.(recipe.ItemText); ok {
				sb.WriteString(t.Value)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			sec.Content = append(sec.Content, recipe.TextBlock{Text: text})
		}
		return
	}
	a.steps++
	sec.Content = append(sec.Content, recipe.Step{Items: items, Number: a.steps})
}

// trimStepText drops the outer whitespace of a step: it belongs to the
// markup, not the content.
func trimStepText(items []recipe.Item) []recipe.Item {
	if len(items) > 0 {
		if t, ok := items[0].(recipe.ItemText); ok {
			t.Value = strings.TrimLeft(t.Value, " \t")
			if t.Value == "" {
				items = items[1:]
			} else {
				items[0] = t
			}
		}
	}
	if len(items) > 0 {
		if t, ok := items[len(items)-1].(recipe.ItemText); ok {
			t.Value = strings.TrimRight(t.Value, " \t")
			if t.Value == "" {
				items = items[:len(items)-1]
			} else {
				items[len(items)-1] = t
			}
		}
	}
	return items
}

func (a *analyzer) text(ev parser.Text) {
	if !a.inStep {
		return
	}
	if a.isText || a.tempRx == nil {
		a.appendText(ev.Run.Value)
		return
	}
	a.textWithTemperatures(ev.Run.Value)
}

// appendText adds prose to the open step, merging adjacent runs.
func (a *analyzer) appendText(s string) {
	if s == "" {
		return
	}
	if n := len(a.items); n > 0 {
		if t, ok := a.items[n-1].(recipe.ItemText); ok {
			t.Value += s
			a.items[n-1] = t
			return
		}
	}
	a.items = append(a.items, recipe.ItemText{Value: s})
}

// textWithTemperatures splits prose around inline temperatures, turning
// each match into an inline quantity item.
func (a *analyzer) textWithTemperatures(s string) {
	rest := s
	for {
		loc := a.tempRx.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		a.appendText(rest[:loc[0]])
		v, err := strconv.ParseFloat(rest[loc[2]:loc[3]], 64)
		if err != nil {
			// The finder only matches digit runs, so this is overflow.
			a.appendText(rest[loc[0]:loc[1]])
		} else {
			idx := int32(len(a.out.InlineQuantities))
			q := quantity.New(quantity.Regular(v), rest[loc[4]:loc[5]])
			a.out.InlineQuantities = append(a.out.InlineQuantities, q)
			a.items = append(a.items, recipe.ItemInlineQuantity{Index: idx})
		}
		rest = rest[loc[1]:]
	}
	a.appendText(rest)
}

func (a *analyzer) pushItem(it recipe.Item) {
	if a.inStep {
		a.items = append(a.items, it)
	}
}

func (a *analyzer) warn(sp span.Span, format string, args ...any) *report.Diag {
	d := report.Warning("analysis", sp, format, args...)
	a.rep.Add(d)
	return d
}

func (a *analyzer) error(sp span.Span, format string, args ...any) *report.Diag {
	d := report.Error("analysis", sp, format, args...)
	a.rep.Add(d)
	return d
}
