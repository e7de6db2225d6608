package parser

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/Galley/core/quantity"
)

// kinds flattens an event slice into short names for shape assertions.
func kinds(events []Event) []string {
	var out []string
	for _, ev := range events {
		switch ev.(type) {
		case Metadata:
			out = append(out, "meta")
		case Section:
			out = append(out, "section")
		case StepStart:
			out = append(out, "start")
		case StepEnd:
			out = append(out, "end")
		case Text:
			out = append(out, "text")
		case Ingredient:
			out = append(out, "ingredient")
		case Cookware:
			out = append(out, "cookware")
		case Timer:
			out = append(out, "timer")
		}
	}
	return out
}

func shape(t *testing.T, events []Event, want ...string) {
	t.Helper()
	got := kinds(events)
	if len(got) != len(want) {
		t.Fatalf("event shape = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event shape = %v, want %v", got, want)
		}
	}
}

func firstIngredient(t *testing.T, events []Event) Ingredient {
	t.Helper()
	for _, ev := range events {
		if ig, ok := ev.(Ingredient); ok {
			return ig
		}
	}
	t.Fatal("no ingredient event")
	return Ingredient{}
}

func TestParseEmpty(t *testing.T) {
	events, rep := Parse("", AllExtensions)
	if len(events) != 0 {
		t.Errorf("events = %v, want none", kinds(events))
	}
	if !rep.IsEmpty() {
		t.Errorf("report not empty: %d diags", rep.Len())
	}
}

func TestParsePlainText(t *testing.T) {
	events, rep := Parse("Preheat the oven.", AllExtensions)
	shape(t, events, "start", "text", "end")
	if !rep.IsEmpty() {
		t.Errorf("unexpected diags: %d", rep.Len())
	}
	text := events[1].(Text)
	if text.Run.Value != "Preheat the oven." {
		t.Errorf("text = %q", text.Run.Value)
	}
}

func TestParseWordIngredient(t *testing.T) {
	events, rep := Parse("add @salt now", AllExtensions)
	shape(t, events, "start", "text", "ingredient", "text", "end")
	if !rep.IsEmpty() {
		t.Errorf("unexpected diags: %d", rep.Len())
	}
	ig := events[2].(Ingredient)
	if ig.Name.Value != "salt" {
		t.Errorf("name = %q, want salt", ig.Name.Value)
	}
	if ig.Amount != nil {
		t.Errorf("amount = %v, want nil", ig.Amount)
	}
	if got := ig.Sp.Text("add @salt now"); got != "@salt" {
		t.Errorf("span text = %q, want @salt", got)
	}
}

func TestParseClosedIngredient(t *testing.T) {
	events, rep := Parse("@olive oil{2%tbsp}", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	ig := firstIngredient(t, events)
	if ig.Name.Value != "olive oil" {
		t.Errorf("name = %q", ig.Name.Value)
	}
	if ig.Amount == nil {
		t.Fatal("amount missing")
	}
	if n, ok := ig.Amount.Value.(quantity.Number); !ok || n.Float() != 2 {
		t.Errorf("value = %v, want 2", ig.Amount.Value)
	}
	if ig.Amount.Unit != "tbsp" {
		t.Errorf("unit = %q, want tbsp", ig.Amount.Unit)
	}
}

func TestParseAmountForms(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, a *Amount)
	}{
		{"integer", "@salt{1}", func(t *testing.T, a *Amount) {
			if n := a.Value.(quantity.Number); n.Float() != 1 {
				t.Errorf("value = %v", a.Value)
			}
		}},
		{"decimal", "@salt{2.5}", func(t *testing.T, a *Amount) {
			if n := a.Value.(quantity.Number); n.Float() != 2.5 {
				t.Errorf("value = %v", a.Value)
			}
		}},
		{"fraction", "@salt{1/2}", func(t *testing.T, a *Amount) {
			f, ok := a.Value.(quantity.Fraction)
			if !ok || f.Num != 1 || f.Den != 2 {
				t.Errorf("value = %v, want 1/2", a.Value)
			}
		}},
		{"mixed fraction", "@salt{2 1/2}", func(t *testing.T, a *Amount) {
			f, ok := a.Value.(quantity.Fraction)
			if !ok || f.Whole != 2 || f.Num != 1 || f.Den != 2 {
				t.Errorf("value = %v, want 2 1/2", a.Value)
			}
		}},
		{"range", "@salt{1-2}", func(t *testing.T, a *Amount) {
			r, ok := a.Value.(quantity.Range)
			if !ok || r.Min.Float() != 1 || r.Max.Float() != 2 {
				t.Errorf("value = %v, want 1-2", a.Value)
			}
		}},
		{"text", "@salt{a pinch}", func(t *testing.T, a *Amount) {
			if tx, ok := a.Value.(quantity.Text); !ok || string(tx) != "a pinch" {
				t.Errorf("value = %v, want text", a.Value)
			}
		}},
		{"value and unit", "@water{1.5%l}", func(t *testing.T, a *Amount) {
			if a.Unit != "l" || !a.UnitSep {
				t.Errorf("unit = %q sep=%v", a.Unit, a.UnitSep)
			}
		}},
		{"unit with spaces", "@water{1 % fl oz}", func(t *testing.T, a *Amount) {
			if a.Unit != "fl oz" {
				t.Errorf("unit = %q, want %q", a.Unit, "fl oz")
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, rep := Parse(tt.src, AllExtensions)
			if rep.HasErrors() {
				t.Fatalf("unexpected errors in %q", tt.src)
			}
			ig := firstIngredient(t, events)
			if ig.Amount == nil {
				t.Fatal("amount missing")
			}
			tt.check(t, ig.Amount)
		})
	}
}

func TestParseEmptyUnitKeepsSeparator(t *testing.T) {
	events, _ := Parse("@flour{200%}", AllExtensions)
	ig := firstIngredient(t, events)
	if ig.Amount == nil {
		t.Fatal("amount missing")
	}
	if !ig.Amount.UnitSep || ig.Amount.Unit != "" {
		t.Errorf("unit = %q sep=%v, want empty with separator", ig.Amount.Unit, ig.Amount.UnitSep)
	}
}

func TestParseAliasAndNote(t *testing.T) {
	events, rep := Parse("@white wine|wine{1%cup}(dry works best)", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	ig := firstIngredient(t, events)
	if ig.Name.Value != "white wine" {
		t.Errorf("name = %q", ig.Name.Value)
	}
	if ig.Alias.Trimmed() != "wine" {
		t.Errorf("alias = %q", ig.Alias.Value)
	}
	if ig.Note.Value != "dry works best" {
		t.Errorf("note = %q", ig.Note.Value)
	}
}

func TestParseModifiers(t *testing.T) {
	events, rep := Parse("@&?salt{}", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	ig := firstIngredient(t, events)
	if !ig.Modifiers.Has(ModRef) || !ig.Modifiers.Has(ModOptional) {
		t.Errorf("modifiers = %v", ig.Modifiers)
	}
}

func TestParseDuplicateModifierKeepsGoing(t *testing.T) {
	events, rep := Parse("@??salt{}", AllExtensions)
	if !rep.HasErrors() {
		t.Error("duplicate modifier should be an error diag")
	}
	ig := firstIngredient(t, events)
	if !ig.Modifiers.Has(ModOptional) {
		t.Error("modifier lost")
	}
}

func TestParseIntermediateRef(t *testing.T) {
	tests := []struct {
		src      string
		target   RefTarget
		relative bool
		index    int32
	}{
		{"@&(1)water{}", TargetStep, false, 1},
		{"@&(~1)water{}", TargetStep, true, 1},
		{"@&(=2)water{}", TargetSection, false, 2},
		{"@&(=~1)water{}", TargetSection, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			events, rep := Parse(tt.src, AllExtensions)
			if rep.HasErrors() {
				t.Fatalf("unexpected errors in %q", tt.src)
			}
			ig := firstIngredient(t, events)
			if ig.Intermediate == nil {
				t.Fatal("intermediate ref missing")
			}
			ref := ig.Intermediate
			if ref.Target != tt.target || ref.Relative != tt.relative || ref.Index != tt.index {
				t.Errorf("ref = %+v, want {%v %v %d}", ref, tt.target, tt.relative, tt.index)
			}
		})
	}
}

func TestParseFixedMarker(t *testing.T) {
	events, rep := Parse("@salt{1%tsp}*", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	if ig := firstIngredient(t, events); !ig.Fixed {
		t.Error("fixed marker not picked up")
	}

	events, _ = Parse("@salt{1%tsp}", AllExtensions)
	if ig := firstIngredient(t, events); ig.Fixed {
		t.Error("fixed without marker")
	}
}

func TestParseCookware(t *testing.T) {
	events, rep := Parse("#frying pan{2}", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	shape(t, events, "start", "cookware", "end")
	cw := events[1].(Cookware)
	if cw.Name.Value != "frying pan" {
		t.Errorf("name = %q", cw.Name.Value)
	}
	if cw.Amount == nil || cw.Amount.Value.(quantity.Number).Float() != 2 {
		t.Errorf("amount = %v", cw.Amount)
	}
}

func TestParseCookwareUnitIgnored(t *testing.T) {
	events, rep := Parse("#pot{2%large}", AllExtensions)
	if !rep.HasWarnings() {
		t.Error("cookware unit should warn")
	}
	cw := events[1].(Cookware)
	if cw.Amount == nil || cw.Amount.Unit != "" || cw.Amount.UnitSep {
		t.Errorf("amount = %+v, want unit dropped", cw.Amount)
	}
}

func TestParseTimer(t *testing.T) {
	events, rep := Parse("bake ~oven{25%minutes}", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	var tm Timer
	for _, ev := range events {
		if v, ok := ev.(Timer); ok {
			tm = v
		}
	}
	if tm.Name.Value != "oven" || tm.Amount == nil || tm.Amount.Unit != "minutes" {
		t.Errorf("timer = %+v", tm)
	}
}

func TestParseTimerWithoutDuration(t *testing.T) {
	// With the strict extension the missing duration is an error.
	_, rep := Parse("~rest", AllExtensions)
	if !rep.HasErrors() {
		t.Error("want error with TimerRequiresTime")
	}

	_, rep = Parse("~rest", AllExtensions&^TimerRequiresTime)
	if rep.HasErrors() || !rep.HasWarnings() {
		t.Error("want warning without TimerRequiresTime")
	}
}

func TestParseMetadataEntry(t *testing.T) {
	events, rep := Parse(">> servings: 4\n", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	shape(t, events, "meta")
	md := events[0].(Metadata)
	if md.Key.Trimmed() != "servings" || md.Value.Trimmed() != "4" {
		t.Errorf("meta = %q:%q", md.Key.Value, md.Value.Value)
	}
	// Raw runs keep their whitespace for round-tripping.
	if md.Key.Value != " servings" || md.Value.Value != " 4" {
		t.Errorf("raw meta = %q:%q", md.Key.Value, md.Value.Value)
	}
}

func TestParseMalformedMetadataDegrades(t *testing.T) {
	events, rep := Parse(">> no colon here\n", AllExtensions)
	shape(t, events, "start", "text", "end")
	if !rep.HasWarnings() {
		t.Error("degraded metadata should warn")
	}
}

func TestParseSection(t *testing.T) {
	events, rep := Parse("= Dough =\n", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	shape(t, events, "section")
	sec := events[0].(Section)
	if sec.Name.Trimmed() != "Dough" {
		t.Errorf("name = %q", sec.Name.Value)
	}
}

func TestParseSectionTrailingContentDegrades(t *testing.T) {
	events, rep := Parse("= Dough = and more\n", AllExtensions)
	shape(t, events, "start", "text", "end")
	if !rep.HasWarnings() {
		t.Error("degraded section should warn")
	}
}

func TestParseTextStep(t *testing.T) {
	events, rep := Parse("> Let it rest overnight.\n", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	shape(t, events, "start", "text", "end")
	if start := events[0].(StepStart); !start.IsText {
		t.Error("IsText not set")
	}
	if text := events[1].(Text); text.Run.Trimmed() != "Let it rest overnight." {
		t.Errorf("text = %q", text.Run.Value)
	}
}

func TestParseUnterminatedComponentDegrades(t *testing.T) {
	events, rep := Parse("mix @salt{1 and stir", AllExtensions)
	shape(t, events, "start", "text", "text", "end")
	if !rep.HasWarnings() {
		t.Error("unterminated component should warn")
	}
	// The degraded text still covers the original bytes.
	joined := events[1].(Text).Run.Value + events[2].(Text).Run.Value
	if joined != "mix @salt{1 and stir" {
		t.Errorf("joined text = %q", joined)
	}
}

func TestParseAmbiguousDecimalWarns(t *testing.T) {
	_, rep := Parse("@abc2.5", AllExtensions)
	if !rep.HasWarnings() {
		t.Fatal("want ambiguity warning")
	}
	found := false
	for _, d := range rep.Warnings() {
		if strings.Contains(d.Message, "ambiguous") {
			found = true
		}
	}
	if !found {
		t.Errorf("no ambiguity warning in %v", rep.All())
	}
}

func TestParseBadNameWarns(t *testing.T) {
	// Non-ASCII symbols join the word run, so the name parses with a warning.
	_, rep := Parse("@sal°t more", AllExtensions)
	found := false
	for _, d := range rep.Warnings() {
		if strings.Contains(d.Message, "invalid character") {
			found = true
		}
	}
	if !found {
		t.Errorf("no bad name warning: %v", rep.All())
	}
}

func TestParseCommentOnlyBlockIsSilent(t *testing.T) {
	for _, src := range []string{"-- nothing here\n", "[- still nothing -]\n", "   \n\n"} {
		events, rep := Parse(src, AllExtensions)
		if len(events) != 0 {
			t.Errorf("Parse(%q) events = %v, want none", src, kinds(events))
		}
		if !rep.IsEmpty() {
			t.Errorf("Parse(%q) diags = %d, want none", src, rep.Len())
		}
	}
}

func TestParseMultilineSteps(t *testing.T) {
	src := "step one line one\nstill step one\n\nstep two"
	events, rep := Parse(src, AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	shape(t, events, "start", "text", "end", "start", "text", "end")
	if !strings.Contains(events[1].(Text).Run.Value, "\n") {
		t.Error("soft break lost")
	}

	// Without the extension every line is a step.
	events, _ = Parse(src, AllExtensions&^Multiline)
	shape(t, events, "start", "text", "end", "start", "text", "end", "start", "text", "end")
}

func TestParseCommentsVanish(t *testing.T) {
	events, rep := Parse("mix well -- really well\n", AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	shape(t, events, "start", "text", "end")
	if got := events[1].(Text).Run.Value; got != "mix well " {
		t.Errorf("text = %q", got)
	}

	events, _ = Parse("mix [- not yet -] well\n", AllExtensions)
	if got := events[1].(Text).Run.Value; got != "mix  well" {
		t.Errorf("text = %q", got)
	}
}

func TestParseEscapes(t *testing.T) {
	events, rep := Parse(`\@not an ingredient`, AllExtensions)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	shape(t, events, "start", "text", "end")
	if got := events[1].(Text).Run.Value; got != "@not an ingredient" {
		t.Errorf("text = %q", got)
	}
}

func TestParseEventSpansMonotonic(t *testing.T) {
	src := ">> servings: 4\n\n= Base =\n\nmix @flour{200%g} and @water{120%ml}\nknead ~{10%min}\n"
	events, _ := Parse(src, AllExtensions)
	last := -1
	for _, ev := range events {
		sp := ev.Span()
		if sp.Start < last {
			t.Fatalf("span %v starts before previous end %d (%T)", sp, last, ev)
		}
		if sp.End > len(src) {
			t.Fatalf("span %v beyond input", sp)
		}
		if sp.End > last {
			last = sp.End
		}
	}
}

func TestParseMetadataFastPath(t *testing.T) {
	src := ">> title: Test\nsome step @salt{}\n>> servings: 2\nmore @stuff{}\n"
	events, rep := ParseMetadata(src)
	if !rep.IsEmpty() {
		t.Fatalf("unexpected diags: %d", rep.Len())
	}
	shape(t, events, "meta", "meta")
	if events[0].(Metadata).Key.Trimmed() != "title" {
		t.Errorf("first key = %q", events[0].(Metadata).Key.Value)
	}
	if events[1].(Metadata).Value.Trimmed() != "2" {
		t.Errorf("second value = %q", events[1].(Metadata).Value.Value)
	}
}

func TestStreamMatchesParse(t *testing.T) {
	src := "= Cake =\nmix @flour{200%g}\n\n> done\n"
	s := NewStream(src, AllExtensions)
	var streamed []Event
	for {
		ev, ok := s.Next()
		if !ok {
			break
		}
		streamed = append(streamed, ev)
	}
	eager, _ := Parse(src, AllExtensions)
	if len(streamed) != len(eager) {
		t.Fatalf("stream %d events, parse %d", len(streamed), len(eager))
	}
}

func TestParseDisabledExtensionsReadAsText(t *testing.T) {
	// Section markers without the Sections extension are prose.
	events, _ := Parse("= Dough =\n", NoExtensions)
	shape(t, events, "start", "text", "end")

	// Modifier runes without ComponentModifiers stay in front of the name
	// and the word component fails, leaving text.
	events, _ = Parse("@?salt\n", NoExtensions)
	shape(t, events, "start", "text", "end")
}
