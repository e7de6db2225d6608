package report

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/Galley/core/span"
)

func TestSeverityString(t *testing.T) {
	if got := SeverityError.String(); got != "error" {
		t.Errorf("SeverityError.String() = %q, want %q", got, "error")
	}
	if got := SeverityWarning.String(); got != "warning" {
		t.Errorf("SeverityWarning.String() = %q, want %q", got, "warning")
	}
	if got := Severity(42).String(); got != "severity(42)" {
		t.Errorf("Severity(42).String() = %q, want %q", got, "severity(42)")
	}
}

func TestBuildersSetPrimarySpan(t *testing.T) {
	sp := span.New(3, 9)
	d := Error("parser", sp, "unexpected %q", "}")
	if d.Severity != SeverityError {
		t.Errorf("severity = %v, want %v", d.Severity, SeverityError)
	}
	if d.Code != "parser" {
		t.Errorf("code = %q, want %q", d.Code, "parser")
	}
	if d.Message != `unexpected "}"` {
		t.Errorf("message = %q", d.Message)
	}
	if got := d.Primary(); got != sp {
		t.Errorf("Primary() = %v, want %v", got, sp)
	}

	d.WithLabel(span.New(0, 2), "first declared here").WithHelp("remove one")
	if len(d.Labels) != 2 {
		t.Fatalf("len(labels) = %d, want 2", len(d.Labels))
	}
	if d.Labels[1].Text != "first declared here" {
		t.Errorf("secondary label text = %q", d.Labels[1].Text)
	}
	if d.Help != "remove one" {
		t.Errorf("help = %q", d.Help)
	}
}

func TestPrimaryWithoutLabels(t *testing.T) {
	d := &Diag{Severity: SeverityError, Message: "nope"}
	if got := d.Primary(); got != (span.Span{}) {
		t.Errorf("Primary() = %v, want empty span", got)
	}
}

func TestReportFiltering(t *testing.T) {
	r := New()
	if !r.IsEmpty() || r.HasErrors() || r.HasWarnings() {
		t.Fatal("fresh report should be empty")
	}

	r.Add(Warning("parser", span.Point(1), "w1"))
	r.Add(Error("analysis", span.Point(2), "e1"))
	r.Add(nil)
	r.Add(Warning("analysis", span.Point(3), "w2"))

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (nil adds ignored)", r.Len())
	}
	if !r.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	if !r.HasWarnings() {
		t.Error("HasWarnings() = false, want true")
	}
	if got := len(r.Errors()); got != 1 {
		t.Errorf("len(Errors()) = %d, want 1", got)
	}
	if got := len(r.Warnings()); got != 2 {
		t.Errorf("len(Warnings()) = %d, want 2", got)
	}
}

func TestRemoveWarningsKeepsReceiver(t *testing.T) {
	r := New()
	r.Add(Warning("parser", span.Point(0), "w"))
	r.Add(Error("parser", span.Point(1), "e"))

	only := r.RemoveWarnings()
	if only.Len() != 1 || only.HasWarnings() {
		t.Errorf("RemoveWarnings() kept %d diags, want 1 error", only.Len())
	}
	if r.Len() != 2 {
		t.Errorf("receiver mutated: Len() = %d, want 2", r.Len())
	}
}

func TestZipOrdersByPrimarySpan(t *testing.T) {
	a := New()
	a.Add(Error("parser", span.New(10, 12), "third"))
	a.Add(Warning("parser", span.New(0, 1), "first"))

	b := New()
	b.Add(Warning("analysis", span.New(5, 6), "second"))

	merged := a.Zip(b)
	var got []string
	for _, d := range merged.All() {
		got = append(got, d.Message)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("Zip() yielded %d diags, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("diag[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Inputs stay usable.
	if a.Len() != 2 || b.Len() != 1 {
		t.Error("Zip mutated its inputs")
	}
}

func TestZipNilOther(t *testing.T) {
	a := New()
	a.Add(Error("parser", span.Point(0), "only"))
	merged := a.Zip(nil)
	if merged.Len() != 1 {
		t.Fatalf("Zip(nil) yielded %d diags, want 1", merged.Len())
	}
}

func TestAppend(t *testing.T) {
	a := New()
	a.Add(Warning("parser", span.Point(0), "w"))
	b := New()
	b.Add(Error("analysis", span.Point(5), "e"))
	a.Append(b)
	a.Append(nil)
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	if a.All()[1].Message != "e" {
		t.Errorf("appended diag out of order: %q", a.All()[1].Message)
	}
}

func TestRenderCaretLayout(t *testing.T) {
	source := ">> servings: 4\n@flour{200%}\n"
	r := New()
	d := Warning("parser", span.New(25, 26), "invalid value for unit")
	d.Labels[0].Text = "unit is empty"
	d.WithHelp("remove the trailing %")
	r.Add(d)

	got := r.RenderString("pancakes.cook", source)
	want := strings.Join([]string{
		"warning[parser]: invalid value for unit",
		" --> pancakes.cook:2:11",
		"  |",
		"2 | @flour{200%}",
		"  |           ^ unit is empty",
		"  = help: remove the trailing %",
		"",
	}, "\n")
	if got != want {
		t.Errorf("Render mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderMultipleDiagsSeparated(t *testing.T) {
	source := "@salt{}\n"
	r := New()
	r.Add(Warning("parser", span.New(0, 5), "one"))
	r.Add(Error("analysis", span.New(5, 7), "two"))

	out := r.RenderString("r.cook", source)
	if !strings.Contains(out, "\n\nerror[analysis]: two\n") {
		t.Errorf("diags not blank-line separated:\n%s", out)
	}
}

func TestRenderMultiRuneUnderline(t *testing.T) {
	source := "@salt{1%tsp}"
	r := New()
	r.Add(Error("parser", span.New(1, 5), "bad name"))
	out := r.RenderString("r.cook", source)
	if !strings.Contains(out, "  |  ^^^^\n") {
		t.Errorf("expected four carets under the name:\n%s", out)
	}
}
