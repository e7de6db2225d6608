package importer

import (
	"fmt"
	"strings"
	"testing"

	galley "github.com/FocuswithJustin/Galley"
	"github.com/FocuswithJustin/Galley/core/recipe"
)

const soupML = `<?xml version="1.0" encoding="UTF-8"?>
<recipeml version="0.5">
  <recipe>
    <head>
      <title>Tomato Soup</title>
      <source>Grandma</source>
      <categories>
        <cat>Dinner</cat>
        <cat>Soups &amp; Stews</cat>
      </categories>
      <yield>4</yield>
      <preptime type="preparation"><time><qty>10</qty><timeunit>minutes</timeunit></time></preptime>
      <preptime type="cooking"><time><qty>30</qty><timeunit>minutes</timeunit></time></preptime>
    </head>
    <description>A weeknight soup.</description>
    <ingredients>
      <ing><amt><qty>6</qty></amt><item>tomatoes</item><prep>chopped</prep></ing>
      <ing><amt><qty>1</qty><unit>l</unit></amt><item>chicken stock</item></ing>
      <ing><amt><unit>pinch</unit></amt><item>salt</item></ing>
    </ingredients>
    <directions>
      <step>Chop the tomatoes and add them to the chicken stock.</step>
      <step>Simmer, then blend until smooth.</step>
    </directions>
  </recipe>
</recipeml>`

func TestFromRecipeML(t *testing.T) {
	got, err := FromRecipeML([]byte(soupML))
	if err != nil {
		t.Fatalf("FromRecipeML: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d recipes, want 1", len(got))
	}
	if got[0].Name != "Tomato Soup" {
		t.Errorf("Name = %q, want %q", got[0].Name, "Tomato Soup")
	}

	want := `>> title: Tomato Soup
>> source: Grandma
>> tags: dinner, soups-stews
>> servings: 4
>> prep time: 10 minutes
>> cook time: 30 minutes

> A weeknight soup.

Chop the @tomatoes{6}(chopped) and add them to the @chicken stock{1%l}.

Simmer, then blend until smooth.

Also needed: @salt{pinch}.
`
	if got[0].Source != want {
		t.Errorf("Source mismatch:\ngot:\n%s\nwant:\n%s", got[0].Source, want)
	}
}

// The generated markup must come back through the parser without a
// single diagnostic, with the document's structure intact.
func TestFromRecipeMLRoundTrip(t *testing.T) {
	got, err := FromRecipeML([]byte(soupML))
	if err != nil {
		t.Fatalf("FromRecipeML: %v", err)
	}
	rec, rep := galley.Parse(got[0].Source)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Errors())
	}
	if w := rep.Warnings(); len(w) != 0 {
		t.Fatalf("parse warnings: %v", w)
	}

	sp := rec.Metadata.Special
	if sp.Servings == nil || *sp.Servings != 4 {
		t.Errorf("Servings = %v, want 4", sp.Servings)
	}
	if len(sp.Tags) != 2 || sp.Tags[0] != "dinner" || sp.Tags[1] != "soups-stews" {
		t.Errorf("Tags = %v", sp.Tags)
	}
	if sp.Time == nil || !sp.Time.Composed || sp.Time.Minutes() != 40 {
		t.Errorf("Time = %+v, want composed 10+30", sp.Time)
	}
	if sp.Source == nil || sp.Source.Name != "Grandma" {
		t.Errorf("Source = %+v", sp.Source)
	}
	if title, _ := rec.Metadata.Get("title"); title != "Tomato Soup" {
		t.Errorf("title entry = %q", title)
	}

	if len(rec.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(rec.Sections))
	}
	content := rec.Sections[0].Content
	if len(content) != 4 {
		t.Fatalf("got %d content blocks, want 4", len(content))
	}
	if tb, ok := content[0].(recipe.TextBlock); !ok || tb.Text != "A weeknight soup." {
		t.Errorf("content[0] = %#v, want description text block", content[0])
	}
	for i, n := range []int32{1, 2, 3} {
		st, ok := content[i+1].(recipe.Step)
		if !ok || st.Number != n {
			t.Errorf("content[%d] = %#v, want step %d", i+1, content[i+1], n)
		}
	}

	if len(rec.Ingredients) != 3 {
		t.Fatalf("got %d ingredients, want 3", len(rec.Ingredients))
	}
	checks := []struct {
		name, qty, note string
	}{
		{"tomatoes", "6", "chopped"},
		{"chicken stock", "1 l", ""},
		{"salt", "pinch", ""},
	}
	for i, c := range checks {
		ing := rec.Ingredients[i]
		if ing.Name != c.name {
			t.Errorf("ingredient %d name = %q, want %q", i, ing.Name, c.name)
		}
		if ing.Alias != "" {
			t.Errorf("ingredient %d alias = %q, want none", i, ing.Alias)
		}
		if ing.Quantity == nil || ing.Quantity.String() != c.qty {
			t.Errorf("ingredient %d quantity = %v, want %q", i, ing.Quantity, c.qty)
		}
		if ing.Note != c.note {
			t.Errorf("ingredient %d note = %q, want %q", i, ing.Note, c.note)
		}
	}
}

const mentionML = `<recipeml version="0.5"><recipe>
  <head><title>T</title></head>
  <ingredients>%s</ingredients>
  <directions><step>%s</step></directions>
</recipe></recipeml>`

func TestFromRecipeMLMentions(t *testing.T) {
	tests := []struct {
		name string
		ings string
		step string
		want []string
	}{
		{
			"plural item matches its singular",
			`<ing><amt><qty>2</qty></amt><item>tomatoes</item></ing>`,
			"Dice the tomato finely.",
			[]string{"Dice the @tomatoes|tomato{2} finely."},
		},
		{
			"mention keeps the prose casing",
			`<ing><item>basil</item></ing>`,
			"Basil goes in last.",
			[]string{"@basil|Basil{} goes in last."},
		},
		{
			"longer item claims its region first",
			`<ing><item>chicken stock</item></ing><ing><item>stock</item></ing>`,
			"Warm the chicken stock.",
			[]string{"Warm the @chicken stock{}.", "Also needed: @stock{}."},
		},
		{
			"no match inside a longer word",
			`<ing><item>ice</item></ing>`,
			"Slice the onions.",
			[]string{"Slice the onions.", "Also needed: @ice{}."},
		},
		{
			"range amount",
			`<ing><amt><range><q1>2</q1><q2>3</q2></range><unit>cups</unit></amt><item>flour</item></ing>`,
			"Fold in the flour.",
			[]string{"Fold in the @flour{2-3%cups}."},
		},
		{
			"mixed fraction amount",
			`<ing><amt><qty>2 1/2</qty><unit>cups</unit></amt><item>sugar</item></ing>`,
			"Beat in the sugar.",
			[]string{"Beat in the @sugar{2 1/2%cups}."},
		},
		{
			"prep becomes a component note",
			`<ing><amt><qty>1</qty></amt><item>onion</item><prep>finely diced</prep></ing>`,
			"Saute the onion.",
			[]string{"Saute the @onion{1}(finely diced)."},
		},
		{
			"plural fallback keeps multi-word items whole",
			`<ing><item>jalapeño peppers</item></ing>`,
			"Top with jalapeño pepper slices.",
			[]string{"Top with @jalapeño peppers|jalapeño pepper{} slices."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fmt.Sprintf(mentionML, tt.ings, tt.step)
			got, err := FromRecipeML([]byte(doc))
			if err != nil {
				t.Fatalf("FromRecipeML: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got[0].Source, want) {
					t.Errorf("source missing %q:\n%s", want, got[0].Source)
				}
			}
			_, rep := galley.Parse(got[0].Source)
			if rep.HasErrors() {
				t.Errorf("generated source has errors: %v", rep.Errors())
			}
			if w := rep.Warnings(); len(w) != 0 {
				t.Errorf("generated source has warnings: %v", w)
			}
		})
	}
}

const headML = `<recipeml version="0.5"><recipe><head><title>T</title>%s</head><directions><step>Mix.</step></directions></recipe></recipeml>`

func TestFromRecipeMLHead(t *testing.T) {
	tests := []struct {
		name    string
		frag    string
		want    string
		notWant string
	}{
		{"yield qty attribute", `<yield qty="6"/>`, ">> servings: 6\n", ""},
		{"yield with leading count", `<yield>12 bars</yield>`, ">> servings: 12\n", ""},
		{"yield kept raw without a count", `<yield>makes a dozen</yield>`, ">> yield: makes a dozen\n", ""},
		{"structured cook time", `<preptime type="cooking"><time><qty>45</qty><timeunit>min</timeunit></time></preptime>`, ">> cook time: 45 min\n", ""},
		{"flat time text", `<preptime type="total">1 hour 30 minutes</preptime>`, ">> time: 1 hour 30 minutes\n", ""},
		{"unparseable time dropped", `<preptime type="total">overnight</preptime>`, "", "overnight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fmt.Sprintf(headML, tt.frag)
			got, err := FromRecipeML([]byte(doc))
			if err != nil {
				t.Fatalf("FromRecipeML: %v", err)
			}
			if tt.want != "" && !strings.Contains(got[0].Source, tt.want) {
				t.Errorf("source missing %q:\n%s", tt.want, got[0].Source)
			}
			if tt.notWant != "" && strings.Contains(got[0].Source, tt.notWant) {
				t.Errorf("source should not contain %q:\n%s", tt.notWant, got[0].Source)
			}
		})
	}
}

func TestFromRecipeMLIngredientDivisions(t *testing.T) {
	doc := `<recipeml version="0.5"><recipe>
  <head><title>Layered</title></head>
  <ingredients>
    <ing-div><title>Crust</title><ing><amt><qty>200</qty><unit>g</unit></amt><item>crumbs</item></ing></ing-div>
    <ing-div><title>Filling</title><ing><amt><qty>500</qty><unit>g</unit></amt><item>cream cheese</item></ing></ing-div>
  </ingredients>
  <directions><step>Press the crumbs, then beat the cream cheese.</step></directions>
</recipe></recipeml>`

	got, err := FromRecipeML([]byte(doc))
	if err != nil {
		t.Fatalf("FromRecipeML: %v", err)
	}
	want := "Press the @crumbs{200%g}, then beat the @cream cheese{500%g}."
	if !strings.Contains(got[0].Source, want) {
		t.Errorf("source missing %q:\n%s", want, got[0].Source)
	}

	rec, rep := galley.Parse(got[0].Source)
	if !rep.IsEmpty() {
		t.Fatalf("diagnostics: %v", rep.All())
	}
	if len(rec.Ingredients) != 2 {
		t.Errorf("got %d ingredients, want 2", len(rec.Ingredients))
	}
}

func TestFromRecipeMLDirectionsWithoutSteps(t *testing.T) {
	doc := `<recipeml version="0.5"><recipe>
  <head><title>Loose</title></head>
  <directions>
    Mix everything and bake.
  </directions>
</recipe></recipeml>`

	got, err := FromRecipeML([]byte(doc))
	if err != nil {
		t.Fatalf("FromRecipeML: %v", err)
	}
	if want := "\nMix everything and bake.\n"; !strings.Contains(got[0].Source, want) {
		t.Errorf("source missing %q:\n%s", want, got[0].Source)
	}
}

// A title or step with markup-significant text must come out escaped so
// the round trip preserves it verbatim.
func TestFromRecipeMLEscapesMarkup(t *testing.T) {
	doc := `<recipeml version="0.5"><recipe>
  <head><title>Back -- to Basics</title></head>
  <directions><step>Stir -- do not fold -- until glossy.</step></directions>
</recipe></recipeml>`

	got, err := FromRecipeML([]byte(doc))
	if err != nil {
		t.Fatalf("FromRecipeML: %v", err)
	}
	if want := `>> title: Back -\- to Basics`; !strings.Contains(got[0].Source, want) {
		t.Errorf("source missing %q:\n%s", want, got[0].Source)
	}

	rec, rep := galley.Parse(got[0].Source)
	if !rep.IsEmpty() {
		t.Fatalf("diagnostics: %v", rep.All())
	}
	if title, _ := rec.Metadata.Get("title"); title != "Back -- to Basics" {
		t.Errorf("title = %q, want the raw dashes back", title)
	}
}

func TestFromRecipeMLMultipleRecipes(t *testing.T) {
	doc := `<recipeml version="0.5">
  <recipe><head><title>First</title></head><directions><step>One.</step></directions></recipe>
  <recipe><head><title>Second</title></head><directions><step>Two.</step></directions></recipe>
</recipeml>`

	got, err := FromRecipeML([]byte(doc))
	if err != nil {
		t.Fatalf("FromRecipeML: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d recipes, want 2", len(got))
	}
	if got[0].Name != "First" || got[1].Name != "Second" {
		t.Errorf("names = %q, %q", got[0].Name, got[1].Name)
	}
}

func TestFromRecipeMLUntitled(t *testing.T) {
	doc := `<recipeml version="0.5"><recipe><directions><step>Stir.</step></directions></recipe></recipeml>`
	got, err := FromRecipeML([]byte(doc))
	if err != nil {
		t.Fatalf("FromRecipeML: %v", err)
	}
	if got[0].Name != "untitled" {
		t.Errorf("Name = %q, want %q", got[0].Name, "untitled")
	}
}

func TestFromRecipeMLMalformed(t *testing.T) {
	_, err := FromRecipeML([]byte("<recipeml><recipe></recipeml>"))
	if err == nil {
		t.Fatal("expected an error for malformed XML")
	}
	if !strings.Contains(err.Error(), "not well formed") {
		t.Errorf("error = %v, want a well-formedness complaint", err)
	}
}

func TestFromRecipeMLNoRecipes(t *testing.T) {
	_, err := FromRecipeML([]byte(`<recipeml version="0.5"></recipeml>`))
	if err == nil {
		t.Fatal("expected an error for a document without recipes")
	}
	if !strings.Contains(err.Error(), "no recipe elements") {
		t.Errorf("error = %v", err)
	}
}
