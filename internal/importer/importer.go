// Package importer converts RecipeML documents into recipe markup
// source text.
//
// Head metadata becomes `>>` entries, the description becomes a text
// step, and each direction step becomes a step block. An ingredient is
// spliced into the first step that mentions it, written `@name{qty%unit}`
// in place of the mention; ingredients no step mentions are gathered
// into one closing step so nothing from the document is dropped.
package importer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/Galley/core/encoding"
	"github.com/FocuswithJustin/Galley/core/recipe"
	"github.com/FocuswithJustin/Galley/core/xml"
)

// Converted is one recipe lifted out of a RecipeML document.
type Converted struct {
	// Name is the recipe title, suitable as a file stem.
	Name string

	// Source is the generated markup.
	Source string
}

// FromRecipeML converts every recipe in a RecipeML document.
func FromRecipeML(data []byte) ([]Converted, error) {
	if res := xml.Validate(data); !res.Valid {
		e := res.Errors[0]
		return nil, fmt.Errorf("recipeml is not well formed at line %d: %s", e.Line, e.Message)
	}

	doc, err := xml.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipeml: %w", err)
	}

	nodes, err := doc.XPath("//recipe")
	if err != nil {
		return nil, fmt.Errorf("failed to query recipeml: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no recipe elements in document")
	}

	out := make([]Converted, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, convertRecipe(node))
	}
	return out, nil
}

// ingredient is one RecipeML ing entry on its way into the markup.
type ingredient struct {
	item   string
	qty    string
	unit   string
	note   string // <prep>, carried as a component note
	placed bool
}

func convertRecipe(node *xml.Node) Converted {
	name := textOf(node, "head/title")
	if name == "" {
		name = "untitled"
	}

	var b strings.Builder
	writeMetadata(&b, node)

	if desc := textOf(node, "description"); desc != "" {
		b.WriteString("\n> ")
		b.WriteString(encoding.EscapeMarkup(desc))
		b.WriteString("\n")
	}

	ings := collectIngredients(node)
	for _, step := range collectSteps(node) {
		b.WriteString("\n")
		b.WriteString(renderStep(step, ings))
		b.WriteString("\n")
	}

	var rest []*ingredient
	for _, ing := range ings {
		if !ing.placed {
			rest = append(rest, ing)
		}
	}
	if len(rest) > 0 {
		b.WriteString("\n")
		b.WriteString(renderRemaining(rest))
		b.WriteString("\n")
	}

	return Converted{Name: name, Source: b.String()}
}

// writeMetadata emits the `>>` block from the recipe head. Values that
// would not survive the analyzer's vetting of recognized keys fall back
// to unrecognized keys, which round-trip as raw entries.
func writeMetadata(b *strings.Builder, node *xml.Node) {
	entry := func(key, value string) {
		b.WriteString(">> ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(encoding.EscapeMarkup(value))
		b.WriteString("\n")
	}

	if title := textOf(node, "head/title"); title != "" {
		entry("title", title)
	}
	if source := textOf(node, "head/source"); source != "" {
		entry("source", source)
	}

	if cats, err := node.XPath("head/categories/cat"); err == nil {
		var tags []string
		for _, cat := range cats {
			if tag := slugify(normalize(cat.Text())); recipe.IsValidTag(tag) {
				tags = append(tags, tag)
			}
		}
		if len(tags) > 0 {
			entry("tags", strings.Join(tags, ", "))
		}
	}

	writeYield(entry, node)
	writeTimes(entry, node)
}

func writeYield(entry func(key, value string), node *xml.Node) {
	yield, err := node.XPathFirst("head/yield")
	if err != nil || yield == nil {
		return
	}
	raw := normalize(yield.Attr("qty"))
	if raw == "" {
		raw = normalize(yield.Text())
	}
	if raw == "" {
		return
	}
	// "4" and "4 servings" both carry a leading count.
	if n, convErr := strconv.Atoi(strings.Fields(raw)[0]); convErr == nil && n > 0 {
		entry("servings", strconv.Itoa(n))
		return
	}
	entry("yield", raw)
}

// writeTimes maps preptime elements onto the recognized time keys by
// their type attribute. A value the time grammar rejects is dropped
// rather than emitted as a guaranteed diagnostic.
func writeTimes(entry func(key, value string), node *xml.Node) {
	times, err := node.XPath("head/preptime")
	if err != nil {
		return
	}
	for _, pt := range times {
		value := normalize(textOf(pt, "time/qty") + " " + textOf(pt, "time/timeunit"))
		if value == "" {
			value = normalize(pt.Text())
		}
		if value == "" {
			continue
		}
		if _, parseErr := recipe.ParseTimeValue(value); parseErr != nil {
			continue
		}
		kind := strings.ToLower(pt.Attr("type"))
		switch {
		case strings.Contains(kind, "prep"):
			entry("prep time", value)
		case strings.Contains(kind, "cook"):
			entry("cook time", value)
		default:
			entry("time", value)
		}
	}
}

func collectIngredients(node *xml.Node) []*ingredient {
	nodes, err := node.XPath("ingredients//ing")
	if err != nil {
		return nil
	}
	var out []*ingredient
	for _, n := range nodes {
		item := textOf(n, "item")
		if item == "" {
			continue
		}
		qty := textOf(n, "amt/qty")
		if qty == "" {
			lo, hi := textOf(n, "amt/range/q1"), textOf(n, "amt/range/q2")
			switch {
			case lo != "" && hi != "":
				qty = lo + "-" + hi
			case lo != "":
				qty = lo
			}
		}
		out = append(out, &ingredient{
			item: item,
			qty:  qty,
			unit: textOf(n, "amt/unit"),
			note: textOf(n, "prep"),
		})
	}
	return out
}

// collectSteps returns the direction texts. Sloppy documents that put
// prose directly under directions yield that prose as a single step.
func collectSteps(node *xml.Node) []string {
	var out []string
	steps, err := node.XPath("directions//step")
	if err != nil {
		return nil
	}
	for _, s := range steps {
		if text := normalize(s.Text()); text != "" {
			out = append(out, text)
		}
	}
	if len(out) > 0 {
		return out
	}
	if text := normalize(textOf(node, "directions")); text != "" {
		out = append(out, text)
	}
	return out
}

// match is one claimed mention of an ingredient inside a step.
type match struct {
	start, end int
	ing        *ingredient
}

// renderStep splices unplaced ingredients into the step text at their
// first whole-word mention. Longer items claim their region first so
// "chicken stock" is never shadowed by a plain "stock".
func renderStep(text string, ings []*ingredient) string {
	lower := strings.ToLower(text)

	order := make([]*ingredient, 0, len(ings))
	for _, ing := range ings {
		if !ing.placed {
			order = append(order, ing)
		}
	}
	// Stable keeps document order among same-length items.
	sort.SliceStable(order, func(i, j int) bool {
		return len(order[i].item) > len(order[j].item)
	})

	var matches []match
	for _, ing := range order {
		if m, ok := findMention(text, lower, ing, matches); ok {
			matches = append(matches, m)
			ing.placed = true
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	var b strings.Builder
	pos := 0
	for i, m := range matches {
		writeTrailingProse(&b, text[pos:m.start], i > 0)
		b.WriteString(renderComponent(m.ing, text[m.start:m.end]))
		pos = m.end
	}
	writeTrailingProse(&b, text[pos:], len(matches) > 0)
	return b.String()
}

// writeTrailingProse escapes prose that follows a component. A leading
// star would otherwise bind to the component as its fixed-quantity
// marker. A leading parenthesis is left alone on purpose: a mention
// written "flour(sifted)" converts into a component note.
func writeTrailingProse(b *strings.Builder, seg string, afterComponent bool) {
	if afterComponent && strings.HasPrefix(seg, "*") {
		b.WriteString(`\*`)
		seg = seg[1:]
	}
	b.WriteString(encoding.EscapeMarkup(seg))
}

// findMention locates the first whole-word occurrence of the item, or
// of a naive singular when the plural itself never appears, outside the
// regions other ingredients have claimed.
func findMention(text, lower string, ing *ingredient, claimed []match) (match, bool) {
	candidates := []string{strings.ToLower(ing.item)}
	if c := candidates[0]; len(c) > 3 && strings.HasSuffix(c, "s") {
		candidates = append(candidates, strings.TrimSuffix(c, "s"))
		if strings.HasSuffix(c, "es") {
			candidates = append(candidates, strings.TrimSuffix(c, "es"))
		}
	}

	for _, word := range candidates {
		from := 0
		for from < len(lower) {
			i := strings.Index(lower[from:], word)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(word)
			if isWordBoundary(text, start, end) && !overlaps(start, end, claimed) {
				return match{start: start, end: end, ing: ing}, true
			}
			from = start + 1
		}
	}
	return match{}, false
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func overlaps(start, end int, claimed []match) bool {
	for _, m := range claimed {
		if start < m.end && m.start < end {
			return true
		}
	}
	return false
}

// renderComponent writes the component for an ingredient mention. When
// the mention differs from the item name the item stays the canonical
// name and the mention becomes the display alias.
func renderComponent(ing *ingredient, mention string) string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(encoding.EscapeMarkupName(ing.item))
	if mention != "" && mention != ing.item {
		b.WriteString("|")
		b.WriteString(encoding.EscapeMarkupName(mention))
	}
	b.WriteString("{")
	qty, unit := normalize(ing.qty), normalize(ing.unit)
	switch {
	case qty != "" && unit != "":
		b.WriteString(encoding.EscapeMarkupName(qty))
		b.WriteString("%")
		b.WriteString(encoding.EscapeMarkupName(unit))
	case qty != "":
		b.WriteString(encoding.EscapeMarkupName(qty))
	case unit != "":
		// A bare measure like "pinch" reads as a text amount.
		b.WriteString(encoding.EscapeMarkupName(unit))
	}
	b.WriteString("}")
	if note := normalize(ing.note); note != "" {
		b.WriteString("(")
		b.WriteString(escapeNote(note))
		b.WriteString(")")
	}
	return b.String()
}

func renderRemaining(rest []*ingredient) string {
	var b strings.Builder
	b.WriteString("Also needed: ")
	for i, ing := range rest {
		switch {
		case i > 0 && i == len(rest)-1:
			b.WriteString(" and ")
		case i > 0:
			b.WriteString(", ")
		}
		b.WriteString(renderComponent(ing, ""))
	}
	b.WriteString(".")
	return b.String()
}

// escapeNote escapes note text; parentheses would end the note early.
func escapeNote(s string) string {
	s = encoding.EscapeMarkup(s)
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	return s
}

// textOf returns the normalized text of the first match, or "".
func textOf(node *xml.Node, expr string) string {
	n, err := node.XPathFirst(expr)
	if err != nil || n == nil {
		return ""
	}
	return normalize(n.Text())
}

// normalize collapses all whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// slugify lowers a category to tag form: letter and digit runs joined
// by single dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		} else {
			dash = true
		}
	}
	return b.String()
}
