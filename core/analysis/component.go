package analysis

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Galley/core/parser"
	"github.com/FocuswithJustin/Galley/core/quantity"
	"github.com/FocuswithJustin/Galley/core/recipe"
	"github.com/FocuswithJustin/Galley/core/span"
	"github.com/FocuswithJustin/Galley/core/units"
)

// normName is the index key for a component name.
func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (a *analyzer) ingredient(ev parser.Ingredient) {
	ing := recipe.Ingredient{
		Name:      ev.Name.Trimmed(),
		Alias:     ev.Alias.Trimmed(),
		Note:      ev.Note.Trimmed(),
		Modifiers: ev.Modifiers,
		Fixed:     ev.Fixed,
		Relation:  recipe.NewDefinition(),
	}
	if ev.Amount != nil {
		a.checkAmount(ev.Amount)
		q := ev.Amount.Quantity()
		ing.Quantity = &q
	}
	if ev.Modifiers.Has(parser.ModRecipe) {
		a.checkRecipeRef(ing.Name, ev.Sp)
	}

	idx := int32(len(a.out.Ingredients))
	if ev.Modifiers.Has(parser.ModRef) {
		a.resolveIngredientRef(&ing, ev, idx)
	}
	if ing.Relation.IsDefinition() && !ing.Modifiers.Has(parser.ModNew) {
		indexComponent(a.ingredientIdx, ing.Name, ing.Alias, idx)
	}
	a.out.Ingredients = append(a.out.Ingredients, ing)
	a.pushItem(recipe.ItemIngredient{Index: idx})
}

func (a *analyzer) cookware(ev parser.Cookware) {
	cw := recipe.Cookware{
		Name:      ev.Name.Trimmed(),
		Alias:     ev.Alias.Trimmed(),
		Note:      ev.Note.Trimmed(),
		Modifiers: ev.Modifiers,
		Fixed:     ev.Fixed,
		Relation:  recipe.NewDefinition(),
	}
	if ev.Amount != nil {
		cw.Amount = ev.Amount.Value
	}

	idx := int32(len(a.out.Cookware))
	if ev.Modifiers.Has(parser.ModRef) {
		if def, ok := lookupComponent(a.cookwareIdx, cw.Name, cw.Alias); ok {
			cw.Relation = recipe.NewComponentRef(def)
			rel := &a.out.Cookware[def].Relation
			rel.ReferencedFrom = append(rel.ReferencedFrom, idx)
		} else {
			a.warn(ev.Sp, "reference to undefined cookware %q, treating it as a definition", cw.DisplayName()).
				WithHelp("define the cookware before referencing it with &")
		}
	}
	if cw.Relation.IsDefinition() && !cw.Modifiers.Has(parser.ModNew) {
		indexComponent(a.cookwareIdx, cw.Name, cw.Alias, idx)
	}
	a.out.Cookware = append(a.out.Cookware, cw)
	a.pushItem(recipe.ItemCookware{Index: idx})
}

func (a *analyzer) timer(ev parser.Timer) {
	tm := recipe.Timer{Name: ev.Name.Trimmed()}
	if ev.Amount != nil {
		a.checkTimer(ev.Amount)
		q := ev.Amount.Quantity()
		tm.Quantity = &q
		a.hasTimers = true
	}
	idx := int32(len(a.out.Timers))
	a.out.Timers = append(a.out.Timers, tm)
	a.pushItem(recipe.ItemTimer{Index: idx})
}

// resolveIngredientRef binds a `&` occurrence: to an earlier step or
// section when an intermediate target was written, otherwise to the
// latest definition sharing the name. Failures keep the occurrence as a
// definition so the model stays complete.
func (a *analyzer) resolveIngredientRef(ing *recipe.Ingredient, ev parser.Ingredient, idx int32) {
	if ev.Intermediate != nil {
		if rel, ok := a.resolveIntermediate(ev.Intermediate); ok {
			ing.Relation = rel
		}
		return
	}
	def, ok := lookupComponent(a.ingredientIdx, ing.Name, ing.Alias)
	if !ok {
		a.warn(ev.Sp, "reference to undefined ingredient %q, treating it as a definition", ing.DisplayName()).
			WithHelp("define the ingredient before referencing it with &")
		return
	}
	ing.Relation = recipe.NewComponentRef(def)
	rel := &a.out.Ingredients[def].Relation
	rel.ReferencedFrom = append(rel.ReferencedFrom, idx)
}

// resolveIntermediate turns a `&(...)` target into a relation against
// the running counters. Only earlier steps of the current section and
// earlier sections are valid targets; steps resolve to their 1-based
// number, sections to their index.
func (a *analyzer) resolveIntermediate(ref *parser.IntermediateRef) (recipe.Relation, bool) {
	switch ref.Target {
	case parser.TargetStep:
		step := ref.Index
		if ref.Relative {
			step = a.steps - ref.Index + 1
		}
		if ref.Index < 1 || step < 1 || step > a.steps {
			if ref.Relative {
				a.error(ref.Sp, "%d steps back is out of range, the section has %d earlier steps", ref.Index, a.steps)
			} else {
				a.error(ref.Sp, "step %d is out of range, the section has %d earlier steps", ref.Index, a.steps)
			}
			return recipe.Relation{}, false
		}
		return recipe.NewStepRef(step), true

	case parser.TargetSection:
		done := int32(len(a.out.Sections))
		sec := ref.Index - 1
		if ref.Relative {
			sec = done - ref.Index
		}
		if ref.Index < 1 || sec < 0 || sec >= done {
			if ref.Relative {
				a.error(ref.Sp, "%d sections back is out of range, the recipe has %d earlier sections", ref.Index, done)
			} else {
				a.error(ref.Sp, "section %d is out of range, the recipe has %d earlier sections", ref.Index, done)
			}
			return recipe.Relation{}, false
		}
		return recipe.NewSectionRef(sec), true
	}
	return recipe.Relation{}, false
}

// checkAmount flags empty and unknown unit labels. The label is kept as
// written either way; conversion treats unknown labels as opaque.
func (a *analyzer) checkAmount(am *parser.Amount) {
	if am.UnitSep && am.Unit == "" {
		a.warn(am.UnitSp, "empty unit after %%, treating the quantity as unitless").
			WithHelp("write the unit after the separator or drop it")
		return
	}
	if am.Unit == "" || a.opts.Converter == nil {
		return
	}
	if !a.opts.Converter.Knows(am.Unit) {
		a.warn(am.UnitSp, "unknown unit %q, keeping it as written", am.Unit)
	}
}

// checkTimer vets a timer duration: the value must be numeric and the
// unit, when the table knows it, must measure time.
func (a *analyzer) checkTimer(am *parser.Amount) {
	if _, ok := am.Value.(quantity.Text); ok {
		a.error(am.ValueSp, "timer duration must be numeric")
		return
	}
	if am.Unit == "" {
		diag := a.warn
		if a.opts.Extensions.Has(parser.TimerRequiresTime) {
			diag = a.error
		}
		diag(am.Sp, "timer duration has no time unit").
			WithHelp("write it as ~name{10%min}")
		return
	}
	if a.opts.Converter == nil {
		return
	}
	u, ok := a.opts.Converter.Lookup(am.Unit)
	if !ok {
		a.warn(am.UnitSp, "unknown unit %q, keeping it as written", am.Unit)
		return
	}
	if u.Quantity != units.Time {
		a.error(am.UnitSp, "%q is not a time unit", am.Unit)
	}
}

// checkRecipeRef asks the caller's checker about an `@@name` reference.
func (a *analyzer) checkRecipeRef(name string, sp span.Span) {
	if a.opts.RecipeChecker == nil {
		return
	}
	res := a.opts.RecipeChecker(name)
	var msg string
	switch res.Kind {
	case RefFound:
		return
	case RefNotFound:
		msg = fmt.Sprintf("referenced recipe %q not found", name)
	case RefAmbiguous:
		msg = fmt.Sprintf("referenced recipe %q is ambiguous", name)
	default:
		return
	}
	if res.Message != "" {
		msg = res.Message
	}
	a.warn(sp, "%s", msg)
}

func lookupComponent(index map[string]int32, name, alias string) (int32, bool) {
	if def, ok := index[normName(name)]; ok {
		return def, true
	}
	if alias != "" {
		if def, ok := index[normName(alias)]; ok {
			return def, true
		}
	}
	return 0, false
}

func indexComponent(index map[string]int32, name, alias string, idx int32) {
	index[normName(name)] = idx
	if alias != "" {
		index[normName(alias)] = idx
	}
}
