package recipe

import (
	"sort"

	"github.com/FocuswithJustin/Galley/core/quantity"
	"github.com/FocuswithJustin/Galley/core/units"
)

// GroupedQuantity accumulates the amounts of one component across its
// occurrences without blindly summing incompatible units. Convertible
// amounts share one slot per physical quantity and system; unknown units
// get one slot per label; unitless amounts share one slot; text values
// and failed additions are kept apart untouched.
type GroupedQuantity struct {
	known    map[groupKey]quantity.Quantity
	unknown  map[string]quantity.Quantity
	unitless quantity.Value
	other    []quantity.Quantity
}

type groupKey struct {
	Quantity units.PhysicalQuantity
	System   units.System
}

// Add folds q into the group, converting it to the slot's unit when the
// converter knows both. Amounts that cannot combine land in their own
// slot instead of being dropped.
func (g *GroupedQuantity) Add(q quantity.Quantity, conv *units.Converter) {
	if q.Value == nil {
		return
	}
	if _, isText := q.Value.(quantity.Text); isText {
		g.other = append(g.other, q)
		return
	}
	if q.Unitless() {
		if g.unitless == nil {
			g.unitless = q.Value
			return
		}
		sum, ok := quantity.Add(g.unitless, q.Value)
		if !ok {
			g.other = append(g.other, q)
			return
		}
		g.unitless = sum
		return
	}

	var unit *units.Unit
	if conv != nil {
		unit, _ = conv.Lookup(q.Unit)
	}
	if unit == nil {
		held, ok := g.unknown[q.Unit]
		if !ok {
			if g.unknown == nil {
				g.unknown = make(map[string]quantity.Quantity)
			}
			g.unknown[q.Unit] = q
			return
		}
		sum, ok := quantity.Add(held.Value, q.Value)
		if !ok {
			g.other = append(g.other, q)
			return
		}
		g.unknown[q.Unit] = quantity.New(sum, held.Unit)
		return
	}

	key := groupKey{Quantity: unit.Quantity, System: unit.System}
	held, ok := g.known[key]
	if !ok {
		if g.known == nil {
			g.known = make(map[groupKey]quantity.Quantity)
		}
		g.known[key] = q
		return
	}
	conv2, err := conv.Convert(q, units.ToUnit(held.Unit))
	if err != nil {
		g.other = append(g.other, q)
		return
	}
	sum, ok := quantity.Add(held.Value, conv2.Value)
	if !ok {
		g.other = append(g.other, q)
		return
	}
	g.known[key] = quantity.New(sum, held.Unit)
}

// Fit re-expresses every convertible slot in its best unit.
func (g *GroupedQuantity) Fit(conv *units.Converter) {
	if conv == nil {
		return
	}
	for key, q := range g.known {
		g.known[key] = conv.Fit(q)
	}
}

// IsEmpty reports whether nothing was accumulated.
func (g *GroupedQuantity) IsEmpty() bool {
	return len(g.known) == 0 && len(g.unknown) == 0 && g.unitless == nil && len(g.other) == 0
}

// All returns the accumulated quantities in a stable order: convertible
// slots by physical quantity then system, unknown units by label,
// unitless, then everything kept apart in arrival order.
func (g *GroupedQuantity) All() []quantity.Quantity {
	out := make([]quantity.Quantity, 0, len(g.known)+len(g.unknown)+len(g.other)+1)

	knownKeys := make([]groupKey, 0, len(g.known))
	for key := range g.known {
		knownKeys = append(knownKeys, key)
	}
	sort.Slice(knownKeys, func(i, j int) bool {
		if knownKeys[i].Quantity != knownKeys[j].Quantity {
			return knownKeys[i].Quantity < knownKeys[j].Quantity
		}
		return knownKeys[i].System < knownKeys[j].System
	})
	for _, key := range knownKeys {
		out = append(out, g.known[key])
	}

	unknownKeys := make([]string, 0, len(g.unknown))
	for label := range g.unknown {
		unknownKeys = append(unknownKeys, label)
	}
	sort.Strings(unknownKeys)
	for _, label := range unknownKeys {
		out = append(out, g.unknown[label])
	}

	if g.unitless != nil {
		out = append(out, quantity.Quantity{Value: g.unitless})
	}
	out = append(out, g.other...)
	return out
}

// GroupedIngredient pairs a defining ingredient with the accumulated
// quantity of every occurrence in its group.
type GroupedIngredient struct {
	// Index is the defining entry in Recipe.Ingredients.
	Index int32 `json:"index"`

	// Quantity holds the combined amounts of the group.
	Quantity GroupedQuantity `json:"quantity"`
}

// GroupedCookware pairs a defining cookware entry with its accumulated
// amounts.
type GroupedCookware struct {
	// Index is the defining entry in Recipe.Cookware.
	Index int32 `json:"index"`

	// Amount holds the combined counts of the group.
	Amount GroupedQuantity `json:"amount"`
}

// GroupIngredients combines the quantities of every ingredient group:
// one entry per definition, folding in the amounts of the entries that
// reference it. References to steps or sections keep their own group, as
// they name a preparation rather than more of the raw ingredient.
func (r *Recipe) GroupIngredients(conv *units.Converter) []GroupedIngredient {
	out := make([]GroupedIngredient, 0, len(r.Ingredients))
	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		if _, ok := ing.Relation.ReferencesComponent(); ok {
			continue
		}
		var g GroupedQuantity
		if ing.Quantity != nil {
			g.Add(*ing.Quantity, conv)
		}
		for _, ri := range ing.Relation.ReferencedFrom {
			if q := r.Ingredients[ri].Quantity; q != nil {
				g.Add(*q, conv)
			}
		}
		out = append(out, GroupedIngredient{Index: int32(i), Quantity: g})
	}
	return out
}

// GroupCookware combines the amounts of every cookware group.
func (r *Recipe) GroupCookware() []GroupedCookware {
	out := make([]GroupedCookware, 0, len(r.Cookware))
	for i := range r.Cookware {
		cw := &r.Cookware[i]
		if _, ok := cw.Relation.ReferencesComponent(); ok {
			continue
		}
		var g GroupedQuantity
		if cw.Amount != nil {
			g.Add(quantity.Quantity{Value: cw.Amount}, nil)
		}
		for _, ri := range cw.Relation.ReferencedFrom {
			if v := r.Cookware[ri].Amount; v != nil {
				g.Add(quantity.Quantity{Value: v}, nil)
			}
		}
		out = append(out, GroupedCookware{Index: int32(i), Amount: g})
	}
	return out
}
