// Package recipe holds the analyzed recipe model: metadata, sections of
// steps and text blocks, and the component arenas that step items index
// into.
//
// A Recipe is immutable once the analyzer has produced it. References
// between entities are integer indices into the arenas, never pointers,
// so the model can be copied, serialized and shared freely. Scaling works
// on a copy and reports per-quantity outcomes; independent scalings of
// the same recipe can run concurrently.
package recipe

import (
	"encoding/json"

	"github.com/FocuswithJustin/Galley/core/parser"
	"github.com/FocuswithJustin/Galley/core/quantity"
)

// Recipe is the analyzed form of one source text.
type Recipe struct {
	// Metadata holds the raw entries in source order plus the parsed
	// special keys.
	Metadata Metadata `json:"metadata"`

	// Sections holds the recipe content in source order. Content written
	// before any section marker lands in an unnamed first section.
	Sections []Section `json:"sections"`

	// Ingredients is the arena ItemIngredient indices point into.
	Ingredients []Ingredient `json:"ingredients"`

	// Cookware is the arena ItemCookware indices point into.
	Cookware []Cookware `json:"cookware"`

	// Timers is the arena ItemTimer indices point into.
	Timers []Timer `json:"timers"`

	// InlineQuantities holds values detected inside prose, like an oven
	// temperature. ItemInlineQuantity indices point into it.
	InlineQuantities []quantity.Quantity `json:"inline_quantities,omitempty"`
}

// Clone returns a copy whose arenas can be rewritten without touching the
// receiver. Sections, metadata and relation slices are shared: nothing
// mutates them after analysis.
func (r *Recipe) Clone() Recipe {
	out := *r
	out.Ingredients = make([]Ingredient, len(r.Ingredients))
	copy(out.Ingredients, r.Ingredients)
	for i := range out.Ingredients {
		out.Ingredients[i].Quantity = cloneQuantity(out.Ingredients[i].Quantity)
	}
	out.Cookware = make([]Cookware, len(r.Cookware))
	copy(out.Cookware, r.Cookware)
	out.Timers = make([]Timer, len(r.Timers))
	copy(out.Timers, r.Timers)
	for i := range out.Timers {
		out.Timers[i].Quantity = cloneQuantity(out.Timers[i].Quantity)
	}
	return out
}

func cloneQuantity(q *quantity.Quantity) *quantity.Quantity {
	if q == nil {
		return nil
	}
	dup := *q
	return &dup
}

// Section is a titled run of recipe content.
type Section struct {
	// Name is empty for the implicit opening section or a bare `=` marker.
	Name string `json:"name,omitempty"`

	// Content holds the steps and text blocks in source order.
	Content []Content `json:"content"`
}

// IsEmpty reports whether the section has neither a name nor content.
func (s *Section) IsEmpty() bool {
	return s.Name == "" && len(s.Content) == 0
}

// Content is one block of a section: a Step or a TextBlock.
type Content interface {
	contentNode()
}

// Step is one numbered instruction, built from items in source order.
type Step struct {
	// Items make up the step text. Component items index into the recipe
	// arenas.
	Items []Item `json:"items"`

	// Number is the 1-based step number within the section. Text blocks
	// do not advance it.
	Number int32 `json:"number"`
}

// TextBlock is unnumbered prose between steps. It cannot be referenced.
type TextBlock struct {
	Text string `json:"text"`
}

func (Step) contentNode()      {}
func (TextBlock) contentNode() {}

// MarshalJSON tags the block with its kind so the variants stay
// distinguishable in serialized form.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Items  []Item `json:"items"`
		Number int32  `json:"number"`
	}{"step", s.Items, s.Number})
}

// MarshalJSON tags the block with its kind.
func (t TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{"text", t.Text})
}

// Item is one inline element of a step.
type Item interface {
	itemNode()
}

// ItemText is a prose run inside a step.
type ItemText struct {
	Value string `json:"value"`
}

// ItemIngredient points at an entry of Recipe.Ingredients.
type ItemIngredient struct {
	Index int32 `json:"index"`
}

// ItemCookware points at an entry of Recipe.Cookware.
type ItemCookware struct {
	Index int32 `json:"index"`
}

// ItemTimer points at an entry of Recipe.Timers.
type ItemTimer struct {
	Index int32 `json:"index"`
}

// ItemInlineQuantity points at an entry of Recipe.InlineQuantities.
type ItemInlineQuantity struct {
	Index int32 `json:"index"`
}

func (ItemText) itemNode()           {}
func (ItemIngredient) itemNode()     {}
func (ItemCookware) itemNode()       {}
func (ItemTimer) itemNode()          {}
func (ItemInlineQuantity) itemNode() {}

// MarshalJSON tags the item with its kind.
func (t ItemText) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{"text", t.Value})
}

// MarshalJSON tags the item with its kind.
func (i ItemIngredient) MarshalJSON() ([]byte, error) {
	return marshalIndexItem("ingredient", i.Index)
}

// MarshalJSON tags the item with its kind.
func (i ItemCookware) MarshalJSON() ([]byte, error) {
	return marshalIndexItem("cookware", i.Index)
}

// MarshalJSON tags the item with its kind.
func (i ItemTimer) MarshalJSON() ([]byte, error) {
	return marshalIndexItem("timer", i.Index)
}

// MarshalJSON tags the item with its kind.
func (i ItemInlineQuantity) MarshalJSON() ([]byte, error) {
	return marshalIndexItem("inline_quantity", i.Index)
}

func marshalIndexItem(kind string, index int32) ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Index int32  `json:"index"`
	}{kind, index})
}

// Ingredient is one ingredient occurrence.
type Ingredient struct {
	// Name as written in the source.
	Name string `json:"name"`

	// Alias is the display alias written after `|`, empty when none.
	Alias string `json:"alias,omitempty"`

	// Quantity is nil when the occurrence carries no amount.
	Quantity *quantity.Quantity `json:"quantity,omitempty"`

	// Note is the parenthesized note following the component.
	Note string `json:"note,omitempty"`

	// Modifiers are the flags written between the marker and the name.
	Modifiers parser.Modifiers `json:"modifiers,omitempty"`

	// Fixed pins the quantity during scaling (`*` after the component).
	Fixed bool `json:"fixed,omitempty"`

	// Relation ties this occurrence to the rest of its group.
	Relation Relation `json:"relation"`
}

// DisplayName returns the alias when present, the name otherwise.
func (i *Ingredient) DisplayName() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Name
}

// IsHidden reports whether the occurrence is kept out of ingredient lists.
func (i *Ingredient) IsHidden() bool {
	return i.Modifiers.Has(parser.ModHidden)
}

// IsOptional reports whether the occurrence was marked optional.
func (i *Ingredient) IsOptional() bool {
	return i.Modifiers.Has(parser.ModOptional)
}

// IsRecipeRef reports whether the name refers to another recipe.
func (i *Ingredient) IsRecipeRef() bool {
	return i.Modifiers.Has(parser.ModRecipe)
}

// Cookware is one cookware occurrence. Cookware amounts are bare counts
// and never carry a unit.
type Cookware struct {
	// Name as written in the source.
	Name string `json:"name"`

	// Alias is the display alias written after `|`, empty when none.
	Alias string `json:"alias,omitempty"`

	// Amount is nil when the occurrence carries none.
	Amount quantity.Value `json:"amount,omitempty"`

	// Note is the parenthesized note following the component.
	Note string `json:"note,omitempty"`

	// Modifiers are the flags written between the marker and the name.
	Modifiers parser.Modifiers `json:"modifiers,omitempty"`

	// Fixed pins the amount during scaling.
	Fixed bool `json:"fixed,omitempty"`

	// Relation ties this occurrence to the rest of its group.
	Relation Relation `json:"relation"`
}

// DisplayName returns the alias when present, the name otherwise.
func (c *Cookware) DisplayName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// IsHidden reports whether the occurrence is kept out of cookware lists.
func (c *Cookware) IsHidden() bool {
	return c.Modifiers.Has(parser.ModHidden)
}

// IsOptional reports whether the occurrence was marked optional.
func (c *Cookware) IsOptional() bool {
	return c.Modifiers.Has(parser.ModOptional)
}

// Timer is one timer. At least one of Name and Quantity is set.
type Timer struct {
	// Name is the timer label, empty for a bare duration.
	Name string `json:"name,omitempty"`

	// Quantity is the duration, nil for a name-only timer.
	Quantity *quantity.Quantity `json:"quantity,omitempty"`
}

// RelationKind distinguishes defining occurrences from references.
type RelationKind uint8

const (
	// RelationDefinition marks the entry that defines the component.
	RelationDefinition RelationKind = iota
	// RelationReference marks an entry pointing back at a definition or
	// at an intermediate preparation.
	RelationReference
)

func (k RelationKind) String() string {
	if k == RelationReference {
		return "reference"
	}
	return "definition"
}

// MarshalText implements encoding.TextMarshaler.
func (k RelationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RefTarget says what a reference entry points at.
type RefTarget uint8

const (
	// TargetComponent points at the defining arena entry of the group.
	TargetComponent RefTarget = iota
	// TargetStep points at an earlier step of the same section.
	TargetStep
	// TargetSection points at an earlier section.
	TargetSection
)

func (t RefTarget) String() string {
	switch t {
	case TargetStep:
		return "step"
	case TargetSection:
		return "section"
	}
	return "component"
}

// MarshalText implements encoding.TextMarshaler.
func (t RefTarget) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Relation links the occurrences of one component. A definition tracks
// which later entries reference it; a reference names its referent: the
// defining entry's arena index, a 1-based step number, or a section
// index.
type Relation struct {
	// Kind says whether this occurrence defines or references.
	Kind RelationKind `json:"kind"`

	// Target selects the referent kind. Meaningful on references only.
	Target RefTarget `json:"target,omitempty"`

	// Index is the referent; -1 on definitions.
	Index int32 `json:"index"`

	// ReferencedFrom lists on a definition the arena indices of the
	// entries referencing it, in source order.
	ReferencedFrom []int32 `json:"referenced_from,omitempty"`
}

// NewDefinition builds the relation of a defining occurrence.
func NewDefinition() Relation {
	return Relation{Kind: RelationDefinition, Index: -1}
}

// NewComponentRef builds a reference to the definition at def.
func NewComponentRef(def int32) Relation {
	return Relation{Kind: RelationReference, Target: TargetComponent, Index: def}
}

// NewStepRef builds a reference to an earlier step of the same section.
func NewStepRef(step int32) Relation {
	return Relation{Kind: RelationReference, Target: TargetStep, Index: step}
}

// NewSectionRef builds a reference to an earlier section.
func NewSectionRef(section int32) Relation {
	return Relation{Kind: RelationReference, Target: TargetSection, Index: section}
}

// IsDefinition reports whether the occurrence defines its component.
func (r Relation) IsDefinition() bool {
	return r.Kind == RelationDefinition
}

// IsReference reports whether the occurrence references something else.
func (r Relation) IsReference() bool {
	return r.Kind == RelationReference
}

// ReferencesComponent returns the defining arena index when the relation
// is a component reference.
func (r Relation) ReferencesComponent() (int32, bool) {
	if r.Kind == RelationReference && r.Target == TargetComponent {
		return r.Index, true
	}
	return 0, false
}
