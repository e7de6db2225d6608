package recipe

import (
	"github.com/FocuswithJustin/Galley/core/quantity"
	"github.com/FocuswithJustin/Galley/core/report"
	"github.com/FocuswithJustin/Galley/core/units"
)

// Target selects how much to scale a recipe: a uniform factor, or a
// serving count matched against the declared servings.
type Target struct {
	factor     float64
	servings   uint32
	byServings bool
}

// ScaleFactor targets a uniform multiplication factor.
func ScaleFactor(factor float64) Target {
	return Target{factor: factor}
}

// ToServings targets a serving count; the factor becomes the ratio to the
// recipe's declared servings.
func ToServings(servings uint32) Target {
	return Target{servings: servings, byServings: true}
}

// OutcomeKind classifies what scaling did to one quantity.
type OutcomeKind uint8

const (
	// OutcomeScaled: the value was multiplied by the factor.
	OutcomeScaled OutcomeKind = iota
	// OutcomeFixed: the value is unscalable by design; the original kept.
	OutcomeFixed
	// OutcomeError: the value could not be scaled; the original kept.
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFixed:
		return "fixed"
	case OutcomeError:
		return "error"
	}
	return "scaled"
}

// MarshalText implements encoding.TextMarshaler.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the per-quantity result of a scale pass. Scaling failures
// are data here, never a failure of the pass: the consumer reads the
// outcome and degrades as it sees fit.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// Reason explains an OutcomeError.
	Reason string `json:"reason,omitempty"`
}

// ScalingData records how a scale pass treated every quantity. The slices
// run parallel to the recipe arenas.
type ScalingData struct {
	// Factor is the multiplier that was applied.
	Factor float64 `json:"factor"`

	Ingredients []Outcome `json:"ingredients,omitempty"`
	Cookware    []Outcome `json:"cookware,omitempty"`
	Timers      []Outcome `json:"timers,omitempty"`
}

// ScaledRecipe is a scaled copy of a recipe plus the per-quantity
// outcomes of the pass.
type ScaledRecipe struct {
	Recipe

	Scaling ScalingData `json:"scaling"`
}

// Scale produces a scaled copy of r; the source recipe is never touched.
// Numeric quantities multiply by the factor and, when a converter is
// given, re-fit to the best unit for their new magnitude. Fixed-marked
// quantities and all timers stay fixed; text values come back with an
// error outcome and their original value. The report carries at most one
// diagnostic: targeting a serving count when the recipe declares none.
func Scale(r *Recipe, target Target, conv *units.Converter) (*ScaledRecipe, *report.Report) {
	rep := report.New()

	factor := target.factor
	if target.byServings {
		if declared := r.Metadata.Special.Servings; declared != nil {
			factor = float64(target.servings) / float64(*declared)
		} else {
			rep.Add((&report.Diag{
				Severity: report.SeverityError,
				Code:     "scale",
				Message:  "recipe declares no servings to scale from",
			}).WithHelp("add a `>> servings: N` metadata line or scale by factor"))
			factor = 1
		}
	}

	out := &ScaledRecipe{
		Recipe: r.Clone(),
		Scaling: ScalingData{
			Factor:      factor,
			Ingredients: make([]Outcome, len(r.Ingredients)),
			Cookware:    make([]Outcome, len(r.Cookware)),
			Timers:      make([]Outcome, len(r.Timers)),
		},
	}

	for i := range out.Ingredients {
		ing := &out.Ingredients[i]
		out.Scaling.Ingredients[i] = scaleQuantity(ing.Quantity, ing.Fixed, factor, conv)
	}
	for i := range out.Cookware {
		cw := &out.Cookware[i]
		oc, scaled := scaleValue(cw.Amount, cw.Fixed, factor)
		if oc.Kind == OutcomeScaled && scaled != nil {
			cw.Amount = scaled
		}
		out.Scaling.Cookware[i] = oc
	}
	// Timers keep their duration whatever the factor: a cake does not bake
	// faster for being smaller.
	for i := range out.Scaling.Timers {
		out.Scaling.Timers[i] = Outcome{Kind: OutcomeFixed}
	}

	return out, rep
}

func scaleQuantity(q *quantity.Quantity, fixed bool, factor float64, conv *units.Converter) Outcome {
	if q == nil {
		return Outcome{Kind: OutcomeScaled}
	}
	if fixed {
		return Outcome{Kind: OutcomeFixed}
	}
	if factor == 1 {
		return Outcome{Kind: OutcomeScaled}
	}
	scaled, ok := quantity.Mul(q.Value, factor)
	if !ok {
		return Outcome{Kind: OutcomeError, Reason: "text value cannot be scaled"}
	}
	q.Value = scaled
	if conv != nil {
		*q = conv.Fit(*q)
	}
	return Outcome{Kind: OutcomeScaled}
}

func scaleValue(v quantity.Value, fixed bool, factor float64) (Outcome, quantity.Value) {
	if v == nil {
		return Outcome{Kind: OutcomeScaled}, nil
	}
	if fixed {
		return Outcome{Kind: OutcomeFixed}, nil
	}
	if factor == 1 {
		return Outcome{Kind: OutcomeScaled}, nil
	}
	scaled, ok := quantity.Mul(v, factor)
	if !ok {
		return Outcome{Kind: OutcomeError, Reason: "text value cannot be scaled"}, nil
	}
	return Outcome{Kind: OutcomeScaled}, scaled
}
