package units

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/Galley/core/errors"
	"github.com/FocuswithJustin/Galley/core/quantity"
)

// FractionsConfig controls fraction display when fitting a value to a
// unit. Accuracy is the allowed relative error; a fit keeps the decimal
// form when no fraction comes close enough.
type FractionsConfig struct {
	Enabled        bool    `json:"enabled"`
	Accuracy       float64 `json:"accuracy"`
	MaxDenominator int32   `json:"max_denominator"`
	MaxWhole       int32   `json:"max_whole"`
}

// DefaultFractions returns the configuration used where no layer says
// otherwise: disabled, and conservative bounds once enabled.
func DefaultFractions() FractionsConfig {
	return FractionsConfig{
		Enabled:        false,
		Accuracy:       0.05,
		MaxDenominator: 4,
		MaxWhole:       math.MaxInt32,
	}
}

// Target selects the destination of a Convert call.
type Target interface {
	targetNode()
}

// ToUnit converts to the unit the string names.
type ToUnit string

// ToSystem converts to the best unit of a system for the magnitude.
type ToSystem System

func (ToUnit) targetNode()   {}
func (ToSystem) targetNode() {}

// Converter resolves unit labels and converts quantities. Build one with
// a Builder (or take Default) and share it freely: a finished converter
// is never mutated.
type Converter struct {
	units         []*Unit
	index         map[string]int
	best          map[PhysicalQuantity]*bestGroup
	fractions     map[*Unit]FractionsConfig
	defaultSystem System
	mixed         bool

	tempOnce sync.Once
	tempRx   *regexp.Regexp
}

// bestGroup holds the fit candidates of one physical quantity, sorted
// ascending by ratio. Either unified serves every system or bySystem
// holds one list per system.
type bestGroup struct {
	unified  []int
	bySystem map[System][]int
}

// Lookup resolves a unit label by exact key, then case-insensitively.
func (c *Converter) Lookup(label string) (*Unit, bool) {
	idx, ok := c.lookupIdx(label)
	if !ok {
		return nil, false
	}
	return c.units[idx], true
}

// Knows reports whether the label resolves to a unit.
func (c *Converter) Knows(label string) bool {
	_, ok := c.lookupIdx(label)
	return ok
}

// Units returns every unit in the table in declaration order.
func (c *Converter) Units() []*Unit {
	out := make([]*Unit, len(c.units))
	copy(out, c.units)
	return out
}

// UnitCount returns the number of units in the table.
func (c *Converter) UnitCount() int {
	return len(c.units)
}

// DefaultSystem is the system assumed for units that belong to none.
func (c *Converter) DefaultSystem() System {
	return c.defaultSystem
}

// BestUnits returns the fit candidates for a quantity in a system,
// sorted ascending by magnitude. With SystemNone the default system is
// used. The list is empty only when the quantity has no units loaded.
func (c *Converter) BestUnits(q PhysicalQuantity, system System) []*Unit {
	list := c.bestList(q, system)
	out := make([]*Unit, len(list))
	for i, idx := range list {
		out[i] = c.units[idx]
	}
	return out
}

// FractionsFor returns the fraction display configuration of a unit.
func (c *Converter) FractionsFor(u *Unit) FractionsConfig {
	if cfg, ok := c.fractions[u]; ok {
		return cfg
	}
	return DefaultFractions()
}

// Convert re-expresses q in the target unit or system. Unlike the rest
// of the pipeline this is a hard-failing call: the caller asked for one
// specific conversion, so an unknown unit, a text value or mismatched
// physical quantities surface as errors. On error q comes back
// unchanged next to the error.
func (c *Converter) Convert(q quantity.Quantity, target Target) (quantity.Quantity, error) {
	if text, ok := q.Value.(quantity.Text); ok {
		return q, &TextValueError{Text: string(text)}
	}
	srcIdx, ok := c.lookupIdx(q.Unit)
	if !ok {
		return q, &UnknownUnitError{Unit: q.Unit}
	}
	src := c.units[srcIdx]

	var dst *Unit
	switch t := target.(type) {
	case ToUnit:
		dstIdx, ok := c.lookupIdx(string(t))
		if !ok {
			return q, &UnknownUnitError{Unit: string(t)}
		}
		dst = c.units[dstIdx]
		if dst.Quantity != src.Quantity {
			return q, &IncompatibleUnitsError{From: src, To: dst}
		}
	case ToSystem:
		dst = c.bestFor(src, System(t), baseMagnitude(q.Value, src))
	default:
		return q, errors.NewValidation("target", "no conversion target given")
	}

	return quantity.New(convertValue(q.Value, src, dst), dst.Symbol()), nil
}

// Fit re-expresses q in the best unit for its magnitude within its
// system (any system when the converter was built with mixed units) and
// applies the chosen unit's fraction configuration. Quantities the
// converter cannot improve (no unit, unknown unit, text value) come
// back unchanged; Fit never fails.
func (c *Converter) Fit(q quantity.Quantity) quantity.Quantity {
	if _, isText := q.Value.(quantity.Text); isText {
		return q
	}
	srcIdx, ok := c.lookupIdx(q.Unit)
	if !ok {
		return q
	}
	src := c.units[srcIdx]

	base := baseMagnitude(q.Value, src)
	var dst *Unit
	if c.mixed {
		dst = c.bestAcross(src, base)
	} else {
		dst = c.bestFor(src, src.System, base)
	}

	if dst == src {
		return c.applyFractions(q, dst)
	}
	out := quantity.New(convertValue(q.Value, src, dst), dst.Symbol())
	return c.applyFractions(out, dst)
}

func (c *Converter) lookupIdx(label string) (int, bool) {
	if label == "" {
		return 0, false
	}
	if idx, ok := c.index[label]; ok {
		return idx, true
	}
	idx, ok := c.index[strings.ToLower(label)]
	return idx, ok
}

func (c *Converter) bestList(q PhysicalQuantity, system System) []int {
	g := c.best[q]
	if g == nil {
		return nil
	}
	if len(g.unified) > 0 {
		return g.unified
	}
	if system == SystemNone {
		system = c.defaultSystem
	}
	if system == SystemNone {
		system = SystemMetric
	}
	if list := g.bySystem[system]; len(list) > 0 {
		return list
	}
	for _, s := range []System{SystemMetric, SystemImperial} {
		if list := g.bySystem[s]; len(list) > 0 {
			return list
		}
	}
	return nil
}

// bestFor picks the largest candidate the magnitude still fills: the
// last unit of the ascending list where the converted value is at least
// one. Values below every candidate take the smallest unit.
func (c *Converter) bestFor(src *Unit, system System, base float64) *Unit {
	list := c.bestList(src.Quantity, system)
	if len(list) == 0 {
		return src
	}
	best := c.units[list[0]]
	for _, idx := range list {
		u := c.units[idx]
		if math.Abs(u.fromBase(base)) >= 1 {
			best = u
		}
	}
	return best
}

// bestAcross considers the candidates of every system at once.
func (c *Converter) bestAcross(src *Unit, base float64) *Unit {
	g := c.best[src.Quantity]
	if g == nil {
		return src
	}
	var merged []int
	merged = append(merged, g.unified...)
	merged = append(merged, g.bySystem[SystemMetric]...)
	merged = append(merged, g.bySystem[SystemImperial]...)
	if len(merged) == 0 {
		return src
	}
	sort.Slice(merged, func(i, j int) bool {
		return c.units[merged[i]].Ratio < c.units[merged[j]].Ratio
	})
	best := c.units[merged[0]]
	for _, idx := range merged {
		u := c.units[idx]
		if math.Abs(u.fromBase(base)) >= 1 {
			best = u
		}
	}
	return best
}

func (c *Converter) applyFractions(q quantity.Quantity, dst *Unit) quantity.Quantity {
	cfg := c.FractionsFor(dst)
	if !cfg.Enabled {
		return q
	}
	switch v := q.Value.(type) {
	case quantity.Regular:
		if f, ok := fractionWithin(float64(v), cfg); ok {
			q.Value = f
		}
	case quantity.Range:
		lo, lok := fractionWithin(v.Min.Float(), cfg)
		hi, hok := fractionWithin(v.Max.Float(), cfg)
		if lok && hok {
			q.Value = quantity.Range{Min: lo, Max: hi}
		}
	}
	return q
}

// fractionWithin approximates v as a fraction and accepts it only when
// the residue stays within the configured relative accuracy.
func fractionWithin(v float64, cfg FractionsConfig) (quantity.Fraction, bool) {
	f, ok := quantity.ApproxFraction(v, cfg.MaxDenominator, cfg.MaxWhole)
	if !ok {
		return quantity.Fraction{}, false
	}
	if v == 0 {
		return f, f.Err == 0
	}
	if math.Abs(f.Err) > cfg.Accuracy*math.Abs(v) {
		return quantity.Fraction{}, false
	}
	return f, true
}

func convertValue(v quantity.Value, src, dst *Unit) quantity.Value {
	conv := func(f float64) float64 {
		return dst.fromBase(src.toBase(f))
	}
	switch val := v.(type) {
	case quantity.Number:
		return quantity.Regular(conv(val.Float()))
	case quantity.Range:
		return quantity.NewRange(
			quantity.Regular(conv(val.Min.Float())),
			quantity.Regular(conv(val.Max.Float())),
		)
	}
	return v
}

// baseMagnitude picks the value that drives best-unit selection: the
// number itself, or the upper bound of a range so the display unit fits
// the larger end.
func baseMagnitude(v quantity.Value, src *Unit) float64 {
	switch val := v.(type) {
	case quantity.Number:
		return src.toBase(val.Float())
	case quantity.Range:
		return src.toBase(val.Max.Float())
	}
	return 0
}

// TemperatureFinder returns a regexp matching inline temperatures like
// "180°C" or "350 °F", built from every temperature unit key in the
// table. Longer keys win over their prefixes. Nil when the table has no
// temperature units.
func (c *Converter) TemperatureFinder() *regexp.Regexp {
	c.tempOnce.Do(func() {
		var keys []string
		for _, u := range c.units {
			if u.Quantity != Temperature {
				continue
			}
			keys = append(keys, u.keys()...)
		}
		if len(keys) == 0 {
			return
		}
		sort.Slice(keys, func(i, j int) bool {
			return len(keys[i]) > len(keys[j])
		})
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = regexp.QuoteMeta(k)
		}
		c.tempRx = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(` + strings.Join(quoted, "|") + `)`)
	})
	return c.tempRx
}
