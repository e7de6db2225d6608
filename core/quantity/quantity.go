// Package quantity models the values carried by ingredients, cookware and
// timers: plain numbers, fractions, ranges and opaque text, plus the raw
// unit label attached to them.
//
// Values form a closed set of variants consumed by type switch. Numeric
// parsing is loss-aware: a decimal literal the float64 form cannot represent
// exactly falls back to a fraction instead of failing, and callers degrade
// to Text only when nothing numeric can be recovered.
package quantity

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is one parsed quantity value: a Number (Regular or Fraction), a
// Range, or opaque Text.
type Value interface {
	fmt.Stringer
	valueNode()
}

// Number is a numeric Value.
type Number interface {
	Value
	// Float returns the numeric value, including a fraction's residue.
	Float() float64
	numberNode()
}

// Regular is a plain numeric value.
type Regular float64

func (Regular) valueNode()  {}
func (Regular) numberNode() {}

// Float returns the value as a float64.
func (r Regular) Float() float64 {
	return float64(r)
}

func (r Regular) String() string {
	return strconv.FormatFloat(float64(r), 'f', -1, 64)
}

// Fraction is a mixed-number value: Whole + Num/Den, plus a residue Err
// recording what an approximation dropped. An exact fraction has Err zero.
type Fraction struct {
	Whole int32   `json:"whole"`
	Num   int32   `json:"num"`
	Den   int32   `json:"den"`
	Err   float64 `json:"err,omitempty"`
}

func (Fraction) valueNode()  {}
func (Fraction) numberNode() {}

// Float returns the numeric value, residue included.
func (f Fraction) Float() float64 {
	return float64(f.Whole) + float64(f.Num)/float64(f.Den) + f.Err
}

// IsApprox reports whether the fraction carries an approximation residue.
func (f Fraction) IsApprox() bool {
	return f.Err != 0
}

func (f Fraction) String() string {
	switch {
	case f.Num == 0:
		return strconv.FormatInt(int64(f.Whole), 10)
	case f.Whole == 0:
		return fmt.Sprintf("%d/%d", f.Num, f.Den)
	default:
		return fmt.Sprintf("%d %d/%d", f.Whole, f.Num, f.Den)
	}
}

// Range is an inclusive numeric span. Min is never above Max; construct
// with NewRange to keep that ordering.
type Range struct {
	Min Number `json:"min"`
	Max Number `json:"max"`
}

func (Range) valueNode() {}

func (r Range) String() string {
	return r.Min.String() + "-" + r.Max.String()
}

// NewRange builds a range, swapping the bounds if they arrive reversed.
func NewRange(min, max Number) Range {
	if min.Float() > max.Float() {
		min, max = max, min
	}
	return Range{Min: min, Max: max}
}

// Text is a value that could not be understood numerically and is carried
// verbatim.
type Text string

func (Text) valueNode() {}

func (t Text) String() string {
	return string(t)
}

// MarshalJSON renders a Regular as a bare number.
func (r Regular) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(r))
}

// MarshalJSON renders Text as a bare string.
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

// Quantity is a value plus its raw unit label. The label stays opaque until
// resolved against a unit table; an unknown label is not an error here.
type Quantity struct {
	Value Value  `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// New builds a quantity from a value and raw unit text.
func New(v Value, unit string) Quantity {
	return Quantity{Value: v, Unit: unit}
}

// Unitless reports whether the quantity has no unit label.
func (q Quantity) Unitless() bool {
	return q.Unit == ""
}

func (q Quantity) String() string {
	if q.Value == nil {
		return q.Unit
	}
	if q.Unit == "" {
		return q.Value.String()
	}
	return q.Value.String() + " " + q.Unit
}
