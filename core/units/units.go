// Package units resolves unit labels against a measurement table and
// converts quantities between units and measurement systems.
//
// A Converter is assembled once from one or more UnitsFile layers and is
// read-only afterwards, so a single instance is safe to share across
// concurrent parses and scalings. Lookups accept any name, symbol or
// alias of a unit. Conversions are linear: a value maps to the base unit
// of its physical quantity as value*Ratio + Difference.
package units

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Galley/core/errors"
	"gopkg.in/yaml.v3"
)

// System is a measurement system.
type System uint8

const (
	// SystemNone marks units outside any system, like pinches or time.
	SystemNone System = iota
	// SystemMetric is the metric system.
	SystemMetric
	// SystemImperial covers imperial and US customary units.
	SystemImperial
)

// ParseSystem reads a system name: "metric", "imperial" or "none".
func ParseSystem(s string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "metric":
		return SystemMetric, nil
	case "imperial":
		return SystemImperial, nil
	case "", "none":
		return SystemNone, nil
	}
	return SystemNone, errors.NewValidation("system", fmt.Sprintf("unknown system %q", s))
}

func (s System) String() string {
	switch s {
	case SystemMetric:
		return "metric"
	case SystemImperial:
		return "imperial"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (s System) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *System) UnmarshalText(text []byte) error {
	v, err := ParseSystem(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *System) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(raw))
}

// PhysicalQuantity is the dimension a unit measures.
type PhysicalQuantity uint8

const (
	// Volume in the bundled table is based on millilitres.
	Volume PhysicalQuantity = iota
	// Mass in the bundled table is based on grams.
	Mass
	// Length in the bundled table is based on millimetres.
	Length
	// Temperature in the bundled table is based on degrees Celsius.
	Temperature
	// Time in the bundled table is based on seconds and has no system.
	Time

	physicalQuantityCount
)

// PhysicalQuantities lists every known quantity, in declaration order.
func PhysicalQuantities() []PhysicalQuantity {
	all := make([]PhysicalQuantity, 0, physicalQuantityCount)
	for q := PhysicalQuantity(0); q < physicalQuantityCount; q++ {
		all = append(all, q)
	}
	return all
}

// ParsePhysicalQuantity reads a quantity name like "mass" or "volume".
func ParsePhysicalQuantity(s string) (PhysicalQuantity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "volume":
		return Volume, nil
	case "mass":
		return Mass, nil
	case "length":
		return Length, nil
	case "temperature":
		return Temperature, nil
	case "time":
		return Time, nil
	}
	return 0, errors.NewValidation("quantity", fmt.Sprintf("unknown physical quantity %q", s))
}

func (q PhysicalQuantity) String() string {
	switch q {
	case Volume:
		return "volume"
	case Mass:
		return "mass"
	case Length:
		return "length"
	case Temperature:
		return "temperature"
	case Time:
		return "time"
	}
	return fmt.Sprintf("quantity(%d)", uint8(q))
}

// MarshalText implements encoding.TextMarshaler.
func (q PhysicalQuantity) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *PhysicalQuantity) UnmarshalText(text []byte) error {
	v, err := ParsePhysicalQuantity(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (q *PhysicalQuantity) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return q.UnmarshalText([]byte(raw))
}

// Unit is one canonical unit definition. Every name, symbol and alias is
// a lookup key; the first symbol (or name) is the display form.
type Unit struct {
	Names   []string `json:"names"`
	Symbols []string `json:"symbols"`
	Aliases []string `json:"aliases,omitempty"`

	// Conversion to the base unit of Quantity: base = value*Ratio + Difference.
	Ratio      float64 `json:"ratio"`
	Difference float64 `json:"difference,omitempty"`

	System   System           `json:"system"`
	Quantity PhysicalQuantity `json:"quantity"`

	// expanded units were generated by SI prefix expansion and only accept
	// alias edits from extend layers.
	expanded bool
}

// Name returns the primary name.
func (u *Unit) Name() string {
	if len(u.Names) > 0 {
		return u.Names[0]
	}
	return u.Symbol()
}

// Symbol returns the display symbol, falling back to the primary name.
func (u *Unit) Symbol() string {
	if len(u.Symbols) > 0 {
		return u.Symbols[0]
	}
	if len(u.Names) > 0 {
		return u.Names[0]
	}
	return ""
}

func (u *Unit) String() string {
	return u.Symbol()
}

// keys yields every lookup key of the unit.
func (u *Unit) keys() []string {
	out := make([]string, 0, len(u.Names)+len(u.Symbols)+len(u.Aliases))
	out = append(out, u.Names...)
	out = append(out, u.Symbols...)
	out = append(out, u.Aliases...)
	return out
}

// toBase maps a value in this unit to the base unit of its quantity.
func (u *Unit) toBase(v float64) float64 {
	return v*u.Ratio + u.Difference
}

// fromBase maps a base value back into this unit.
func (u *Unit) fromBase(v float64) float64 {
	return (v - u.Difference) / u.Ratio
}

// UnknownUnitError is returned when a label matches no unit in the table.
type UnknownUnitError struct {
	Unit string
}

func (e *UnknownUnitError) Error() string {
	if e.Unit == "" {
		return "quantity has no unit"
	}
	return fmt.Sprintf("unknown unit %q", e.Unit)
}

func (e *UnknownUnitError) Unwrap() error {
	return errors.ErrNotFound
}

// IncompatibleUnitsError is returned when a conversion is requested
// between units of different physical quantities.
type IncompatibleUnitsError struct {
	From *Unit
	To   *Unit
}

func (e *IncompatibleUnitsError) Error() string {
	return fmt.Sprintf("cannot convert %s (%s) to %s (%s)",
		e.From.Symbol(), e.From.Quantity, e.To.Symbol(), e.To.Quantity)
}

func (e *IncompatibleUnitsError) Unwrap() error {
	return errors.ErrUnsupported
}

// TextValueError is returned when a conversion is requested for a
// quantity whose value is opaque text.
type TextValueError struct {
	Text string
}

func (e *TextValueError) Error() string {
	return fmt.Sprintf("cannot convert text value %q", e.Text)
}

func (e *TextValueError) Unwrap() error {
	return errors.ErrInvalidInput
}
