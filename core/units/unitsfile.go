package units

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	_ "embed"

	"github.com/FocuswithJustin/Galley/core/errors"
	"gopkg.in/yaml.v3"
)

// UnitsFile is one declarative layer of unit configuration. Layers are
// stacked in a Builder: later layers see and may extend everything the
// earlier ones declared.
type UnitsFile struct {
	// DefaultSystem is used when the converter must infer a system for a
	// unit that belongs to none.
	DefaultSystem System `yaml:"default_system"`
	// SI enables prefix expansion for units marked expand_si.
	SI *SIConfig `yaml:"si"`
	// Fractions configures fraction display when fitting values.
	Fractions *FractionsSchema `yaml:"fractions"`
	// Extend edits units declared in layers already loaded.
	Extend *Extend `yaml:"extend"`
	// Quantity declares new units grouped by physical quantity.
	Quantity []QuantityGroup `yaml:"quantity"`
}

// ParseUnitsFile decodes a yaml units file. Unknown top-level fields are
// rejected so typos surface instead of silently vanishing.
func ParseUnitsFile(data []byte) (*UnitsFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f UnitsFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &UnitsFile{}, nil
		}
		return nil, &errors.ParseError{Format: "units file", Message: err.Error(), Err: err}
	}
	return &f, nil
}

// SIConfig drives SI prefix expansion. Map keys are prefix names (kilo,
// hecto, deca, deci, centi, milli); values list the spellings prepended
// to unit names or symbols when expanding.
type SIConfig struct {
	Prefixes       map[string][]string `yaml:"prefixes"`
	SymbolPrefixes map[string][]string `yaml:"symbol_prefixes"`
	Precedence     Precedence          `yaml:"precedence"`
}

// SIPrefix is one supported SI prefix.
type SIPrefix uint8

const (
	Kilo SIPrefix = iota
	Hecto
	Deca
	Deci
	Centi
	Milli

	siPrefixCount
)

// SIPrefixes lists every supported prefix in descending ratio order.
func SIPrefixes() []SIPrefix {
	all := make([]SIPrefix, 0, siPrefixCount)
	for p := SIPrefix(0); p < siPrefixCount; p++ {
		all = append(all, p)
	}
	return all
}

// ParseSIPrefix reads a prefix name like "kilo".
func ParseSIPrefix(s string) (SIPrefix, error) {
	for p := SIPrefix(0); p < siPrefixCount; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, errors.NewValidation("si", fmt.Sprintf("unknown SI prefix %q", s))
}

// Ratio returns the multiplier of the prefix.
func (p SIPrefix) Ratio() float64 {
	switch p {
	case Kilo:
		return 1e3
	case Hecto:
		return 1e2
	case Deca:
		return 1e1
	case Deci:
		return 1e-1
	case Centi:
		return 1e-2
	case Milli:
		return 1e-3
	}
	return 1
}

func (p SIPrefix) String() string {
	switch p {
	case Kilo:
		return "kilo"
	case Hecto:
		return "hecto"
	case Deca:
		return "deca"
	case Deci:
		return "deci"
	case Centi:
		return "centi"
	case Milli:
		return "milli"
	}
	return fmt.Sprintf("prefix(%d)", uint8(p))
}

// Precedence orders list joins when a layer touches an existing unit.
// The first entry of a joined list is the display form, so precedence
// decides whether a layer's spellings win.
type Precedence uint8

const (
	// PrecedenceBefore puts the layer's entries first (higher priority).
	PrecedenceBefore Precedence = iota
	// PrecedenceAfter appends the layer's entries (lower priority).
	PrecedenceAfter
	// PrecedenceOverride discards the existing entries.
	PrecedenceOverride
)

func (p Precedence) String() string {
	switch p {
	case PrecedenceAfter:
		return "after"
	case PrecedenceOverride:
		return "override"
	}
	return "before"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Precedence) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch raw {
	case "", "before":
		*p = PrecedenceBefore
	case "after":
		*p = PrecedenceAfter
	case "override":
		*p = PrecedenceOverride
	default:
		return errors.NewValidation("precedence", fmt.Sprintf("unknown precedence %q", raw))
	}
	return nil
}

// QuantityGroup declares the units of one physical quantity.
type QuantityGroup struct {
	Quantity PhysicalQuantity `yaml:"quantity"`
	// Best lists the units eligible for best-unit selection. Optional per
	// group, but by the time a converter is finished every quantity with
	// units needs one; a later group's list replaces an earlier one.
	Best  *BestUnits `yaml:"best"`
	Units UnitList   `yaml:"units"`
}

// BestUnits is either one unified list serving every system or one list
// per system. In yaml a plain sequence is unified; a mapping declares
// metric and imperial lists.
type BestUnits struct {
	Unified  []string
	Metric   []string
	Imperial []string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *BestUnits) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&b.Unified)
	case yaml.MappingNode:
		var raw struct {
			Metric   []string `yaml:"metric"`
			Imperial []string `yaml:"imperial"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		b.Metric = raw.Metric
		b.Imperial = raw.Imperial
		return nil
	}
	return fmt.Errorf("line %d: best units must be a list or a metric/imperial map", node.Line)
}

// UnitList declares new units, either as one unified list with no system
// information or split by system.
type UnitList struct {
	Unified     []UnitEntry
	Metric      []UnitEntry
	Imperial    []UnitEntry
	Unspecified []UnitEntry
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *UnitList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&l.Unified)
	case yaml.MappingNode:
		var raw struct {
			Metric      []UnitEntry `yaml:"metric"`
			Imperial    []UnitEntry `yaml:"imperial"`
			Unspecified []UnitEntry `yaml:"unspecified"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		l.Metric = raw.Metric
		l.Imperial = raw.Imperial
		l.Unspecified = raw.Unspecified
		return nil
	}
	return fmt.Errorf("line %d: units must be a list or a metric/imperial/unspecified map", node.Line)
}

// UnitEntry declares one new unit. Conversions follow
// value*ratio + difference into the base unit of the group's quantity.
type UnitEntry struct {
	Names   []string `yaml:"names"`
	Symbols []string `yaml:"symbols"`
	// Aliases are extra lookup keys; SI expansion leaves them alone.
	Aliases    []string `yaml:"aliases"`
	Ratio      float64  `yaml:"ratio"`
	Difference float64  `yaml:"difference"`
	// ExpandSI generates prefixed variants (kilo…, milli…) automatically.
	ExpandSI bool `yaml:"expand_si"`
}

// Extend edits units declared earlier: add spellings or adjust the
// conversion of the unit any key names. Ratio and difference edits never
// change the unit's system. Expanded units only accept alias edits.
type Extend struct {
	Precedence Precedence                 `yaml:"precedence"`
	Units      map[string]ExtendUnitEntry `yaml:"units"`
}

// ExtendUnitEntry is one unit edit. Nil numeric fields leave the current
// value untouched.
type ExtendUnitEntry struct {
	Ratio      *float64 `yaml:"ratio"`
	Difference *float64 `yaml:"difference"`
	Names      []string `yaml:"names"`
	Symbols    []string `yaml:"symbols"`
	Aliases    []string `yaml:"aliases"`
}

// FractionsSchema configures fraction display in layers. For one unit the
// layers merge most specific first: unit, quantity, metric/imperial, all.
type FractionsSchema struct {
	All      *FractionsLayer `yaml:"all"`
	Metric   *FractionsLayer `yaml:"metric"`
	Imperial *FractionsLayer `yaml:"imperial"`
	// Quantity keys are physical quantity names.
	Quantity map[string]FractionsLayer `yaml:"quantity"`
	// Unit keys are any unit name, symbol or alias.
	Unit map[string]FractionsLayer `yaml:"unit"`
}

// FractionsLayer is one partial fraction configuration. In yaml a bare
// boolean toggles enabled and leaves everything else unset.
type FractionsLayer struct {
	Enabled        *bool
	Accuracy       *float64
	MaxDenominator *int32
	MaxWhole       *int32
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *FractionsLayer) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var enabled bool
		if err := node.Decode(&enabled); err != nil {
			return err
		}
		l.Enabled = &enabled
		return nil
	}
	var raw struct {
		Enabled        *bool    `yaml:"enabled"`
		Accuracy       *float64 `yaml:"accuracy"`
		MaxDenominator *int32   `yaml:"max_denominator"`
		MaxDen         *int32   `yaml:"max_den"`
		MaxWhole       *int32   `yaml:"max_whole"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	l.Enabled = raw.Enabled
	l.Accuracy = raw.Accuracy
	l.MaxDenominator = raw.MaxDenominator
	if l.MaxDenominator == nil {
		l.MaxDenominator = raw.MaxDen
	}
	l.MaxWhole = raw.MaxWhole
	return nil
}

// merge fills the unset fields of l from other; l's fields win.
func (l FractionsLayer) merge(other FractionsLayer) FractionsLayer {
	if l.Enabled == nil {
		l.Enabled = other.Enabled
	}
	if l.Accuracy == nil {
		l.Accuracy = other.Accuracy
	}
	if l.MaxDenominator == nil {
		l.MaxDenominator = other.MaxDenominator
	}
	if l.MaxWhole == nil {
		l.MaxWhole = other.MaxWhole
	}
	return l
}

// define resolves the layer against the defaults, clamping out-of-range
// values instead of failing.
func (l FractionsLayer) define() FractionsConfig {
	cfg := DefaultFractions()
	if l.Enabled != nil {
		cfg.Enabled = *l.Enabled
	}
	if l.Accuracy != nil {
		cfg.Accuracy = clampFloat(*l.Accuracy, 0, 1)
	}
	if l.MaxDenominator != nil {
		cfg.MaxDenominator = clampInt32(*l.MaxDenominator, 1, 16)
	}
	if l.MaxWhole != nil && *l.MaxWhole >= 0 {
		cfg.MaxWhole = *l.MaxWhole
	}
	return cfg
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

//go:embed data/units.yaml
var bundledData []byte

// Bundled parses a fresh copy of the bundled unit table, for callers
// that want to stack their own layers on top of it.
func Bundled() (*UnitsFile, error) {
	return ParseUnitsFile(bundledData)
}

var (
	defaultOnce sync.Once
	defaultConv *Converter
)

// Default returns the converter built from the bundled unit table. It is
// built once and shared; the bundled table is validated by tests, so a
// build failure here is a packaging bug and panics.
func Default() *Converter {
	defaultOnce.Do(func() {
		f, err := Bundled()
		if err != nil {
			panic("units: bundled table: " + err.Error())
		}
		c, err := NewBuilder().Add(f).Finish()
		if err != nil {
			panic("units: bundled table: " + err.Error())
		}
		defaultConv = c
	})
	return defaultConv
}

// Empty returns a converter that knows no units: every lookup misses and
// Fit returns its input unchanged.
func Empty() *Converter {
	return &Converter{
		index:     map[string]int{},
		best:      map[PhysicalQuantity]*bestGroup{},
		fractions: map[*Unit]FractionsConfig{},
	}
}
