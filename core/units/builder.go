package units

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/Galley/core/errors"
)

// Builder stacks units files into a Converter. Files are read in the
// order they were added; a later file sees everything the earlier ones
// declared and may extend or replace it.
type Builder struct {
	files []*UnitsFile
	mixed bool
}

// NewBuilder returns an empty builder. Finishing it without adding any
// file yields a converter that knows no units.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a configuration layer and returns the builder.
func (b *Builder) Add(f *UnitsFile) *Builder {
	b.files = append(b.files, f)
	return b
}

// MixedUnits lets Fit pick the best unit across systems instead of
// staying within the source unit's system.
func (b *Builder) MixedUnits(enabled bool) *Builder {
	b.mixed = enabled
	return b
}

// Finish assembles and validates the converter. The builder itself is
// left untouched, so a base configuration can be finished repeatedly
// with different layers on top.
func (b *Builder) Finish() (*Converter, error) {
	st := &buildState{
		conv: &Converter{
			index:     map[string]int{},
			best:      map[PhysicalQuantity]*bestGroup{},
			fractions: map[*Unit]FractionsConfig{},
			mixed:     b.mixed,
		},
		si: siState{
			prefixes:       map[SIPrefix][]string{},
			symbolPrefixes: map[SIPrefix][]string{},
		},
		rawBest: map[PhysicalQuantity]*BestUnits{},
	}
	for _, f := range b.files {
		if err := st.addFile(f); err != nil {
			return nil, err
		}
	}
	if err := st.resolveBest(); err != nil {
		return nil, err
	}
	if err := st.resolveFractions(b.files); err != nil {
		return nil, err
	}
	return st.conv, nil
}

type buildState struct {
	conv    *Converter
	si      siState
	rawBest map[PhysicalQuantity]*BestUnits
}

// siState accumulates prefix spellings across files so a later file can
// expand units with prefixes an earlier file declared.
type siState struct {
	prefixes       map[SIPrefix][]string
	symbolPrefixes map[SIPrefix][]string
}

func (s siState) empty() bool {
	return len(s.prefixes) == 0 && len(s.symbolPrefixes) == 0
}

func (st *buildState) addFile(f *UnitsFile) error {
	if f.DefaultSystem != SystemNone {
		st.conv.defaultSystem = f.DefaultSystem
	}
	if f.SI != nil {
		if err := st.joinSI(f.SI); err != nil {
			return err
		}
	}
	for _, g := range f.Quantity {
		if err := st.addGroup(g); err != nil {
			return err
		}
	}
	// Extend runs after the groups of the same file, so a file may edit
	// units it declared itself.
	if f.Extend != nil {
		if err := st.applyExtend(f.Extend); err != nil {
			return err
		}
	}
	return nil
}

func (st *buildState) joinSI(cfg *SIConfig) error {
	join := func(dst map[SIPrefix][]string, src map[string][]string, field string) error {
		keys := make([]string, 0, len(src))
		for k := range src {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p, err := ParseSIPrefix(k)
			if err != nil {
				return errors.NewValidation(field, fmt.Sprintf("unknown SI prefix %q", k))
			}
			dst[p] = joinLists(dst[p], src[k], cfg.Precedence)
		}
		return nil
	}
	if err := join(st.si.prefixes, cfg.Prefixes, "si.prefixes"); err != nil {
		return err
	}
	return join(st.si.symbolPrefixes, cfg.SymbolPrefixes, "si.symbol_prefixes")
}

func (st *buildState) addGroup(g QuantityGroup) error {
	field := "quantity." + g.Quantity.String()
	lists := []struct {
		entries []UnitEntry
		system  System
	}{
		{g.Units.Unified, SystemNone},
		{g.Units.Metric, SystemMetric},
		{g.Units.Imperial, SystemImperial},
		{g.Units.Unspecified, SystemNone},
	}
	for _, l := range lists {
		for _, e := range l.entries {
			if err := st.addEntry(e, g.Quantity, l.system, field); err != nil {
				return err
			}
		}
	}
	if g.Best != nil {
		st.rawBest[g.Quantity] = g.Best
	}
	return nil
}

func (st *buildState) addEntry(e UnitEntry, q PhysicalQuantity, system System, field string) error {
	if len(e.Names)+len(e.Symbols) == 0 {
		return errors.NewValidation(field, "a unit needs at least one name or symbol")
	}
	u := &Unit{
		Names:      append([]string(nil), e.Names...),
		Symbols:    append([]string(nil), e.Symbols...),
		Aliases:    append([]string(nil), e.Aliases...),
		Ratio:      e.Ratio,
		Difference: e.Difference,
		System:     system,
		Quantity:   q,
	}
	if u.Ratio <= 0 {
		return errors.NewValidation(field, fmt.Sprintf("unit %q needs a positive ratio", u.Symbol()))
	}
	if err := st.register(u, field); err != nil {
		return err
	}
	if !e.ExpandSI {
		return nil
	}
	if st.si.empty() {
		return errors.NewValidation(field, fmt.Sprintf("unit %q uses expand_si but no si prefixes are defined", u.Symbol()))
	}
	for _, p := range SIPrefixes() {
		exp := expandUnit(u, p, st.si)
		if exp == nil {
			continue
		}
		if err := st.register(exp, field); err != nil {
			return err
		}
	}
	return nil
}

// expandUnit derives the prefixed variant of a unit, or nil when the
// prefix has no spellings for any of the unit's names or symbols.
func expandUnit(u *Unit, p SIPrefix, si siState) *Unit {
	names := crossJoin(si.prefixes[p], u.Names)
	symbols := crossJoin(si.symbolPrefixes[p], u.Symbols)
	if len(names)+len(symbols) == 0 {
		return nil
	}
	return &Unit{
		Names:      names,
		Symbols:    symbols,
		Ratio:      u.Ratio * p.Ratio(),
		Difference: u.Difference,
		System:     u.System,
		Quantity:   u.Quantity,
		expanded:   true,
	}
}

func crossJoin(prefixes, bases []string) []string {
	if len(prefixes) == 0 || len(bases) == 0 {
		return nil
	}
	out := make([]string, 0, len(prefixes)*len(bases))
	for _, p := range prefixes {
		for _, b := range bases {
			out = append(out, p+b)
		}
	}
	return out
}

func (st *buildState) register(u *Unit, field string) error {
	idx := len(st.conv.units)
	for _, k := range u.keys() {
		if _, dup := st.conv.index[k]; dup {
			return errors.NewValidation(field, fmt.Sprintf("duplicate unit key %q", k))
		}
		st.conv.index[k] = idx
	}
	st.conv.units = append(st.conv.units, u)
	return nil
}

func (st *buildState) applyExtend(ext *Extend) error {
	keys := make([]string, 0, len(ext.Units))
	for k := range ext.Units {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := st.extendUnit(k, ext.Units[k], ext.Precedence); err != nil {
			return err
		}
	}
	return nil
}

func (st *buildState) extendUnit(key string, e ExtendUnitEntry, prec Precedence) error {
	field := "extend.units." + key
	idx, ok := st.conv.lookupIdx(key)
	if !ok {
		return errors.NewValidation(field, fmt.Sprintf("unknown unit %q", key))
	}
	u := st.conv.units[idx]
	if u.expanded && (e.Ratio != nil || e.Difference != nil || len(e.Names) > 0 || len(e.Symbols) > 0) {
		return errors.NewValidation(field, "SI-expanded units only accept alias edits")
	}
	if e.Ratio != nil {
		if *e.Ratio <= 0 {
			return errors.NewValidation(field, "ratio must stay positive")
		}
		u.Ratio = *e.Ratio
	}
	if e.Difference != nil {
		u.Difference = *e.Difference
	}
	var err error
	if u.Names, err = st.editKeys(u.Names, e.Names, prec, idx, field); err != nil {
		return err
	}
	if u.Symbols, err = st.editKeys(u.Symbols, e.Symbols, prec, idx, field); err != nil {
		return err
	}
	if u.Aliases, err = st.editKeys(u.Aliases, e.Aliases, prec, idx, field); err != nil {
		return err
	}
	return nil
}

// editKeys joins a layer's spellings into one of a unit's key lists and
// keeps the lookup index in step. Override drops the old spellings of
// that list only; the other lists of the unit stay.
func (st *buildState) editKeys(old, add []string, prec Precedence, idx int, field string) ([]string, error) {
	if len(add) == 0 {
		return old, nil
	}
	if prec == PrecedenceOverride {
		for _, k := range old {
			delete(st.conv.index, k)
		}
	}
	for _, k := range add {
		if have, dup := st.conv.index[k]; dup {
			if have == idx {
				return nil, errors.NewValidation(field, fmt.Sprintf("duplicate unit key %q", k))
			}
			return nil, errors.NewValidation(field, fmt.Sprintf("unit key %q is taken by %s", k, st.conv.units[have].Symbol()))
		}
		st.conv.index[k] = idx
	}
	return joinLists(old, add, prec), nil
}

// joinLists merges a layer's list into the existing one per precedence.
// The result is always a fresh slice.
func joinLists(old, add []string, p Precedence) []string {
	if len(add) == 0 {
		return old
	}
	switch p {
	case PrecedenceAfter:
		return append(append([]string(nil), old...), add...)
	case PrecedenceOverride:
		return append([]string(nil), add...)
	}
	return append(append([]string(nil), add...), old...)
}

func (st *buildState) resolveBest() error {
	for _, q := range PhysicalQuantities() {
		declared := false
		for _, u := range st.conv.units {
			if u.Quantity == q {
				declared = true
				break
			}
		}
		if !declared {
			continue
		}
		field := "quantity." + q.String() + ".best"
		raw := st.rawBest[q]
		if raw == nil || len(raw.Unified)+len(raw.Metric)+len(raw.Imperial) == 0 {
			return errors.NewValidation(field, "no best units defined")
		}
		g := &bestGroup{bySystem: map[System][]int{}}
		if len(raw.Unified) > 0 {
			idxs, err := st.resolveList(raw.Unified, q, SystemNone, field)
			if err != nil {
				return err
			}
			g.unified = idxs
		} else {
			for _, part := range []struct {
				keys   []string
				system System
			}{
				{raw.Metric, SystemMetric},
				{raw.Imperial, SystemImperial},
			} {
				if len(part.keys) == 0 {
					continue
				}
				idxs, err := st.resolveList(part.keys, q, part.system, field)
				if err != nil {
					return err
				}
				g.bySystem[part.system] = idxs
			}
		}
		st.conv.best[q] = g
	}
	return nil
}

// resolveList turns best-unit keys into indices sorted ascending by
// ratio. Listing a unit under a system assigns that system to units
// that had none; a unit of the other system is an error.
func (st *buildState) resolveList(keys []string, q PhysicalQuantity, system System, field string) ([]int, error) {
	idxs := make([]int, 0, len(keys))
	for _, k := range keys {
		idx, ok := st.conv.lookupIdx(k)
		if !ok {
			return nil, errors.NewValidation(field, fmt.Sprintf("unknown unit %q", k))
		}
		u := st.conv.units[idx]
		if u.Quantity != q {
			return nil, errors.NewValidation(field, fmt.Sprintf("unit %q measures %s", k, u.Quantity))
		}
		if system != SystemNone {
			if u.System == SystemNone {
				u.System = system
			} else if u.System != system {
				return nil, errors.NewValidation(field, fmt.Sprintf("unit %q belongs to the %s system", k, u.System))
			}
		}
		idxs = append(idxs, idx)
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return st.conv.units[idxs[i]].Ratio < st.conv.units[idxs[j]].Ratio
	})
	return idxs, nil
}

func (st *buildState) resolveFractions(files []*UnitsFile) error {
	for _, f := range files {
		if f.Fractions == nil {
			continue
		}
		keys := make([]string, 0, len(f.Fractions.Unit))
		for k := range f.Fractions.Unit {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, ok := st.conv.lookupIdx(k); !ok {
				return errors.NewValidation("fractions.unit", fmt.Sprintf("unknown unit %q", k))
			}
		}
	}
	for _, u := range st.conv.units {
		st.conv.fractions[u] = st.fractionsFor(u, files)
	}
	return nil
}

// fractionsFor merges the fraction layers that apply to one unit. The
// most specific kind wins: unit, then quantity, then system, then all.
// Within a kind a later file wins over an earlier one.
func (st *buildState) fractionsFor(u *Unit, files []*UnitsFile) FractionsConfig {
	var acc FractionsLayer
	merge := func(pick func(*FractionsSchema) (FractionsLayer, bool)) {
		for i := len(files) - 1; i >= 0; i-- {
			fr := files[i].Fractions
			if fr == nil {
				continue
			}
			if l, ok := pick(fr); ok {
				acc = acc.merge(l)
			}
		}
	}
	merge(func(fr *FractionsSchema) (FractionsLayer, bool) {
		var l FractionsLayer
		found := false
		for _, k := range u.keys() {
			if kl, ok := fr.Unit[k]; ok {
				l = l.merge(kl)
				found = true
			}
		}
		return l, found
	})
	merge(func(fr *FractionsSchema) (FractionsLayer, bool) {
		l, ok := fr.Quantity[u.Quantity.String()]
		return l, ok
	})
	merge(func(fr *FractionsSchema) (FractionsLayer, bool) {
		switch u.System {
		case SystemMetric:
			if fr.Metric != nil {
				return *fr.Metric, true
			}
		case SystemImperial:
			if fr.Imperial != nil {
				return *fr.Imperial, true
			}
		}
		return FractionsLayer{}, false
	})
	merge(func(fr *FractionsSchema) (FractionsLayer, bool) {
		if fr.All != nil {
			return *fr.All, true
		}
		return FractionsLayer{}, false
	})
	return acc.define()
}
