package quantity

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Denominator bound for the parse-time fraction fallback. Display-side
// fitting uses the much smaller bounds from the unit table configuration.
const fallbackMaxDen = 10000

// ParseNumber parses an integer or decimal literal. Literals float64 can
// hold exactly come back as Regular; anything longer falls back to a
// fraction (exact when it fits, approximated with a recorded residue when
// not). The error return means nothing numeric could be recovered and the
// caller should keep the literal as Text.
func ParseNumber(text string) (Number, error) {
	lit := text
	if strings.HasPrefix(lit, ".") {
		lit = "0" + lit
	}
	rat, ok := new(big.Rat).SetString(lit)
	if !ok {
		return nil, fmt.Errorf("not a number: %q", text)
	}
	if rat.Sign() < 0 {
		return nil, fmt.Errorf("negative number: %q", text)
	}

	f, ferr := strconv.ParseFloat(text, 64)
	if ferr == nil {
		shortest := strconv.FormatFloat(f, 'f', -1, 64)
		if back, ok := new(big.Rat).SetString(shortest); ok && back.Cmp(rat) == 0 {
			return Regular(f), nil
		}
	}

	if frac, ok := exactFraction(rat); ok {
		return frac, nil
	}
	value, _ := rat.Float64()
	if frac, ok := ApproxFraction(value, fallbackMaxDen, math.MaxInt32); ok {
		return frac, nil
	}
	return nil, fmt.Errorf("number out of range: %q", text)
}

// exactFraction converts a rational into a Fraction when whole, numerator
// and denominator all fit int32.
func exactFraction(rat *big.Rat) (Fraction, bool) {
	den := rat.Denom()
	whole, rem := new(big.Int), new(big.Int)
	whole.QuoRem(rat.Num(), den, rem)
	if !fitsInt32(whole) || !fitsInt32(rem) || !fitsInt32(den) {
		return Fraction{}, false
	}
	return Fraction{
		Whole: int32(whole.Int64()),
		Num:   int32(rem.Int64()),
		Den:   int32(den.Int64()),
	}, true
}

func fitsInt32(n *big.Int) bool {
	return n.IsInt64() && n.Int64() >= 0 && n.Int64() <= math.MaxInt32
}

// ApproxFraction finds the closest fraction to value whose denominator is
// at most maxDen and whole part at most maxWhole, preferring the smallest
// denominator among ties. Err records the residue value - (whole+num/den).
// ok is false when the value is negative, not finite, or too large.
func ApproxFraction(value float64, maxDen, maxWhole int32) (Fraction, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return Fraction{}, false
	}
	if maxDen < 1 {
		maxDen = 1
	}
	whole := math.Floor(value)
	if whole > float64(maxWhole) {
		return Fraction{}, false
	}
	part := value - whole

	bestNum, bestDen := int64(0), int64(1)
	bestDiff := part
	for den := int64(1); den <= int64(maxDen); den++ {
		num := int64(math.Round(part * float64(den)))
		diff := math.Abs(part - float64(num)/float64(den))
		if diff < bestDiff-1e-12 {
			bestNum, bestDen = num, den
			bestDiff = diff
			if diff == 0 {
				break
			}
		}
	}

	if g := gcd(bestNum, bestDen); g > 1 {
		bestNum /= g
		bestDen /= g
	}
	w := int64(whole)
	if bestNum == bestDen {
		w++
		bestNum, bestDen = 0, 1
	}
	if w > int64(maxWhole) {
		return Fraction{}, false
	}
	f := Fraction{Whole: int32(w), Num: int32(bestNum), Den: int32(bestDen)}
	f.Err = value - (float64(f.Whole) + float64(f.Num)/float64(f.Den))
	if math.Abs(f.Err) < 1e-12 {
		f.Err = 0
	}
	return f, true
}

// NewFraction builds an exact, normalized fraction. Improper numerators
// fold into the whole part; a zero denominator is rejected.
func NewFraction(whole, num, den int32) (Fraction, bool) {
	if den == 0 || whole < 0 || num < 0 || den < 0 {
		return Fraction{}, false
	}
	w := int64(whole) + int64(num)/int64(den)
	n := int64(num) % int64(den)
	d := int64(den)
	if g := gcd(n, d); g > 1 {
		n /= g
		d /= g
	}
	if n == 0 {
		d = 1
	}
	if w > math.MaxInt32 {
		return Fraction{}, false
	}
	return Fraction{Whole: int32(w), Num: int32(n), Den: int32(d)}, true
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// AddNumbers returns a+b, keeping an exact fraction when both operands are
// exact fractions and the arithmetic stays in int32 range.
func AddNumbers(a, b Number) Number {
	fa, aok := a.(Fraction)
	fb, bok := b.(Fraction)
	if aok && bok && fa.Err == 0 && fb.Err == 0 {
		if sum, ok := addFractions(fa, fb); ok {
			return sum
		}
	}
	return Regular(a.Float() + b.Float())
}

func addFractions(a, b Fraction) (Fraction, bool) {
	da, db := int64(a.Den), int64(b.Den)
	num := (int64(a.Whole)*da+int64(a.Num))*db + (int64(b.Whole)*db+int64(b.Num))*da
	den := da * db
	if g := gcd(num, den); g > 1 {
		num /= g
		den /= g
	}
	whole := num / den
	num %= den
	if whole > math.MaxInt32 || num > math.MaxInt32 || den > math.MaxInt32 {
		return Fraction{}, false
	}
	if num == 0 {
		den = 1
	}
	return Fraction{Whole: int32(whole), Num: int32(num), Den: int32(den)}, true
}

// Add combines two values for grouping. Numbers add numerically, ranges
// add bound-wise, and a number meeting a range widens the range. ok is
// false when either side is Text, which cannot be combined.
func Add(a, b Value) (Value, bool) {
	switch av := a.(type) {
	case Text:
		return a, false
	case Range:
		switch bv := b.(type) {
		case Text:
			return a, false
		case Range:
			return Range{Min: AddNumbers(av.Min, bv.Min), Max: AddNumbers(av.Max, bv.Max)}, true
		case Number:
			return Range{Min: AddNumbers(av.Min, bv), Max: AddNumbers(av.Max, bv)}, true
		}
	case Number:
		switch bv := b.(type) {
		case Text:
			return a, false
		case Range:
			return Range{Min: AddNumbers(av, bv.Min), Max: AddNumbers(av, bv.Max)}, true
		case Number:
			return AddNumbers(av, bv), true
		}
	}
	return a, false
}

// Mul scales a value by a non-negative factor. Numeric results come back
// as Regular values; display-side fitting may re-derive a fraction later.
// ok is false for Text, which cannot scale.
func Mul(v Value, factor float64) (Value, bool) {
	switch val := v.(type) {
	case Number:
		return Regular(val.Float() * factor), true
	case Range:
		return NewRange(Regular(val.Min.Float()*factor), Regular(val.Max.Float()*factor)), true
	case Text:
		return v, false
	}
	return v, false
}
