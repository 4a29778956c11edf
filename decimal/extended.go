package decimal

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DivisionScale fixes the number of fractional digits retained by Div,
// giving every division in the engine the same decimal128-equivalent
// rounding context regardless of call site.
const DivisionScale = 34

// sign tags the three disjoint kinds an ExtendedDecimal can hold.
type sign int8

const (
	signFinite sign = iota
	signPosInf
	signNegInf
)

// ExtendedDecimal is a value type: either a finite arbitrary-precision
// decimal or one of +Inf, -Inf. The zero value is the finite decimal 0.
//
// Complexity: all operations are O(1) in the number of ExtendedDecimal
// operands; cost scales with shopspring/decimal's mantissa size for the
// finite case.
type ExtendedDecimal struct {
	tag   sign
	value decimal.Decimal // meaningful only when tag == signFinite
}

// Zero is the finite decimal 0.
var Zero = ExtendedDecimal{tag: signFinite, value: decimal.Zero}

// One is the finite decimal 1.
var One = ExtendedDecimal{tag: signFinite, value: decimal.NewFromInt(1)}

// PosInf is the extended value +∞.
var PosInf = ExtendedDecimal{tag: signPosInf}

// NegInf is the extended value -∞.
var NegInf = ExtendedDecimal{tag: signNegInf}

// NewFromFloat wraps a float64 as a finite ExtendedDecimal.
func NewFromFloat(f float64) ExtendedDecimal {
	return ExtendedDecimal{tag: signFinite, value: decimal.NewFromFloat(f)}
}

// NewFromInt wraps an int64 as a finite ExtendedDecimal.
func NewFromInt(i int64) ExtendedDecimal {
	return ExtendedDecimal{tag: signFinite, value: decimal.NewFromInt(i)}
}

// NewFromString parses a finite decimal literal.
func NewFromString(s string) (ExtendedDecimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return ExtendedDecimal{}, fmt.Errorf("decimal.NewFromString(%q): %w", s, err)
	}

	return ExtendedDecimal{tag: signFinite, value: v}, nil
}

// IsFinite reports whether d holds a finite value.
func (d ExtendedDecimal) IsFinite() bool { return d.tag == signFinite }

// IsPosInf reports whether d is +∞.
func (d ExtendedDecimal) IsPosInf() bool { return d.tag == signPosInf }

// IsNegInf reports whether d is -∞.
func (d ExtendedDecimal) IsNegInf() bool { return d.tag == signNegInf }

// Finite returns the underlying shopspring/decimal.Decimal and an error if
// d is not finite.
func (d ExtendedDecimal) Finite() (decimal.Decimal, error) {
	if d.tag != signFinite {
		return decimal.Decimal{}, fmt.Errorf("ExtendedDecimal.Finite(%s): %w", d, ErrNotFinite)
	}

	return d.value, nil
}

// Float64 returns the best float64 approximation; infinities map to
// math.Inf with the matching sign.
func (d ExtendedDecimal) Float64() float64 {
	switch d.tag {
	case signPosInf:
		return math.Inf(1)
	case signNegInf:
		return math.Inf(-1)
	default:
		f, _ := d.value.Float64()

		return f
	}
}

// Neg returns -d.
func (d ExtendedDecimal) Neg() ExtendedDecimal {
	switch d.tag {
	case signPosInf:
		return NegInf
	case signNegInf:
		return PosInf
	default:
		return ExtendedDecimal{tag: signFinite, value: d.value.Neg()}
	}
}

// Add returns d+other. (+Inf)+(-Inf) (in either order) is explicitly
// undefined by spec.md and reported as ErrIndeterminate.
func (d ExtendedDecimal) Add(other ExtendedDecimal) (ExtendedDecimal, error) {
	switch {
	case d.tag == signFinite && other.tag == signFinite:
		return ExtendedDecimal{tag: signFinite, value: d.value.Add(other.value)}, nil
	case d.tag == signPosInf && other.tag == signNegInf,
		d.tag == signNegInf && other.tag == signPosInf:
		return ExtendedDecimal{}, fmt.Errorf("ExtendedDecimal.Add(%s,%s): %w", d, other, ErrIndeterminate)
	case d.tag == signPosInf || other.tag == signPosInf:
		return PosInf, nil
	case d.tag == signNegInf || other.tag == signNegInf:
		return NegInf, nil
	default:
		return ExtendedDecimal{tag: signFinite, value: d.value.Add(other.value)}, nil
	}
}

// Sub returns d-other; defined in terms of Add and Neg.
func (d ExtendedDecimal) Sub(other ExtendedDecimal) (ExtendedDecimal, error) {
	return d.Add(other.Neg())
}

// Mul returns d*other. An infinite operand multiplied by a finite,
// nonzero value yields an infinity of the resulting sign; multiplying by
// finite zero yields finite zero (the engine never needs 0*Inf, so this
// simplification is intentional and documented rather than hidden).
func (d ExtendedDecimal) Mul(other ExtendedDecimal) ExtendedDecimal {
	if d.tag == signFinite && other.tag == signFinite {
		return ExtendedDecimal{tag: signFinite, value: d.value.Mul(other.value)}
	}
	if d.IsZero() || other.IsZero() {
		return Zero
	}
	negative := d.negative() != other.negative()
	if negative {
		return NegInf
	}

	return PosInf
}

// negative reports the sign of d for the purposes of infinite multiplication.
func (d ExtendedDecimal) negative() bool {
	switch d.tag {
	case signNegInf:
		return true
	case signPosInf:
		return false
	default:
		return d.value.IsNegative()
	}
}

// Div returns d/other at DivisionScale fixed precision. Dividing by
// finite zero is ErrDivideByZero; dividing by an infinity yields finite
// zero (assuming d is finite, which is the only case the engine needs).
func (d ExtendedDecimal) Div(other ExtendedDecimal) (ExtendedDecimal, error) {
	if other.tag == signFinite && other.value.IsZero() {
		return ExtendedDecimal{}, fmt.Errorf("ExtendedDecimal.Div(%s,%s): %w", d, other, ErrDivideByZero)
	}
	if other.tag != signFinite {
		return Zero, nil
	}
	if d.tag != signFinite {
		return d, nil
	}

	return ExtendedDecimal{tag: signFinite, value: d.value.DivRound(other.value, DivisionScale)}, nil
}

// Cmp returns -1, 0, +1 as d is less than, equal to, or greater than other,
// with the usual total order -∞ < finite < +∞.
func (d ExtendedDecimal) Cmp(other ExtendedDecimal) int {
	if d.tag != other.tag {
		rank := func(x ExtendedDecimal) int {
			switch x.tag {
			case signNegInf:
				return -1
			case signPosInf:
				return 1
			default:
				return 0
			}
		}
		if rank(d) < rank(other) {
			return -1
		}

		return 1
	}
	if d.tag != signFinite {
		return 0
	}

	return d.value.Cmp(other.value)
}

// Equal reports value equality.
func (d ExtendedDecimal) Equal(other ExtendedDecimal) bool { return d.Cmp(other) == 0 }

// IsZero reports whether d is the finite value 0.
func (d ExtendedDecimal) IsZero() bool { return d.tag == signFinite && d.value.IsZero() }

// Min returns the smaller of d and other.
func (d ExtendedDecimal) Min(other ExtendedDecimal) ExtendedDecimal {
	if d.Cmp(other) <= 0 {
		return d
	}

	return other
}

// Max returns the larger of d and other.
func (d ExtendedDecimal) Max(other ExtendedDecimal) ExtendedDecimal {
	if d.Cmp(other) >= 0 {
		return d
	}

	return other
}

// String renders d for diagnostics and golden-file comparisons.
func (d ExtendedDecimal) String() string {
	switch d.tag {
	case signPosInf:
		return "+Inf"
	case signNegInf:
		return "-Inf"
	default:
		return d.value.String()
	}
}
