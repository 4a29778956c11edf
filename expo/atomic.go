package expo

import (
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
)

// Kind tags the two building blocks an AtomicTerm can be. Re-architected
// per spec.md §9 as a closed tagged sum rather than an instanceof-style
// class hierarchy: format/simplify/evaluate dispatch by switching on Kind,
// never by type assertion.
type Kind int8

const (
	// KindMonomial marks v^k.
	KindMonomial Kind = iota
	// KindExponential marks exp(-λ·v).
	KindExponential
)

// AtomicTerm is one multiplicative building block of an Exmonomial:
// either Monomial(v, k) = v^k, or Exponential(v, λ) = exp(-λ·v).
//
// AtomicTerm is a value type; zero value is the monomial x^0 == 1.
type AtomicTerm struct {
	Kind     Kind
	Var      variable.Variable
	Exponent int                     // meaningful iff Kind == KindMonomial, >= 0
	Rate     decimal.ExtendedDecimal // meaningful iff Kind == KindExponential
}

// Monomial constructs v^k. k must be >= 0.
func Monomial(v variable.Variable, k int) (AtomicTerm, error) {
	if k < 0 {
		return AtomicTerm{}, fmt.Errorf("expo.Monomial(%s,%d): %w", v, k, ErrNegativeExponent)
	}

	return AtomicTerm{Kind: KindMonomial, Var: v, Exponent: k}, nil
}

// MustMonomial is Monomial, panicking on error; used for compile-time-safe
// constant construction (k known non-negative at the call site).
func MustMonomial(v variable.Variable, k int) AtomicTerm {
	t, err := Monomial(v, k)
	if err != nil {
		panic(err)
	}

	return t
}

// Exponential constructs exp(-λ·v). λ may be any decimal, including zero
// (in which case the term is identically 1, but is kept for shape
// tracking until normalization drops it).
func Exponential(v variable.Variable, lambda decimal.ExtendedDecimal) AtomicTerm {
	return AtomicTerm{Kind: KindExponential, Var: v, Rate: lambda}
}

// IsIdentity reports whether the term contributes no factor: x^0 or
// exp(-0·v).
func (t AtomicTerm) IsIdentity() bool {
	switch t.Kind {
	case KindMonomial:
		return t.Exponent == 0
	default:
		return t.Rate.IsZero()
	}
}

// SameShape reports whether t and other combine into a single term under
// normalization: same Var and same Kind.
func (t AtomicTerm) SameShape(other AtomicTerm) bool {
	return t.Kind == other.Kind && t.Var == other.Var
}

// Combine merges t and a SameShape other into one term: exponents add for
// monomials, rates add for exponentials (exp(-λ₁x)·exp(-λ₂x) = exp(-(λ₁+λ₂)x)).
func (t AtomicTerm) Combine(other AtomicTerm) (AtomicTerm, error) {
	if !t.SameShape(other) {
		return AtomicTerm{}, fmt.Errorf("expo.AtomicTerm.Combine: shapes differ (%v vs %v)", t, other)
	}
	switch t.Kind {
	case KindMonomial:
		return AtomicTerm{Kind: KindMonomial, Var: t.Var, Exponent: t.Exponent + other.Exponent}, nil
	default:
		sum, err := t.Rate.Add(other.Rate)
		if err != nil {
			return AtomicTerm{}, fmt.Errorf("expo.AtomicTerm.Combine: %w", err)
		}

		return AtomicTerm{Kind: KindExponential, Var: t.Var, Rate: sum}, nil
	}
}

// Evaluate returns the numeric value of the term at Var == x.
func (t AtomicTerm) Evaluate(x decimal.ExtendedDecimal) decimal.ExtendedDecimal {
	switch t.Kind {
	case KindMonomial:
		result := decimal.One
		for i := 0; i < t.Exponent; i++ {
			result = result.Mul(x)
		}

		return result
	default:
		// exp(-λx): engine-level evaluation is only ever needed at finite
		// bounds or at +Inf where the decaying exponential vanishes;
		// those callers (Expolynomial.evaluateExponential) special-case
		// the unbounded limit, so Evaluate here only handles the finite
		// decimal.Decimal case via math-free repeated squaring is not
		// applicable (non-integer exponent) -- delegate to expApprox.
		return expApprox(t.Rate, x)
	}
}

// Rename returns a copy of t with Var replaced by v2.
func (t AtomicTerm) Rename(v2 variable.Variable) AtomicTerm {
	t.Var = v2

	return t
}

// Derivative returns d/dVar of the term as an Expolynomial (monomials
// differentiate via the power rule; exponentials via the chain rule,
// scaling the term by −Rate). The result is a single Exmonomial, or zero
// for a degree-0 monomial.
func (t AtomicTerm) Derivative() Expolynomial {
	switch t.Kind {
	case KindMonomial:
		if t.Exponent == 0 {
			return Zero()
		}
		coeff := decimal.NewFromInt(int64(t.Exponent))
		lower := AtomicTerm{Kind: KindMonomial, Var: t.Var, Exponent: t.Exponent - 1}

		return Expolynomial{terms: []Exmonomial{{C: coeff, Terms: []AtomicTerm{lower}}}}
	default:
		coeff := t.Rate.Neg()

		return Expolynomial{terms: []Exmonomial{{C: coeff, Terms: []AtomicTerm{t}}}}
	}
}

// String renders t for diagnostics.
func (t AtomicTerm) String() string {
	switch t.Kind {
	case KindMonomial:
		return fmt.Sprintf("%s^%d", t.Var, t.Exponent)
	default:
		return fmt.Sprintf("exp(-%s*%s)", t.Rate, t.Var)
	}
}
