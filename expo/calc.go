package expo

import (
	"math"

	"github.com/katalvlaran/stochtime/decimal"
)

// expApprox evaluates exp(-rate*x) at a concrete ExtendedDecimal x.
//
// The engine's arbitrary-precision requirement (spec.md §3) is about
// exact rational arithmetic for addition/multiplication/integration of
// expolynomials, where the symbolic manipulation never needs to evaluate
// the transcendental exp itself; only leaf-level numeric evaluation
// (mass checks, mean computation) does. There is no pure-decimal
// arbitrary-precision exp in the pack or in shopspring/decimal, so this
// narrow numeric evaluation step goes through float64's math.Exp and
// converts back -- the only place in the package that does so.
func expApprox(rate, x decimal.ExtendedDecimal) decimal.ExtendedDecimal {
	if x.IsPosInf() {
		switch {
		case rate.Float64() > 0:
			return decimal.Zero
		case rate.Float64() < 0:
			return decimal.PosInf
		default:
			return decimal.One
		}
	}
	if x.IsNegInf() {
		switch {
		case rate.Float64() > 0:
			return decimal.PosInf
		case rate.Float64() < 0:
			return decimal.Zero
		default:
			return decimal.One
		}
	}

	return decimal.NewFromFloat(math.Exp(-rate.Float64() * x.Float64()))
}
