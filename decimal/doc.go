// Package decimal provides ExtendedDecimal, an arbitrary-precision decimal
// value augmented with +Inf and -Inf, used throughout stochtime as the sole
// numeric representation for DBM bounds, expolynomial coefficients, and
// density masses.
//
// Arithmetic is closed over ExtendedDecimal: every operation returns another
// ExtendedDecimal rather than promoting to float64. The underlying finite
// arithmetic is delegated to github.com/shopspring/decimal, which carries
// its own arbitrary-precision mantissa; division uses a fixed rounding
// scale (DivisionScale) so results are reproducible across runs, matching
// spec.md's "fixed decimal128-equivalent rounding context" requirement.
package decimal
