package decimal

import "errors"

// Sentinel errors for decimal package operations.
var (
	// ErrDivideByZero is returned when Div's divisor is the finite zero value.
	ErrDivideByZero = errors.New("decimal: division by zero")

	// ErrIndeterminate is returned by Add when combining +Inf and -Inf,
	// which spec.md explicitly leaves undefined.
	ErrIndeterminate = errors.New("decimal: indeterminate infinite combination")

	// ErrNotFinite is returned when an operation that requires a finite
	// operand (e.g. conversion to shopspring/decimal.Decimal) receives
	// an infinite ExtendedDecimal.
	ErrNotFinite = errors.New("decimal: value is not finite")
)
