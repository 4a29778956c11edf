package expo

import "errors"

// Sentinel errors for the expo package.
var (
	// ErrNegativeExponent signals a Monomial constructed with k < 0.
	ErrNegativeExponent = errors.New("expo: monomial exponent must be >= 0")

	// ErrUnboundVariable is returned by Evaluate when a free variable of
	// the expolynomial is missing from the supplied bindings.
	ErrUnboundVariable = errors.New("expo: unbound variable in evaluation")

	// ErrParse wraps a grammar failure from Parse.
	ErrParse = errors.New("expo: parse error")

	// ErrDivideByZero mirrors decimal.ErrDivideByZero at the expolynomial
	// boundary (e.g. normalizing a term with a zero coefficient divisor).
	ErrDivideByZero = errors.New("expo: division by zero")
)
