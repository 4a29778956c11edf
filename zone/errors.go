package zone

import "errors"

// ErrInfeasible indicates a zone whose normalized form contains a negative
// diagonal entry (a variable bounded below itself), i.e. an empty region.
var ErrInfeasible = errors.New("zone: infeasible (negative cycle)")

// ErrUnknownVariable indicates an operation referenced a variable absent
// from the zone.
var ErrUnknownVariable = errors.New("zone: unknown variable")

// ErrDimensionMismatch indicates two zones cannot be intersected or
// combined because of an internal invariant violation.
var ErrDimensionMismatch = errors.New("zone: dimension mismatch")
