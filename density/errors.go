package density

import "errors"

// ErrNotContinuous indicates addSynchronized was asked to synchronize to
// a variable that is not in the continuous partition.
var ErrNotContinuous = errors.New("density: distributed variable must be continuous")

// ErrUnknownVariable indicates an operation referenced a variable not
// tracked by any partition.
var ErrUnknownVariable = errors.New("density: unknown variable")

// ErrAlreadyTracked indicates an addX call named a variable already
// present in some partition.
var ErrAlreadyTracked = errors.New("density: variable already tracked")
