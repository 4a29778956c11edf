package succ

import "errors"

// ErrNegativeWeight reports a transition whose marking-dependent weight
// evaluated to a negative number.
var ErrNegativeWeight = errors.New("succ: negative weight")

// ErrZeroRate reports an exponential transition whose rate evaluated to
// exactly zero.
var ErrZeroRate = errors.New("succ: exponential rate of zero")

// ErrUnknownTransition reports a fired transition absent from the
// evaluator's enabled set.
var ErrUnknownTransition = errors.New("succ: unknown transition")

// ErrNotFiring reports fired not belonging to the maximum-priority
// zero-delay subset when one exists.
var ErrNotFiring = errors.New("succ: transition outranked by higher priority")
