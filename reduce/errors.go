package reduce

import "errors"

// ErrUnknownNode reports a weight set between nodes not present in the
// graph's immediate/tangible node lists.
var ErrUnknownNode = errors.New("reduce: unknown node")

// ErrTimeLock reports an immediate-only cycle with no escaping
// probability to any tangible state: the absorption system (I-Q)x=R is
// singular.
var ErrTimeLock = errors.New("reduce: time-lock (unabsorbable immediate cycle)")

// ErrNegativeWeight reports a negative transition weight. Weights above 1
// are not rejected.
var ErrNegativeWeight = errors.New("reduce: negative transition weight")
