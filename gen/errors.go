package gen

import "errors"

// ErrFreeVariableNotInZone indicates a Piece was built with a density
// referencing a variable the zone does not track.
var ErrFreeVariableNotInZone = errors.New("gen: density free variable not in zone")

// ErrNoPivot reports an integration with no variable besides the reserved
// ground variable. IntegrateOverDomain does not return it: with only t★
// left it evaluates the density directly.
var ErrNoPivot = errors.New("gen: no pivot variable to integrate")

// epsilonThresholdFloat is the default minimum probability mass a piece must
// carry to survive conditioning (spec-mandated 1e-7 cutoff).
const epsilonThresholdFloat = 1e-7
