package succ

import (
	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/expo"
)

// Kind classifies how a transition's timer enters a StateDensity.
type Kind int

const (
	// Immediate fires with zero delay; weight and priority settle
	// races among simultaneously-tied zero-delay transitions.
	Immediate Kind = iota
	// Exponential is memoryless with a (possibly marking-dependent)
	// rate; folded into the minEXP shortcut rather than an
	// individually tracked PG variable.
	Exponential
	// Deterministic fires after a fixed, marking-dependent delay.
	Deterministic
	// General carries an arbitrary expolynomial density over
	// variable.X, tracked as a genuine PartitionedGEN piece.
	General
)

// TransitionSpec is the per-transition feature set the Petri-net
// collaborator supplies (spec.md §6's "Boundary to the Petri-net
// layer"): pdf, weight, rate, priority, and the token-update function.
// Every marking-dependent feature is a function of the current Marking
// so that rates/weights/delays can vary with token counts.
type TransitionSpec struct {
	Name     string
	Kind     Kind
	Priority int

	// PDF is required for Kind == General: the density over
	// variable.X, as a function of the enabling marking.
	PDF func(Marking) (expo.Expolynomial, error)
	// Rate is required for Kind == Exponential.
	Rate func(Marking) (decimal.ExtendedDecimal, error)
	// Delay is required for Kind == Deterministic.
	Delay func(Marking) (decimal.ExtendedDecimal, error)
	// Weight resolves random-switch ties among zero-delay
	// transitions of equal maximum priority; required for Kind ==
	// Immediate, unused otherwise.
	Weight func(Marking) (decimal.ExtendedDecimal, error)

	// Fire returns the per-place token delta applied to the marking
	// when this transition fires.
	Fire func(Marking) map[string]int
}
