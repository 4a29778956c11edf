package succ

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/density"
	"github.com/katalvlaran/stochtime/expo"
	"github.com/katalvlaran/stochtime/variable"
)

// MinEXP is the fresh auxiliary variable standing in for the minimum of
// every currently-tracked exponential timer (spec.md §4.7 step 3): the
// minimum of independent exponentials is itself exponential with the
// summed rate, so folding them into one PG variable avoids tracking
// each individually through conditioning and projection.
const MinEXP variable.Variable = "minEXP"

// EnabledFunc resolves the transitions enabled in a marking — the
// Petri-net collaborator spec.md §1 leaves external.
type EnabledFunc func(Marking) (map[string]TransitionSpec, error)

// Evaluator applies TransitionSpec firings to (Marking, StateDensity)
// states.
type Evaluator struct {
	immediateZeroPolicy bool
}

// Option configures an Evaluator at construction time.
type Option func(*Evaluator)

// WithImmediateZeroPolicy records the caller's choice about substituting
// an immediate zero-delay deterministic density when a conditioning step
// produces zero mass (spec.md §7's "IMM replacement" behavior). Fire does
// not read the flag: with it on or off, a zero-mass conditioning makes
// the successor absent and no substitution takes place.
func WithImmediateZeroPolicy(enabled bool) Option {
	return func(e *Evaluator) { e.immediateZeroPolicy = enabled }
}

// NewEvaluator builds an Evaluator with the given options.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Result is a successor state plus the probability spec.md §4.7
// attaches to the edge that produced it.
type Result struct {
	Marking     Marking
	Density     *density.StateDensity
	Probability decimal.ExtendedDecimal
	Vanishing   bool
	Absorbing   bool
}

// EnableTimer wires spec into sd under name, choosing the partition per
// spec.Kind (spec.md §4.4's addition operations).
func EnableTimer(sd *density.StateDensity, name variable.Variable, spec TransitionSpec, m Marking) error {
	switch spec.Kind {
	case Immediate:
		return sd.AddDeterministic(name, decimal.Zero)
	case Deterministic:
		value, err := spec.Delay(m)
		if err != nil {
			return fmt.Errorf("succ.EnableTimer(%s): %w", name, err)
		}

		return sd.AddDeterministic(name, value)
	case Exponential:
		rate, err := spec.Rate(m)
		if err != nil {
			return fmt.Errorf("succ.EnableTimer(%s): %w", name, err)
		}
		if rate.IsZero() {
			return fmt.Errorf("succ.EnableTimer(%s): %w", name, ErrZeroRate)
		}
		pdf := expo.FromExmonomials(expo.NewExmonomial(rate, expo.Exponential(variable.X, rate)))

		return sd.AddContinuous(name, pdf)
	case General:
		pdf, err := spec.PDF(m)
		if err != nil {
			return fmt.Errorf("succ.EnableTimer(%s): %w", name, err)
		}

		return sd.AddContinuous(name, pdf)
	default:
		return fmt.Errorf("succ.EnableTimer(%s): unknown kind %d", name, spec.Kind)
	}
}

// sumExponentialRates returns the sum of every EXP-shortcut rate
// currently tracked in sd.
func sumExponentialRates(sd *density.StateDensity) (decimal.ExtendedDecimal, error) {
	sum := decimal.Zero
	for _, v := range sd.ExponentialVariables() {
		rate, _ := sd.ExponentialRate(v)
		var err error
		sum, err = sum.Add(rate)
		if err != nil {
			return decimal.ExtendedDecimal{}, err
		}
	}

	return sum, nil
}

// tiedGroup returns, among enabled, the names whose ground-relative
// offset exactly matches fired's (spec.md §4.7 step 5's "zero delay
// w.r.t. fired"): immediate transitions share the deterministic value
// zero by construction, and deterministic transitions tie whenever
// their absolute values currently coincide.
func tiedGroup(sd *density.StateDensity, fired string, enabled map[string]TransitionSpec) ([]string, error) {
	firedRef, firedOffset, err := sd.GroundOffset(variable.Variable(fired))
	if err != nil {
		return nil, fmt.Errorf("succ.tiedGroup: %w", err)
	}
	names := make([]string, 0, len(enabled))
	for name := range enabled {
		names = append(names, name)
	}
	sort.Strings(names)

	var tied []string
	for _, name := range names {
		ref, offset, err := sd.GroundOffset(variable.Variable(name))
		if err != nil {
			continue // not a PG/det/sync timer (e.g. EXP, folded into minEXP) — not part of a zero-delay tie
		}
		if ref == firedRef && offset.Equal(firedOffset) {
			tied = append(tied, name)
		}
	}

	return tied, nil
}

// maxPrioritySubset returns the names in names with the highest
// Priority among enabled.
func maxPrioritySubset(names []string, enabled map[string]TransitionSpec) []string {
	best := 0
	for i, n := range names {
		if i == 0 || enabled[n].Priority > enabled[names[best]].Priority {
			best = i
		}
	}
	top := enabled[names[best]].Priority
	var out []string
	for _, n := range names {
		if enabled[n].Priority == top {
			out = append(out, n)
		}
	}

	return out
}

// randomSwitchProbability resolves spec.md §4.7 step 5: among the
// maximum-priority zero-delay subset containing fired, the probability
// contribution is w(fired) / Σw when more than one member ties;
// 1 when fired is alone; ErrNotFiring if fired is outranked.
func randomSwitchProbability(m Marking, fired string, subset []string, enabled map[string]TransitionSpec) (decimal.ExtendedDecimal, error) {
	found := false
	for _, n := range subset {
		if n == fired {
			found = true

			break
		}
	}
	if !found {
		return decimal.ExtendedDecimal{}, fmt.Errorf("succ.randomSwitchProbability(%s): %w", fired, ErrNotFiring)
	}
	if len(subset) == 1 {
		return decimal.One, nil
	}

	sum := decimal.Zero
	var firedWeight decimal.ExtendedDecimal
	for _, n := range subset {
		w, err := enabled[n].Weight(m)
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("succ.randomSwitchProbability(%s): %w", fired, err)
		}
		if decimal.Zero.Cmp(w) > 0 {
			return decimal.ExtendedDecimal{}, fmt.Errorf("succ.randomSwitchProbability(%s): %w", fired, ErrNegativeWeight)
		}
		sum, err = sum.Add(w)
		if err != nil {
			return decimal.ExtendedDecimal{}, err
		}
		if n == fired {
			firedWeight = w
		}
	}

	probability, err := firedWeight.Div(sum)
	if err != nil {
		return decimal.ExtendedDecimal{}, fmt.Errorf("succ.randomSwitchProbability(%s): %w", fired, err)
	}

	return probability, nil
}
