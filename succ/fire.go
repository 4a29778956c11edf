package succ

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/density"
	"github.com/katalvlaran/stochtime/expo"
	"github.com/katalvlaran/stochtime/variable"
)

// Fire applies fired to (parentMarking, parentDensity) following
// spec.md §4.7's ten steps, returning the successor state and its
// succession probability. A measure-zero conditioning (step 6) is not
// an error: Result is nil and the error is nil, signaling the
// successor is simply absent (spec.md §7).
func (e *Evaluator) Fire(
	parentMarking Marking,
	parentDensity *density.StateDensity,
	enabled map[string]TransitionSpec,
	fired string,
	enabledFor EnabledFunc,
) (*Result, error) {
	spec, ok := enabled[fired]
	if !ok {
		return nil, fmt.Errorf("succ.Fire(%s): %w", fired, ErrUnknownTransition)
	}

	// 1. Build the child marking.
	childMarking := parentMarking.Apply(spec.Fire(parentMarking))

	// 2. Clone the parent density.
	sd := parentDensity.Clone()

	// 3. Synthesize minEXP when any exponential timers are present.
	sumRate, err := sumExponentialRates(sd)
	if err != nil {
		return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
	}
	haveExp := len(sd.ExponentialVariables()) > 0
	if haveExp {
		pdf := expo.FromExmonomials(expo.NewExmonomial(sumRate, expo.Exponential(variable.X, sumRate)))
		if err := sd.AddContinuousTracked(MinEXP, pdf); err != nil {
			return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
		}
	}

	// 4. If fired is exponential, resolve its race-of-exponentials
	// probability and rename it to minEXP for the rest of the algorithm.
	probability := decimal.One
	effectiveFired := variable.Variable(fired)
	if spec.Kind == Exponential {
		rate, ok := sd.ExponentialRate(variable.Variable(fired))
		if !ok {
			return nil, fmt.Errorf("succ.Fire(%s): exponential rate not tracked", fired)
		}
		part, err := rate.Div(sumRate)
		if err != nil {
			return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
		}
		probability = part
		if err := sd.Marginalize(variable.Variable(fired)); err != nil {
			return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
		}
		effectiveFired = MinEXP
	}

	// 5. Random-switch resolution among zero-delay ties.
	if spec.Kind != Exponential {
		tied, err := tiedGroup(sd, fired, enabled)
		if err != nil {
			return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
		}
		if len(tied) > 1 {
			subset := maxPrioritySubset(tied, enabled)
			switchProb, err := randomSwitchProbability(parentMarking, fired, subset, enabled)
			if err != nil {
				return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
			}
			probability = probability.Mul(switchProb)
		}
	}

	// 6. Condition so effectiveFired is the minimum among every other
	// non-EXP variable; the surviving mass times steps (4)+(5) is the
	// succession probability.
	others := otherTrackedVariables(sd, effectiveFired)
	for _, v := range others {
		if err := sd.ImposeBound(effectiveFired, []variable.Variable{v}, decimal.Zero); err != nil {
			return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
		}
	}
	mass, err := sd.TotalMass()
	if err != nil {
		return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
	}
	probability = probability.Mul(mass)
	if probability.IsZero() {
		return nil, nil
	}
	if err := sd.Renormalize(mass); err != nil {
		return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
	}

	// 7. shiftAndProject(effectiveFired).
	if err := sd.ShiftAndProject(effectiveFired); err != nil {
		return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
	}

	// 8. Drop minEXP if it wasn't the firing variable.
	if haveExp && effectiveFired != MinEXP && sd.Tracked(MinEXP) {
		if err := sd.Marginalize(MinEXP); err != nil {
			return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
		}
	}

	// 9. Marginalize newly-disabled timers, add newly-enabled ones.
	nextEnabled, err := enabledFor(childMarking)
	if err != nil {
		return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
	}
	if err := reconcileTimers(sd, enabled, nextEnabled, childMarking, fired); err != nil {
		return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
	}

	// 10. Refresh marking-dependent EXP rates; flag vanishing/absorbing.
	for _, v := range sd.ExponentialVariables() {
		name := string(v)
		ts, ok := nextEnabled[name]
		if !ok || ts.Kind != Exponential {
			continue
		}
		rate, err := ts.Rate(childMarking)
		if err != nil {
			return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
		}
		if err := sd.SetExponentialRate(v, rate); err != nil {
			return nil, fmt.Errorf("succ.Fire(%s): %w", fired, err)
		}
	}

	return &Result{
		Marking:     childMarking,
		Density:     sd,
		Probability: probability,
		Vanishing:   isVanishing(nextEnabled),
		Absorbing:   len(nextEnabled) == 0,
	}, nil
}

// otherTrackedVariables returns every det/sync/continuous variable in
// sd other than skip, excluding EXP-shortcut variables (they are
// represented collectively through minEXP, never compared individually).
func otherTrackedVariables(sd *density.StateDensity, skip variable.Variable) []variable.Variable {
	expSet := make(map[variable.Variable]bool)
	for _, v := range sd.ExponentialVariables() {
		expSet[v] = true
	}
	var out []variable.Variable
	add := func(vs []variable.Variable) {
		for _, v := range vs {
			if v == skip || expSet[v] {
				continue
			}
			out = append(out, v)
		}
	}
	add(sd.DeterministicVariables())
	add(sd.SynchronizedVariables())
	add(sd.ContinuousVariables())

	return out
}

// reconcileTimers marginalizes timers no longer enabled in nextEnabled
// and enables timers newly present, skipping fired (already removed by
// ShiftAndProject) and preserving anything already tracked.
func reconcileTimers(sd *density.StateDensity, prevEnabled, nextEnabled map[string]TransitionSpec, childMarking Marking, fired string) error {
	prevNames := make([]string, 0, len(prevEnabled))
	for name := range prevEnabled {
		prevNames = append(prevNames, name)
	}
	sort.Strings(prevNames)
	for _, name := range prevNames {
		if name == fired {
			continue
		}
		if _, stillEnabled := nextEnabled[name]; stillEnabled {
			continue
		}
		v := variable.Variable(name)
		if sd.Tracked(v) {
			if err := sd.Marginalize(v); err != nil {
				return fmt.Errorf("reconcileTimers: marginalize %s: %w", name, err)
			}
		}
	}

	nextNames := make([]string, 0, len(nextEnabled))
	for name := range nextEnabled {
		nextNames = append(nextNames, name)
	}
	sort.Strings(nextNames)
	for _, name := range nextNames {
		v := variable.Variable(name)
		if sd.Tracked(v) {
			continue
		}
		if err := EnableTimer(sd, v, nextEnabled[name], childMarking); err != nil {
			return fmt.Errorf("reconcileTimers: enable %s: %w", name, err)
		}
	}

	return nil
}

// isVanishing reports whether every enabled transition is immediate —
// a GSPN vanishing state with no elapsed time.
func isVanishing(enabled map[string]TransitionSpec) bool {
	if len(enabled) == 0 {
		return false
	}
	for _, ts := range enabled {
		if ts.Kind != Immediate {
			return false
		}
	}

	return true
}
