package density

import (
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
)

// Tracked reports whether v belongs to any partition.
func (sd *StateDensity) Tracked(v variable.Variable) bool { return sd.tracked(v) }

// DeterministicValue returns v's absolute value if v is deterministic.
func (sd *StateDensity) DeterministicValue(v variable.Variable) (decimal.ExtendedDecimal, bool) {
	value, ok := sd.det[v]

	return value, ok
}

// SynchronizedEntry returns v's distributed companion and delay if v is
// synchronized.
func (sd *StateDensity) SynchronizedEntry(v variable.Variable) (variable.Variable, decimal.ExtendedDecimal, bool) {
	entry, ok := sd.sync[v]
	if !ok {
		return "", decimal.ExtendedDecimal{}, false
	}

	return entry.Distributed, entry.Delta, true
}

// ExponentialRate returns v's memoryless rate if v is tracked as an
// EXP-shortcut.
func (sd *StateDensity) ExponentialRate(v variable.Variable) (decimal.ExtendedDecimal, bool) {
	rate, ok := sd.expRates[v]

	return rate, ok
}

// SetExponentialRate overwrites the rate of an already-tracked
// EXP-shortcut variable (used after a firing to re-evaluate
// marking-dependent rates against the new marking).
func (sd *StateDensity) SetExponentialRate(v variable.Variable, rate decimal.ExtendedDecimal) error {
	if _, ok := sd.expRates[v]; !ok {
		return fmt.Errorf("density.SetExponentialRate(%s): %w", v, ErrUnknownVariable)
	}
	sd.expRates[v] = rate

	return nil
}

// DeterministicVariables returns the deterministic partition's members
// in insertion order.
func (sd *StateDensity) DeterministicVariables() []variable.Variable { return sd.detOrder.Slice() }

// SynchronizedVariables returns the synchronized partition's members in
// insertion order.
func (sd *StateDensity) SynchronizedVariables() []variable.Variable { return sd.syncOrder.Slice() }

// ContinuousVariables returns every continuous variable (including
// EXP-shortcuts) in insertion order.
func (sd *StateDensity) ContinuousVariables() []variable.Variable { return sd.continuous.Slice() }

// ExponentialVariables returns the EXP-shortcut subset of the
// continuous partition, in insertion order.
func (sd *StateDensity) ExponentialVariables() []variable.Variable { return sd.expOrder.Slice() }

// GroundOffset exposes reduce: v expressed as (reference + offset),
// where reference is either t★ (v reduces to an absolute constant) or a
// genuine continuous/PG variable.
func (sd *StateDensity) GroundOffset(v variable.Variable) (variable.Variable, decimal.ExtendedDecimal, error) {
	gr, err := sd.reduce(v)
	if err != nil {
		return "", decimal.ExtendedDecimal{}, err
	}

	return gr.reference, gr.offset, nil
}
