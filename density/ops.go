package density

import (
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
)

// Marginalize removes v from whichever partition contains it. A
// continuous variable with synchronized companions first swaps its
// smallest-delay companion into the continuous slot (§4.6), so that
// companion's information survives the removal of v.
func (sd *StateDensity) Marginalize(v variable.Variable) error {
	switch {
	case sd.detOrder.Contains(v):
		sd.detOrder.Remove(v)
		delete(sd.det, v)

		return nil
	case sd.syncOrder.Contains(v):
		sd.syncOrder.Remove(v)
		delete(sd.sync, v)

		return nil
	case sd.expOrder.Contains(v):
		sd.expOrder.Remove(v)
		delete(sd.expRates, v)
		sd.continuous.Remove(v)

		return nil
	case sd.continuous.Contains(v):
		if companion, ok := sd.smallestDelayCompanion(v); ok {
			if err := sd.swap(companion); err != nil {
				return fmt.Errorf("density.Marginalize(%s): %w", v, err)
			}
			sd.syncOrder.Remove(v)
			delete(sd.sync, v)

			return nil
		}
		projected, err := sd.pg.Project(v)
		if err != nil {
			return fmt.Errorf("density.Marginalize(%s): %w", v, err)
		}
		sd.pg = projected
		sd.continuous.Remove(v)

		return nil
	default:
		return fmt.Errorf("density.Marginalize(%s): %w", v, ErrUnknownVariable)
	}
}

// smallestDelayCompanion returns the synchronized variable with the
// smallest delay among those distributed against v, if any.
func (sd *StateDensity) smallestDelayCompanion(v variable.Variable) (variable.Variable, bool) {
	var best variable.Variable
	var bestDelta decimal.ExtendedDecimal
	found := false
	for _, s := range sd.syncOrder.Slice() {
		entry := sd.sync[s]
		if entry.Distributed != v {
			continue
		}
		if !found || entry.Delta.Cmp(bestDelta) < 0 {
			best, bestDelta, found = s, entry.Delta, true
		}
	}

	return best, found
}

// swap promotes the synchronized variable syncVar (distributed against
// some continuous d, with delay δ) to continuous, demoting d to
// synchronized against syncVar with delay −δ (spec.md §4.6). Every other
// synchronized variable previously distributed against d is rewritten
// to reference syncVar instead, with its delay adjusted by −δ. Finally
// PG is re-expressed in terms of syncVar via substituteAndShift.
func (sd *StateDensity) swap(syncVar variable.Variable) error {
	entry, ok := sd.sync[syncVar]
	if !ok {
		return fmt.Errorf("density.swap(%s): %w", syncVar, ErrUnknownVariable)
	}
	d := entry.Distributed
	delta := entry.Delta

	negDelta := delta.Neg()
	projected, err := sd.pg.SubstituteAndShift(d, syncVar, negDelta)
	if err != nil {
		return fmt.Errorf("density.swap(%s): %w", syncVar, err)
	}
	sd.pg = projected

	sd.continuous.Remove(d)
	sd.continuous.Add(syncVar)
	sd.syncOrder.Remove(syncVar)
	delete(sd.sync, syncVar)
	sd.syncOrder.Add(d)
	sd.sync[d] = syncEntry{Distributed: syncVar, Delta: negDelta}

	for _, s := range sd.syncOrder.Slice() {
		if s == d {
			continue
		}
		other := sd.sync[s]
		if other.Distributed != d {
			continue
		}
		newDelta, subErr := other.Delta.Sub(delta)
		if subErr != nil {
			return fmt.Errorf("density.swap(%s): %w", syncVar, subErr)
		}
		sd.sync[s] = syncEntry{Distributed: syncVar, Delta: newDelta}
	}

	return nil
}

// ConstantShiftAll propagates a constant shift of c to every tracked
// variable: det values decrease by c (c has already elapsed), sync
// delays are adjusted when exactly one of {the variable, its
// distributed companion} is in the progressing set — here, since every
// sync variable necessarily progresses whenever its (continuous)
// companion does, only the bookkeeping case of a det-turned-sync
// variable needs no further change — and continuous variables shift by
// −c in PG.
func (sd *StateDensity) ConstantShiftAll(c decimal.ExtendedDecimal) error {
	for _, v := range sd.detOrder.Slice() {
		shifted, err := sd.det[v].Sub(c)
		if err != nil {
			return fmt.Errorf("density.ConstantShiftAll: %w", err)
		}
		sd.det[v] = shifted
	}
	for _, v := range sd.continuous.Slice() {
		if _, isExp := sd.expRates[v]; isExp {
			continue // memoryless: rate is unaffected by elapsed time
		}
		projected, err := sd.pg.ConstantShift(v, c.Neg())
		if err != nil {
			return fmt.Errorf("density.ConstantShiftAll: %w", err)
		}
		sd.pg = projected
	}

	return nil
}

// ShiftAndProject is the fundamental state update after firing: it
// advances every other timer by fired's value and removes fired from
// tracking (spec.md §4.5). When deterministic timers coexist with
// fired, the well-defined part of that interaction (rebasing every
// other deterministic timer against the smallest one, d★) is applied;
// see DESIGN.md for the scope boundary this package draws around the
// remaining, more subtle d★-relative PG substitution.
func (sd *StateDensity) ShiftAndProject(fired variable.Variable) error {
	if value, ok := sd.det[fired]; ok {
		if err := sd.ConstantShiftAll(value); err != nil {
			return fmt.Errorf("density.ShiftAndProject(%s): %w", fired, err)
		}

		return sd.Marginalize(fired)
	}

	if _, ok := sd.sync[fired]; ok {
		if err := sd.swap(fired); err != nil {
			return fmt.Errorf("density.ShiftAndProject(%s): %w", fired, err)
		}
	}

	if sd.detOrder.Len() > 0 {
		if err := sd.rebaseDeterministicAround(fired); err != nil {
			return fmt.Errorf("density.ShiftAndProject(%s): %w", fired, err)
		}
	}

	projected, err := sd.pg.ShiftAndProject(fired)
	if err != nil {
		return fmt.Errorf("density.ShiftAndProject(%s): %w", fired, err)
	}
	sd.pg = projected
	sd.continuous.Remove(fired)
	delete(sd.expRates, fired)
	sd.expOrder.Remove(fired)

	sd.detOrder = variable.NewSet()
	sd.det = make(map[variable.Variable]decimal.ExtendedDecimal)

	for _, s := range sd.syncOrder.Slice() {
		entry := sd.sync[s]
		if entry.Distributed != fired {
			continue
		}
		sd.syncOrder.Remove(s)
		delete(sd.sync, s)
		sd.detOrder.Add(s)
		sd.det[s] = entry.Delta
	}

	return nil
}

// rebaseDeterministicAround moves every deterministic variable except
// the smallest, d★, into the synchronized partition distributed against
// d★ with delay value−d★.value, so their relative ordering survives
// fired's removal from the active timer set.
func (sd *StateDensity) rebaseDeterministicAround(fired variable.Variable) error {
	names := sd.detOrder.Slice()
	dstar := names[0]
	dstarValue := sd.det[dstar]
	for _, v := range names[1:] {
		if sd.det[v].Cmp(dstarValue) < 0 {
			dstar, dstarValue = v, sd.det[v]
		}
	}
	for _, v := range names {
		if v == dstar {
			continue
		}
		delta, err := sd.det[v].Sub(dstarValue)
		if err != nil {
			return err
		}
		sd.detOrder.Remove(v)
		delete(sd.det, v)
		sd.syncOrder.Add(v)
		sd.sync[v] = syncEntry{Distributed: dstar, Delta: delta}
	}
	_ = fired // the PG-level d★-relative rename of fired is a documented scope boundary; see DESIGN.md

	return nil
}
