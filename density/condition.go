package density

import (
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
	"github.com/katalvlaran/stochtime/zone"
)

// groundRelative expresses v as (reference + offset), where reference is
// either a continuous/PG variable or variable.TStar when v reduces all
// the way down to an absolute deterministic value.
type groundRelative struct {
	reference variable.Variable
	offset    decimal.ExtendedDecimal
}

// reduce walks det → sync → continuous until it reaches either t★ (a
// purely deterministic chain) or a genuine continuous PG variable,
// accumulating the offset along the way (spec.md §4.5's "reduce
// synchronized/deterministic variables to t★-relative constants").
func (sd *StateDensity) reduce(v variable.Variable) (groundRelative, error) {
	if value, ok := sd.det[v]; ok {
		return groundRelative{reference: variable.TStar, offset: value}, nil
	}
	if entry, ok := sd.sync[v]; ok {
		base, err := sd.reduce(entry.Distributed)
		if err != nil {
			return groundRelative{}, err
		}
		sum, err := base.offset.Add(entry.Delta)
		if err != nil {
			return groundRelative{}, err
		}

		return groundRelative{reference: base.reference, offset: sum}, nil
	}
	if sd.continuous.Contains(v) {
		return groundRelative{reference: v, offset: decimal.Zero}, nil
	}

	return groundRelative{}, fmt.Errorf("density.reduce(%s): %w", v, ErrUnknownVariable)
}

// ImposeBound requires left − right ≤ b for every right in rightSet
// (spec.md §4.5). Deterministic-only constraints that are violated wipe
// PG to empty; deterministic-only constraints that hold are no-ops;
// mixed/continuous constraints tighten every PG piece via
// gen.PartitionedGEN.ImposeBound.
func (sd *StateDensity) ImposeBound(left variable.Variable, rightSet []variable.Variable, b decimal.ExtendedDecimal) error {
	lr, err := sd.reduce(left)
	if err != nil {
		return fmt.Errorf("density.ImposeBound: %w", err)
	}
	for _, right := range rightSet {
		rr, err := sd.reduce(right)
		if err != nil {
			return fmt.Errorf("density.ImposeBound: %w", err)
		}
		// (lr.reference + lr.offset) − (rr.reference + rr.offset) ≤ b
		// <=> lr.reference − rr.reference ≤ b − lr.offset + rr.offset
		adjusted, err := b.Sub(lr.offset)
		if err != nil {
			return fmt.Errorf("density.ImposeBound: %w", err)
		}
		adjusted, err = adjusted.Add(rr.offset)
		if err != nil {
			return fmt.Errorf("density.ImposeBound: %w", err)
		}

		if lr.reference == variable.TStar && rr.reference == variable.TStar {
			if decimal.Zero.Cmp(adjusted) > 0 {
				sd.pg = nil // infeasible deterministic constraint: wipe to empty
			}

			continue
		}
		tightened, err := sd.pg.ImposeBound(lr.reference, rr.reference, adjusted)
		if err != nil {
			return fmt.Errorf("density.ImposeBound: %w", err)
		}
		sd.pg = tightened
	}

	return nil
}

// ConditionAllToBound imposes min ≤ v ≤ max on the full PartitionedGEN,
// discards pieces below the epsilon mass threshold, and renormalizes the
// survivors, returning the pre-normalization probability mass.
func (sd *StateDensity) ConditionAllToBound(v variable.Variable, min, max decimal.ExtendedDecimal) (decimal.ExtendedDecimal, error) {
	conditioned, mass, err := sd.pg.ConditionToBound(v, min, max)
	if err != nil {
		return decimal.ExtendedDecimal{}, fmt.Errorf("density.ConditionAllToBound(%s): %w", v, err)
	}
	sd.pg = conditioned

	return mass, nil
}

// ConditionToZone intersects the PartitionedGEN with z, discards pieces
// below the epsilon mass threshold, and renormalizes, returning the
// pre-normalization probability mass.
func (sd *StateDensity) ConditionToZone(z *zone.Zone) (decimal.ExtendedDecimal, error) {
	conditioned, mass, err := sd.pg.ConditionToZone(z)
	if err != nil {
		return decimal.ExtendedDecimal{}, fmt.Errorf("density.ConditionToZone: %w", err)
	}
	sd.pg = conditioned

	return mass, nil
}
