package density

import (
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/expo"
	"github.com/katalvlaran/stochtime/gen"
)

// TotalMass returns the continuous partition's current pre-
// normalization probability mass (1 for a well-formed StateDensity that
// has not yet had a hard restriction applied).
func (sd *StateDensity) TotalMass() (decimal.ExtendedDecimal, error) {
	mass, err := sd.pg.TotalMass()
	if err != nil {
		return decimal.ExtendedDecimal{}, fmt.Errorf("density.TotalMass: %w", err)
	}

	return mass, nil
}

// Renormalize rescales every piece's density by 1/mass so the
// continuous partition integrates back to 1. A zero mass is a no-op:
// there is nothing left to rescale.
func (sd *StateDensity) Renormalize(mass decimal.ExtendedDecimal) error {
	if mass.IsZero() {
		return nil
	}
	inv, err := decimal.One.Div(mass)
	if err != nil {
		return fmt.Errorf("density.Renormalize: %w", err)
	}
	rescaled := make(gen.PartitionedGEN, len(sd.pg))
	for i, p := range sd.pg {
		rescaled[i] = gen.Piece{Zone: p.Zone, Density: p.Density.Mul(expo.Constant(inv))}
	}
	sd.pg = rescaled

	return nil
}
