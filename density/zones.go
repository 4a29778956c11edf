package density

import (
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
	"github.com/katalvlaran/stochtime/zone"
)

// newNonNegativeZone returns the natural support 0 ≤ v < +∞ for a
// freshly added continuous timer.
func newNonNegativeZone(v variable.Variable) *zone.Zone {
	z := zone.New(v)
	z, err := z.ImposeBound(variable.TStar, v, decimal.Zero)
	if err != nil {
		// unconstrained zone tightened by a single finite bound can
		// never be infeasible.
		panic(fmt.Sprintf("density: newNonNegativeZone(%s): %v", v, err))
	}

	return z
}
