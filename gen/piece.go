package gen

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/expo"
	"github.com/katalvlaran/stochtime/variable"
	"github.com/katalvlaran/stochtime/zone"
)

// Piece is a single (zone, density) pair: a joint probability density
// function defined over one DBM support. Every free variable of Density
// must be a variable of Zone.
type Piece struct {
	Zone    *zone.Zone
	Density expo.Expolynomial
}

// NewPiece validates that density's free variables are all tracked by z
// and returns the assembled Piece.
func NewPiece(z *zone.Zone, density expo.Expolynomial) (Piece, error) {
	tracked := variable.NewSet(z.Variables()...)
	for _, v := range density.FreeVariables().Slice() {
		if !tracked.Contains(v) {
			return Piece{}, fmt.Errorf("gen.NewPiece(%s): %w", v, ErrFreeVariableNotInZone)
		}
	}

	return Piece{Zone: z, Density: density}, nil
}

// nonGroundVariables returns p.Zone's variables other than t★, in order.
func (p Piece) nonGroundVariables() []variable.Variable {
	var out []variable.Variable
	for _, v := range p.Zone.Variables() {
		if v != variable.TStar {
			out = append(out, v)
		}
	}

	return out
}

// IntegrateOverDomain recursively integrates the density over the full
// zone, returning the resulting scalar probability mass. It picks any
// non-ground pivot, decomposes the zone around it into subzones
// (zone.SubzoneDecomposition), integrates the density against each
// subzone's bounds, and recurses on the remainder until no non-ground
// variable is left.
func (p Piece) IntegrateOverDomain() (decimal.ExtendedDecimal, error) {
	remaining := p.nonGroundVariables()
	if len(remaining) == 0 {
		total, err := p.Density.EvaluateTotal(nil)
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.IntegrateOverDomain: %w", err)
		}

		return total, nil
	}

	pivot := remaining[0]
	pieces, err := p.Zone.SubzoneDecomposition(pivot)
	if err != nil {
		return decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.IntegrateOverDomain: %w", err)
	}

	sum := decimal.Zero
	for _, sz := range pieces {
		var lv, uv *variable.Variable
		if sz.LowerVar != variable.TStar {
			l := sz.LowerVar
			lv = &l
		}
		if sz.UpperVar != variable.TStar {
			u := sz.UpperVar
			uv = &u
		}
		antideriv, err := p.Density.IntegrateDefinite(pivot, lv, sz.LowerConst, uv, sz.UpperConst)
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.IntegrateOverDomain: %w", err)
		}
		reduced, err := sz.Zone.Marginalize(pivot)
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.IntegrateOverDomain: %w", err)
		}
		sub := Piece{Zone: reduced, Density: antideriv}
		contribution, err := sub.IntegrateOverDomain()
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.IntegrateOverDomain: %w", err)
		}
		sum, err = sum.Add(contribution)
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.IntegrateOverDomain: %w", err)
		}
	}

	return sum, nil
}

// Project integrates out v, returning one piece per pivot subzone, each
// carrying the antiderivative density over the subzone with v dropped.
func (p Piece) Project(v variable.Variable) (PartitionedGEN, error) {
	pieces, err := p.Zone.SubzoneDecomposition(v)
	if err != nil {
		return nil, fmt.Errorf("gen.Piece.Project: %w", err)
	}

	var out PartitionedGEN
	for _, sz := range pieces {
		var lv, uv *variable.Variable
		if sz.LowerVar != variable.TStar {
			l := sz.LowerVar
			lv = &l
		}
		if sz.UpperVar != variable.TStar {
			u := sz.UpperVar
			uv = &u
		}
		antideriv, err := p.Density.IntegrateDefinite(v, lv, sz.LowerConst, uv, sz.UpperConst)
		if err != nil {
			return nil, fmt.Errorf("gen.Piece.Project: %w", err)
		}
		reduced, err := sz.Zone.Marginalize(v)
		if err != nil {
			return nil, fmt.Errorf("gen.Piece.Project: %w", err)
		}
		out = append(out, Piece{Zone: reduced, Density: antideriv})
	}

	return out.mergeOverlaps()
}

// ShiftAndProject re-centers every other variable u as u−v (each now
// represents time elapsed after v), then projects v out, mirroring
// zone.Zone.ShiftAndProject at the density level via expo.Shift.
func (p Piece) ShiftAndProject(v variable.Variable) (PartitionedGEN, error) {
	shiftedDensity := p.Density
	var err error
	for _, u := range p.nonGroundVariables() {
		if u == v {
			continue
		}
		shiftedDensity, err = shiftedDensity.Shift(u, v, -1)
		if err != nil {
			return nil, fmt.Errorf("gen.Piece.ShiftAndProject: %w", err)
		}
	}
	shifted := Piece{Zone: p.Zone, Density: shiftedDensity}

	return shifted.Project(v)
}

// CartesianProduct combines two independently-tracked pieces into the
// joint density over their combined support: densities multiply, zones
// combine via zone.Zone.CartesianProduct.
func (p Piece) CartesianProduct(other Piece) (Piece, error) {
	z, err := p.Zone.CartesianProduct(other.Zone)
	if err != nil {
		return Piece{}, fmt.Errorf("gen.Piece.CartesianProduct: %w", err)
	}

	return Piece{Zone: z, Density: p.Density.Mul(other.Density)}, nil
}

// Substitute renames v to v2 in both zone and density.
func (p Piece) Substitute(v, v2 variable.Variable) (Piece, error) {
	z, err := p.Zone.Substitute(v, v2)
	if err != nil {
		return Piece{}, fmt.Errorf("gen.Piece.Substitute: %w", err)
	}

	return Piece{Zone: z, Density: p.Density.Substitute(v, v2)}, nil
}

// ConstantShift translates v's values by +c in both zone and density:
// the zone's bounds on v move up by c and the density f becomes f(v−c).
func (p Piece) ConstantShift(v variable.Variable, c decimal.ExtendedDecimal) (Piece, error) {
	z, err := p.Zone.ConstantShift(v, c)
	if err != nil {
		return Piece{}, fmt.Errorf("gen.Piece.ConstantShift: %w", err)
	}
	density, err := p.Density.ConstantShift(v, c.Neg())
	if err != nil {
		return Piece{}, fmt.Errorf("gen.Piece.ConstantShift: %w", err)
	}

	return Piece{Zone: z, Density: density}, nil
}

// SubstituteAndShift replaces v by v2+c in both zone and density (the
// v ↦ v′+c substitution of spec.md's density calculus).
func (p Piece) SubstituteAndShift(v, v2 variable.Variable, c decimal.ExtendedDecimal) (Piece, error) {
	shifted, err := p.Zone.Substitute(v, v2)
	if err != nil {
		return Piece{}, fmt.Errorf("gen.Piece.SubstituteAndShift: %w", err)
	}
	shifted, err = shifted.ConstantShift(v2, c.Neg())
	if err != nil {
		return Piece{}, fmt.Errorf("gen.Piece.SubstituteAndShift: %w", err)
	}
	density, err := p.Density.SubstituteConst(v, v2, c)
	if err != nil {
		return Piece{}, fmt.Errorf("gen.Piece.SubstituteAndShift: %w", err)
	}

	return Piece{Zone: shifted, Density: density}, nil
}

// ConditionToBound tightens the zone with min ≤ v ≤ max, integrates over
// the result, and — unless the mass is zero — rescales the density so
// the piece again integrates to one. It returns the pre-rescaling mass.
// A zero mass is not an error (see DESIGN.md): the returned Piece is the
// (unrescaled, typically now-empty-measure) tightened piece, or p itself
// when the bound leaves the zone empty.
func (p Piece) ConditionToBound(v variable.Variable, min, max decimal.ExtendedDecimal) (Piece, decimal.ExtendedDecimal, error) {
	tightened, err := p.Zone.ImposeBound(v, variable.TStar, max)
	if errors.Is(err, zone.ErrInfeasible) {
		return p, decimal.Zero, nil
	}
	if err != nil {
		return Piece{}, decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.ConditionToBound: %w", err)
	}
	tightened, err = tightened.ImposeBound(variable.TStar, v, min.Neg())
	if errors.Is(err, zone.ErrInfeasible) {
		return p, decimal.Zero, nil
	}
	if err != nil {
		return Piece{}, decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.ConditionToBound: %w", err)
	}
	candidate := Piece{Zone: tightened, Density: p.Density}
	mass, err := candidate.IntegrateOverDomain()
	if err != nil {
		return Piece{}, decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.ConditionToBound: %w", err)
	}
	if mass.IsZero() {
		return candidate, mass, nil
	}
	inv, err := decimal.One.Div(mass)
	if err != nil {
		return Piece{}, decimal.ExtendedDecimal{}, fmt.Errorf("gen.Piece.ConditionToBound: %w", err)
	}

	return Piece{Zone: tightened, Density: candidate.Density.Mul(expo.Constant(inv))}, mass, nil
}
