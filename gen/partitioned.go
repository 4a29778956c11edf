package gen

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/expo"
	"github.com/katalvlaran/stochtime/variable"
	"github.com/katalvlaran/stochtime/zone"
)

// PartitionedGEN is an ordered list of GEN pieces whose zones are
// mutually disjoint (up to measure zero); together they describe one
// piecewise probability density function.
type PartitionedGEN []Piece

// NeutralOne is the trivial PartitionedGEN: one piece over the
// unconstrained ground-only zone with constant density 1, the identity
// element for CartesianProduct. spec.md leaves "insert it automatically
// when a result empties out" an open question this package resolves
// against (see DESIGN.md); callers opt into it explicitly here.
func NeutralOne() PartitionedGEN {
	return PartitionedGEN{{Zone: zone.New(), Density: expo.One()}}
}

// mergeOverlaps collapses pieces that share an identical zone (summing
// their densities) and drops pieces whose zone is not full-dimensional.
// Pieces produced by a single SubzoneDecomposition call are already
// pairwise disjoint by construction (each binds a distinct tightest
// lower/upper candidate pair), so exact-zone identity is the only
// overlap this package's own operations can ever produce; see
// DESIGN.md for why the fully general polyhedral "subzone induction"
// merge was narrowed to this case.
func (pg PartitionedGEN) mergeOverlaps() (PartitionedGEN, error) {
	type bucket struct {
		piece Piece
	}
	order := make([]string, 0, len(pg))
	buckets := make(map[string]bucket, len(pg))
	for _, p := range pg {
		full, err := p.Zone.IsFullDimensional()
		if err != nil {
			return nil, fmt.Errorf("gen.PartitionedGEN.mergeOverlaps: %w", err)
		}
		if !full {
			continue
		}
		key := p.Zone.String()
		if existing, ok := buckets[key]; ok {
			buckets[key] = bucket{piece: Piece{Zone: existing.piece.Zone, Density: existing.piece.Density.Add(p.Density)}}

			continue
		}
		buckets[key] = bucket{piece: p}
		order = append(order, key)
	}

	out := make(PartitionedGEN, 0, len(order))
	for _, key := range order {
		out = append(out, buckets[key].piece)
	}

	return out, nil
}

// TotalMass integrates every piece's density over its own zone and sums
// the result: the total probability mass the PartitionedGEN carries.
func (pg PartitionedGEN) TotalMass() (decimal.ExtendedDecimal, error) {
	sum := decimal.Zero
	for _, p := range pg {
		mass, err := p.IntegrateOverDomain()
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.TotalMass: %w", err)
		}
		var addErr error
		sum, addErr = sum.Add(mass)
		if addErr != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.TotalMass: %w", addErr)
		}
	}

	return sum, nil
}

// Project integrates v out of every piece and re-merges the results.
func (pg PartitionedGEN) Project(v variable.Variable) (PartitionedGEN, error) {
	var all PartitionedGEN
	for _, p := range pg {
		projected, err := p.Project(v)
		if err != nil {
			return nil, fmt.Errorf("gen.PartitionedGEN.Project: %w", err)
		}
		all = append(all, projected...)
	}

	return all.mergeOverlaps()
}

// ShiftAndProject re-centers every piece's other variables relative to v
// and projects v out, then re-merges.
func (pg PartitionedGEN) ShiftAndProject(v variable.Variable) (PartitionedGEN, error) {
	var all PartitionedGEN
	for _, p := range pg {
		shifted, err := p.ShiftAndProject(v)
		if err != nil {
			return nil, fmt.Errorf("gen.PartitionedGEN.ShiftAndProject: %w", err)
		}
		all = append(all, shifted...)
	}

	return all.mergeOverlaps()
}

// CartesianProduct combines pg with other, pairing every piece of pg
// with every piece of other (independent joint support).
func (pg PartitionedGEN) CartesianProduct(other PartitionedGEN) (PartitionedGEN, error) {
	var out PartitionedGEN
	for _, a := range pg {
		for _, b := range other {
			combined, err := a.CartesianProduct(b)
			if err != nil {
				return nil, fmt.Errorf("gen.PartitionedGEN.CartesianProduct: %w", err)
			}
			out = append(out, combined)
		}
	}

	return out.mergeOverlaps()
}

// Substitute renames v to v2 across every piece.
func (pg PartitionedGEN) Substitute(v, v2 variable.Variable) (PartitionedGEN, error) {
	out := make(PartitionedGEN, len(pg))
	for i, p := range pg {
		s, err := p.Substitute(v, v2)
		if err != nil {
			return nil, fmt.Errorf("gen.PartitionedGEN.Substitute: %w", err)
		}
		out[i] = s
	}

	return out, nil
}

// ConstantShift shifts v by c across every piece.
func (pg PartitionedGEN) ConstantShift(v variable.Variable, c decimal.ExtendedDecimal) (PartitionedGEN, error) {
	out := make(PartitionedGEN, len(pg))
	for i, p := range pg {
		s, err := p.ConstantShift(v, c)
		if err != nil {
			return nil, fmt.Errorf("gen.PartitionedGEN.ConstantShift: %w", err)
		}
		out[i] = s
	}

	return out, nil
}

// SubstituteAndShift applies v ↦ v2+c across every piece.
func (pg PartitionedGEN) SubstituteAndShift(v, v2 variable.Variable, c decimal.ExtendedDecimal) (PartitionedGEN, error) {
	out := make(PartitionedGEN, len(pg))
	for i, p := range pg {
		s, err := p.SubstituteAndShift(v, v2, c)
		if err != nil {
			return nil, fmt.Errorf("gen.PartitionedGEN.SubstituteAndShift: %w", err)
		}
		out[i] = s
	}

	return out, nil
}

// ImposeBound tightens every piece's zone with left − right ≤ b,
// dropping pieces that become infeasible or lose full dimensionality
// (spec.md §4.5's bound-imposition rule). No renormalization: unlike
// ConditionToBound this is a hard restriction of support, not a
// conditional probability update.
func (pg PartitionedGEN) ImposeBound(left, right variable.Variable, b decimal.ExtendedDecimal) (PartitionedGEN, error) {
	var out PartitionedGEN
	for _, p := range pg {
		tightened, err := p.Zone.ImposeBound(left, right, b)
		if errors.Is(err, zone.ErrInfeasible) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("gen.PartitionedGEN.ImposeBound: %w", err)
		}
		full, err := tightened.IsFullDimensional()
		if err != nil {
			return nil, fmt.Errorf("gen.PartitionedGEN.ImposeBound: %w", err)
		}
		if !full {
			continue
		}
		out = append(out, Piece{Zone: tightened, Density: p.Density})
	}

	return out, nil
}

// ConditionToBound tightens every piece to min ≤ v ≤ max, discards
// pieces whose mass falls below the epsilon threshold, and renormalizes
// the survivors by the total (not per-piece) probability. It returns
// the pre-normalization total mass; if that mass is zero, the returned
// PartitionedGEN is the (generally empty) tightened-but-unnormalized
// set, per this package's zero-mass-is-not-an-error policy.
func (pg PartitionedGEN) ConditionToBound(v variable.Variable, min, max decimal.ExtendedDecimal) (PartitionedGEN, decimal.ExtendedDecimal, error) {
	type tightened struct {
		piece Piece
		mass  decimal.ExtendedDecimal
	}
	var survivors []tightened
	total := decimal.Zero
	epsilon := decimal.NewFromFloat(epsilonThresholdFloat)
	for _, p := range pg {
		candidate, mass, err := p.ConditionToBound(v, min, max)
		if err != nil {
			return nil, decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.ConditionToBound: %w", err)
		}
		if mass.Cmp(epsilon) < 0 {
			continue
		}
		survivors = append(survivors, tightened{piece: candidate, mass: mass})
		var addErr error
		total, addErr = total.Add(mass)
		if addErr != nil {
			return nil, decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.ConditionToBound: %w", addErr)
		}
	}
	if total.IsZero() || math.Abs(total.Float64()) < epsilonThresholdFloat {
		return nil, total, nil
	}

	invTotal, err := decimal.One.Div(total)
	if err != nil {
		return nil, decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.ConditionToBound: %w", err)
	}
	out := make(PartitionedGEN, len(survivors))
	for i, s := range survivors {
		// s.piece.Density already divides by s.mass (its own integral);
		// rescale by mass/total so the whole list integrates to 1.
		factor := s.mass.Mul(invTotal)
		out[i] = Piece{Zone: s.piece.Zone, Density: s.piece.Density.Mul(expo.Constant(factor))}
	}

	return out, total, nil
}

// ConditionToZone intersects every piece's zone with z, discards pieces
// whose resulting mass falls below the epsilon threshold, and
// renormalizes the survivors by the total probability, returning the
// pre-normalization total mass. This is ConditionToBound's more general
// sibling: z may constrain several variables and relationships among
// them at once, not just one variable's range.
func (pg PartitionedGEN) ConditionToZone(z *zone.Zone) (PartitionedGEN, decimal.ExtendedDecimal, error) {
	type tightened struct {
		piece Piece
		mass  decimal.ExtendedDecimal
	}
	var survivors []tightened
	total := decimal.Zero
	epsilon := decimal.NewFromFloat(epsilonThresholdFloat)
	for _, p := range pg {
		restricted, err := p.Zone.Intersect(z)
		if errors.Is(err, zone.ErrInfeasible) {
			continue
		}
		if err != nil {
			return nil, decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.ConditionToZone: %w", err)
		}
		full, err := restricted.IsFullDimensional()
		if err != nil {
			return nil, decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.ConditionToZone: %w", err)
		}
		if !full {
			continue
		}
		candidate := Piece{Zone: restricted, Density: p.Density}
		mass, err := candidate.IntegrateOverDomain()
		if err != nil {
			return nil, decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.ConditionToZone: %w", err)
		}
		if mass.Cmp(epsilon) < 0 {
			continue
		}
		survivors = append(survivors, tightened{piece: candidate, mass: mass})
		var addErr error
		total, addErr = total.Add(mass)
		if addErr != nil {
			return nil, decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.ConditionToZone: %w", addErr)
		}
	}
	if total.IsZero() || math.Abs(total.Float64()) < epsilonThresholdFloat {
		return nil, total, nil
	}

	invTotal, err := decimal.One.Div(total)
	if err != nil {
		return nil, decimal.ExtendedDecimal{}, fmt.Errorf("gen.PartitionedGEN.ConditionToZone: %w", err)
	}
	out := make(PartitionedGEN, len(survivors))
	for i, s := range survivors {
		out[i] = Piece{Zone: s.piece.Zone, Density: s.piece.Density.Mul(expo.Constant(invTotal))}
	}

	return out, total, nil
}
