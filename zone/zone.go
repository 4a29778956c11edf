package zone

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
)

// Zone is a Difference-Bound Matrix: a conjunction of constraints
//
//	varᵢ − varⱼ ≤ bound[i][j]
//
// over an ordered index of variables that always includes the reserved
// ground variable variable.TStar at index 0 (so that "varᵢ ≤ c" is just
// the special case varᵢ − t★ ≤ c). Zone is a value-ish type: every
// mutating-looking operation (ImposeBound, Substitute, ConstantShift,
// Intersect, CartesianProduct) returns a new *Zone and leaves the
// receiver untouched, matching the teacher's "explicit clone, no shared
// mutable state" discipline.
type Zone struct {
	vars  *variable.Set
	bound [][]decimal.ExtendedDecimal
}

// New returns the unconstrained zone over t★ and vars: every off-diagonal
// bound is +Inf, every diagonal bound is 0.
func New(vars ...variable.Variable) *Zone {
	set := variable.NewSet(variable.TStar)
	for _, v := range vars {
		set.Add(v)
	}
	n := set.Len()
	bound := make([][]decimal.ExtendedDecimal, n)
	for i := range bound {
		bound[i] = make([]decimal.ExtendedDecimal, n)
		for j := range bound[i] {
			if i == j {
				bound[i][j] = decimal.Zero
			} else {
				bound[i][j] = decimal.PosInf
			}
		}
	}

	return &Zone{vars: set, bound: bound}
}

// Variables returns the zone's variables in insertion order, t★ included.
func (z *Zone) Variables() []variable.Variable { return z.vars.Slice() }

// Clone returns an independent deep copy of z.
func (z *Zone) Clone() *Zone {
	bound := make([][]decimal.ExtendedDecimal, len(z.bound))
	for i, row := range z.bound {
		bound[i] = make([]decimal.ExtendedDecimal, len(row))
		copy(bound[i], row)
	}

	return &Zone{vars: z.vars.Clone(), bound: bound}
}

// ensureVariable returns z itself when it already tracks v, or a new
// *Zone with v appended when v is absent. Callers that must not grow the
// zone use strictIndexOf instead.
func (z *Zone) ensureVariable(v variable.Variable) *Zone {
	if z.vars.Contains(v) {
		return z
	}
	grown := z.Clone()
	grown.vars.Add(v)
	n := grown.vars.Len()
	for i := range grown.bound {
		grown.bound[i] = append(grown.bound[i], decimal.PosInf)
	}
	last := make([]decimal.ExtendedDecimal, n)
	for j := range last {
		last[j] = decimal.PosInf
	}
	last[n-1] = decimal.Zero
	grown.bound = append(grown.bound, last)

	return grown
}

func (z *Zone) strictIndexOf(v variable.Variable) (int, error) {
	idx := z.vars.IndexOf(v)
	if idx < 0 {
		return 0, fmt.Errorf("zone: variable %s: %w", v, ErrUnknownVariable)
	}

	return idx, nil
}

// SetCoefficient assigns the raw bound on vi − vj (no tightening against
// the existing value, no renormalization); vi and vj are added to the
// zone if absent. Use ImposeBound when the new bound should only ever
// tighten the zone.
func (z *Zone) SetCoefficient(vi, vj variable.Variable, c decimal.ExtendedDecimal) *Zone {
	grown := z.ensureVariable(vi).ensureVariable(vj)
	out := grown.Clone()
	i, _ := out.strictIndexOf(vi)
	j, _ := out.strictIndexOf(vj)
	out.bound[i][j] = c

	return out
}

// ImposeBound tightens the bound on vi − vj to min(current, c), then
// renormalizes. Returns ErrInfeasible if the resulting zone is empty.
func (z *Zone) ImposeBound(vi, vj variable.Variable, c decimal.ExtendedDecimal) (*Zone, error) {
	grown := z.ensureVariable(vi).ensureVariable(vj)
	out := grown.Clone()
	i, _ := out.strictIndexOf(vi)
	j, _ := out.strictIndexOf(vj)
	out.bound[i][j] = out.bound[i][j].Min(c)

	return out.Normalize()
}

// GetBound returns the current (already-normalized, if the caller kept
// the zone normalized) bound on vi − vj.
func (z *Zone) GetBound(vi, vj variable.Variable) (decimal.ExtendedDecimal, error) {
	i, err := z.strictIndexOf(vi)
	if err != nil {
		return decimal.ExtendedDecimal{}, fmt.Errorf("Zone.GetBound: %w", err)
	}
	j, err := z.strictIndexOf(vj)
	if err != nil {
		return decimal.ExtendedDecimal{}, fmt.Errorf("Zone.GetBound: %w", err)
	}

	return z.bound[i][j], nil
}

// Normalize runs all-pairs shortest-path tightening (Floyd-Warshall) over
// the bound matrix, grounded on the teacher's matrix.floydWarshallInPlace:
// same fixed k→i→j loop order for deterministic accumulation, generalized
// from float64 to ExtendedDecimal. Returns a new, closed zone, or
// ErrInfeasible if any diagonal entry tightens below zero.
func (z *Zone) Normalize() (*Zone, error) {
	out := z.Clone()
	n := len(out.bound)
	var k, i, j int
	for k = 0; k < n; k++ {
		for i = 0; i < n; i++ {
			ik := out.bound[i][k]
			if ik.IsPosInf() {
				continue
			}
			for j = 0; j < n; j++ {
				kj := out.bound[k][j]
				if kj.IsPosInf() {
					continue
				}
				cand, err := ik.Add(kj)
				if err != nil {
					return nil, fmt.Errorf("Zone.Normalize: %w", err)
				}
				if cand.Cmp(out.bound[i][j]) < 0 {
					out.bound[i][j] = cand
				}
			}
		}
	}
	for i = 0; i < n; i++ {
		if out.bound[i][i].Cmp(decimal.Zero) < 0 {
			return nil, fmt.Errorf("Zone.Normalize: %w", ErrInfeasible)
		}
		out.bound[i][i] = decimal.Zero
	}

	return out, nil
}

// IsFullDimensional reports whether the (normalized) zone has non-empty
// interior: every pair of distinct variables satisfies bound[i][j] +
// bound[j][i] > 0, i.e. no two variables are pinned equal.
func (z *Zone) IsFullDimensional() (bool, error) {
	n := len(z.bound)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum, err := z.bound[i][j].Add(z.bound[j][i])
			if err != nil {
				return false, fmt.Errorf("Zone.IsFullDimensional: %w", err)
			}
			if sum.Cmp(decimal.Zero) <= 0 {
				return false, nil
			}
		}
	}

	return true, nil
}

// Intersect returns the conjunction of z and other's constraints over the
// union of their variables, normalized. Unrelated pairs default to +Inf
// (no constraint) before normalization ties them together through
// whatever shared variables (at minimum t★) the two zones have.
func (z *Zone) Intersect(other *Zone) (*Zone, error) {
	out := z.Clone()
	for _, v := range other.Variables() {
		out = out.ensureVariable(v)
	}
	for _, vi := range other.Variables() {
		for _, vj := range other.Variables() {
			c, err := other.GetBound(vi, vj)
			if err != nil {
				return nil, fmt.Errorf("Zone.Intersect: %w", err)
			}
			i, _ := out.strictIndexOf(vi)
			j, _ := out.strictIndexOf(vj)
			out.bound[i][j] = out.bound[i][j].Min(c)
		}
	}

	return out.Normalize()
}

// CartesianProduct combines z and other's variables with no cross
// constraints beyond what their shared reference t★ already implies,
// used to join two independently-tracked variable partitions into one
// joint zone.
func (z *Zone) CartesianProduct(other *Zone) (*Zone, error) {
	return z.Intersect(other)
}

// Substitute renames v to v2 throughout the zone. If v2 is already
// present, the two rows/columns are merged by taking the tighter
// (minimum) bound on every pair, then the zone is renormalized.
func (z *Zone) Substitute(v, v2 variable.Variable) (*Zone, error) {
	if !z.vars.Contains(v) {
		return z.Clone(), nil
	}
	if v == v2 {
		return z.Clone(), nil
	}
	if !z.vars.Contains(v2) {
		out := z.Clone()
		idx, _ := out.strictIndexOf(v)
		names := out.vars.Slice()
		names[idx] = v2
		renamed := variable.NewSet(names...)
		out.vars = renamed

		return out, nil
	}

	// v2 already present: merge row/col i (v) into row/col j (v2), then
	// drop v's row/col entirely.
	out := z.Clone()
	i, _ := out.strictIndexOf(v)
	j, _ := out.strictIndexOf(v2)
	n := len(out.bound)
	for k := 0; k < n; k++ {
		out.bound[j][k] = out.bound[j][k].Min(out.bound[i][k])
		out.bound[k][j] = out.bound[k][j].Min(out.bound[k][i])
	}

	return out.dropIndex(i).Normalize()
}

// dropIndex returns a copy of z with variable index i removed from both
// the variable set and the bound matrix, without renormalizing (the
// caller normalizes if the surrounding bounds were otherwise modified).
func (z *Zone) dropIndex(i int) *Zone {
	n := len(z.bound)
	remaining := make([]variable.Variable, 0, n-1)
	keepIdx := make([]int, 0, n-1)
	for k, name := range z.vars.Slice() {
		if k == i {
			continue
		}
		remaining = append(remaining, name)
		keepIdx = append(keepIdx, k)
	}
	newBound := make([][]decimal.ExtendedDecimal, len(keepIdx))
	for a, ka := range keepIdx {
		newBound[a] = make([]decimal.ExtendedDecimal, len(keepIdx))
		for b, kb := range keepIdx {
			newBound[a][b] = z.bound[ka][kb]
		}
	}

	return &Zone{vars: variable.NewSet(remaining...), bound: newBound}
}

// Marginalize drops v from the zone entirely (no renaming, no bound
// adjustment on the remaining variables) — used by gen.Piece.Project,
// which integrates v's density out without re-centering the others.
func (z *Zone) Marginalize(v variable.Variable) (*Zone, error) {
	idx, err := z.strictIndexOf(v)
	if err != nil {
		return nil, fmt.Errorf("Zone.Marginalize: %w", err)
	}

	return z.dropIndex(idx).Normalize()
}

// ShiftAndProject re-centers every other variable u as u−v (so each
// becomes "time elapsed after v"), then drops v. Since bound[u][v] is
// already the tightest known upper bound on u−v (and bound[v][u] on
// v−u) once z is normalized, the re-centered bound against t★ is read
// directly off the v row/column before v is dropped; bounds among the
// other variables (which don't involve v) are unaffected by the
// recentering and carry over unchanged.
func (z *Zone) ShiftAndProject(v variable.Variable) (*Zone, error) {
	normalized, err := z.Normalize()
	if err != nil {
		return nil, fmt.Errorf("Zone.ShiftAndProject: %w", err)
	}
	idx, err := normalized.strictIndexOf(v)
	if err != nil {
		return nil, fmt.Errorf("Zone.ShiftAndProject: %w", err)
	}
	ti, err := normalized.strictIndexOf(variable.TStar)
	if err != nil {
		return nil, fmt.Errorf("Zone.ShiftAndProject: %w", err)
	}
	out := normalized.Clone()
	n := len(out.bound)
	for k := 0; k < n; k++ {
		if k == idx || k == ti {
			continue
		}
		out.bound[k][ti] = out.bound[k][idx]
		out.bound[ti][k] = out.bound[idx][k]
	}

	return out.dropIndex(idx).Normalize()
}

// ConstantShift replaces v by v+c throughout the zone: bounds on v − vj
// grow by c (v can now be c larger relative to vj), bounds on vj − v
// shrink by c, and the zone is renormalized.
func (z *Zone) ConstantShift(v variable.Variable, c decimal.ExtendedDecimal) (*Zone, error) {
	idx, err := z.strictIndexOf(v)
	if err != nil {
		return nil, fmt.Errorf("Zone.ConstantShift: %w", err)
	}
	out := z.Clone()
	n := len(out.bound)
	for k := 0; k < n; k++ {
		if k == idx {
			continue
		}
		if !out.bound[idx][k].IsPosInf() {
			sum, addErr := out.bound[idx][k].Add(c)
			if addErr != nil {
				return nil, fmt.Errorf("Zone.ConstantShift: %w", addErr)
			}
			out.bound[idx][k] = sum
		}
		if !out.bound[k][idx].IsPosInf() {
			diff, subErr := out.bound[k][idx].Sub(c)
			if subErr != nil {
				return nil, fmt.Errorf("Zone.ConstantShift: %w", subErr)
			}
			out.bound[k][idx] = diff
		}
	}

	return out.Normalize()
}

// BoundCandidate names an "other" variable and the constant offset such
// that pivot ≤ Var + Const (an upper candidate) or pivot ≥ Var + Const (a
// lower candidate).
type BoundCandidate struct {
	Var   variable.Variable
	Const decimal.ExtendedDecimal
}

// PivotBounds returns every finite upper and lower bound candidate on
// pivot against the zone's other variables, plus t★ (representing an
// absolute numeric bound) in both lists even when its constant is
// infinite, so that a pivot unbounded in one direction still has a limit.
func (z *Zone) PivotBounds(pivot variable.Variable) (lower, upper []BoundCandidate, err error) {
	pi, err := z.strictIndexOf(pivot)
	if err != nil {
		return nil, nil, fmt.Errorf("Zone.PivotBounds: %w", err)
	}
	for idx, v := range z.vars.Slice() {
		if idx == pi {
			continue
		}
		// pivot ≤ v + bound[pivot][v]
		if c := z.bound[pi][idx]; !c.IsPosInf() || v == variable.TStar {
			upper = append(upper, BoundCandidate{Var: v, Const: c})
		}
		// pivot ≥ v − bound[v][pivot]
		if c := z.bound[idx][pi]; !c.IsPosInf() || v == variable.TStar {
			lower = append(lower, BoundCandidate{Var: v, Const: c.Neg()})
		}
	}
	sortCandidates(lower)
	sortCandidates(upper)

	return lower, upper, nil
}

func sortCandidates(cs []BoundCandidate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Var < cs[j].Var })
}

// Subzone is one piece of a pivot decomposition: the region of z in which
// LowerVar (offset by LowerConst) and UpperVar (offset by UpperConst) are
// exactly the binding lower and upper bounds on Pivot, so that
//
//	LowerVar + LowerConst ≤ Pivot ≤ UpperVar + UpperConst
//
// holds throughout Zone with no other candidate ever tighter.
type Subzone struct {
	Pivot      variable.Variable
	LowerVar   variable.Variable
	LowerConst decimal.ExtendedDecimal
	UpperVar   variable.Variable
	UpperConst decimal.ExtendedDecimal
	Zone       *Zone
}

// SubzoneDecomposition partitions z into the disjoint (possibly empty)
// pieces in which a single pair of candidate variables provides the
// tightest lower and upper bound on pivot throughout the piece. This is
// the structural step that lets a piecewise integration over pivot use a
// single pair of affine bound expressions per piece instead of a min/max
// over every candidate. Infeasible or degenerate (lower > upper)
// candidate pairs are silently dropped, since they denote empty regions.
func (z *Zone) SubzoneDecomposition(pivot variable.Variable) ([]Subzone, error) {
	lower, upper, err := z.PivotBounds(pivot)
	if err != nil {
		return nil, fmt.Errorf("Zone.SubzoneDecomposition: %w", err)
	}
	if len(lower) == 0 || len(upper) == 0 {
		return nil, nil
	}

	var pieces []Subzone
	for _, l := range lower {
		for _, u := range upper {
			piece, err := z.bindingSubzone(pivot, l, lower, u, upper)
			if err != nil {
				return nil, fmt.Errorf("Zone.SubzoneDecomposition: %w", err)
			}
			if piece == nil {
				continue
			}
			pieces = append(pieces, Subzone{
				Pivot: pivot, LowerVar: l.Var, LowerConst: l.Const,
				UpperVar: u.Var, UpperConst: u.Const, Zone: piece,
			})
		}
	}

	return pieces, nil
}

// bindingSubzone imposes, on top of z, that candidate l is the maximum
// (tightest) of every lower candidate and u is the minimum (tightest) of
// every upper candidate, expressed purely over the non-pivot variables
// (the derivation is in the comments of the two loops). It returns (nil, nil) for an
// infeasible piece rather than propagating ErrInfeasible, matching
// SubzoneDecomposition's "drop empty pieces" contract.
func (z *Zone) bindingSubzone(pivot variable.Variable, l BoundCandidate, lowers []BoundCandidate, u BoundCandidate, uppers []BoundCandidate) (*Zone, error) {
	out := z.Clone()
	var err error
	for _, other := range lowers {
		if other.Var == l.Var {
			continue
		}
		// require l + l.Const ≥ other + other.Const  <=>  other − l ≤ l.Const − other.Const
		c, subErr := l.Const.Sub(other.Const)
		if subErr != nil {
			return nil, subErr
		}
		out, err = out.ImposeBound(other.Var, l.Var, c)
		if errors.Is(err, ErrInfeasible) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
	for _, other := range uppers {
		if other.Var == u.Var {
			continue
		}
		// require u + u.Const ≤ other + other.Const  <=>  u − other ≤ other.Const − u.Const
		c, subErr := other.Const.Sub(u.Const)
		if subErr != nil {
			return nil, subErr
		}
		out, err = out.ImposeBound(u.Var, other.Var, c)
		if errors.Is(err, ErrInfeasible) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// String renders the zone's constraints for diagnostics, one line per
// finite off-diagonal bound, in variable order.
func (z *Zone) String() string {
	var b strings.Builder
	names := z.vars.Slice()
	for i, vi := range names {
		for j, vj := range names {
			if i == j {
				continue
			}
			c := z.bound[i][j]
			if c.IsPosInf() {
				continue
			}
			fmt.Fprintf(&b, "%s-%s<=%s; ", vi, vj, c)
		}
	}

	return b.String()
}
