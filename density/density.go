package density

import (
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/expo"
	"github.com/katalvlaran/stochtime/gen"
	"github.com/katalvlaran/stochtime/variable"
)

// syncEntry records that a variable's remaining delay is a fixed offset
// from another, continuous variable.
type syncEntry struct {
	Distributed variable.Variable
	Delta       decimal.ExtendedDecimal
}

// StateDensity is the joint PDF manager: every enabled timer is in
// exactly one of det (a known absolute value), sync (a fixed delay
// relative to a continuous timer), or continuous (tracked symbolically
// in PG). exp-rates separately records the subset of continuous
// variables whose density is a plain memoryless exponential, so the
// firing algorithm can synthesize race-of-exponentials shortcuts
// without folding them into PG.
type StateDensity struct {
	detOrder *variable.Set
	det      map[variable.Variable]decimal.ExtendedDecimal

	syncOrder *variable.Set
	sync      map[variable.Variable]syncEntry

	continuous *variable.Set
	pg         gen.PartitionedGEN

	expOrder *variable.Set
	expRates map[variable.Variable]decimal.ExtendedDecimal
}

// Option configures a new StateDensity at construction time.
type Option func(*StateDensity)

// WithPartitionedGEN seeds the continuous partition's density directly,
// bypassing addContinuous — used by tests and by operations (swap,
// shiftAndProject) that already hold a fully-formed PartitionedGEN.
func WithPartitionedGEN(pg gen.PartitionedGEN) Option {
	if pg == nil {
		panic("density.WithPartitionedGEN: nil PartitionedGEN")
	}

	return func(sd *StateDensity) { sd.pg = pg }
}

// New returns an empty StateDensity: no timers tracked, PG is the
// neutral-one instance.
func New(opts ...Option) *StateDensity {
	sd := &StateDensity{
		detOrder:   variable.NewSet(),
		det:        make(map[variable.Variable]decimal.ExtendedDecimal),
		syncOrder:  variable.NewSet(),
		sync:       make(map[variable.Variable]syncEntry),
		continuous: variable.NewSet(),
		pg:         gen.NeutralOne(),
		expOrder:   variable.NewSet(),
		expRates:   make(map[variable.Variable]decimal.ExtendedDecimal),
	}
	for _, opt := range opts {
		opt(sd)
	}

	return sd
}

// Clone returns an independent deep-enough copy (PartitionedGEN pieces
// are value-like already; only the partition bookkeeping needs copying).
func (sd *StateDensity) Clone() *StateDensity {
	out := New()
	out.detOrder = sd.detOrder.Clone()
	for k, v := range sd.det {
		out.det[k] = v
	}
	out.syncOrder = sd.syncOrder.Clone()
	for k, v := range sd.sync {
		out.sync[k] = v
	}
	out.continuous = sd.continuous.Clone()
	out.pg = append(gen.PartitionedGEN{}, sd.pg...)
	out.expOrder = sd.expOrder.Clone()
	for k, v := range sd.expRates {
		out.expRates[k] = v
	}

	return out
}

func (sd *StateDensity) tracked(v variable.Variable) bool {
	return sd.detOrder.Contains(v) || sd.syncOrder.Contains(v) || sd.continuous.Contains(v)
}

// AddDeterministic puts v in the deterministic partition with the given
// absolute value.
func (sd *StateDensity) AddDeterministic(v variable.Variable, value decimal.ExtendedDecimal) error {
	if sd.tracked(v) {
		return fmt.Errorf("density.AddDeterministic(%s): %w", v, ErrAlreadyTracked)
	}
	sd.detOrder.Add(v)
	sd.det[v] = value

	return nil
}

// AddSynchronized puts v in the synchronized partition with delay delta
// relative to distributed, which must already be continuous.
func (sd *StateDensity) AddSynchronized(v, distributed variable.Variable, delta decimal.ExtendedDecimal) error {
	if sd.tracked(v) {
		return fmt.Errorf("density.AddSynchronized(%s): %w", v, ErrAlreadyTracked)
	}
	if !sd.continuous.Contains(distributed) {
		return fmt.Errorf("density.AddSynchronized(%s,%s): %w", v, distributed, ErrNotContinuous)
	}
	sd.syncOrder.Add(v)
	sd.sync[v] = syncEntry{Distributed: distributed, Delta: delta}

	return nil
}

// AddContinuous renames variable.X to v in pdf and cartesian-multiplies
// it into PG. If pdf is recognized as a degenerate exponential
// (exactly one exmonomial, coefficient == rate, a single Exponential(v,
// rate) term, no polynomial factor), it is instead recorded in the
// exp-rates map and never embedded in PG, matching the memoryless
// shortcut spec.md describes.
func (sd *StateDensity) AddContinuous(v variable.Variable, pdf expo.Expolynomial) error {
	if sd.tracked(v) {
		return fmt.Errorf("density.AddContinuous(%s): %w", v, ErrAlreadyTracked)
	}
	renamed := pdf.Substitute(variable.X, v)
	if rate, ok := asExponentialRate(renamed, v); ok {
		sd.continuous.Add(v)
		sd.expOrder.Add(v)
		sd.expRates[v] = rate

		return nil
	}

	return sd.embedContinuous(v, renamed)
}

// AddContinuousTracked is AddContinuous without the EXP-shortcut
// detection: pdf is always embedded as a genuine PartitionedGEN piece,
// even when it has the memoryless exponential form. The successor
// evaluator's minEXP synthesis needs this: minEXP stands in for a race
// of exponentials and must be zone-comparable against other timers,
// which the rate-only shortcut representation cannot offer.
func (sd *StateDensity) AddContinuousTracked(v variable.Variable, pdf expo.Expolynomial) error {
	if sd.tracked(v) {
		return fmt.Errorf("density.AddContinuousTracked(%s): %w", v, ErrAlreadyTracked)
	}

	return sd.embedContinuous(v, pdf.Substitute(variable.X, v))
}

func (sd *StateDensity) embedContinuous(v variable.Variable, renamed expo.Expolynomial) error {
	piece, err := gen.NewPiece(newNonNegativeZone(v), renamed)
	if err != nil {
		return fmt.Errorf("density.embedContinuous(%s): %w", v, err)
	}
	joined, err := sd.pg.CartesianProduct(gen.PartitionedGEN{piece})
	if err != nil {
		return fmt.Errorf("density.embedContinuous(%s): %w", v, err)
	}
	sd.continuous.Add(v)
	sd.pg = joined

	return nil
}

// asExponentialRate reports whether e is exactly rate*exp(-rate*v) with
// no other factors, and if so returns rate.
func asExponentialRate(e expo.Expolynomial, v variable.Variable) (decimal.ExtendedDecimal, bool) {
	n, err := e.Normalize()
	if err != nil {
		return decimal.ExtendedDecimal{}, false
	}
	ms := n.Exmonomials()
	if len(ms) != 1 {
		return decimal.ExtendedDecimal{}, false
	}
	m := ms[0]
	if len(m.Terms) != 1 {
		return decimal.ExtendedDecimal{}, false
	}
	t := m.Terms[0]
	if t.Kind != expo.KindExponential || t.Var != v {
		return decimal.ExtendedDecimal{}, false
	}
	if !m.C.Equal(t.Rate) {
		return decimal.ExtendedDecimal{}, false
	}

	return t.Rate, true
}

// Mean returns the expected value of v: direct for det/sync, or the
// density-weighted integral for a continuous variable (EXP-shortcut
// variables use the closed form 1/rate).
func (sd *StateDensity) Mean(v variable.Variable) (decimal.ExtendedDecimal, error) {
	if value, ok := sd.det[v]; ok {
		return value, nil
	}
	if entry, ok := sd.sync[v]; ok {
		base, err := sd.Mean(entry.Distributed)
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("density.Mean(%s): %w", v, err)
		}

		return base.Add(entry.Delta)
	}
	if rate, ok := sd.expRates[v]; ok {
		return decimal.One.Div(rate)
	}
	if !sd.continuous.Contains(v) {
		return decimal.ExtendedDecimal{}, fmt.Errorf("density.Mean(%s): %w", v, ErrUnknownVariable)
	}

	total := decimal.Zero
	for _, p := range sd.pg {
		weighted := p.Density.Mul(expo.FromExmonomials(expo.NewExmonomial(decimal.One, expo.MustMonomial(v, 1))))
		weightedPiece := gen.Piece{Zone: p.Zone, Density: weighted}
		contribution, err := weightedPiece.IntegrateOverDomain()
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("density.Mean(%s): %w", v, err)
		}
		var addErr error
		total, addErr = total.Add(contribution)
		if addErr != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("density.Mean(%s): %w", v, addErr)
		}
	}

	return total, nil
}

