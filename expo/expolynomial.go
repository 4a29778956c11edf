package expo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
)

// Expolynomial is a finite sum of Exmonomials: Σⱼ cⱼ·Πᵢ atomicᵢⱼ. It is a
// value type; every transforming method returns a new Expolynomial rather
// than mutating the receiver, so callers never need to clone before
// passing one to another component (spec.md §9's "value semantics"
// re-architecture, carried from GEN pieces down into the algebra itself).
type Expolynomial struct {
	terms []Exmonomial
}

// Zero is the additive identity: the empty sum.
func Zero() Expolynomial { return Expolynomial{} }

// One is the multiplicative identity: the constant 1.
func One() Expolynomial {
	return Expolynomial{terms: []Exmonomial{{C: decimal.One}}}
}

// Constant wraps a plain ExtendedDecimal as a zero-term Expolynomial.
func Constant(c decimal.ExtendedDecimal) Expolynomial {
	if c.IsZero() {
		return Zero()
	}

	return Expolynomial{terms: []Exmonomial{{C: c}}}
}

// FromExmonomials builds an Expolynomial from the given exmonomials, in
// order. The result is not normalized; call Normalize to merge similar
// terms.
func FromExmonomials(ms ...Exmonomial) Expolynomial {
	terms := make([]Exmonomial, len(ms))
	copy(terms, ms)

	return Expolynomial{terms: terms}
}

// Exmonomials returns a defensive copy of e's summands, in order.
func (e Expolynomial) Exmonomials() []Exmonomial {
	out := make([]Exmonomial, len(e.terms))
	copy(out, e.terms)

	return out
}

// IsZero reports whether e normalizes to the empty sum.
func (e Expolynomial) IsZero() bool {
	n, err := e.Normalize()
	if err != nil {
		return false
	}

	return len(n.terms) == 0
}

// FreeVariables returns the distinct variables appearing anywhere in e,
// in first-occurrence order.
func (e Expolynomial) FreeVariables() *variable.Set {
	s := variable.NewSet()
	for _, m := range e.terms {
		for _, v := range m.FreeVariables().Slice() {
			s.Add(v)
		}
	}

	return s
}

// Add returns e+other as a new, un-merged sum; call Normalize to combine
// similar terms.
func (e Expolynomial) Add(other Expolynomial) Expolynomial {
	out := make([]Exmonomial, 0, len(e.terms)+len(other.terms))
	out = append(out, e.terms...)
	out = append(out, other.terms...)

	return Expolynomial{terms: out}
}

// Neg returns -e.
func (e Expolynomial) Neg() Expolynomial {
	out := make([]Exmonomial, len(e.terms))
	for i, m := range e.terms {
		out[i] = Exmonomial{C: m.C.Neg(), Terms: m.Terms}
	}

	return Expolynomial{terms: out}
}

// Sub returns e-other.
func (e Expolynomial) Sub(other Expolynomial) Expolynomial {
	return e.Add(other.Neg())
}

// Mul returns the full distributive product e*other, as a new, un-merged
// sum of |e.terms|*|other.terms| exmonomials; call Normalize afterwards.
func (e Expolynomial) Mul(other Expolynomial) Expolynomial {
	out := make([]Exmonomial, 0, len(e.terms)*len(other.terms))
	for _, a := range e.terms {
		for _, b := range other.terms {
			out = append(out, a.Mul(b))
		}
	}

	return Expolynomial{terms: out}
}

// Normalize merges similar exmonomials (spec.md §3: same multiset of
// atomic terms after each is individually normalized), drops zero-
// coefficient summands, and orders the result by a canonical signature so
// that Equal reduces to a structural comparison.
func (e Expolynomial) Normalize() (Expolynomial, error) {
	bySig := make(map[string]Exmonomial)
	order := make([]string, 0, len(e.terms))
	for _, m := range e.terms {
		nm, err := m.Normalize()
		if err != nil {
			return Expolynomial{}, fmt.Errorf("Expolynomial.Normalize: %w", err)
		}
		sig := nm.signature()
		if existing, ok := bySig[sig]; ok {
			sum, err := existing.C.Add(nm.C)
			if err != nil {
				return Expolynomial{}, fmt.Errorf("Expolynomial.Normalize: merge %q: %w", sig, err)
			}
			bySig[sig] = Exmonomial{C: sum, Terms: existing.Terms}

			continue
		}
		bySig[sig] = nm
		order = append(order, sig)
	}

	sort.Strings(order)
	out := make([]Exmonomial, 0, len(order))
	for _, sig := range order {
		m := bySig[sig]
		if m.C.IsZero() {
			continue
		}
		out = append(out, m)
	}

	return Expolynomial{terms: out}, nil
}

// Equal reports value equality: e and other normalize to the same
// (order-independent) set of exmonomials. This replaces the source
// pattern of string-comparing unnormalized forms (spec.md §9) with a
// true canonical-form comparison.
func (e Expolynomial) Equal(other Expolynomial) (bool, error) {
	ne, err := e.Normalize()
	if err != nil {
		return false, err
	}
	no, err := other.Normalize()
	if err != nil {
		return false, err
	}
	if len(ne.terms) != len(no.terms) {
		return false, nil
	}
	for i := range ne.terms {
		if ne.terms[i].C.Cmp(no.terms[i].C) != 0 {
			return false, nil
		}
		if ne.terms[i].signature() != no.terms[i].signature() {
			return false, nil
		}
	}

	return true, nil
}

// EvaluateTotal returns the numeric value of e when every free variable
// is bound. Returns ErrUnboundVariable if some free variable is missing.
func (e Expolynomial) EvaluateTotal(bindings map[variable.Variable]decimal.ExtendedDecimal) (decimal.ExtendedDecimal, error) {
	total := decimal.Zero
	for _, m := range e.terms {
		v, err := m.Evaluate(bindings)
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("Expolynomial.EvaluateTotal: %w", err)
		}
		total, err = total.Add(v)
		if err != nil {
			return decimal.ExtendedDecimal{}, fmt.Errorf("Expolynomial.EvaluateTotal: %w", err)
		}
	}

	return total, nil
}

// Evaluate performs a (possibly partial) binding of free variables to
// concrete values, returning the resulting Expolynomial. Variables not
// present in bindings are left free.
func (e Expolynomial) Evaluate(bindings map[variable.Variable]decimal.ExtendedDecimal) (Expolynomial, error) {
	result := e
	for _, v := range e.FreeVariables().Slice() {
		val, ok := bindings[v]
		if !ok {
			continue
		}
		var err error
		result, err = result.substituteGeneral(v, affineTerm{}, affineTerm{isVar: false, constant: val})
		if err != nil {
			return Expolynomial{}, fmt.Errorf("Expolynomial.Evaluate(%s): %w", v, err)
		}
	}

	return result.Normalize()
}

// Substitute renames every occurrence of v to v2 (pure rename, v ↦ v2; no
// expansion is needed since exponents/rates are carried over unchanged).
func (e Expolynomial) Substitute(v, v2 variable.Variable) Expolynomial {
	out := make([]Exmonomial, len(e.terms))
	for i, m := range e.terms {
		out[i] = m.Substitute(v, v2)
	}

	return Expolynomial{terms: out}
}

// SubstituteConst implements spec.md §4.1's substitute(v, v′, c): v ↦ v′+c.
func (e Expolynomial) SubstituteConst(v, v2 variable.Variable, c decimal.ExtendedDecimal) (Expolynomial, error) {
	return e.substituteGeneral(v, affineTerm{isVar: true, v: v2, multiplier: decimal.One}, affineTerm{isVar: false, constant: c})
}

// ConstantShift substitutes v ↦ v+c. Used by gen.Piece.ConstantShift,
// which density.StateDensity's ConstantShiftAll calls when elapsing time.
func (e Expolynomial) ConstantShift(v variable.Variable, c decimal.ExtendedDecimal) (Expolynomial, error) {
	return e.SubstituteConst(v, v, c)
}

// Shift implements spec.md §4.1's shift(v, v′): v ↦ v + sign·v′. sign must
// be +1 or -1; GEN piece's shiftAndProject uses sign=-1 to express
// "every other variable elapses relative to the fired timer" (u ↦ u−v).
func (e Expolynomial) Shift(v, v2 variable.Variable, sign int) (Expolynomial, error) {
	if sign != 1 && sign != -1 {
		return Expolynomial{}, fmt.Errorf("Expolynomial.Shift(%s,%s,%d): sign must be +-1", v, v2, sign)
	}
	mult := decimal.NewFromInt(int64(sign))

	return e.substituteGeneral(v, affineTerm{isVar: true, v: v, multiplier: decimal.One}, affineTerm{isVar: true, v: v2, multiplier: mult})
}

// affineTerm is one additive component of an affine replacement v ↦ A+B,
// where each component is either m·w for a Variable w, or a bare
// constant.
type affineTerm struct {
	isVar      bool
	v          variable.Variable
	multiplier decimal.ExtendedDecimal
	constant   decimal.ExtendedDecimal
}

// power returns exmonomial pieces equal to comp^k, k >= 0.
func power(comp affineTerm, k int) Exmonomial {
	if !comp.isVar {
		c := comp.constant
		result := decimal.One
		for i := 0; i < k; i++ {
			result = result.Mul(c)
		}

		return Exmonomial{C: result}
	}
	m := decimal.One
	for i := 0; i < k; i++ {
		m = m.Mul(comp.multiplier)
	}
	if k == 0 {
		return Exmonomial{C: decimal.One}
	}

	return Exmonomial{C: m, Terms: []AtomicTerm{{Kind: KindMonomial, Var: comp.v, Exponent: k}}}
}

// binomial returns C(k,j) as a finite ExtendedDecimal via Pascal-style
// accumulation (exact, integer-valued, no factorial overflow for the
// modest exponents this engine ever sees).
func binomial(k, j int) decimal.ExtendedDecimal {
	if j < 0 || j > k {
		return decimal.Zero
	}
	result := int64(1)
	for i := 0; i < j; i++ {
		result = result * int64(k-i) / int64(i+1)
	}

	return decimal.NewFromInt(result)
}

// substituteTermAffine replaces one occurrence of variable v (held by t)
// with compA+compB, returning the sum-of-products expansion as a list of
// Exmonomials (length 1 for exponentials, length up to k+1 for a degree-k
// monomial).
func substituteTermAffine(t AtomicTerm, compA, compB affineTerm) ([]Exmonomial, error) {
	switch t.Kind {
	case KindMonomial:
		k := t.Exponent
		pieces := make([]Exmonomial, 0, k+1)
		for j := 0; j <= k; j++ {
			coeff := binomial(k, j)
			a := power(compA, j)
			b := power(compB, k-j)
			m := Exmonomial{C: coeff.Mul(a.C).Mul(b.C), Terms: append(append([]AtomicTerm{}, a.Terms...), b.Terms...)}
			pieces = append(pieces, m)
		}

		return pieces, nil
	default: // KindExponential
		lambda := t.Rate
		terms := make([]AtomicTerm, 0, 2)
		coeff := decimal.One
		if compA.isVar {
			terms = append(terms, Exponential(compA.v, lambda.Mul(compA.multiplier)))
		}
		if compB.isVar {
			terms = append(terms, Exponential(compB.v, lambda.Mul(compB.multiplier)))
		} else if !compB.constant.IsZero() {
			coeff = expApprox(lambda, compB.constant)
		}

		return []Exmonomial{{C: coeff, Terms: terms}}, nil
	}
}

// substituteGeneral replaces every occurrence of v across e with
// compA+compB, distributing sums and products as needed, and returns the
// (un-normalized) result.
func (e Expolynomial) substituteGeneral(v variable.Variable, compA, compB affineTerm) (Expolynomial, error) {
	var outTerms []Exmonomial
	for _, m := range e.terms {
		nm, err := m.Normalize()
		if err != nil {
			return Expolynomial{}, fmt.Errorf("substituteGeneral: %w", err)
		}
		acc := []Exmonomial{{C: nm.C}}
		for _, t := range nm.Terms {
			if t.Var != v {
				for i := range acc {
					acc[i] = acc[i].Mul(Exmonomial{Terms: []AtomicTerm{t}, C: decimal.One})
				}

				continue
			}
			pieces, err := substituteTermAffine(t, compA, compB)
			if err != nil {
				return Expolynomial{}, fmt.Errorf("substituteGeneral(%s): %w", v, err)
			}
			next := make([]Exmonomial, 0, len(acc)*len(pieces))
			for _, a := range acc {
				for _, p := range pieces {
					next = append(next, a.Mul(p))
				}
			}
			acc = next
		}
		outTerms = append(outTerms, acc...)
	}

	return Expolynomial{terms: outTerms}, nil
}

// Integrate returns the indefinite antiderivative of e with respect to v,
// using ∫vᵏexp(-λv)dv = -exp(-λv)·Σⱼ₌₀ᵏ k!/(λ^(j+1)(k-j)!)·v^(k-j) for λ≠0,
// and the ordinary power rule v^(k+1)/(k+1) for λ=0 (spec.md §4.1). Atomic
// terms in other variables pass through as multiplicative constants.
func (e Expolynomial) Integrate(v variable.Variable) (Expolynomial, error) {
	var out []Exmonomial
	for _, m := range e.terms {
		nm, err := m.Normalize()
		if err != nil {
			return Expolynomial{}, fmt.Errorf("Expolynomial.Integrate: %w", err)
		}
		k, lambda, others := splitVariableGroup(nm, v)
		antideriv, err := integrateTerm(nm.C, v, k, lambda)
		if err != nil {
			return Expolynomial{}, fmt.Errorf("Expolynomial.Integrate(%s): %w", v, err)
		}
		for i := range antideriv {
			antideriv[i].Terms = append(antideriv[i].Terms, others...)
		}
		out = append(out, antideriv...)
	}

	return Expolynomial{terms: out}, nil
}

// splitVariableGroup gathers the monomial exponent k and exponential rate
// lambda that variable v contributes to m (a normalized exmonomial carries
// at most one AtomicTerm of each Kind per variable), plus the remaining
// terms that do not involve v. Either component may be absent (k=0,
// lambda=Zero are the absent defaults).
func splitVariableGroup(m Exmonomial, v variable.Variable) (k int, lambda decimal.ExtendedDecimal, others []AtomicTerm) {
	lambda = decimal.Zero
	others = make([]AtomicTerm, 0, len(m.Terms))
	for _, t := range m.Terms {
		switch {
		case t.Var == v && t.Kind == KindMonomial:
			k = t.Exponent
		case t.Var == v && t.Kind == KindExponential:
			lambda = t.Rate
		default:
			others = append(others, t)
		}
	}

	return k, lambda, others
}

// integrateTerm returns ∫c·v^k·exp(-λv) dv as a list of exmonomials in v
// alone (caller reattaches the other-variable factors).
func integrateTerm(c decimal.ExtendedDecimal, v variable.Variable, k int, lambda decimal.ExtendedDecimal) ([]Exmonomial, error) {
	if lambda.IsZero() {
		// Plain power rule: ∫v^k dv = v^(k+1)/(k+1).
		coeff, err := c.Div(decimal.NewFromInt(int64(k + 1)))
		if err != nil {
			return nil, fmt.Errorf("integrateTerm: power rule: %w", err)
		}

		return []Exmonomial{{C: coeff, Terms: []AtomicTerm{{Kind: KindMonomial, Var: v, Exponent: k + 1}}}}, nil
	}

	// ∫v^k·exp(-λv)dv = -exp(-λv)·Σ_{j=0}^{k} k!/(λ^{j+1}(k-j)!)·v^{k-j}
	out := make([]Exmonomial, 0, k+1)
	factK := factorial(k)
	for j := 0; j <= k; j++ {
		lambdaPow := decimal.One
		for i := 0; i <= j; i++ {
			lambdaPow = lambdaPow.Mul(lambda)
		}
		coeff, err := decimal.NewFromInt(factK / factorial(k-j)).Div(lambdaPow)
		if err != nil {
			return nil, fmt.Errorf("integrateTerm: exp case j=%d: %w", j, err)
		}
		coeff = c.Neg().Mul(coeff)
		terms := []AtomicTerm{{Kind: KindExponential, Var: v, Rate: lambda}}
		if k-j > 0 {
			terms = append(terms, AtomicTerm{Kind: KindMonomial, Var: v, Exponent: k - j})
		}
		out = append(out, Exmonomial{C: coeff, Terms: terms})
	}

	return out, nil
}

func factorial(n int) int64 {
	r := int64(1)
	for i := 2; i <= n; i++ {
		r *= int64(i)
	}

	return r
}

// IntegrateDefinite integrates e with respect to v between two affine
// bounds, each expressed as (variable-or-none, constant offset), and
// returns antiderivative(upper) - antiderivative(lower). Either bound may
// reference another variable (e.g. a zone's maxVar/minVar), matching
// spec.md §4.1's "bounds which may themselves be affine expressions in
// another variable".
func (e Expolynomial) IntegrateDefinite(v variable.Variable, lowerVar *variable.Variable, lowerConst decimal.ExtendedDecimal, upperVar *variable.Variable, upperConst decimal.ExtendedDecimal) (Expolynomial, error) {
	antideriv, err := e.Integrate(v)
	if err != nil {
		return Expolynomial{}, err
	}
	upper, err := evalBound(antideriv, v, upperVar, upperConst)
	if err != nil {
		return Expolynomial{}, fmt.Errorf("IntegrateDefinite: upper bound: %w", err)
	}
	lower, err := evalBound(antideriv, v, lowerVar, lowerConst)
	if err != nil {
		return Expolynomial{}, fmt.Errorf("IntegrateDefinite: lower bound: %w", err)
	}

	return upper.Sub(lower).Normalize()
}

func evalBound(e Expolynomial, v variable.Variable, boundVar *variable.Variable, boundConst decimal.ExtendedDecimal) (Expolynomial, error) {
	// An infinite, variable-free bound needs the combined limit of a
	// term's monomial and exponential factors on v taken together (a
	// decaying exponential dominates any polynomial degree); evaluating
	// each factor separately and multiplying would spuriously produce
	// Inf * 0 instead of the true limit 0. Finite or variable bounds
	// never hit this case: plain finite arithmetic composes correctly
	// regardless of per-factor evaluation order.
	if boundVar == nil && !boundConst.IsFinite() {
		return evalLimitAtInfinity(e, v, boundConst.IsPosInf())
	}
	compA := affineTerm{}
	if boundVar != nil {
		compA = affineTerm{isVar: true, v: *boundVar, multiplier: decimal.One}
	}
	compB := affineTerm{isVar: false, constant: boundConst}

	return e.substituteGeneral(v, compA, compB)
}

// evalLimitAtInfinity evaluates e's limit as v -> +Inf (toPosInf=true) or
// v -> -Inf, term by term. A term whose exponential factor on v decays in
// that direction vanishes outright, regardless of its polynomial degree;
// a term with no decaying exponential diverges, carrying through as an
// infinite coefficient (densities the engine builds never reach this
// branch in practice, since every unbounded support pairs its polynomial
// with a decaying rate, but the case is still handled for robustness).
func evalLimitAtInfinity(e Expolynomial, v variable.Variable, toPosInf bool) (Expolynomial, error) {
	var out []Exmonomial
	for _, m := range e.terms {
		nm, err := m.Normalize()
		if err != nil {
			return Expolynomial{}, fmt.Errorf("evalLimitAtInfinity: %w", err)
		}
		k, lambda, others := splitVariableGroup(nm, v)
		rate := lambda.Float64()
		decaying := (toPosInf && rate > 0) || (!toPosInf && rate < 0)
		if decaying {
			continue // exponential decay dominates any polynomial degree: term -> 0
		}
		if k == 0 {
			out = append(out, Exmonomial{C: nm.C, Terms: others})

			continue
		}
		// No decaying exponential to tame the polynomial: it diverges.
		// Sign follows v^k's own sign at this limit, combined with nm.C's.
		oddPower := k%2 == 1
		negativeDirection := oddPower && !toPosInf
		infinite := decimal.PosInf
		if negativeDirection {
			infinite = decimal.NegInf
		}
		if nm.C.Cmp(decimal.Zero) < 0 {
			infinite = infinite.Neg()
		}
		out = append(out, Exmonomial{C: infinite, Terms: others})
	}

	return Expolynomial{terms: out}, nil
}

// String renders e for diagnostics, joining normalized terms with " + ".
func (e Expolynomial) String() string {
	n, err := e.Normalize()
	if err != nil {
		return fmt.Sprintf("<invalid expolynomial: %v>", err)
	}
	if len(n.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(n.terms))
	for i, m := range n.terms {
		parts[i] = m.String()
	}

	return strings.Join(parts, " + ")
}
