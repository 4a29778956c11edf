package expo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
)

// Exmonomial is c · Πᵢ atomicᵢ: a single product term of an Expolynomial.
// Terms is an ordered multiset; normalization merges same-shape terms and
// is idempotent.
type Exmonomial struct {
	C     decimal.ExtendedDecimal
	Terms []AtomicTerm
}

// NewExmonomial builds an Exmonomial from a coefficient and terms, in the
// given order (callers needing a normalized form should call Normalize).
func NewExmonomial(c decimal.ExtendedDecimal, terms ...AtomicTerm) Exmonomial {
	cp := make([]AtomicTerm, len(terms))
	copy(cp, terms)

	return Exmonomial{C: c, Terms: cp}
}

// Mul returns the pointwise product of m and other: coefficients multiply,
// term lists concatenate. The result is not normalized.
func (m Exmonomial) Mul(other Exmonomial) Exmonomial {
	terms := make([]AtomicTerm, 0, len(m.Terms)+len(other.Terms))
	terms = append(terms, m.Terms...)
	terms = append(terms, other.Terms...)

	return Exmonomial{C: m.C.Mul(other.C), Terms: terms}
}

// signature returns a canonical, order-independent string key for the
// term multiset after Normalize has merged same-shape terms -- used both
// to detect "similar" exmonomials (spec.md §3) and as a map key for
// Expolynomial normalization.
func (m Exmonomial) signature() string {
	parts := make([]string, 0, len(m.Terms))
	for _, t := range m.Terms {
		if t.IsIdentity() {
			continue
		}
		parts = append(parts, t.String())
	}
	sort.Strings(parts)

	return strings.Join(parts, "|")
}

// Normalize merges terms that share the same Var and Kind (summing
// exponents for monomials, rates for exponentials), drops identity
// factors, and returns the result sorted by a canonical key so that two
// exmonomials with the same mathematical content always normalize to an
// identical Terms slice. The receiver is not mutated.
func (m Exmonomial) Normalize() (Exmonomial, error) {
	byVarKind := make(map[string]AtomicTerm)
	order := make([]string, 0, len(m.Terms))
	for _, t := range m.Terms {
		key := fmt.Sprintf("%d:%s", t.Kind, t.Var)
		if existing, ok := byVarKind[key]; ok {
			combined, err := existing.Combine(t)
			if err != nil {
				return Exmonomial{}, fmt.Errorf("Exmonomial.Normalize: %w", err)
			}
			byVarKind[key] = combined

			continue
		}
		byVarKind[key] = t
		order = append(order, key)
	}

	out := make([]AtomicTerm, 0, len(order))
	for _, key := range order {
		t := byVarKind[key]
		if t.IsIdentity() {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })

	return Exmonomial{C: m.C, Terms: out}, nil
}

// Similar reports whether m and other have the same multiset of atomic
// terms once both are normalized (spec.md §3's "similar" relation, the
// precondition for adding coefficients).
func (m Exmonomial) Similar(other Exmonomial) (bool, error) {
	nm, err := m.Normalize()
	if err != nil {
		return false, err
	}
	no, err := other.Normalize()
	if err != nil {
		return false, err
	}

	return nm.signature() == no.signature(), nil
}

// Evaluate returns the numeric value of m at the given total binding
// (every Var in m.Terms must be present in bindings).
func (m Exmonomial) Evaluate(bindings map[variable.Variable]decimal.ExtendedDecimal) (decimal.ExtendedDecimal, error) {
	result := m.C
	for _, t := range m.Terms {
		x, ok := bindings[t.Var]
		if !ok {
			return decimal.ExtendedDecimal{}, fmt.Errorf("Exmonomial.Evaluate(%s): %w", t.Var, ErrUnboundVariable)
		}
		result = result.Mul(t.Evaluate(x))
	}

	return result, nil
}

// Substitute renames every occurrence of v to v2 across m.Terms. If v2
// already occurs, the resulting term list is left un-normalized; call
// Normalize to merge.
func (m Exmonomial) Substitute(v, v2 variable.Variable) Exmonomial {
	terms := make([]AtomicTerm, len(m.Terms))
	for i, t := range m.Terms {
		if t.Var == v {
			t = t.Rename(v2)
		}
		terms[i] = t
	}

	return Exmonomial{C: m.C, Terms: terms}
}

// FreeVariables returns the distinct variables referenced by m's terms,
// in first-occurrence order.
func (m Exmonomial) FreeVariables() *variable.Set {
	s := variable.NewSet()
	for _, t := range m.Terms {
		s.Add(t.Var)
	}

	return s
}

// String renders m for diagnostics.
func (m Exmonomial) String() string {
	if len(m.Terms) == 0 {
		return m.C.String()
	}
	parts := make([]string, len(m.Terms))
	for i, t := range m.Terms {
		parts[i] = t.String()
	}

	return fmt.Sprintf("%s*%s", m.C, strings.Join(parts, "*"))
}
