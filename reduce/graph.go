package reduce

import (
	"fmt"

	"github.com/katalvlaran/stochtime/decimal"
)

// Graph is the immediate-subgraph input to Absorb: a fixed list of
// vanishing (immediate) node ids and tangible node ids, plus the
// transition-weight matrices between them. Q[i][j] is the probability
// immediate node i fires directly into immediate node j; R[i][k] is the
// probability immediate node i fires directly into tangible node k.
type Graph struct {
	Immediate []string
	Tangible  []string

	immediateIndex map[string]int
	tangibleIndex  map[string]int

	q [][]decimal.ExtendedDecimal
	r [][]decimal.ExtendedDecimal
}

// NewGraph builds an empty transition matrix over the given immediate
// and tangible node ids (all weights start at zero).
func NewGraph(immediate, tangible []string) *Graph {
	g := &Graph{
		Immediate:      append([]string{}, immediate...),
		Tangible:       append([]string{}, tangible...),
		immediateIndex: make(map[string]int, len(immediate)),
		tangibleIndex:  make(map[string]int, len(tangible)),
	}
	for i, id := range g.Immediate {
		g.immediateIndex[id] = i
	}
	for k, id := range g.Tangible {
		g.tangibleIndex[id] = k
	}
	n, m := len(g.Immediate), len(g.Tangible)
	g.q = make([][]decimal.ExtendedDecimal, n)
	g.r = make([][]decimal.ExtendedDecimal, n)
	for i := 0; i < n; i++ {
		g.q[i] = make([]decimal.ExtendedDecimal, n)
		g.r[i] = make([]decimal.ExtendedDecimal, m)
		for j := 0; j < n; j++ {
			g.q[i][j] = decimal.Zero
		}
		for k := 0; k < m; k++ {
			g.r[i][k] = decimal.Zero
		}
	}

	return g
}

// SetImmediateWeight records the probability mass from immediate node
// "from" directly into immediate node "to".
func (g *Graph) SetImmediateWeight(from, to string, w decimal.ExtendedDecimal) error {
	i, ok := g.immediateIndex[from]
	if !ok {
		return fmt.Errorf("reduce.SetImmediateWeight(%s): %w", from, ErrUnknownNode)
	}
	j, ok := g.immediateIndex[to]
	if !ok {
		return fmt.Errorf("reduce.SetImmediateWeight(%s): %w", to, ErrUnknownNode)
	}
	if decimal.Zero.Cmp(w) > 0 {
		return fmt.Errorf("reduce.SetImmediateWeight(%s,%s): %w", from, to, ErrNegativeWeight)
	}
	g.q[i][j] = w

	return nil
}

// SetTangibleWeight records the probability mass from immediate node
// "from" directly into tangible node "to".
func (g *Graph) SetTangibleWeight(from, to string, w decimal.ExtendedDecimal) error {
	i, ok := g.immediateIndex[from]
	if !ok {
		return fmt.Errorf("reduce.SetTangibleWeight(%s): %w", from, ErrUnknownNode)
	}
	k, ok := g.tangibleIndex[to]
	if !ok {
		return fmt.Errorf("reduce.SetTangibleWeight(%s): %w", to, ErrUnknownNode)
	}
	if decimal.Zero.Cmp(w) > 0 {
		return fmt.Errorf("reduce.SetTangibleWeight(%s,%s): %w", from, to, ErrNegativeWeight)
	}
	g.r[i][k] = w

	return nil
}
