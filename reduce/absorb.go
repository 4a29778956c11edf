package reduce

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/stochtime/core"
	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/dfs"
)

// smallGaussJordanThreshold picks between the teacher-style hand-rolled
// solver and gonum's: below it, the O(n^3) Gauss-Jordan elimination the
// teacher's matrix package uses for Inverse is cheap enough and keeps
// this package's single common path dependency-free; above it, gonum's
// LU-based solve scales better.
const smallGaussJordanThreshold = 8

// Absorb solves (I-Q)x = R and returns, for every immediate node, its
// absorption probability onto each tangible node (spec.md §6). A
// singular I-Q (an immediate-only recurrent class with no escape to any
// tangible state) is reported as ErrTimeLock, with the offending cycle
// attached when dfs.DetectCycles finds one.
func Absorb(g *Graph) (map[string]map[string]decimal.ExtendedDecimal, error) {
	n := len(g.Immediate)
	m := len(g.Tangible)
	if n == 0 {
		return map[string]map[string]decimal.ExtendedDecimal{}, nil
	}

	iMinusQ := make([][]float64, n)
	r := make([][]float64, n)
	for i := 0; i < n; i++ {
		iMinusQ[i] = make([]float64, n)
		r[i] = make([]float64, m)
		for j := 0; j < n; j++ {
			v := g.q[i][j].Float64()
			if i == j {
				v = 1 - v
			} else {
				v = -v
			}
			iMinusQ[i][j] = v
		}
		for k := 0; k < m; k++ {
			r[i][k] = g.r[i][k].Float64()
		}
	}

	var x [][]float64
	var err error
	if n <= smallGaussJordanThreshold {
		x, err = solveGaussJordan(iMinusQ, r)
	} else {
		x, err = solveGonum(iMinusQ, r)
	}
	if err != nil {
		return nil, fmt.Errorf("reduce.Absorb: %w", withCycleDiagnostic(g, err))
	}

	out := make(map[string]map[string]decimal.ExtendedDecimal, n)
	for i, id := range g.Immediate {
		row := make(map[string]decimal.ExtendedDecimal, m)
		for k, tid := range g.Tangible {
			row[tid] = decimal.NewFromFloat(x[i][k])
		}
		out[id] = row
	}

	return out, nil
}

// withCycleDiagnostic attaches a shortest detected immediate-only cycle
// to a singular-matrix error, turning a bare
// "singular" report into a pointer at the unabsorbable cycle.
func withCycleDiagnostic(g *Graph, cause error) error {
	cycle, found := detectImmediateCycle(g)
	if !found {
		return fmt.Errorf("%w: %v", ErrTimeLock, cause)
	}

	return fmt.Errorf("%w: cycle %v", ErrTimeLock, cycle)
}

// detectImmediateCycle builds a directed graph over g's immediate nodes
// (an edge wherever Q carries positive weight) and runs cycle detection
// over it, returning a shortest of the cycles found.
func detectImmediateCycle(g *Graph) ([]string, bool) {
	graph := core.NewGraph(core.WithDirected(true))
	for i, from := range g.Immediate {
		for j, to := range g.Immediate {
			if decimal.Zero.Cmp(g.q[i][j]) < 0 {
				_, _ = graph.AddEdge(from, to, 0)
			}
		}
	}
	has, cycles, err := dfs.DetectCycles(graph)
	if err != nil || !has {
		return nil, false
	}
	sort.Slice(cycles, func(a, b int) bool { return len(cycles[a]) < len(cycles[b]) })

	return cycles[0], true
}
