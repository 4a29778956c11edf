package reduce

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// errSingular is the hand-rolled solver's sentinel, mirroring the
// teacher's matrix.ErrSingular used by Inverse/LU on a zero pivot.
var errSingular = errors.New("reduce: singular matrix")

// solveGaussJordan solves a·x = b for x via Doolittle LU decomposition
// without pivoting, then per-column forward/backward substitution —
// the same fixed-loop-order, no-pivoting shape as the teacher's
// matrix.Inverse, adapted here to solve directly against b's columns
// instead of building a full inverse first.
func solveGaussJordan(a, b [][]float64) ([][]float64, error) {
	n := len(a)
	cols := len(b[0])

	lower := make([][]float64, n)
	upper := make([][]float64, n)
	for i := range lower {
		lower[i] = make([]float64, n)
		upper[i] = make([]float64, n)
	}
	// Doolittle decomposition: unit diagonal on lower, fixed i→{j≥i}
	// for upper then {j>i}→i for lower (teacher's matrix.LU order).
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sum := 0.0
			for k := 0; k < i; k++ {
				sum += lower[i][k] * upper[k][j]
			}
			upper[i][j] = a[i][j] - sum
		}
		lower[i][i] = 1
		for j := i + 1; j < n; j++ {
			sum := 0.0
			for k := 0; k < i; k++ {
				sum += lower[j][k] * upper[k][i]
			}
			if upper[i][i] == 0 {
				return nil, fmt.Errorf("reduce.solveGaussJordan: %w", errSingular)
			}
			lower[j][i] = (a[j][i] - sum) / upper[i][i]
		}
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	y := make([]float64, n)
	x := make([]float64, n)
	for col := 0; col < cols; col++ {
		// Forward substitution: L*y = b[:,col]
		for i := 0; i < n; i++ {
			sum := 0.0
			for k := 0; k < i; k++ {
				sum += lower[i][k] * y[k]
			}
			y[i] = b[i][col] - sum
		}
		// Backward substitution: U*x = y
		for i := n - 1; i >= 0; i-- {
			sum := 0.0
			for k := i + 1; k < n; k++ {
				sum += upper[i][k] * x[k]
			}
			if upper[i][i] == 0 {
				return nil, fmt.Errorf("reduce.solveGaussJordan: %w", errSingular)
			}
			x[i] = (y[i] - sum) / upper[i][i]
		}
		for i := 0; i < n; i++ {
			out[i][col] = x[i]
		}
	}

	return out, nil
}

// solveGonum solves a·x = b via gonum's dense LU-backed Solve, the
// general-purpose path for immediate subgraphs too large for the
// teacher-style hand-rolled elimination to be worth preferring.
func solveGonum(a, b [][]float64) ([][]float64, error) {
	n := len(a)
	cols := len(b[0])

	aFlat := make([]float64, 0, n*n)
	for _, row := range a {
		aFlat = append(aFlat, row...)
	}
	bFlat := make([]float64, 0, n*cols)
	for _, row := range b {
		bFlat = append(bFlat, row...)
	}

	aDense := mat.NewDense(n, n, aFlat)
	bDense := mat.NewDense(n, cols, bFlat)

	var xDense mat.Dense
	if err := xDense.Solve(aDense, bDense); err != nil {
		return nil, fmt.Errorf("reduce.solveGonum: %w", errSingular)
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, cols)
		for k := 0; k < cols; k++ {
			out[i][k] = xDense.At(i, k)
		}
	}

	return out, nil
}
