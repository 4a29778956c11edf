// Package zone implements Difference-Bound Matrix (DBM) zones: convex
// polyhedra described by upper bounds cᵢⱼ on every pairwise difference
// xᵢ−xⱼ, including differences against the reserved ground variable t★.
//
// The normalization algorithm (all-pairs tightening) is Floyd-Warshall
// over ExtendedDecimal bounds, grounded directly on the teacher's
// matrix.FloydWarshall (github.com/katalvlaran/lvlath/matrix):  same fixed
// k->i->j loop order for deterministic accumulation, same "+Inf means no
// tighter bound" convention, generalized from float64 to ExtendedDecimal
// and from a dense adjacency matrix to a DBM's variable-indexed bound
// table. Subzone decomposition against a pivot variable is new to this
// package (spec.md §4.2) and has no direct teacher analogue; it follows
// the teacher's "value semantics, explicit clone" discipline throughout.
package zone
