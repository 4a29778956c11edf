// Package gen implements the GEN piece — a single (zone, density) pair
// giving a joint probability density over one DBM support — and
// PartitionedGEN, an ordered list of mutually disjoint GEN pieces that
// together form one piecewise PDF.
//
// Grounded on the teacher's layered-value-type style (matrix.Dense
// wrapping a flat buffer, zero shared mutable state): a Piece is cheap
// to copy by convention (its Zone and Density fields are themselves
// value-like), and every operation that "mutates" a Piece or a
// PartitionedGEN returns a new one.
package gen
