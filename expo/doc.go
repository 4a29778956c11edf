// Package expo implements the expolynomial symbolic calculus: finite sums
// of terms c·Πxᵢ^kᵢ·Πexp(-λⱼxⱼ), with arbitrary-precision ExtendedDecimal
// coefficients and rates.
//
// The layering mirrors spec.md §4.1:
//
//	AtomicTerm   — a single monomial xᵏ or exponential exp(-λx).
//	Exmonomial   — c · Πᵢ atomicᵢ, a product of atomic terms scaled by c.
//	Expolynomial — Σⱼ exmonomialⱼ, the full symbolic value.
//
// Every type is a value type (copy-by-assignment is cheap and safe); no
// type shares mutable backing storage with another, mirroring the
// teacher's Dense matrix value semantics rather than the shared-mutable-
// zone pattern spec.md §9 flags as a source of aliasing bugs.
package expo
