// Package density implements StateDensity, the top-level joint PDF
// manager: it partitions the enabled timers of a stochastic timed
// system into deterministic, synchronized (a fixed delay relative to
// another timer), and continuous variables, and composes gen.Piece /
// gen.PartitionedGEN operations to implement firing (shift-and-project),
// conditioning, marginalization, and mean computation while preserving
// the cross-partition invariants between the three sets.
//
// Grounded on the teacher's "manager wraps a lower layer, exposes a
// small stable API, functional options for construction" shape (cf.
// builder.Builder wrapping core.Graph).
package density
