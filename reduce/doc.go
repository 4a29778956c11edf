// Package reduce collapses an all-immediate (vanishing) sub-graph
// feeding a set of tangible states into direct weighted edges, the
// "boundary to the numeric analyzer" of spec.md §6: a reduced graph
// where every surviving edge carries a rate or a plain absorption
// weight, ready for CTMC/uniformization consumption elsewhere.
//
// The absorption vector solves (I-Q)^-1 R, where Q is the immediate-to-
// immediate transition matrix and R is immediate-to-tangible. A matrix
// in whose immediate subset some recurrent class never escapes to a
// tangible state makes I-Q singular; that condition is reported as a
// time-lock error, consistent with spec.md §6's "a time-lock raises a
// hard error".
package reduce
