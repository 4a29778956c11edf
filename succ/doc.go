// Package succ applies one event firing to a (marking, StateDensity)
// state, producing a successor state plus the scalar probability the
// event fires next (spec.md §4.7). It wires the marking model and the
// per-transition pdf/weight/rate/priority features the density package
// itself stays agnostic of.
//
// Complexity: each successor call is O(k) density operations for k
// timers sharing the firing transition's marking, dominated by the
// same zone/expolynomial costs density already documents.
package succ
