// Package graph is the root of the stochtime module, a symbolic
// state-density engine for stochastic timed systems: it tracks the joint
// density of enabled timers over piecewise DBM-zone supports. The root
// package holds no code; the engine lives in its subpackages:
//
//	decimal/  — ExtendedDecimal: arbitrary-precision decimals with ±Inf
//	variable/ — timer identifiers and the ground variable t★
//	expo/     — expolynomial algebra and parser
//	zone/     — DBM zones and pivot subzone decomposition
//	gen/      — (zone, density) pieces and partitioned densities
//	density/  — StateDensity: deterministic/synchronized/continuous timers
//	succ/     — successor evaluator for transition firings
//	reduce/   — immediate-subgraph absorption and time-lock detection
//	core/     — Graph, Vertex and Edge types
//	dfs/      — depth-first traversal, cycle detection, topological sort
package graph
