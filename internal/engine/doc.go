// Package engine evaluates fuzzy inference systems.
//
// A System holds linguistic variables, their fuzzy sets and an ordered list
// of if-then rules. Run evaluates it against crisp inputs in three stages:
//
//  1. Fuzzify: every set of every variable with a crisp value gets a
//     membership degree (triangular or trapezoidal).
//  2. Infer: each rule antecedent is reduced to a strength by a not-pass,
//     an and-pass (min) and an or-pass (max), in that order.
//  3. Defuzzify: firings are aggregated by consequent and combined into a
//     centroid-weighted average and the nearest output label.
//
// EVALUATION ORDER:
//
// Reduction operates on the antecedent as a flat slice. Each pass reads
// operands as they were before the pass started and removes consumed
// operands afterwards, highest index first. A chain of three or more
// operands joined by the same operator therefore yields the pairwise result
// of its first pair, not the n-ary min or max.
//
// Defuzzification divides by the sum of raw rule strengths while the
// numerator uses the per-consequent maximum. Both behaviours are pinned by
// tests; changing either changes every numeric output.
//
// CONCURRENCY:
//
// A System is safe for concurrent use. Runs share a read lock; Add* calls
// take the write lock. Runs have no side effects beyond debug logging.
package engine
