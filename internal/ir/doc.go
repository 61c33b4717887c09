// Package ir provides the canonical data types of a fuzzy inference system.
//
// This package contains type definitions, canonical JSON and content hashing
// only. All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Variables, fuzzy sets and rules keep declaration order (slices, not maps)
//   - Antecedent terms are a tagged variant (TermKind), never raw strings
//   - All JSON tags use snake_case
//   - Canonical JSON rejects NaN and ±Inf so hashes are always defined
package ir
