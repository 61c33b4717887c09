// Package store provides the SQLite-backed run log.
//
// The log is append-only and holds two tables:
//   - systems: definitions keyed by content hash (canonical JSON)
//   - runs: one row per evaluation, with its inputs and either the output
//     or the error code and message
//
// # Ordering
//
// Runs carry seq, a logical clock assigned from MAX(seq)+1 inside the
// insert transaction. All listings use ORDER BY seq ASC, id COLLATE BINARY
// ASC; timestamps are never stored, so replaying a log is deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// System hashes and canonical JSON come from internal/ir.
package store
