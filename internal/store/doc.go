// Package store provides a SQLite-backed log of finished rolls.
//
// Every roll keeps the expression, its folded form, the canonical JSON of
// the result and every die the session was answered with, in the order the
// dice were rolled. The dice are enough to replay the roll and check that
// the same expression still produces the same result.
//
// # Ordering
//
// Rolls carry a logical sequence number assigned on write. Listing orders
// by seq, never by created_at, so clock changes cannot reorder the log.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Result hashes are computed by ir.ResultHash over RFC 8785 canonical JSON.
package store
