// Package store provides SQLite-backed run history for integration calls.
//
// Every recorded run holds the request (integrand, bounds, iterations, mode,
// workers), the plan tier it resolved to, the result as decimal text and
// the wall time it took.
//
// # Identity and ordering
//
//   - IDs are UUIDv7 strings (time-sortable), or whatever the configured
//     IDGenerator returns
//   - seq is a logical clock assigned by the store on write, monotonic per
//     database file
//   - All listings use ORDER BY seq ASC, id ASC COLLATE BINARY, so the same
//     database always reads back in the same order
//   - request is the fingerprint of the inputs that determine the value
//     (see package fingerprint); runs sharing it must share a value, and
//     Conflicts lists those that do not
//
// Values are stored as decimal TEXT, never REAL, so a result reads back with
// exactly the digits it was computed to.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
