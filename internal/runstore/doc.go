// Package runstore provides SQLite-backed durable storage for observed
// harness runs.
//
// The store is an append-only journal:
//   - Runs: one row per harness execution, carrying its run-info
//   - Results: one row per observed test or subtest outcome
//
// All ordering uses seq INTEGER (a per-run logical clock), never
// timestamps, so a journaled run replays into the same report.Run it was
// imported from.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package runstore
