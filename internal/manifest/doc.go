// Package manifest implements the expectation reconciliation engine.
//
// An expectation table stores, per test file, the statuses a harness should
// expect for each test and subtest, optionally conditioned on properties of
// the environment the test ran under (OS, processor, debug build, ...).
// This package owns the in-memory model of one table and the algorithm that
// folds newly observed results into it.
//
// MODEL:
//
// ExpectedManifest is the file root. It owns TestNodes keyed by test
// identity (URL, or URL plus comparison kind and reference URL for reftest
// comparisons). Each TestNode owns its SubtestNodes. Stored expectations
// live on the underlying node tree as the "expected" attribute: an ordered
// list of conditional entries evaluated first-match-wins, where an entry
// with no condition is the default fallback.
//
// RECONCILIATION FLOW:
//
//  1. RecordResult feeds one observed (run-info, status) pair into a node.
//     Recording is append-only: it buckets the result under the first stored
//     condition that matches, or into the pending pool, and never rewrites
//     stored entries.
//  2. Coalesce rewrites the node's stored entries from the buckets:
//     untested conditions survive verbatim, agreeing evidence updates in
//     place, conflicting evidence is re-partitioned, and redundant entries
//     (equal to the applicable default) are dropped. Pending evidence that
//     diverges across environments is handed to the condition synthesizer,
//     which picks discriminating properties in the fixed priority order
//     debug, os, version, processor, bits.
//
// The engine is a deterministic, single-threaded, pure in-memory transform.
// It performs no I/O; parsing and serialization of table text live in the
// syntax package, path derivation and orchestration in metadata.
package manifest
