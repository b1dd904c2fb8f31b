// Package store provides SQLite-backed durable storage for workflow markings.
//
// Two tables:
//   - markings: the current marking of every (workflow, subject) pair
//   - marking_log: an append-only history of every marking written
//
// A MarkingStore bound to one workflow implements engine.MarkingStore, so a
// Workflow can persist subjects that are nothing more than an identifier.
//
// # Patterns
//
// Logical ordering:
//   - marking_log is ordered by seq INTEGER, NEVER by wall-clock timestamps
//   - history queries use ORDER BY seq ASC
//
// Canonical encoding:
//   - markings are stored as canonical JSON ({"place": count}, sorted keys)
//   - every log row carries the marking hash (ir.MarkingHash) and the
//     definition hash the marking was written under
//
// Single write per apply:
//   - SetMarking upserts the current marking and appends the log row in one
//     transaction, so both tables always agree
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
