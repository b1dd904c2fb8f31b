// Package harness runs workflow scenarios: a definition, a subject with an
// optional starting marking, and a sequence of can/apply/enabled steps with
// expectations.
//
// Each scenario runs against a fresh in-memory SQLite store with an event
// Recorder attached, so the trace it produces is deterministic and can be
// compared against golden files:
//
//	go test ./internal/harness -update
//
// regenerates testdata/golden.
package harness
