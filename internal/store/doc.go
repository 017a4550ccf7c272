// Package store provides SQLite-backed durable storage for the evaluation
// audit log.
//
// Each /suggest call can be recorded as an Evaluation: the two inputs, the
// hash of the rule library that evaluated them, the resulting arrows and
// their hash, and the parse error if the inputs were rejected. The log is
// append-only and is what `arrowpush replay` re-evaluates to check that the
// engine is still deterministic.
//
// # Ordering
//
//   - Records are stamped with seq from a logical Clock, never wall time
//   - Reads use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Identity
//
//   - id = ir.EvaluationID(reactant, reagent, library_hash, seq)
//   - Writes use ON CONFLICT(id) DO NOTHING, so re-recording is idempotent
//   - arrows are stored as RFC 8785 canonical JSON
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
