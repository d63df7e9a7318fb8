// Package store provides storage for journal entries and the single-slot
// draft buffer.
//
// Three EntryStore implementations share one contract:
//   - Store: SQLite-backed durable storage
//   - Memory: process-lifetime storage for sessions without storage consent
//   - Resilient: wraps a durable store and degrades to memory when writes fail
//
// # Record Layout
//
// Each entry is one row keyed by id. The row holds the indexed columns used
// for listing (seq, created_ns, deleted) next to a JSON payload tagged with
// its schema version. Payloads are upgraded on read, so records written by
// older versions never need a rewrite. A payload missing id or created_at is
// malformed: Get reports ErrMalformedRecord and listings skip it.
//
// # Ordering
//
// ListActive orders by created_at descending, then by insertion seq
// descending, so entries created within the same instant still list
// deterministically.
//
// # Tombstones
//
// Entries are never removed by SoftDelete: it sets deleted and deleted_at.
// Tombstoned entries are excluded from ListActive but remain readable with
// Get. ClearAll is the only operation that removes rows.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single connection: SQLite has one writer; writes are serialized
package store
