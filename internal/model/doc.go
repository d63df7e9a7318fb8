// Package model defines the persisted journal types shared by every
// component of the session engine.
//
// An Entry is the durable unit written by the store. SessionMeta is the
// behavioural snapshot taken by session instrumentation at save time and
// embedded in the entry. Tone and Confidence are closed vocabularies; their
// zero values mean "not set" and are defaulted by the store.
//
// # Schema Versions
//
// Every persisted record carries a schema version (see SchemaVersion).
// Fields are only ever added, never renamed in place: readers upgrade older
// records on read rather than keeping parallel layouts.
//
//	1 - legacy browser records: body, deltaE, no session fields
//	2 - content, delta_e, confidence, capture_session_id
//	3 - session_meta snapshot
package model
