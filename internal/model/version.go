package model

// Version constants for the record schema and engine.
const (
	// SchemaVersion is the schema version stamped on newly written records.
	SchemaVersion = 3

	// EngineVersion is the aionic engine version.
	EngineVersion = "0.1.0"
)
