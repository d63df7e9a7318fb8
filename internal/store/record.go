package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/aionic/internal/model"
)

// record is the persisted payload: the entry plus its schema version.
type record struct {
	SchemaVersion int `json:"schema_version"`
	model.Entry
}

// encodeRecord serializes e at the current schema version.
// HTML escaping is disabled so journal text is stored as written.
func encodeRecord(e model.Entry) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record{SchemaVersion: model.SchemaVersion, Entry: e}); err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(bytes.TrimSpace(buf.Bytes())), nil
}

// upgraders[v] moves a payload from schema version v to v+1.
var upgraders = map[int]func(fields map[string]json.RawMessage){
	1: upgradeV1,
	2: upgradeV2,
}

// upgradeV1 renames the legacy browser keys.
func upgradeV1(fields map[string]json.RawMessage) {
	rename(fields, "body", "content")
	rename(fields, "deltaE", "delta_e")
	rename(fields, "createdAt", "created_at")
	rename(fields, "updatedAt", "updated_at")
	rename(fields, "deletedAt", "deleted_at")
	rename(fields, "captureSessionId", "capture_session_id")
}

// upgradeV2 accepts the camelCase session snapshot some writers emitted.
func upgradeV2(fields map[string]json.RawMessage) {
	rename(fields, "sessionMeta", "session_meta")
}

// rename moves from to to unless to is already present.
func rename(fields map[string]json.RawMessage, from, to string) {
	v, ok := fields[from]
	if !ok {
		return
	}
	delete(fields, from)
	if _, exists := fields[to]; !exists {
		fields[to] = v
	}
}

// decodeRecord parses payload written at version, upgrading it to the
// current schema. A version of 0 reads the version from the payload and
// treats untagged payloads as version 1.
func decodeRecord(version int, payload []byte) (model.Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return model.Entry{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if fields == nil {
		return model.Entry{}, fmt.Errorf("%w: payload is not an object", ErrMalformedRecord)
	}

	if version <= 0 {
		version = 1
		if raw, ok := fields["schema_version"]; ok {
			if err := json.Unmarshal(raw, &version); err != nil {
				return model.Entry{}, fmt.Errorf("%w: schema_version: %v", ErrMalformedRecord, err)
			}
		}
	}
	if version > model.SchemaVersion {
		return model.Entry{}, fmt.Errorf("%w: schema version %d is newer than %d", ErrMalformedRecord, version, model.SchemaVersion)
	}
	for v := version; v < model.SchemaVersion; v++ {
		if up, ok := upgraders[v]; ok {
			up(fields)
		}
	}
	delete(fields, "schema_version")

	if err := requireIdentity(fields); err != nil {
		return model.Entry{}, err
	}

	upgraded, err := json.Marshal(fields)
	if err != nil {
		return model.Entry{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	var e model.Entry
	if err := json.Unmarshal(upgraded, &e); err != nil {
		return model.Entry{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	e.ApplyDefaults()
	return e, nil
}

// requireIdentity checks the two fields a record cannot be read without.
func requireIdentity(fields map[string]json.RawMessage) error {
	var id string
	if raw, ok := fields["id"]; !ok || json.Unmarshal(raw, &id) != nil || id == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	var created time.Time
	if raw, ok := fields["created_at"]; !ok || json.Unmarshal(raw, &created) != nil || created.IsZero() {
		return fmt.Errorf("%w: entry %s missing created_at", ErrMalformedRecord, id)
	}
	return nil
}
