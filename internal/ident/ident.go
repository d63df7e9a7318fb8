// Package ident generates entry ids and capture session ids.
package ident

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique string ids.
type Generator interface {
	Generate() string
}

// EntryPrefix prefixes every generated entry id.
const EntryPrefix = "entry:"

// UUIDv7Generator generates time-sortable entry ids.
//
// UUIDv7 embeds a millisecond timestamp in its most significant bits and
// fills the rest from crypto/rand, so ids never collide across restarts and
// sort roughly by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns "entry:" followed by a hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return EntryPrefix + uuid.Must(uuid.NewV7()).String()
}

// DefaultSessionPrefix is used when no capture session prefix is configured.
const DefaultSessionPrefix = "jane"

// NewSessionID returns a capture session id of the form
// "<prefix>-YYYY-MM-DD-xxxxxx", dated in UTC.
func NewSessionID(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	return prefix + "-" + now.UTC().Format("2006-01-02") + "-" + shortID()
}

// shortID returns six lowercase hex characters from a random UUID.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
