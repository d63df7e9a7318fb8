package store

import (
	"context"
	"log/slog"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/ident"
	"github.com/roach88/aionic/internal/model"
)

// EntryStore is the contract shared by the durable, in-memory and resilient
// stores.
type EntryStore interface {
	// Store writes e, assigning an id and created_at when absent and always
	// stamping updated_at. It returns the materialized entry.
	Store(ctx context.Context, e model.Entry) (model.Entry, error)
	// ListActive returns every entry that is not deleted, newest first.
	ListActive(ctx context.Context) ([]model.Entry, error)
	// Get reads one entry by id, tombstoned or not.
	Get(ctx context.Context, id string) (model.Entry, error)
	// SoftDelete tombstones the entry. Returns ErrNotFound if id is absent.
	SoftDelete(ctx context.Context, id string) error
	// ClearAll removes every entry.
	ClearAll(ctx context.Context) error
}

// DraftBuffer is the single-slot transient draft.
type DraftBuffer interface {
	// LoadDraft returns the buffered text, or "" when there is none.
	LoadDraft(ctx context.Context) (string, error)
	// SaveDraft overwrites the buffer with text.
	SaveDraft(ctx context.Context, text string) error
	// ClearDraft empties the buffer.
	ClearDraft(ctx context.Context) error
}

// Option configures a store.
type Option func(*options)

type options struct {
	clock  clock.Clock
	ids    ident.Generator
	logger *slog.Logger
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	o.clock = clock.Or(o.clock)
	if o.ids == nil {
		o.ids = ident.UUIDv7Generator{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithClock sets the clock used for created_at, updated_at and deleted_at.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDGenerator sets the generator for entries stored without an id.
func WithIDGenerator(g ident.Generator) Option {
	return func(o *options) { o.ids = g }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
