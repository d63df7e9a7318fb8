package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/ident"
	"github.com/roach88/aionic/internal/model"
)

// Resilient wraps a durable EntryStore. When a durable write fails the
// entry is logged and kept in a process-lifetime overlay, and Store still
// succeeds. Listings merge the durable rows with the overlay.
//
// Failed writes are not retried.
type Resilient struct {
	durable EntryStore
	overlay *Memory
	clock   clock.Clock
	ids     ident.Generator
	logger  *slog.Logger
}

var _ EntryStore = (*Resilient)(nil)

// NewResilient wraps durable.
func NewResilient(durable EntryStore, opts ...Option) *Resilient {
	o := buildOptions(opts)
	return &Resilient{
		durable: durable,
		overlay: NewMemory(opts...),
		clock:   o.clock,
		ids:     o.ids,
		logger:  o.logger,
	}
}

// Store writes through to the durable store. On failure the materialized
// entry is returned from the overlay instead of an error. A successful
// durable write supersedes any overlay copy of the same id.
func (r *Resilient) Store(ctx context.Context, e model.Entry) (model.Entry, error) {
	e = Materialize(e, r.clock.Now(), r.ids)

	stored, err := r.durable.Store(ctx, e)
	if err == nil {
		r.overlay.Forget(stored.ID)
		return stored, nil
	}
	if ctx.Err() != nil {
		return model.Entry{}, err
	}

	r.logger.Warn("durable store unavailable, keeping entry in memory",
		"id", e.ID,
		"error", err,
	)
	r.overlay.mu.Lock()
	defer r.overlay.mu.Unlock()
	return r.overlay.put(e), nil
}

// ListActive merges durable and overlay entries. A failing durable listing
// is logged and treated as empty.
func (r *Resilient) ListActive(ctx context.Context) ([]model.Entry, error) {
	durable, err := r.durable.ListActive(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		r.logger.Warn("durable listing unavailable", "error", err)
		durable = nil
	}

	held, err := r.overlay.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(held) == 0 {
		if durable == nil {
			return []model.Entry{}, nil
		}
		return durable, nil
	}

	merged := make([]model.Entry, 0, len(durable)+len(held))
	for _, e := range durable {
		if !r.overlay.Has(e.ID) {
			merged = append(merged, e)
		}
	}
	merged = append(merged, held...)
	sortNewestFirst(merged)
	return merged, nil
}

// Get prefers the overlay copy of an entry.
func (r *Resilient) Get(ctx context.Context, id string) (model.Entry, error) {
	if r.overlay.Has(id) {
		return r.overlay.Get(ctx, id)
	}
	return r.durable.Get(ctx, id)
}

// SoftDelete tombstones an overlay entry in memory and any older durable
// row of the same id. Without an overlay copy it deletes through the
// durable store.
func (r *Resilient) SoftDelete(ctx context.Context, id string) error {
	if !r.overlay.Has(id) {
		return r.durable.SoftDelete(ctx, id)
	}
	if err := r.overlay.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := r.durable.SoftDelete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		if ctx.Err() != nil {
			return err
		}
		r.logger.Warn("durable delete unavailable, tombstone kept in memory", "id", id, "error", err)
	}
	return nil
}

// ClearAll clears both the durable store and the overlay.
func (r *Resilient) ClearAll(ctx context.Context) error {
	return errors.Join(r.durable.ClearAll(ctx), r.overlay.ClearAll(ctx))
}

// Held returns the number of entries kept only in memory.
func (r *Resilient) Held() int {
	return r.overlay.Len()
}
