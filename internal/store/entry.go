package store

import (
	"sort"
	"time"

	"github.com/roach88/aionic/internal/ident"
	"github.com/roach88/aionic/internal/model"
)

// Materialize returns e with store-assigned fields filled in: an id when
// absent, created_at when zero, updated_at set to now, and defaults for
// tone and confidence. A deleted entry without deleted_at is stamped now.
//
// All stamps are stored in UTC.
func Materialize(e model.Entry, now time.Time, ids ident.Generator) model.Entry {
	now = now.UTC()
	if e.ID == "" {
		e.ID = ids.Generate()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = now
	e.ApplyDefaults()
	if e.Deleted && e.DeletedAt == nil {
		at := now
		e.DeletedAt = &at
	}
	if e.DeletedAt != nil {
		at := e.DeletedAt.UTC()
		e.DeletedAt = &at
	}
	return e
}

// sortNewestFirst orders entries by created_at descending, then seq
// descending, then id descending.
func sortNewestFirst(entries []model.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Seq != b.Seq {
			return a.Seq > b.Seq
		}
		return a.ID > b.ID
	})
}
