package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/ident"
	"github.com/roach88/aionic/internal/model"
)

// Memory is a process-lifetime EntryStore and DraftBuffer.
// Nothing survives the process. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	entries map[string]model.Entry
	draft   string
	seq     *clock.Sequence
	clock   clock.Clock
	ids     ident.Generator
}

var (
	_ EntryStore  = (*Memory)(nil)
	_ DraftBuffer = (*Memory)(nil)
)

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		entries: make(map[string]model.Entry),
		seq:     clock.NewSequence(),
		clock:   o.clock,
		ids:     o.ids,
	}
}

func (m *Memory) Store(ctx context.Context, e model.Entry) (model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return model.Entry{}, fmt.Errorf("store entry: %w", err)
	}
	e = Materialize(e, m.clock.Now(), m.ids)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(e), nil
}

// put inserts e or overwrites an existing entry when e is not older.
// Caller must hold m.mu.
func (m *Memory) put(e model.Entry) model.Entry {
	if prev, ok := m.entries[e.ID]; ok {
		if e.UpdatedAt.Before(prev.UpdatedAt) {
			return cloneEntry(prev)
		}
		e.Seq = prev.Seq
	} else {
		e.Seq = m.seq.Next()
	}
	m.entries[e.ID] = cloneEntry(e)
	return cloneEntry(e)
}

func (m *Memory) ListActive(ctx context.Context) ([]model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Deleted {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return model.Entry{}, fmt.Errorf("get %s: %w", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return model.Entry{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return cloneEntry(e), nil
}

func (m *Memory) SoftDelete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("soft delete %s: %w", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("soft delete %s: %w", id, ErrNotFound)
	}
	if e.Deleted {
		return nil
	}
	now := m.clock.Now().UTC()
	e.Deleted = true
	e.DeletedAt = &now
	m.entries[id] = e
	return nil
}

func (m *Memory) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]model.Entry)
	return nil
}

// Has reports whether id is held in memory.
func (m *Memory) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

// Forget drops id from memory without leaving a tombstone.
func (m *Memory) Forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

// Len returns the number of held entries, tombstones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) LoadDraft(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("load draft: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft, nil
}

func (m *Memory) SaveDraft(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = text
	return nil
}

func (m *Memory) ClearDraft(ctx context.Context) error {
	return m.SaveDraft(ctx, "")
}

// cloneEntry copies e so callers never share pointer fields with the store.
func cloneEntry(e model.Entry) model.Entry {
	if e.SessionMeta != nil {
		meta := *e.SessionMeta
		if meta.RecoveryChoice != nil {
			meta.RecoveryChoice = model.Choice(*meta.RecoveryChoice)
		}
		e.SessionMeta = &meta
	}
	if e.DeletedAt != nil {
		at := *e.DeletedAt
		e.DeletedAt = &at
	}
	return e
}
