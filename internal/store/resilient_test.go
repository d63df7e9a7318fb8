package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aionic/internal/model"
)

var errUnavailable = errors.New("disk unavailable")

// flakyStore fails every call while down is set.
type flakyStore struct {
	EntryStore
	down atomic.Bool
}

func (f *flakyStore) Store(ctx context.Context, e model.Entry) (model.Entry, error) {
	if f.down.Load() {
		return model.Entry{}, errUnavailable
	}
	return f.EntryStore.Store(ctx, e)
}

func (f *flakyStore) ListActive(ctx context.Context) ([]model.Entry, error) {
	if f.down.Load() {
		return nil, errUnavailable
	}
	return f.EntryStore.ListActive(ctx)
}

func newFlaky(t *testing.T, env testEnv) (*flakyStore, *Resilient) {
	t.Helper()
	flaky := &flakyStore{EntryStore: createTestStore(t, env)}
	return flaky, NewResilient(flaky, env.options()...)
}

func TestResilient_FailedWriteReturnsMaterializedEntry(t *testing.T) {
	env := newTestEnv()
	flaky, r := newFlaky(t, env)
	flaky.down.Store(true)

	e, err := r.Store(context.Background(), model.Entry{Content: "kept anyway"})
	require.NoError(t, err)
	assert.Equal(t, "entry-1", e.ID)
	assert.True(t, e.CreatedAt.Equal(at(0)))
	assert.Equal(t, model.ToneReflective, e.Tone)
	assert.Equal(t, 1, r.Held())
}

func TestResilient_ListMergesDurableAndOverlay(t *testing.T) {
	env := newTestEnv()
	flaky, r := newFlaky(t, env)
	ctx := context.Background()

	durable := mustStore(t, r, "on disk")
	env.clock.Advance(time.Minute)

	flaky.down.Store(true)
	held := mustStore(t, r, "in memory")
	flaky.down.Store(false)

	list, err := r.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{held.ID, durable.ID}, ids(list))

	// The durable store never saw the held entry.
	_, err = flaky.Get(ctx, held.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResilient_DurableListFailureShowsOverlay(t *testing.T) {
	env := newTestEnv()
	flaky, r := newFlaky(t, env)
	flaky.down.Store(true)

	held := mustStore(t, r, "only copy")

	list, err := r.ListActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{held.ID}, ids(list))
}

func TestResilient_DeleteAndGetRouteToHolder(t *testing.T) {
	env := newTestEnv()
	flaky, r := newFlaky(t, env)
	ctx := context.Background()

	onDisk := mustStore(t, r, "disk")
	flaky.down.Store(true)
	inMem := mustStore(t, r, "mem")
	flaky.down.Store(false)

	require.NoError(t, r.SoftDelete(ctx, inMem.ID))
	require.NoError(t, r.SoftDelete(ctx, onDisk.ID))

	got, err := r.Get(ctx, inMem.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	got, err = r.Get(ctx, onDisk.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	list, err := r.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = r.SoftDelete(ctx, "entry:missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResilient_ClearAllClearsBoth(t *testing.T) {
	env := newTestEnv()
	flaky, r := newFlaky(t, env)
	ctx := context.Background()

	mustStore(t, r, "disk")
	flaky.down.Store(true)
	mustStore(t, r, "mem")
	flaky.down.Store(false)

	require.NoError(t, r.ClearAll(ctx))
	assert.Equal(t, 0, r.Held())
	list, err := r.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestResilient_RecoveredWriteSupersedesOverlay(t *testing.T) {
	env := newTestEnv()
	flaky, r := newFlaky(t, env)
	ctx := context.Background()

	flaky.down.Store(true)
	_, err := r.Store(ctx, model.Entry{ID: "x", Content: "v1"})
	require.NoError(t, err)
	require.Equal(t, 1, r.Held())
	flaky.down.Store(false)

	env.clock.Advance(time.Minute)
	stored, err := r.Store(ctx, model.Entry{ID: "x", Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "v2", stored.Content)
	assert.Equal(t, 0, r.Held())

	got, err := r.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)

	list, err := r.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v2", list[0].Content)
}

func TestResilient_DeleteOfHeldUpdateTombstonesDurableRow(t *testing.T) {
	env := newTestEnv()
	flaky, r := newFlaky(t, env)
	ctx := context.Background()

	_, err := r.Store(ctx, model.Entry{ID: "x", Content: "on disk"})
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	flaky.down.Store(true)
	_, err = r.Store(ctx, model.Entry{ID: "x", Content: "held edit"})
	require.NoError(t, err)
	flaky.down.Store(false)

	require.NoError(t, r.SoftDelete(ctx, "x"))

	row, err := flaky.Get(ctx, "x")
	require.NoError(t, err)
	assert.True(t, row.Deleted, "durable row must not resurface")

	list, err := r.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
