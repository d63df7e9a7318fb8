package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aionic/internal/model"
)

func TestContract_StoreAssignsDefaults(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			s := open(t, env)

			e := mustStore(t, s, "hello")

			assert.Equal(t, "entry-1", e.ID)
			assert.True(t, e.CreatedAt.Equal(at(0)))
			assert.True(t, e.UpdatedAt.Equal(at(0)))
			assert.Equal(t, model.ToneReflective, e.Tone)
			assert.Equal(t, model.ConfidenceMedium, e.Confidence)
			assert.Equal(t, 0.0, e.DeltaE)
			assert.Nil(t, e.SessionMeta)
			assert.False(t, e.Deleted)
			assert.Nil(t, e.DeletedAt)
		})
	}
}

func TestContract_StoreKeepsCallerFields(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			s := open(t, env)
			created := at(-30)

			e, err := s.Store(context.Background(), model.Entry{
				ID:               "entry:custom",
				CreatedAt:        created,
				Title:            "Morning",
				Content:          "pages",
				Tone:             model.ToneGrateful,
				DeltaE:           0.42,
				Confidence:       model.ConfidenceHigh,
				CaptureSessionID: "jane-2025-11-03-abc123",
				SessionMeta: &model.SessionMeta{
					DurationSeconds: 90,
					WPMAvg:          20,
					RecoveryChoice:  model.Choice(model.RecoverySave),
				},
			})
			require.NoError(t, err)

			got, err := s.Get(context.Background(), "entry:custom")
			require.NoError(t, err)
			assert.Equal(t, e.ID, got.ID)
			assert.True(t, got.CreatedAt.Equal(created))
			assert.True(t, got.UpdatedAt.Equal(at(0)))
			assert.Equal(t, "Morning", got.Title)
			assert.Equal(t, model.ToneGrateful, got.Tone)
			assert.Equal(t, 0.42, got.DeltaE)
			assert.Equal(t, model.ConfidenceHigh, got.Confidence)
			assert.Equal(t, "jane-2025-11-03-abc123", got.CaptureSessionID)
			require.NotNil(t, got.SessionMeta)
			assert.Equal(t, 90, got.SessionMeta.DurationSeconds)
			require.NotNil(t, got.SessionMeta.RecoveryChoice)
			assert.Equal(t, model.RecoverySave, *got.SessionMeta.RecoveryChoice)
		})
	}
}

func TestContract_ListActiveNewestFirst(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			s := open(t, env)

			mustStore(t, s, "first")
			env.clock.Advance(time.Minute)
			mustStore(t, s, "second")
			env.clock.Advance(time.Minute)
			mustStore(t, s, "third")

			list, err := s.ListActive(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"entry-3", "entry-2", "entry-1"}, ids(list))
		})
	}
}

func TestContract_SameInstantOrderedByInsertion(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			s := open(t, env)

			// Ids that sort opposite to insertion order.
			for _, id := range []string{"c", "b", "a"} {
				_, err := s.Store(context.Background(), model.Entry{ID: id, Content: id})
				require.NoError(t, err)
			}

			list, err := s.ListActive(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, ids(list))

			again, err := s.ListActive(context.Background())
			require.NoError(t, err)
			assert.Equal(t, ids(list), ids(again))
		})
	}
}

func TestContract_SoftDeleteHidesButKeeps(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			s := open(t, env)
			ctx := context.Background()

			keep := mustStore(t, s, "keep")
			gone := mustStore(t, s, "gone")
			env.clock.Advance(5 * time.Minute)

			require.NoError(t, s.SoftDelete(ctx, gone.ID))

			list, err := s.ListActive(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{keep.ID}, ids(list))

			tomb, err := s.Get(ctx, gone.ID)
			require.NoError(t, err)
			assert.True(t, tomb.Deleted)
			require.NotNil(t, tomb.DeletedAt)
			assert.True(t, tomb.DeletedAt.Equal(at(5)))
			assert.Equal(t, "gone", tomb.Content)
		})
	}
}

func TestContract_SoftDeleteTwiceKeepsFirstStamp(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			s := open(t, env)
			ctx := context.Background()

			e := mustStore(t, s, "x")
			env.clock.Advance(time.Minute)
			require.NoError(t, s.SoftDelete(ctx, e.ID))
			env.clock.Advance(time.Minute)
			require.NoError(t, s.SoftDelete(ctx, e.ID))

			tomb, err := s.Get(ctx, e.ID)
			require.NoError(t, err)
			require.NotNil(t, tomb.DeletedAt)
			assert.True(t, tomb.DeletedAt.Equal(at(1)))
		})
	}
}

func TestContract_SoftDeleteUnknown(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := open(t, newTestEnv())

			err := s.SoftDelete(context.Background(), "entry:missing")
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

			_, err = s.Get(context.Background(), "entry:missing")
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestContract_ClearAll(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := open(t, newTestEnv())
			ctx := context.Background()

			mustStore(t, s, "one")
			e := mustStore(t, s, "two")
			require.NoError(t, s.SoftDelete(ctx, e.ID))

			require.NoError(t, s.ClearAll(ctx))

			list, err := s.ListActive(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
			_, err = s.Get(ctx, e.ID)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestContract_LaterUpdateWins(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv()
			s := open(t, env)
			ctx := context.Background()

			first := mustStore(t, s, "draft one")
			env.clock.Advance(time.Second)

			first.Content = "draft two"
			second, err := s.Store(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, "draft two", second.Content)
			assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
			assert.True(t, second.UpdatedAt.Equal(at(0).Add(time.Second)))

			// A write stamped earlier than the stored row loses.
			env.clock.Set(at(0))
			first.Content = "stale"
			got, err := s.Store(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, "draft two", got.Content)

			list, err := s.ListActive(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "draft two", list[0].Content)
		})
	}
}

func TestContract_EmptyListIsNotNil(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := open(t, newTestEnv())
			list, err := s.ListActive(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, list)
			assert.Empty(t, list)
		})
	}
}

func TestContract_CancelledContext(t *testing.T) {
	for name, open := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := open(t, newTestEnv())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := s.Store(ctx, model.Entry{Content: "late"})
			assert.Error(t, err)
		})
	}
}
