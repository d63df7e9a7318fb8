package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/aionic/internal/model"
	"github.com/roach88/aionic/internal/testutil"
)

// testEnv bundles a deterministic clock and id generator.
type testEnv struct {
	clock *testutil.ManualClock
	ids   *testutil.SequentialIDs
}

func newTestEnv() testEnv {
	return testEnv{
		clock: testutil.NewManualClock(testutil.Epoch),
		ids:   testutil.NewSequentialIDs("entry"),
	}
}

func (e testEnv) options() []Option {
	return []Option{
		WithClock(e.clock),
		WithIDGenerator(e.ids),
		WithLogger(discardLogger()),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, env testEnv) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, env.options()...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// implementations returns a constructor for each EntryStore that must honor
// the shared contract.
func implementations() map[string]func(t *testing.T, env testEnv) EntryStore {
	return map[string]func(t *testing.T, env testEnv) EntryStore{
		"sqlite": func(t *testing.T, env testEnv) EntryStore {
			return createTestStore(t, env)
		},
		"memory": func(t *testing.T, env testEnv) EntryStore {
			return NewMemory(env.options()...)
		},
		"resilient": func(t *testing.T, env testEnv) EntryStore {
			return NewResilient(createTestStore(t, env), env.options()...)
		},
	}
}

// mustStore writes an entry with the given content and fails the test on error.
func mustStore(t *testing.T, s EntryStore, content string) model.Entry {
	t.Helper()
	e, err := s.Store(context.Background(), model.Entry{Content: content})
	if err != nil {
		t.Fatalf("Store(%q) failed: %v", content, err)
	}
	return e
}

// ids returns the ids of entries in order.
func ids(entries []model.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func at(minutes int) time.Time {
	return testutil.Epoch.Add(time.Duration(minutes) * time.Minute)
}
