package cli

import (
	"context"
	"errors"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/journal"
	"github.com/roach88/aionic/internal/rhythm"
	"github.com/roach88/aionic/internal/store"
)

// env is the storage and journal one command works against.
type env struct {
	opts    *RootOptions
	storage journal.Storage
	durable *store.Store
}

// openEnv opens the configured storage. Without consent nothing is read
// from or written to disk.
func openEnv(opts *RootOptions) (*env, error) {
	logger := opts.logger()
	storeOpts := []store.Option{store.WithLogger(logger)}
	if opts.Clock != nil {
		storeOpts = append(storeOpts, store.WithClock(opts.Clock))
	}

	e := &env{opts: opts}
	if opts.Config.Storage.Consent {
		st, err := store.Open(opts.Config.Storage.Path, storeOpts...)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, ErrCodeStorage, "failed to open database", err)
		}
		e.durable = st
		logger.Debug("database opened", "path", opts.Config.Storage.Path)
	} else {
		logger.Debug("storage consent withheld, keeping entries in memory")
	}
	e.storage = journal.SelectStore(opts.Config.Storage.Consent, e.durable, storeOpts...)
	return e, nil
}

// journal builds a journal from the configuration. Extra generator options
// are applied after the configured ones.
func (e *env) journal(genOpts ...rhythm.Option) (*journal.Journal, error) {
	cfg := e.opts.Config
	cycle, err := cfg.Cycle()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, "invalid rhythm", err)
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, "invalid scoring strategy", err)
	}
	return journal.New(e.storage.Entries, e.storage.Drafts,
		journal.WithClock(clock.Or(e.opts.Clock)),
		journal.WithCycle(cycle),
		journal.WithGeneratorOptions(append(cfg.GeneratorOptions(), genOpts...)...),
		journal.WithTickInterval(cfg.TickInterval()),
		journal.WithStrategy(strategy),
		journal.WithDebounce(cfg.Debounce()),
		journal.WithWindow(cfg.Window()),
		journal.WithSessionPrefix(cfg.Session.Prefix),
		journal.WithLogger(e.opts.logger()),
	), nil
}

func (e *env) Close() error {
	if e.durable == nil {
		return nil
	}
	return e.durable.Close()
}

// storeError classifies a store or journal failure.
func storeError(message string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return WrapExitError(ExitCommandError, ErrCodeNotFound, message, err)
	case errors.Is(err, journal.ErrEmptyBody):
		return WrapExitError(ExitCommandError, ErrCodeEmptyBody, message, err)
	case errors.Is(err, journal.ErrInvalidTone):
		return WrapExitError(ExitCommandError, ErrCodeInvalidArgs, message, err)
	case errors.Is(err, context.Canceled):
		return WrapExitError(ExitFailure, ErrCodeGeneric, message, err)
	default:
		return WrapExitError(ExitCommandError, ErrCodeStorage, message, err)
	}
}
