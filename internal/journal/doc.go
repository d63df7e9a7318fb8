// Package journal composes the rhythm generator, scorer, session
// instrumentation, draft manager and entry store into one writing session.
//
// A Journal is owned by its caller. Nothing in the package is global: every
// dependency (stores, clock, scoring strategy, rhythm cycle) arrives through
// New and its options, so several journals can run side by side in one
// process and tests can drive one with a manual clock.
//
// Typical flow:
//
//	j := journal.New(storage.Entries, storage.Drafts, journal.WithClock(clk))
//	if j.Begin(ctx) == draft.Recoverable {
//		res, _ := j.ResolveDraft(ctx, model.RecoveryReview)
//		...
//	}
//	go j.Run(ctx) // rhythm ticks
//	j.SetBody("...")
//	entry, err := j.Save(ctx)
//	j.End(ctx)
package journal
