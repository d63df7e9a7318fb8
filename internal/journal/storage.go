package journal

import (
	"github.com/roach88/aionic/internal/store"
)

// Storage is the pair of stores a Journal writes to.
type Storage struct {
	Entries store.EntryStore
	Drafts  store.DraftBuffer
	// Durable is false when nothing survives the process.
	Durable bool
}

// SelectStore applies the storage consent decision. With consent and a
// durable store, entries go through a Resilient wrapper and drafts to the
// durable slot. Otherwise everything stays in memory ("local only").
func SelectStore(consented bool, durable *store.Store, opts ...store.Option) Storage {
	if consented && durable != nil {
		return Storage{
			Entries: store.NewResilient(durable, opts...),
			Drafts:  durable,
			Durable: true,
		}
	}
	mem := store.NewMemory(opts...)
	return Storage{Entries: mem, Drafts: mem}
}
