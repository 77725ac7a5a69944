package service

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/johannes-kuhfuss/pubwizard/domain"
	"github.com/johannes-kuhfuss/services_utils/logger"
)

// PdbLookupDone is called once the lookup of pdbId finished
type PdbLookupDone func(pdbId string, info domain.PdbInfo, err error)

// PdbLookup validates a PDB identifier against the server. Lookups are debounced:
// a new search before the delay has passed replaces the pending one
type PdbLookup struct {
	backend   PublicationBackend
	store     *FormStateStore
	debounced func(f func())

	mu        sync.RWMutex
	seq       uint64
	searching bool
	complete  bool
	ok        bool
}

// NewPdbLookup creates a lookup that stores its results on the draft held by store
func NewPdbLookup(backend PublicationBackend, store *FormStateStore, delay time.Duration) *PdbLookup {
	return &PdbLookup{
		backend:   backend,
		store:     store,
		debounced: debounce.New(delay),
	}
}

// Search schedules a lookup of pdbId. done may be nil. It is not called when a later search supersedes this one
func (l *PdbLookup) Search(ctx context.Context, pdbId string, done PdbLookupDone) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.searching = true
	l.complete = false
	l.ok = false
	l.mu.Unlock()
	l.debounced(func() {
		l.lookup(ctx, seq, pdbId, done)
	})
}

// lookup runs on the debounce timer. Results of superseded searches are dropped
func (l *PdbLookup) lookup(ctx context.Context, seq uint64, pdbId string, done PdbLookupDone) {
	info, err := l.backend.LookupPdb(ctx, pdbId)
	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		return
	}
	l.searching = false
	l.complete = err == nil
	l.ok = err == nil && info.Valid()
	if err == nil {
		l.store.SetPdbInfo(&info)
	}
	l.mu.Unlock()
	if err != nil {
		logger.Error("Cannot look up PDB ID", err)
	}
	if done != nil {
		done(pdbId, info, err)
	}
}

func (l *PdbLookup) Searching() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.searching
}

func (l *PdbLookup) SearchComplete() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.complete
}

// OK is true once a lookup returned a known identifier
func (l *PdbLookup) OK() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ok
}

// Check is the extra information check registered when the discipline requires a PDB ID.
// Until a search is started, the PDB info already stored on the draft decides
func (l *PdbLookup) Check(draft domain.Draft) (bool, string) {
	l.mu.RLock()
	searched, ok := l.seq > 0, l.ok
	l.mu.RUnlock()
	if !searched {
		ok = draft.PdbInfo != nil && draft.PdbInfo.Valid()
	}
	if !ok {
		return false, msgPdbInvalid
	}
	return true, ""
}
