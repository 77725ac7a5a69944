package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/johannes-kuhfuss/pubwizard/config"
	"github.com/johannes-kuhfuss/pubwizard/domain"
)

var errTransport = errors.New("connection refused")

// fakeBackend records the calls it receives. Unset funcs answer with a plain success
type fakeBackend struct {
	mu          sync.Mutex
	posted      []DraftRecord
	pdbLookups  []string
	deleted     []int64
	minted      []int64
	tokens      []int64
	postForm    func(record DraftRecord) (DraftRecord, error)
	lookupPdb   func(pdbId string) (domain.PdbInfo, error)
	actionErr   error
	isPub       func() (bool, error)
	isPubDraft  func() (bool, error)
	experiments []domain.Experiment
}

func (f *fakeBackend) PostForm(_ context.Context, record DraftRecord) (DraftRecord, error) {
	f.mu.Lock()
	f.posted = append(f.posted, record)
	f.mu.Unlock()
	if f.postForm != nil {
		return f.postForm(record)
	}
	return echoWithId(record), nil
}

// echoWithId answers like the server does for a successful save: the record plus a publication id
func echoWithId(record DraftRecord) DraftRecord {
	if record.PublicationID == nil {
		id := int64(42)
		record.PublicationID = &id
	}
	return record
}

func (f *fakeBackend) FetchExperiments(_ context.Context) ([]domain.Experiment, error) {
	return f.experiments, nil
}

func (f *fakeBackend) LookupPdb(_ context.Context, pdbId string) (domain.PdbInfo, error) {
	f.mu.Lock()
	f.pdbLookups = append(f.pdbLookups, pdbId)
	f.mu.Unlock()
	if f.lookupPdb != nil {
		return f.lookupPdb(pdbId)
	}
	return domain.PdbInfo{Status: "CURRENT"}, nil
}

func (f *fakeBackend) DeletePublication(_ context.Context, publicationId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicationId)
	return f.actionErr
}

func (f *fakeBackend) MintDoi(_ context.Context, publicationId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minted = append(f.minted, publicationId)
	return f.actionErr
}

func (f *fakeBackend) IsPublication(_ context.Context, _ int64) (bool, error) {
	if f.isPub != nil {
		return f.isPub()
	}
	return true, nil
}

func (f *fakeBackend) IsPublicationDraft(_ context.Context, _ int64) (bool, error) {
	if f.isPubDraft != nil {
		return f.isPubDraft()
	}
	return true, nil
}

func (f *fakeBackend) CreateToken(_ context.Context, experimentId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, experimentId)
	return f.actionErr
}

func (f *fakeBackend) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posted)
}

func (f *fakeBackend) lastPosted() DraftRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posted[len(f.posted)-1]
}

func testAppConfig() *config.AppConfig {
	var cfg config.AppConfig
	cfg.Server.Timeout = 5 * time.Second
	cfg.Wizard.PdbLookupDelay = 20 * time.Millisecond
	cfg.RunTime.Profile.Acknowledgements = domain.DefaultAcknowledgements
	return &cfg
}

func newTestPipeline(backend *fakeBackend, profile domain.WizardProfile, startIdx int) *PagePipeline {
	store := NewFormStateStore(backend)
	pdb := NewPdbLookup(backend, store, 20*time.Millisecond)
	return NewPagePipeline(store, NewExtraInfoRegistry(), pdb, profile, startIdx)
}

var (
	testExperiment = domain.Experiment{
		ID:    7,
		Title: "Crystal structures",
		Datasets: []domain.Dataset{
			{ID: 1, Description: "raw frames"},
			{ID: 2, Description: "processed"},
			{ID: 3, Description: "models"},
		},
	}
)
