package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/johannes-kuhfuss/pubwizard/domain"
	"github.com/johannes-kuhfuss/services_utils/logger"
	"github.com/pkg/errors"
)

// Validator checks the current page before the wizard moves on. It records messages for the
// user on the pipeline and returns an error whenever the page must not be left
type Validator func(ctx context.Context, p *PagePipeline) error

// Page of the publication form
type Page struct {
	Title    string
	Template string
	Validate Validator
}

// The page pipeline walks the user through the pages of the publication form
type PagePipeline struct {
	store    *FormStateStore
	registry *ExtraInfoRegistry
	pdb      *PdbLookup
	profile  domain.WizardProfile
	pages    []Page
	busy     atomic.Bool

	mu            sync.Mutex
	idx           int
	errorMessages []string
}

// NewPagePipeline creates the five page publication form, starting at page startIdx
func NewPagePipeline(store *FormStateStore, registry *ExtraInfoRegistry, pdb *PdbLookup, profile domain.WizardProfile, startIdx int) *PagePipeline {
	p := &PagePipeline{
		store:         store,
		registry:      registry,
		pdb:           pdb,
		profile:       profile,
		errorMessages: []string{},
	}
	p.pages = []Page{
		{Title: "", Template: "form_page1.html", Validate: noValidation},
		{Title: "Select datasets", Template: "form_page2.html", Validate: datasetSelectionValidator},
		{Title: "Extra information", Template: "form_page3.html", Validate: extraInformationValidator},
		{Title: "Attribution and licensing", Template: "form_page4.html", Validate: finalSubmissionValidator},
		{Title: "Submission complete", Template: "form_page5.html", Validate: noValidation},
	}
	if startIdx < 0 {
		startIdx = 0
	}
	if startIdx > len(p.pages)-1 {
		startIdx = len(p.pages) - 1
	}
	p.idx = startIdx
	return p
}

// Advance validates the current page and moves to the next one when validation and saving succeeded.
// On failure the page stays the same and ErrorMessages tells the user why
func (p *PagePipeline) Advance(ctx context.Context) error {
	if !p.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer p.busy.Store(false)

	p.mu.Lock()
	idx := p.idx
	if idx >= len(p.pages)-1 {
		p.mu.Unlock()
		return ErrFinalPage
	}
	p.errorMessages = []string{}
	p.mu.Unlock()

	if err := p.pages[idx].Validate(ctx, p); err != nil {
		return err
	}
	p.mu.Lock()
	p.idx = idx + 1
	p.mu.Unlock()
	return nil
}

// Retreat moves back one page. On the first page it returns true to signal that the wizard should be closed
func (p *PagePipeline) Retreat() (closeWizard bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idx-1 >= 0 && !p.busy.Load() {
		p.errorMessages = []string{}
		p.idx--
		return false, nil
	}
	if p.idx == 0 {
		return true, nil
	}
	return false, ErrBusy
}

// SaveAndClose saves the draft as it is and returns the publication id the wizard should close with
func (p *PagePipeline) SaveAndClose(ctx context.Context) (*int64, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.busy.Store(false)
	if err := p.save(ctx); err != nil {
		return nil, err
	}
	return p.store.Draft().PublicationID, nil
}

// save persists the draft, translating failures into a message for the user
func (p *PagePipeline) save(ctx context.Context) error {
	if _, err := p.store.Save(ctx); err != nil {
		var rejected *ServerValidationError
		if errors.As(err, &rejected) {
			p.addError(rejected.Message)
		} else {
			p.addError(msgServerFailure)
		}
		logger.Error("Cannot save publication form", err)
		return err
	}
	return nil
}

func (p *PagePipeline) addError(msg string) {
	p.mu.Lock()
	p.errorMessages = append(p.errorMessages, msg)
	p.mu.Unlock()
}

// ErrorMessages returns the messages collected by the last navigation
func (p *PagePipeline) ErrorMessages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.errorMessages...)
}

func (p *PagePipeline) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx
}

func (p *PagePipeline) CurrentPage() Page {
	return p.pages[p.CurrentIndex()]
}

func (p *PagePipeline) TotalPages() int {
	return len(p.pages)
}

// IsComplete is true on the submission complete page
func (p *PagePipeline) IsComplete() bool {
	return p.CurrentIndex() == len(p.pages)-1
}

// IsLastPage is true on the last page that takes input, the one before the submission complete page
func (p *PagePipeline) IsLastPage() bool {
	return p.CurrentIndex() == len(p.pages)-2
}

// Loading is true while a page is validated or saved
func (p *PagePipeline) Loading() bool {
	return p.busy.Load()
}

func (p *PagePipeline) Store() *FormStateStore {
	return p.store
}

func (p *PagePipeline) Registry() *ExtraInfoRegistry {
	return p.registry
}

func (p *PagePipeline) Profile() domain.WizardProfile {
	return p.profile
}

func (p *PagePipeline) Pdb() *PdbLookup {
	return p.pdb
}
