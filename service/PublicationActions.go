package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/johannes-kuhfuss/pubwizard/config"
	"github.com/johannes-kuhfuss/pubwizard/domain"
	"github.com/johannes-kuhfuss/services_utils/logger"
	"golang.org/x/sync/errgroup"
)

// NavigationKind tells the caller what to do after an action finished
type NavigationKind int

const (
	Stay NavigationKind = iota
	Reload
	Redirect
)

// Navigation is the outcome of an action on a publication
type Navigation struct {
	Kind NavigationKind
	URL  string
}

// Confirmer asks the user to confirm an action that cannot be undone
type Confirmer interface {
	Confirm(title string, text string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface
type ConfirmFunc func(title string, text string) bool

func (f ConfirmFunc) Confirm(title string, text string) bool {
	return f(title, text)
}

// The publication actions service performs the actions on a single publication record
type PublicationActions struct {
	Cfg          *config.AppConfig
	backend      PublicationBackend
	experimentId int64

	mu                 sync.RWMutex
	isPublication      *bool
	isPublicationDraft *bool
	errorMessages      []string
}

// NewPublicationActions creates the actions for the experiment and injects its dependencies
func NewPublicationActions(cfg *config.AppConfig, backend PublicationBackend, experimentId int64) *PublicationActions {
	return &PublicationActions{
		Cfg:          cfg,
		backend:      backend,
		experimentId: experimentId,
	}
}

// Init loads whether the experiment is a publication and whether it is still a draft. Both are queried
// at the same time, a flag whose query failed stays unknown
func (a *PublicationActions) Init(ctx context.Context) error {
	a.mu.Lock()
	a.isPublication = nil
	a.isPublicationDraft = nil
	a.mu.Unlock()
	if a.experimentId == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		isPub, err := a.backend.IsPublication(gctx, a.experimentId)
		if err != nil {
			logger.Error("Cannot query publication state", err)
			return err
		}
		a.mu.Lock()
		a.isPublication = &isPub
		a.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		isDraft, err := a.backend.IsPublicationDraft(gctx, a.experimentId)
		if err != nil {
			logger.Error("Cannot query publication draft state", err)
			return err
		}
		a.mu.Lock()
		a.isPublicationDraft = &isDraft
		a.mu.Unlock()
		return nil
	})
	return g.Wait()
}

func (a *PublicationActions) IsPublication() *bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isPublication
}

func (a *PublicationActions) IsPublicationDraft() *bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isPublicationDraft
}

func (a *PublicationActions) ErrorMessages() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string{}, a.errorMessages...)
}

// openForm builds the pipeline around store. A draft that has been saved before resumes at the dataset selection
func (a *PublicationActions) openForm(store *FormStateStore) *PagePipeline {
	startIdx := 0
	if store.Draft().PublicationID != nil {
		startIdx = 1
	}
	pdb := NewPdbLookup(a.backend, store, a.Cfg.Wizard.PdbLookupDelay)
	return NewPagePipeline(store, NewExtraInfoRegistry(), pdb, a.Cfg.RunTime.Profile, startIdx)
}

// CreatePublication opens the form on an empty draft
func (a *PublicationActions) CreatePublication() *PagePipeline {
	return a.openForm(NewFormStateStore(a.backend))
}

// ResumePublication loads the draft of the experiment from the server and opens the form on it
func (a *PublicationActions) ResumePublication(ctx context.Context) (*PagePipeline, error) {
	a.mu.Lock()
	a.errorMessages = []string{}
	a.mu.Unlock()

	draft := domain.NewDraft()
	id := a.experimentId
	draft.PublicationID = &id
	draft.Action = domain.ActionResume
	store := NewFormStateStore(a.backend)
	record, err := a.backend.PostForm(ctx, ToRecord(draft))
	if err == nil {
		_, err = store.Load(record)
	}
	if err != nil {
		logger.Error("Cannot load publication draft", err)
		a.mu.Lock()
		a.errorMessages = []string{msgResumeFailed}
		a.mu.Unlock()
		return nil, err
	}
	return a.openForm(store), nil
}

// SharePublication creates an access token for the publication
func (a *PublicationActions) SharePublication(ctx context.Context) error {
	return a.backend.CreateToken(ctx, a.experimentId)
}

// OnClose decides where to go once the form was closed with publicationId
func (a *PublicationActions) OnClose(publicationId *int64) Navigation {
	if publicationId == nil {
		return Navigation{Kind: Stay}
	}
	if *publicationId != a.experimentId {
		return Navigation{Kind: Redirect, URL: fmt.Sprintf("/experiment/view/%d/", *publicationId)}
	}
	return Navigation{Kind: Reload}
}

// DeletePublicationDraft deletes the draft after confirmation
func (a *PublicationActions) DeletePublicationDraft(ctx context.Context, confirm Confirmer) Navigation {
	title := fmt.Sprintf("Are you sure you want to delete Publication ID %d?", a.experimentId)
	if !confirm.Confirm(title, "You cannot undo this action!") {
		logger.Info("OK, keeping publication")
		return Navigation{Kind: Stay}
	}
	logger.Info("OK, deleting publication...")
	if err := a.backend.DeletePublication(ctx, a.experimentId); err != nil {
		logger.Error("Failed to delete publication", err)
		return Navigation{Kind: Stay}
	}
	logger.Info("Publication deleted successfully.")
	return Navigation{Kind: Reload}
}

// MintDOI requests a DOI for the publication after confirmation
func (a *PublicationActions) MintDOI(ctx context.Context, confirm Confirmer) Navigation {
	title := fmt.Sprintf("Are you sure you want to mint a DOI for Publication ID %d?", a.experimentId)
	if !confirm.Confirm(title, "You cannot undo this action!") {
		logger.Info("OK, not minting a DOI")
		return Navigation{Kind: Stay}
	}
	logger.Info("OK, minting a DOI...")
	if err := a.backend.MintDoi(ctx, a.experimentId); err != nil {
		logger.Error("Failed to mint DOI", err)
		return Navigation{Kind: Stay}
	}
	logger.Info("DOI minted successfully.")
	return Navigation{Kind: Reload}
}
