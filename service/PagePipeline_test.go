package service

import (
	"context"
	"testing"
	"time"

	"github.com/johannes-kuhfuss/pubwizard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillDatasetPage(p *PagePipeline) {
	p.Store().SetTitle("T")
	p.Store().SetDescription("D")
	p.Store().AddDatasets(testExperiment, testExperiment.Datasets[:1])
}

func TestNewPagePipelineHasFivePages(t *testing.T) {
	p := newTestPipeline(&fakeBackend{}, domain.WizardProfile{}, 0)

	assert.EqualValues(t, 5, p.TotalPages())
	assert.EqualValues(t, 0, p.CurrentIndex())
	assert.EqualValues(t, "Select datasets", p.pages[1].Title)
	assert.EqualValues(t, "Submission complete", p.pages[4].Title)
}

func TestNewPagePipelineClampsStartIndex(t *testing.T) {
	assert.EqualValues(t, 0, newTestPipeline(&fakeBackend{}, domain.WizardProfile{}, -3).CurrentIndex())
	assert.EqualValues(t, 4, newTestPipeline(&fakeBackend{}, domain.WizardProfile{}, 12).CurrentIndex())
}

func TestAdvanceIntroPageNeedsNoValidation(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 0)

	err := p.Advance(context.Background())

	assert.Nil(t, err)
	assert.EqualValues(t, 1, p.CurrentIndex())
	assert.EqualValues(t, 0, backend.postCount())
}

func TestAdvanceEmptyDatasetPageReportsAllErrors(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 1)
	p.Store().SetTitle("   ")

	err := p.Advance(context.Background())

	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualValues(t, []string{msgTitleMissing, msgDescriptionMissing, msgNoDatasets}, p.ErrorMessages())
	assert.EqualValues(t, 1, p.CurrentIndex())
	assert.EqualValues(t, 0, backend.postCount())
}

func TestAdvanceValidDatasetPageSavesAndMovesOn(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 1)
	fillDatasetPage(p)

	err := p.Advance(context.Background())

	require.Nil(t, err)
	assert.EqualValues(t, 2, p.CurrentIndex())
	assert.Empty(t, p.ErrorMessages())
	assert.EqualValues(t, 1, backend.postCount())
	assert.EqualValues(t, domain.ActionUpdateDatasetSelection, backend.lastPosted().Action)
	require.NotNil(t, p.Store().Draft().PublicationID)
	assert.EqualValues(t, 42, *p.Store().Draft().PublicationID)
}

func TestAdvanceTransportFailureStaysOnPage(t *testing.T) {
	backend := &fakeBackend{postForm: func(DraftRecord) (DraftRecord, error) {
		return DraftRecord{}, errTransport
	}}
	p := newTestPipeline(backend, domain.WizardProfile{}, 1)
	fillDatasetPage(p)

	err := p.Advance(context.Background())

	assert.ErrorIs(t, err, errTransport)
	assert.EqualValues(t, 1, p.CurrentIndex())
	assert.EqualValues(t, []string{msgServerFailure}, p.ErrorMessages())
}

func TestAdvanceServerRejectionShowsServerMessage(t *testing.T) {
	backend := &fakeBackend{postForm: func(DraftRecord) (DraftRecord, error) {
		return DraftRecord{}, &ServerValidationError{Message: "Title too long"}
	}}
	p := newTestPipeline(backend, domain.WizardProfile{}, 1)
	fillDatasetPage(p)

	err := p.Advance(context.Background())

	assert.NotNil(t, err)
	assert.EqualValues(t, 1, p.CurrentIndex())
	assert.EqualValues(t, []string{"Title too long"}, p.ErrorMessages())
}

func TestAdvanceClearsPreviousErrors(t *testing.T) {
	p := newTestPipeline(&fakeBackend{}, domain.WizardProfile{}, 1)
	_ = p.Advance(context.Background())
	assert.Len(t, p.ErrorMessages(), 3)

	fillDatasetPage(p)
	err := p.Advance(context.Background())

	assert.Nil(t, err)
	assert.Empty(t, p.ErrorMessages())
}

func TestAdvanceOnFinalPageReturnsError(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 4)

	err := p.Advance(context.Background())

	assert.ErrorIs(t, err, ErrFinalPage)
	assert.EqualValues(t, 4, p.CurrentIndex())
	assert.True(t, p.IsComplete())
}

func TestAdvanceWhileBusyReturnsError(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &fakeBackend{postForm: func(record DraftRecord) (DraftRecord, error) {
		close(started)
		<-release
		return echoWithId(record), nil
	}}
	p := newTestPipeline(backend, domain.WizardProfile{}, 1)
	fillDatasetPage(p)

	done := make(chan error)
	go func() { done <- p.Advance(context.Background()) }()
	<-started

	assert.True(t, p.Loading())
	assert.ErrorIs(t, p.Advance(context.Background()), ErrBusy)
	_, err := p.Retreat()
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	assert.Nil(t, <-done)
	assert.EqualValues(t, 2, p.CurrentIndex())
	assert.EqualValues(t, 1, backend.postCount())
}

func TestAdvanceExtraInfoRunsAllChecks(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 2)
	calls := 0
	p.Registry().Register(func(domain.Draft) (bool, string) { calls++; return false, "first" })
	p.Registry().Register(func(domain.Draft) (bool, string) { calls++; return false, "second" })

	err := p.Advance(context.Background())

	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualValues(t, 2, calls)
	assert.EqualValues(t, []string{"first", "second"}, p.ErrorMessages())
	assert.EqualValues(t, 0, backend.postCount())
}

func TestAdvanceExtraInfoWithoutChecksSaves(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 2)

	err := p.Advance(context.Background())

	assert.Nil(t, err)
	assert.EqualValues(t, 3, p.CurrentIndex())
	assert.EqualValues(t, domain.ActionUpdateExtraInfo, backend.lastPosted().Action)
}

func TestAdvanceDatasetPageRebuildsRegistryFromProfile(t *testing.T) {
	profile := domain.WizardProfile{
		RequirePdb: true,
		ExtraInfo:  []domain.ExtraInfoField{{Key: "beamline", Label: "Beamline", Required: true}, {Key: "notes"}},
	}
	p := newTestPipeline(&fakeBackend{}, profile, 1)
	p.Registry().Register(func(domain.Draft) (bool, string) { return false, "stale" })
	fillDatasetPage(p)

	require.Nil(t, p.Advance(context.Background()))
	assert.EqualValues(t, 2, p.Registry().Len())

	err := p.Advance(context.Background())

	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualValues(t, []string{"Beamline must be given", msgPdbInvalid}, p.ErrorMessages())
}

func TestAdvanceDatasetPageValidationFailureClearsRegistry(t *testing.T) {
	p := newTestPipeline(&fakeBackend{}, domain.WizardProfile{RequirePdb: true}, 1)
	p.Registry().Register(func(domain.Draft) (bool, string) { return false, "stale" })

	_ = p.Advance(context.Background())

	assert.EqualValues(t, 0, p.Registry().Len())
}

func TestAdvanceAttributionDropsBlankAuthor(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 3)
	p.Store().SetEmbargoToToday()

	err := p.Advance(context.Background())

	assert.Nil(t, err)
	assert.Empty(t, p.ErrorMessages())
	assert.EqualValues(t, 4, p.CurrentIndex())
	assert.EqualValues(t, 1, backend.postCount())
	assert.Empty(t, backend.lastPosted().Authors)
	assert.EqualValues(t, domain.ActionSubmit, backend.lastPosted().Action)
}

func TestAdvanceAttributionPartialAuthorFails(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 3)
	p.Store().SetAuthor(0, domain.Author{Name: "A"})
	p.Store().AddAuthorEntry()
	p.Store().SetAuthor(1, domain.Author{Institution: "B"})
	p.Store().SetEmbargoToToday()

	err := p.Advance(context.Background())

	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualValues(t, []string{msgInvalidAuthors}, p.ErrorMessages())
	assert.EqualValues(t, 3, p.CurrentIndex())
	assert.EqualValues(t, 0, backend.postCount())
	assert.Len(t, p.Store().Draft().Authors, 2)
}

func TestAdvanceAttributionKeepsCompleteAuthors(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 3)
	author := domain.Author{Name: "Ada", Institution: "Uni", Email: "ada@uni.edu"}
	p.Store().SetAuthor(0, author)
	p.Store().AddAuthorEntry()
	p.Store().SetEmbargoToToday()

	err := p.Advance(context.Background())

	assert.Nil(t, err)
	assert.EqualValues(t, []domain.Author{author}, backend.lastPosted().Authors)
}

func TestAdvanceAttributionWithoutAuthorsOrDateReportsBoth(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 3)
	p.Store().RemoveAuthorEntry(0)

	err := p.Advance(context.Background())

	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualValues(t, []string{msgNoAuthors, msgNoReleaseDate}, p.ErrorMessages())
	assert.EqualValues(t, 0, backend.postCount())
}

func TestRetreatMovesBackAndClearsErrors(t *testing.T) {
	p := newTestPipeline(&fakeBackend{}, domain.WizardProfile{}, 1)
	_ = p.Advance(context.Background())

	closeWizard, err := p.Retreat()

	assert.Nil(t, err)
	assert.False(t, closeWizard)
	assert.EqualValues(t, 0, p.CurrentIndex())
	assert.Empty(t, p.ErrorMessages())
}

func TestRetreatOnFirstPageSignalsClose(t *testing.T) {
	p := newTestPipeline(&fakeBackend{}, domain.WizardProfile{}, 0)

	closeWizard, err := p.Retreat()

	assert.Nil(t, err)
	assert.True(t, closeWizard)
	assert.EqualValues(t, 0, p.CurrentIndex())
}

func TestIsLastPageIsTrueOnAttributionPage(t *testing.T) {
	p := newTestPipeline(&fakeBackend{}, domain.WizardProfile{}, 3)
	assert.True(t, p.IsLastPage())
	assert.False(t, p.IsComplete())
}

func TestSaveAndCloseReturnsPublicationId(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 1)

	id, err := p.SaveAndClose(context.Background())

	require.Nil(t, err)
	require.NotNil(t, id)
	assert.EqualValues(t, 42, *id)
	assert.EqualValues(t, 1, backend.postCount())
}

func TestSaveAndCloseFailureReportsMessage(t *testing.T) {
	backend := &fakeBackend{postForm: func(DraftRecord) (DraftRecord, error) {
		return DraftRecord{}, errTransport
	}}
	p := newTestPipeline(backend, domain.WizardProfile{}, 1)

	id, err := p.SaveAndClose(context.Background())

	assert.Nil(t, id)
	assert.NotNil(t, err)
	assert.EqualValues(t, []string{msgServerFailure}, p.ErrorMessages())
}

func TestFullWizardRunReachesCompletePage(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, domain.WizardProfile{}, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Nil(t, p.Advance(ctx))
	fillDatasetPage(p)
	require.Nil(t, p.Advance(ctx))
	require.Nil(t, p.Advance(ctx))
	p.Store().SetAuthor(0, domain.Author{Name: "Ada", Institution: "Uni", Email: "ada@uni.edu"})
	p.Store().SetEmbargoToToday()
	require.Nil(t, p.Advance(ctx))

	assert.True(t, p.IsComplete())
	assert.EqualValues(t, 3, backend.postCount())
}
