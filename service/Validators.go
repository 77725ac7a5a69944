package service

import (
	"context"
	"strings"

	"github.com/johannes-kuhfuss/pubwizard/domain"
)

func noValidation(_ context.Context, _ *PagePipeline) error {
	return nil
}

// datasetSelectionValidator requires title, description and at least one dataset.
// All missing items are reported at once
func datasetSelectionValidator(ctx context.Context, p *PagePipeline) error {
	// the discipline specific form may change with the selection
	p.registry.Clear()
	p.store.SetAction(domain.ActionUpdateDatasetSelection)

	draft := p.store.Draft()
	failed := false
	if len(strings.TrimSpace(draft.PublicationTitle)) == 0 {
		p.addError(msgTitleMissing)
		failed = true
	}
	if len(strings.TrimSpace(draft.PublicationDescription)) == 0 {
		p.addError(msgDescriptionMissing)
		failed = true
	}
	if len(draft.AddedDatasets) == 0 {
		p.addError(msgNoDatasets)
		failed = true
	}
	if failed {
		return ErrValidation
	}
	if err := p.save(ctx); err != nil {
		return err
	}
	p.registry.Rebuild(p.profile, p.pdb)
	return nil
}

// extraInformationValidator runs every registered discipline specific check
func extraInformationValidator(ctx context.Context, p *PagePipeline) error {
	ok, msgs := p.registry.Evaluate(p.store.Draft())
	for _, msg := range msgs {
		p.addError(msg)
	}
	if !ok {
		return ErrValidation
	}
	p.store.SetAction(domain.ActionUpdateExtraInfo)
	return p.save(ctx)
}

// finalSubmissionValidator checks the authors and the release date before submitting.
// Authors without any details are dropped. The first partially filled author ends the author check
func finalSubmissionValidator(ctx context.Context, p *PagePipeline) error {
	p.store.SetAction(domain.ActionSubmit)

	draft := p.store.Draft()
	failed := false
	if len(draft.Authors) == 0 {
		p.addError(msgNoAuthors)
		failed = true
	}

	authors := []domain.Author{}
	for _, author := range draft.Authors {
		if author.Complete() {
			authors = append(authors, author)
		} else if author.Partial() {
			p.addError(msgInvalidAuthors)
			failed = true
			break
		}
	}
	if !failed {
		p.store.Update(func(d *domain.Draft) { d.Authors = authors })
	}

	if draft.Embargo == nil {
		p.addError(msgNoReleaseDate)
		failed = true
	}

	if failed {
		return ErrValidation
	}
	return p.save(ctx)
}
