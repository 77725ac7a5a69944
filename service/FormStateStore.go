package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/johannes-kuhfuss/pubwizard/domain"
	"github.com/pkg/errors"
)

// Date layouts accepted for the embargo date. The first one is used when sending
var embargoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// The form state store holds the draft while it is edited and persists it on the server
type FormStateStore struct {
	backend PublicationBackend
	mu      sync.RWMutex
	draft   domain.Draft
}

// NewFormStateStore creates a store holding an empty draft
func NewFormStateStore(backend PublicationBackend) *FormStateStore {
	return &FormStateStore{
		backend: backend,
		draft:   domain.NewDraft(),
	}
}

// parseEmbargo converts the wire representation of the embargo date into a date
func parseEmbargo(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	for _, layout := range embargoLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(*s)); err == nil {
			return &t, nil
		}
	}
	return nil, errors.Errorf("invalid embargo date %q", *s)
}

// ToDraft normalizes a server record into a draft
func ToDraft(record DraftRecord) (domain.Draft, error) {
	embargo, err := parseEmbargo(record.Embargo)
	if err != nil {
		return domain.Draft{}, err
	}
	draft := domain.Draft{
		PublicationTitle:       record.PublicationTitle,
		PublicationDescription: record.PublicationDescription,
		AddedDatasets:          record.AddedDatasets,
		Authors:                record.Authors,
		Acknowledgements:       record.Acknowledgements,
		ExtraInfo:              record.ExtraInfo,
		Embargo:                embargo,
		Action:                 record.Action,
		PublicationID:          record.PublicationID,
		PdbInfo:                record.PdbInfo,
		Licenses:               record.Licenses,
		SelectedLicenseID:      record.SelectedLicenseID,
		SelectedLicense:        record.SelectedLicense,
	}
	if draft.AddedDatasets == nil {
		draft.AddedDatasets = []domain.AddedDataset{}
	}
	if draft.Authors == nil {
		draft.Authors = []domain.Author{}
	}
	if draft.ExtraInfo == nil {
		draft.ExtraInfo = make(map[string]any)
	}
	return draft, nil
}

// ToRecord renders a draft into its wire representation
func ToRecord(draft domain.Draft) DraftRecord {
	record := DraftRecord{
		PublicationTitle:       draft.PublicationTitle,
		PublicationDescription: draft.PublicationDescription,
		AddedDatasets:          draft.AddedDatasets,
		Authors:                draft.Authors,
		Acknowledgements:       draft.Acknowledgements,
		ExtraInfo:              draft.ExtraInfo,
		Action:                 draft.Action,
		PublicationID:          draft.PublicationID,
		PdbInfo:                draft.PdbInfo,
		Licenses:               draft.Licenses,
		SelectedLicenseID:      draft.SelectedLicenseID,
		SelectedLicense:        draft.SelectedLicense,
	}
	if draft.Embargo != nil {
		s := draft.Embargo.UTC().Format(embargoLayouts[0])
		record.Embargo = &s
	}
	if record.AddedDatasets == nil {
		record.AddedDatasets = []domain.AddedDataset{}
	}
	if record.Authors == nil {
		record.Authors = []domain.Author{}
	}
	if record.ExtraInfo == nil {
		record.ExtraInfo = make(map[string]any)
	}
	return record
}

// Load replaces the local draft with a record fetched from the server
func (s *FormStateStore) Load(record DraftRecord) (domain.Draft, error) {
	draft, err := ToDraft(record)
	if err != nil {
		return domain.Draft{}, err
	}
	s.mu.Lock()
	s.draft = draft
	s.mu.Unlock()
	return draft.Clone(), nil
}

// Save sends the draft to the server and adopts the server's answer as the new local state
func (s *FormStateStore) Save(ctx context.Context) (domain.Draft, error) {
	s.mu.RLock()
	record := ToRecord(s.draft.Clone())
	s.mu.RUnlock()
	saved, err := s.backend.PostForm(ctx, record)
	if err != nil {
		return domain.Draft{}, err
	}
	return s.Load(saved)
}

// Draft returns a copy of the current draft
func (s *FormStateStore) Draft() domain.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone()
}

// Update applies fn to the draft under the store's lock
func (s *FormStateStore) Update(fn func(d *domain.Draft)) {
	s.mu.Lock()
	fn(&s.draft)
	s.mu.Unlock()
}

func (s *FormStateStore) SetTitle(title string) {
	s.Update(func(d *domain.Draft) { d.PublicationTitle = title })
}

func (s *FormStateStore) SetDescription(description string) {
	s.Update(func(d *domain.Draft) { d.PublicationDescription = description })
}

func (s *FormStateStore) SetAction(action domain.Action) {
	s.Update(func(d *domain.Draft) { d.Action = action })
}

// SetExtraInfo stores value under key. Values are plain text or the nested model of a discipline form
func (s *FormStateStore) SetExtraInfo(key string, value any) {
	s.Update(func(d *domain.Draft) {
		if d.ExtraInfo == nil {
			d.ExtraInfo = make(map[string]any)
		}
		d.ExtraInfo[key] = value
	})
}

func (s *FormStateStore) SetEmbargo(embargo *time.Time) {
	s.Update(func(d *domain.Draft) { d.Embargo = embargo })
}

// SetEmbargoToToday releases the publication immediately
func (s *FormStateStore) SetEmbargoToToday() {
	now := time.Now()
	s.SetEmbargo(&now)
}

func (s *FormStateStore) SetPdbInfo(info *domain.PdbInfo) {
	s.Update(func(d *domain.Draft) { d.PdbInfo = info })
}

// AddDatasets adds the datasets of an experiment to the selection. Datasets already selected are skipped
func (s *FormStateStore) AddDatasets(experiment domain.Experiment, datasets []domain.Dataset) {
	s.Update(func(d *domain.Draft) {
		for _, ds := range RemoveMatchingDatasets(datasets, d.AddedDatasets) {
			d.AddedDatasets = append(d.AddedDatasets, domain.AddedDataset{
				Experiment:   experiment.Title,
				ExperimentID: experiment.ID,
				Dataset:      ds,
			})
		}
	})
}

// RemoveDataset drops an entry from the selection. Nothing happens when it is not selected
func (s *FormStateStore) RemoveDataset(entry domain.AddedDataset) {
	s.Update(func(d *domain.Draft) {
		for i, added := range d.AddedDatasets {
			if added.Dataset.ID == entry.Dataset.ID && added.ExperimentID == entry.ExperimentID {
				d.AddedDatasets = append(d.AddedDatasets[:i], d.AddedDatasets[i+1:]...)
				return
			}
		}
	})
}

// RemoveMatchingDatasets filters out the candidates that are already part of the selection
func RemoveMatchingDatasets(candidates []domain.Dataset, added []domain.AddedDataset) []domain.Dataset {
	if candidates == nil {
		return nil
	}
	selected := make(map[int64]bool, len(added))
	for _, a := range added {
		selected[a.Dataset.ID] = true
	}
	out := []domain.Dataset{}
	for _, c := range candidates {
		if !selected[c.ID] {
			out = append(out, c)
			selected[c.ID] = true
		}
	}
	return out
}

// SelectExperiment picks the experiment with the given id from the listing
func SelectExperiment(experiments []domain.Experiment, id int64) (domain.Experiment, bool) {
	for _, e := range experiments {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Experiment{}, false
}

func (s *FormStateStore) AddAuthorEntry() {
	s.Update(func(d *domain.Draft) { d.Authors = append(d.Authors, domain.Author{}) })
}

// RemoveAuthorEntry removes the author at idx, out of range indexes are ignored
func (s *FormStateStore) RemoveAuthorEntry(idx int) {
	s.Update(func(d *domain.Draft) {
		if idx >= 0 && idx < len(d.Authors) {
			d.Authors = append(d.Authors[:idx], d.Authors[idx+1:]...)
		}
	})
}

// SetAuthor replaces the author at idx, out of range indexes are ignored
func (s *FormStateStore) SetAuthor(idx int, author domain.Author) {
	s.Update(func(d *domain.Draft) {
		if idx >= 0 && idx < len(d.Authors) {
			d.Authors[idx] = author
		}
	})
}

// CopyAcknowledgement appends an example text to the acknowledgements unless it is already there
func (s *FormStateStore) CopyAcknowledgement(text string) {
	s.Update(func(d *domain.Draft) {
		if strings.Contains(d.Acknowledgements, text) {
			return
		}
		if len(d.Acknowledgements) > 0 {
			d.Acknowledgements += " "
		}
		d.Acknowledgements += text
	})
}

// SelectLicense sets the chosen license id and resolves the license it refers to
func (s *FormStateStore) SelectLicense(id int64) {
	s.Update(func(d *domain.Draft) {
		d.SelectedLicenseID = &id
		for _, l := range d.Licenses {
			if l.ID == id {
				license := l
				d.SelectedLicense = &license
				return
			}
		}
	})
}
