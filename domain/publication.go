// package domain defines the core data structures
package domain

import (
	"strings"
	"time"
)

// Action tells the server which operation a form post is meant to trigger
type Action string

const (
	ActionNone                   Action = ""
	ActionUpdateDatasetSelection Action = "update-dataset-selection"
	ActionUpdateExtraInfo        Action = "update-extra-info"
	ActionSubmit                 Action = "submit"
	ActionResume                 Action = "resume"
)

// Dataset is a single dataset as listed by the server
type Dataset struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// Experiment groups the datasets a user may add to a publication
type Experiment struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Datasets []Dataset `json:"datasets"`
}

// AddedDataset is a dataset selected for the publication. The parent experiment's title and id
// are copied onto the entry so it can be displayed without the experiment list
type AddedDataset struct {
	Experiment   string  `json:"experiment"`
	ExperimentID int64   `json:"experiment_id"`
	Dataset      Dataset `json:"dataset"`
}

// Author of a publication
type Author struct {
	Name        string `json:"name"`
	Institution string `json:"institution"`
	Email       string `json:"email"`
}

// blankFields counts the fields that are empty after trimming
func (a Author) blankFields() int {
	n := 0
	for _, f := range []string{a.Name, a.Institution, a.Email} {
		if strings.TrimSpace(f) == "" {
			n++
		}
	}
	return n
}

// Blank is true when no field was filled in
func (a Author) Blank() bool {
	return a.blankFields() == 3
}

// Complete is true when name, institution and email are all given
func (a Author) Complete() bool {
	return a.blankFields() == 0
}

// Partial is true when some, but not all fields are given
func (a Author) Partial() bool {
	n := a.blankFields()
	return n > 0 && n < 3
}

// License offered by the server for the publication
type License struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	ImageURL string `json:"image_url,omitempty"`
}

// PdbInfo is the response of the PDB identifier lookup
type PdbInfo struct {
	Status     string `json:"status"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Organism   string `json:"organism,omitempty"`
	Expression string `json:"expression,omitempty"`
	Citations  []any  `json:"citations,omitempty"`
}

// Valid reports whether the server knew the looked-up identifier
func (p PdbInfo) Valid() bool {
	return p.Status != "UNKNOWN"
}

// Draft is the in-progress publication record edited across the wizard pages
type Draft struct {
	PublicationTitle       string
	PublicationDescription string
	AddedDatasets          []AddedDataset
	Authors                []Author
	Acknowledgements       string
	ExtraInfo              map[string]any
	Embargo                *time.Time
	Action                 Action
	PublicationID          *int64
	PdbInfo                *PdbInfo
	Licenses               []License
	SelectedLicenseID      *int64
	SelectedLicense        *License
}

// NewDraft returns the empty draft the wizard opens with
func NewDraft() Draft {
	return Draft{
		AddedDatasets: []AddedDataset{},
		ExtraInfo:     make(map[string]any),
		Authors:       []Author{{}},
		Action:        ActionNone,
	}
}

// ExtraInfoText returns the extra information stored under key if it is plain text.
// Nested discipline forms and missing keys give an empty string
func (d Draft) ExtraInfoText(key string) string {
	s, _ := d.ExtraInfo[key].(string)
	return s
}

// cloneValue copies the maps and slices a decoded JSON value is made of
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = cloneValue(e)
		}
		return l
	default:
		return v
	}
}

// Clone returns a deep copy so callers can read the draft without holding the store lock
func (d Draft) Clone() Draft {
	c := d
	if d.AddedDatasets != nil {
		c.AddedDatasets = make([]AddedDataset, len(d.AddedDatasets))
		copy(c.AddedDatasets, d.AddedDatasets)
	}
	if d.Authors != nil {
		c.Authors = make([]Author, len(d.Authors))
		copy(c.Authors, d.Authors)
	}
	if d.Licenses != nil {
		c.Licenses = make([]License, len(d.Licenses))
		copy(c.Licenses, d.Licenses)
	}
	if d.ExtraInfo != nil {
		c.ExtraInfo = make(map[string]any, len(d.ExtraInfo))
		for k, v := range d.ExtraInfo {
			c.ExtraInfo[k] = cloneValue(v)
		}
	}
	if d.Embargo != nil {
		e := *d.Embargo
		c.Embargo = &e
	}
	if d.PublicationID != nil {
		id := *d.PublicationID
		c.PublicationID = &id
	}
	if d.PdbInfo != nil {
		p := *d.PdbInfo
		c.PdbInfo = &p
	}
	if d.SelectedLicenseID != nil {
		id := *d.SelectedLicenseID
		c.SelectedLicenseID = &id
	}
	if d.SelectedLicense != nil {
		l := *d.SelectedLicense
		c.SelectedLicense = &l
	}
	return c
}
