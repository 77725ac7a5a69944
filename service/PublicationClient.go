// package service implements the services and their business logic that provide the main part of the program
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/johannes-kuhfuss/pubwizard/config"
	"github.com/johannes-kuhfuss/pubwizard/domain"
	"github.com/johannes-kuhfuss/services_utils/logger"
	"github.com/pkg/errors"
)

const (
	formPath        = "/apps/publication-workflow/form/"
	experimentsPath = "/apps/publication-workflow/data/fetch_experiments_and_datasets/"
	pdbPath         = "/apps/publication-workflow/helper/pdb/%s/"
	deletePath      = "/apps/publication-workflow/publication/delete/%d/"
	mintDoiPath     = "/apps/publication-workflow/publication/mint_doi/%d/"
	isPubPath       = "/apps/publication-workflow/experiment/%d/is_publication/"
	isPubDraftPath  = "/apps/publication-workflow/experiment/%d/is_publication_draft/"
	createTokenPath = "/experiment/view/%d/create_token/"

	maxResponseSize = 10 * 1024 * 1024
)

// PublicationBackend is the server side of the publication workflow
type PublicationBackend interface {
	PostForm(ctx context.Context, record DraftRecord) (DraftRecord, error)
	FetchExperiments(ctx context.Context) ([]domain.Experiment, error)
	LookupPdb(ctx context.Context, pdbId string) (domain.PdbInfo, error)
	DeletePublication(ctx context.Context, publicationId int64) error
	MintDoi(ctx context.Context, publicationId int64) error
	IsPublication(ctx context.Context, experimentId int64) (bool, error)
	IsPublicationDraft(ctx context.Context, experimentId int64) (bool, error)
	CreateToken(ctx context.Context, experimentId int64) error
}

// DraftRecord is the draft as it travels over the wire. The embargo date is a string here
type DraftRecord struct {
	PublicationTitle       string                `json:"publicationTitle"`
	PublicationDescription string                `json:"publicationDescription"`
	AddedDatasets          []domain.AddedDataset `json:"addedDatasets"`
	Authors                []domain.Author       `json:"authors"`
	Acknowledgements       string                `json:"acknowledgements"`
	ExtraInfo              map[string]any        `json:"extraInfo"`
	Embargo                *string               `json:"embargo,omitempty"`
	Action                 domain.Action         `json:"action"`
	PublicationID          *int64                `json:"publicationId,omitempty"`
	PdbInfo                *domain.PdbInfo       `json:"pdbInfo,omitempty"`
	Licenses               []domain.License      `json:"licenses,omitempty"`
	SelectedLicenseID      *int64                `json:"selectedLicenseId,omitempty"`
	SelectedLicense        *domain.License       `json:"selectedLicense,omitempty"`
}

// The publication client handles all the communication with the publication workflow backend
type DefaultPublicationClient struct {
	Cfg    *config.AppConfig
	client *http.Client
}

// NewPublicationClient creates a new publication client and injects its dependencies
func NewPublicationClient(cfg *config.AppConfig) DefaultPublicationClient {
	tr := http.Transport{
		DisableKeepAlives:  false,
		DisableCompression: false,
		MaxIdleConns:       0,
		IdleConnTimeout:    0,
	}
	return DefaultPublicationClient{
		Cfg: cfg,
		client: &http.Client{
			Transport: &tr,
			Timeout:   cfg.Server.Timeout,
		},
	}
}

// do sends a request to the backend and returns the response body. Any non-2xx status is an error
func (c DefaultPublicationClient) do(ctx context.Context, method string, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "unable to encode request")
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Cfg.Server.Host+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build request for %s", path)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Cfg.Server.SessionId != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.Cfg.Server.SessionId})
	}
	if c.Cfg.Server.CsrfToken != "" {
		req.AddCookie(&http.Cookie{Name: "csrftoken", Value: c.Cfg.Server.CsrfToken})
		req.Header.Set("X-CSRFToken", c.Cfg.Server.CsrfToken)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to execute request for %s", path)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read response from %s", path)
	}
	return data, nil
}

// getJSON queries path and decodes the answer into target
func (c DefaultPublicationClient) getJSON(ctx context.Context, path string, target any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrapf(err, "unable to decode response from %s", path)
	}
	return nil
}

// PostForm sends the complete draft and returns the server's version of it.
// A response carrying an "error" field is a rejected form, not a transport failure
func (c DefaultPublicationClient) PostForm(ctx context.Context, record DraftRecord) (DraftRecord, error) {
	var saved DraftRecord
	data, err := c.do(ctx, http.MethodPost, formPath, record)
	if err != nil {
		return saved, err
	}
	var rejected struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &rejected); err != nil {
		return saved, errors.Wrap(err, "unable to decode form response")
	}
	if rejected.Error != nil {
		return saved, &ServerValidationError{Message: *rejected.Error}
	}
	if err := json.Unmarshal(data, &saved); err != nil {
		return saved, errors.Wrap(err, "unable to decode form response")
	}
	return saved, nil
}

// FetchExperiments lists the experiments and datasets the user may publish
func (c DefaultPublicationClient) FetchExperiments(ctx context.Context) ([]domain.Experiment, error) {
	var experiments []domain.Experiment
	if err := c.getJSON(ctx, experimentsPath, &experiments); err != nil {
		return nil, err
	}
	return experiments, nil
}

// LookupPdb asks the server for the details of a PDB identifier
func (c DefaultPublicationClient) LookupPdb(ctx context.Context, pdbId string) (domain.PdbInfo, error) {
	var info domain.PdbInfo
	err := c.getJSON(ctx, fmt.Sprintf(pdbPath, url.PathEscape(pdbId)), &info)
	return info, err
}

// DeletePublication removes a publication draft
func (c DefaultPublicationClient) DeletePublication(ctx context.Context, publicationId int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf(deletePath, publicationId), struct{}{})
	return err
}

// MintDoi requests a DOI for a publication
func (c DefaultPublicationClient) MintDoi(ctx context.Context, publicationId int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf(mintDoiPath, publicationId), struct{}{})
	return err
}

// IsPublication tells whether the experiment is a publication
func (c DefaultPublicationClient) IsPublication(ctx context.Context, experimentId int64) (bool, error) {
	var resp struct {
		IsPublication bool `json:"is_publication"`
	}
	err := c.getJSON(ctx, fmt.Sprintf(isPubPath, experimentId), &resp)
	return resp.IsPublication, err
}

// IsPublicationDraft tells whether the experiment is an unfinished publication
func (c DefaultPublicationClient) IsPublicationDraft(ctx context.Context, experimentId int64) (bool, error) {
	var resp struct {
		IsPublicationDraft bool `json:"is_publication_draft"`
	}
	err := c.getJSON(ctx, fmt.Sprintf(isPubDraftPath, experimentId), &resp)
	return resp.IsPublicationDraft, err
}

// CreateToken creates an access token for sharing the publication.
// The server wants the experiment id in the body as well as in the url
func (c DefaultPublicationClient) CreateToken(ctx context.Context, experimentId int64) error {
	payload := struct {
		ExperimentId int64 `json:"experiment_id"`
	}{ExperimentId: experimentId}
	if _, err := c.do(ctx, http.MethodPost, fmt.Sprintf(createTokenPath, experimentId), payload); err != nil {
		logger.Error("Cannot create token", err)
		return err
	}
	return nil
}
