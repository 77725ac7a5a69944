package service

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrValidation = errors.New("form did not validate")
	ErrBusy       = errors.New("a request is already in progress")
	ErrFinalPage  = errors.New("already on the final page")
)

// Messages shown to the user
const (
	msgServerFailure      = "the server could not process your request"
	msgTitleMissing       = "A title must be given"
	msgDescriptionMissing = "Provide a description"
	msgNoDatasets         = "At least one dataset must be selected"
	msgNoAuthors          = "You must add at least one author."
	msgInvalidAuthors     = "Invalid author entries."
	msgNoReleaseDate      = "Release date cannot be blank."
	msgPdbInvalid         = "PDB ID invalid or not given"
	msgResumeFailed       = "Could not load publication draft!"
)

// ServerValidationError is returned when the server answered but rejected the form
type ServerValidationError struct {
	Message string
}

func (e *ServerValidationError) Error() string {
	return fmt.Sprintf("server rejected form: %s", e.Message)
}

// HTTPError represents a non-2xx response of the publication backend
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: HTTP %s: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %s", e.Endpoint, e.Status)
}
