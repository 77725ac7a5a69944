package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/johannes-kuhfuss/pubwizard/domain"
)

// ExtraInfoCheck inspects the draft and returns false plus a message when the extra information is not acceptable
type ExtraInfoCheck func(draft domain.Draft) (ok bool, msg string)

// ExtraInfoRegistry holds the checks of the discipline specific extra information page
type ExtraInfoRegistry struct {
	mu     sync.Mutex
	checks []ExtraInfoCheck
}

func NewExtraInfoRegistry() *ExtraInfoRegistry {
	return &ExtraInfoRegistry{}
}

func (r *ExtraInfoRegistry) Register(check ExtraInfoCheck) {
	r.mu.Lock()
	r.checks = append(r.checks, check)
	r.mu.Unlock()
}

// Clear drops all checks. Needed whenever the discipline specific form may have changed
func (r *ExtraInfoRegistry) Clear() {
	r.mu.Lock()
	r.checks = nil
	r.mu.Unlock()
}

func (r *ExtraInfoRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.checks)
}

// Evaluate runs every check, failing ones do not stop the others. It returns true when all passed
func (r *ExtraInfoRegistry) Evaluate(draft domain.Draft) (bool, []string) {
	r.mu.Lock()
	checks := append([]ExtraInfoCheck(nil), r.checks...)
	r.mu.Unlock()
	ok := true
	msgs := []string{}
	for _, check := range checks {
		if passed, msg := check(draft); !passed {
			ok = false
			if msg != "" {
				msgs = append(msgs, msg)
			}
		}
	}
	return ok, msgs
}

// Rebuild clears the registry and registers the checks the profile asks for
func (r *ExtraInfoRegistry) Rebuild(profile domain.WizardProfile, pdb *PdbLookup) {
	r.Clear()
	for _, field := range profile.ExtraInfo {
		if field.Required {
			r.Register(RequiredFieldCheck(field))
		}
	}
	if profile.RequirePdb && pdb != nil {
		r.Register(pdb.Check)
	}
}

// hasValue is false for missing keys, blank text and empty nested forms
func hasValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// RequiredFieldCheck fails when the field has no value
func RequiredFieldCheck(field domain.ExtraInfoField) ExtraInfoCheck {
	label := field.Label
	if label == "" {
		label = field.Key
	}
	return func(draft domain.Draft) (bool, string) {
		if !hasValue(draft.ExtraInfo[field.Key]) {
			return false, fmt.Sprintf("%s must be given", label)
		}
		return true, ""
	}
}
