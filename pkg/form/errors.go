package form

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrSubmitting is returned while a submission is in flight.
	ErrSubmitting = errors.New("form: submission in progress")
	// ErrSubmitPanic wraps a recovered panic raised by a Submitter.
	ErrSubmitPanic = errors.New("form: submitter panicked")
	// ErrNoSubmitter is returned by Submit when no Submitter is configured.
	ErrNoSubmitter = errors.New("form: no submitter configured")
	// ErrUnknownField is returned for ids that are not part of the form.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrClosed is returned once the form has been closed.
	ErrClosed = errors.New("form: closed")
)

// ValidationError carries the per-field messages that blocked a submit.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "form: validation failed"
	}
	ids := make([]string, 0, len(e.Fields))
	for id := range e.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+": "+e.Fields[id])
	}
	return "form: validation failed: " + strings.Join(parts, "; ")
}
