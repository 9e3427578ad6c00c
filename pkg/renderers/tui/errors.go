package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNotSubmitted is returned by Run when the user declines to submit.
	// The draft is kept.
	ErrNotSubmitted = errors.New("tui: not submitted")
	// ErrIncomplete is returned by Run when asking again changed nothing,
	// typically because a required field has no options to pick from. It
	// wraps the form.ValidationError and the draft is kept.
	ErrIncomplete = errors.New("tui: form cannot be completed")
)
