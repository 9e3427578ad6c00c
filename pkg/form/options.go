package form

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/draft"
	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/options"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

// Submitter delivers completed values to the backend.
type Submitter interface {
	Submit(ctx context.Context, formID string, values schema.Values) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, formID string, values schema.Values) error

func (fn SubmitterFunc) Submit(ctx context.Context, formID string, values schema.Values) error {
	return fn(ctx, formID, values)
}

// Option configures a Form.
type Option func(*Form)

// WithDrafts enables draft restore on construction and debounced autosave.
func WithDrafts(d *draft.Drafts) Option {
	return func(f *Form) {
		f.drafts = d
	}
}

// WithAutosaveDelay overrides draft.DefaultDelay.
func WithAutosaveDelay(delay time.Duration) Option {
	return func(f *Form) {
		if delay > 0 {
			f.autosaveDelay = delay
		}
	}
}

// WithResolver resolves dynamic option lists.
func WithResolver(r *options.Resolver) Option {
	return func(f *Form) {
		if r != nil {
			f.resolver = r
		}
	}
}

// WithSubmitter sets the backend the form submits to.
func WithSubmitter(s Submitter) Option {
	return func(f *Form) {
		f.submitter = s
	}
}

// WithLogger sets the form's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithReorderCallback is invoked with the new top-level field order after
// each successful move.
func WithReorderCallback(fn func([]schema.Field)) Option {
	return func(f *Form) {
		f.onReorder = fn
	}
}

// WithOptionsCallback is invoked whenever a dynamic option list settles.
func WithOptionsCallback(fn func(fieldID string, res options.Result)) Option {
	return func(f *Form) {
		f.onOptions = fn
	}
}

// WithTranslator localises validation messages.
func WithTranslator(t i18n.Translator, locale string) Option {
	return func(f *Form) {
		f.translator = t
		if locale != "" {
			f.locale = locale
		}
	}
}

// WithEvaluator replaces the visibility evaluator.
func WithEvaluator(e visibility.Evaluator) Option {
	return func(f *Form) {
		if e != nil {
			f.evaluator = e
		}
	}
}
