package formdesk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/draft"
	"github.com/goliatone/go-formdesk/pkg/form"
	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/options"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/table"
)

// Backend is everything a Session needs from the insurance API.
// *apiclient.Client satisfies it.
type Backend interface {
	form.Submitter
	options.Fetcher
	Form(ctx context.Context, formID string) (schema.InsuranceForm, error)
	Submissions(ctx context.Context, filter *schema.SubmissionsFilter) (schema.SubmissionsResponse, error)
}

// Session wires one backend, draft store and option cache into the form and
// table engines so every form opened from it shares them.
type Session struct {
	backend       Backend
	drafts        *draft.Drafts
	resolver      *options.Resolver
	translator    i18n.Translator
	locale        string
	logger        *zap.Logger
	autosaveDelay time.Duration
	pageSize      int
}

// Option configures a Session.
type Option func(*Session)

// WithDraftStore persists in-progress answers to store.
func WithDraftStore(store draft.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.drafts = draft.New(store, draft.WithLogger(s.logger))
		}
	}
}

// WithAutosaveDelay overrides the draft debounce delay.
func WithAutosaveDelay(delay time.Duration) Option {
	return func(s *Session) {
		s.autosaveDelay = delay
	}
}

// WithTranslator sets the translator and locale used for messages.
func WithTranslator(t i18n.Translator, locale string) Option {
	return func(s *Session) {
		if t != nil {
			s.translator = t
		}
		if locale != "" {
			s.locale = locale
		}
	}
}

// WithPageSize sets the initial table page size.
func WithPageSize(size int) Option {
	return func(s *Session) {
		s.pageSize = size
	}
}

// WithLogger attaches a structured logger. Pass it before WithDraftStore so
// the draft layer logs through it too.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession builds a Session around backend. Without WithDraftStore drafts
// live in memory for the lifetime of the process.
func NewSession(backend Backend, opts ...Option) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("formdesk: backend is required")
	}
	s := &Session{
		backend:    backend,
		translator: i18n.NewCatalog(),
		locale:     i18n.DefaultLocale,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.drafts == nil {
		s.drafts = draft.New(draft.NewMemoryStore(), draft.WithLogger(s.logger))
	}
	s.resolver = options.NewResolver(backend, options.WithLogger(s.logger))
	return s, nil
}

// Locale reports the locale forms and tables are rendered in.
func (s *Session) Locale() string { return s.locale }

// Translator returns the session translator.
func (s *Session) Translator() i18n.Translator { return s.translator }

// OpenForm fetches a definition and returns a live form bound to the
// session's drafts, option resolver and submitter. extra options are applied
// last.
func (s *Session) OpenForm(ctx context.Context, formID string, extra ...form.Option) (*form.Form, error) {
	def, err := s.backend.Form(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("formdesk: open form %q: %w", formID, err)
	}
	if err := schema.Check(def); err != nil {
		s.logger.Warn("form definition has problems", zap.String("form", formID), zap.Error(err))
	}

	opts := []form.Option{
		form.WithDrafts(s.drafts),
		form.WithResolver(s.resolver),
		form.WithSubmitter(s.backend),
		form.WithTranslator(s.translator, s.locale),
		form.WithLogger(s.logger.With(zap.String("form", formID))),
	}
	if s.autosaveDelay > 0 {
		opts = append(opts, form.WithAutosaveDelay(s.autosaveDelay))
	}
	opts = append(opts, extra...)
	return form.New(def, opts...), nil
}

// Submissions loads the submissions listing into a table controller.
func (s *Session) Submissions(ctx context.Context, filter *schema.SubmissionsFilter) (*table.Controller, error) {
	resp, err := s.backend.Submissions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("formdesk: load submissions: %w", err)
	}
	opts := []table.ControllerOption{table.WithTranslator(s.translator, s.locale)}
	if s.pageSize > 0 {
		opts = append(opts, table.WithPageSize(s.pageSize))
	}
	return table.NewController(table.NewModel(resp), opts...), nil
}
