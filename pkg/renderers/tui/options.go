package tui

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/i18n"
)

// Theme captures optional prefixes the renderer applies to info lines. Keep
// minimal to avoid coupling renderer logic to ANSI specifics.
type Theme struct {
	GroupPrefix string
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme is used unless WithTheme overrides it.
var DefaultTheme = Theme{GroupPrefix: "== ", InfoPrefix: "  ", ErrorPrefix: "! "}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTranslator localises prompts and messages.
func WithTranslator(t i18n.Translator, locale string) Option {
	return func(r *Renderer) {
		r.translator = t
		if locale != "" {
			r.locale = locale
		}
	}
}

// WithOutput sets where tables are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) {
		if w != nil {
			r.out = w
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithConfirmSubmit controls whether Run asks before submitting.
func WithConfirmSubmit(confirm bool) Option {
	return func(r *Renderer) {
		r.confirmSubmit = confirm
	}
}

// WithOptionsPoll sets how often a loading option list is polled and how
// long the renderer waits for it.
func WithOptionsPoll(every, timeout time.Duration) Option {
	return func(r *Renderer) {
		if every > 0 {
			r.pollEvery = every
		}
		if timeout > 0 {
			r.pollTimeout = timeout
		}
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
