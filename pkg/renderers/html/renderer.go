// Package html exports forms and submission tables as standalone HTML
// pages. Labels and cell text are stripped of markup before the templates
// escape them.
package html

import (
	"errors"
	"fmt"
	stdhtml "html"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formdesk/pkg/form"
	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/options"
	rendertemplate "github.com/goliatone/go-formdesk/pkg/render/template"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/table"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

type Option func(*config)

type config struct {
	templateDir      string
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	translator       i18n.Translator
	locale           string
	policy           *bluemonday.Policy
	submitLabel      string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk instead of the
// embedded set. The directory must hold base.tpl as well as the pages.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTranslator localises messages, cells and the page language.
func WithTranslator(t i18n.Translator, locale string) Option {
	return func(cfg *config) {
		cfg.translator = t
		if locale != "" {
			cfg.locale = locale
		}
	}
}

// WithPolicy replaces the strict sanitising policy applied to text.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(cfg *config) {
		if p != nil {
			cfg.policy = p
		}
	}
}

// WithSubmitLabel sets the form button text.
func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(label) != "" {
			cfg.submitLabel = label
		}
	}
}

type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	translator i18n.Translator
	locale     string
	policy     *bluemonday.Policy
}

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:  TemplatesFS(),
		locale:      i18n.DefaultLocale,
		submitLabel: "Submit",
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.policy == nil {
		cfg.policy = bluemonday.StrictPolicy()
	}

	globals := map[string]any{"locale": cfg.locale, "submitLabel": cfg.submitLabel}
	renderer := cfg.templateRenderer
	if renderer == nil {
		source := rendertemplate.WithFS(cfg.templateFS)
		if cfg.templateDir != "" {
			source = rendertemplate.WithBaseDir(cfg.templateDir)
		}
		engine, err := rendertemplate.New(source, rendertemplate.WithGlobalData(globals))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	} else if err := renderer.GlobalContext(globals); err != nil {
		return nil, fmt.Errorf("html renderer: global context: %w", err)
	}
	if err := renderer.RegisterFilter("ariasort", ariaSort); err != nil && !errors.Is(err, rendertemplate.ErrFilterExists) {
		return nil, fmt.Errorf("html renderer: register filters: %w", err)
	}

	return &Renderer{
		templates:  renderer,
		translator: cfg.translator,
		locale:     cfg.locale,
		policy:     cfg.policy,
	}, nil
}

// Item kinds of the flattened form view.
const (
	kindGroupOpen  = "group_open"
	kindGroupClose = "group_close"
	kindInput      = "input"
	kindSelect     = "select"
	kindChoice     = "choice"
	kindUnknown    = "unknown"
)

type optionView struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

type itemView struct {
	Kind      string       `json:"kind"`
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	Type      string       `json:"type"`
	Required  bool         `json:"required"`
	Hidden    bool         `json:"hidden"`
	Disabled  bool         `json:"disabled"`
	DependsOn string       `json:"dependsOn"`
	Value     string       `json:"value"`
	Min       string       `json:"min"`
	Max       string       `json:"max"`
	Pattern   string       `json:"pattern"`
	Options   []optionView `json:"options"`
	Message   string       `json:"message"`
	Error     string       `json:"error"`
}

type formView struct {
	FormID string     `json:"formId"`
	Title  string     `json:"title"`
	Items  []itemView `json:"items"`
}

// RenderForm writes the form with its current values as an HTML page.
// Hidden fields are kept in the markup with the hidden attribute so a
// client script can reveal them; errs, keyed by field id, is shown inline.
func (r *Renderer) RenderForm(w io.Writer, f *form.Form, errs map[string]string) error {
	view := formView{FormID: f.FormID(), Title: r.clean(f.Title())}
	view.Items = r.items(f, f.Fields(), errs, false)

	_, err := r.templates.RenderTemplate("form", map[string]any{
		"title": view.Title,
		"form":  view,
	}, w)
	if err != nil {
		return fmt.Errorf("html renderer: form %s: %w", f.FormID(), err)
	}
	return nil
}

func (r *Renderer) items(f *form.Form, fields []schema.Field, errs map[string]string, parentHidden bool) []itemView {
	var out []itemView
	for _, field := range fields {
		base := field.Base()
		hidden := parentHidden || !f.IsVisible(base.ID)
		item := itemView{
			ID:       base.ID,
			Label:    r.clean(base.Label),
			Type:     base.Type,
			Required: base.Required,
			Hidden:   hidden,
			Error:    errs[base.ID],
		}
		if base.Visibility != nil {
			item.DependsOn = base.Visibility.DependsOn
		}

		switch fld := field.(type) {
		case *schema.GroupField:
			item.Kind = kindGroupOpen
			out = append(out, item)
			out = append(out, r.items(f, fld.Fields, errs, hidden)...)
			out = append(out, itemView{Kind: kindGroupClose, ID: base.ID})
			continue
		case *schema.InputField:
			item.Kind = kindInput
			item.Value = r.clean(visibility.String(f.Value(base.ID)))
			if v := fld.Validation; v != nil {
				item.Min = formatBound(v.Min)
				item.Max = formatBound(v.Max)
				item.Pattern = v.Pattern
			}
		case *schema.OptionField:
			item.Kind = kindSelect
			if fld.Type != schema.TypeSelect {
				item.Kind = kindChoice
			}
			r.fillOptions(&item, f, fld)
		case *schema.UnknownField:
			item.Kind = kindUnknown
			item.Message = i18n.T(r.translator, r.locale, i18n.KeyUnknownFieldType, map[string]any{"type": base.Type})
		}
		out = append(out, item)
	}
	return out
}

func (r *Renderer) fillOptions(item *itemView, f *form.Form, field *schema.OptionField) {
	res, err := f.Options(field.ID)
	if err != nil {
		return
	}
	item.Disabled = res.Disabled()
	switch res.Status {
	case options.StatusLoading:
		item.Message = i18n.T(r.translator, r.locale, i18n.KeyLoading, nil)
	case options.StatusFailed:
		item.Message = i18n.T(r.translator, r.locale, i18n.KeyOptionsFailed, nil)
	}
	if field.DynamicOptions != nil && item.DependsOn == "" {
		item.DependsOn = field.DynamicOptions.DependsOn
	}

	chosen := make(map[string]bool)
	switch v := f.Value(field.ID).(type) {
	case []string:
		for _, s := range v {
			chosen[s] = true
		}
	case []any:
		for _, s := range v {
			chosen[visibility.String(s)] = true
		}
	case nil:
	default:
		chosen[visibility.String(v)] = true
	}
	for _, opt := range res.Options {
		item.Options = append(item.Options, optionView{Value: r.clean(opt), Selected: chosen[opt]})
	}
}

type columnView struct {
	ID        string `json:"id"`
	Header    string `json:"header"`
	Indicator string `json:"indicator"`
	Direction string `json:"direction"`
	Hint      string `json:"hint"`
}

type rowView struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

type tableView struct {
	Columns []columnView `json:"columns"`
	Rows    []rowView    `json:"rows"`
	Summary string       `json:"summary"`
	Page    string       `json:"page"`
	Empty   string       `json:"empty"`
}

// RenderTable writes the controller's current page as an HTML page.
func (r *Renderer) RenderTable(w io.Writer, c *table.Controller, title string) error {
	view := tableView{
		Rows:    []rowView{},
		Summary: c.SummaryText(),
		Page:    i18n.T(r.translator, r.locale, i18n.KeyPage, map[string]any{"page": c.Page() + 1, "pages": c.PageCount()}),
		Empty:   i18n.T(r.translator, r.locale, i18n.KeyEmptyCell, nil),
	}
	for _, col := range c.VisibleColumns() {
		dir := c.Direction(col.ID)
		view.Columns = append(view.Columns, columnView{
			ID:        col.ID,
			Header:    r.clean(col.Header),
			Indicator: dir.Indicator(),
			Direction: dir.String(),
			Hint:      c.SortHint(col.ID),
		})
	}
	for _, row := range c.Rows() {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = r.clean(cell)
		}
		view.Rows = append(view.Rows, rowView{ID: row.ID, Cells: cells})
	}

	_, err := r.templates.RenderTemplate("table", map[string]any{
		"title":  r.clean(title),
		"table":  view,
	}, w)
	if err != nil {
		return fmt.Errorf("html renderer: table: %w", err)
	}
	return nil
}

// clean strips markup and returns plain text; the template escapes it on
// output.
func (r *Renderer) clean(s string) string {
	if s == "" {
		return ""
	}
	return stdhtml.UnescapeString(r.policy.Sanitize(s))
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ariaSort is the "ariasort" template filter: it maps a column's sort
// direction to its aria-sort value.
func ariaSort(in any, _ any) (any, error) {
	switch fmt.Sprint(in) {
	case table.Ascending.String():
		return "ascending", nil
	case table.Descending.String():
		return "descending", nil
	default:
		return "none", nil
	}
}
