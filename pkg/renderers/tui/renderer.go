// Package tui renders dynamic forms and submission tables in a terminal.
// Prompts go through a PromptDriver; the default one is built on survey.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/form"
	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/options"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/validation"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

// Renderer walks a form.Form field by field, writing every answer back
// through SetValue so visibility, dynamic options and autosave behave as
// they would in any other front end.
type Renderer struct {
	driver        PromptDriver
	translator    i18n.Translator
	locale        string
	theme         Theme
	out           io.Writer
	confirmSubmit bool
	pollEvery     time.Duration
	pollTimeout   time.Duration
	logger        *zap.Logger
}

// New constructs a renderer with defaults (survey driver, English, stdout).
func New(opts ...Option) *Renderer {
	r := &Renderer{
		locale:        i18n.DefaultLocale,
		theme:         DefaultTheme,
		out:           os.Stdout,
		confirmSubmit: true,
		pollEvery:     50 * time.Millisecond,
		pollTimeout:   30 * time.Second,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	return r
}

// Fill prompts every visible field in order. Visibility is re-evaluated as
// answers arrive, so a field revealed by an earlier answer is asked too.
func (r *Renderer) Fill(ctx context.Context, f *form.Form) error {
	return r.promptFields(ctx, f, f.Fields(), nil)
}

// Run fills the form, asks for confirmation and submits. Fields rejected by
// validation are prompted again until the submission passes, the user
// aborts, or a round of prompts changes no value (ErrIncomplete). Declining
// to submit keeps the draft and returns ErrNotSubmitted.
func (r *Renderer) Run(ctx context.Context, f *form.Form) error {
	if f.Title() != "" {
		if err := r.driver.Info(ctx, r.theme.GroupPrefix+f.Title()); err != nil {
			return err
		}
	}
	if err := r.Fill(ctx, f); err != nil {
		return err
	}

	for {
		if r.confirmSubmit {
			ok, err := r.driver.Confirm(ctx, ConfirmConfig{
				Message: r.t(i18n.KeyConfirmSubmit, map[string]any{"title": f.Title()}),
				Default: true,
			})
			if err != nil {
				return err
			}
			if !ok {
				f.Unload()
				_ = r.driver.Info(ctx, r.theme.InfoPrefix+r.t(i18n.KeyDraftSaved, nil))
				return ErrNotSubmitted
			}
		}

		err := f.Submit(ctx)
		var verr *form.ValidationError
		switch {
		case err == nil:
			return r.driver.Info(ctx, r.theme.InfoPrefix+r.t(i18n.KeySubmitted, nil))
		case errors.As(err, &verr):
			if err := r.reportErrors(ctx, f, verr.Fields); err != nil {
				return err
			}
			before := f.Values()
			if err := r.promptFields(ctx, f, f.Fields(), verr.Fields); err != nil {
				return err
			}
			if reflect.DeepEqual(before, f.Values()) {
				f.Unload()
				r.logger.Info("tui: giving up, nothing changed", zap.Int("failing", len(verr.Fields)))
				return fmt.Errorf("%w: %w", ErrIncomplete, verr)
			}
		default:
			return err
		}
	}
}

func (r *Renderer) reportErrors(ctx context.Context, f *form.Form, errs map[string]string) error {
	ids := make([]string, 0, len(errs))
	for id := range errs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		label := id
		if field, ok := schema.FindField(f.Fields(), id); ok && field.Base().Label != "" {
			label = field.Base().Label
		}
		if err := r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, label, errs[id])); err != nil {
			return err
		}
	}
	return nil
}

// promptFields prompts the visible fields in order. When only is non-nil
// just the fields it names are asked.
func (r *Renderer) promptFields(ctx context.Context, f *form.Form, fields []schema.Field, only map[string]string) error {
	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := field.Base().ID
		if !f.IsVisible(id) {
			continue
		}

		if group, ok := field.(*schema.GroupField); ok {
			if only == nil {
				if err := r.driver.Info(ctx, r.theme.GroupPrefix+group.Label); err != nil {
					return err
				}
			}
			if err := r.promptFields(ctx, f, group.Fields, only); err != nil {
				return err
			}
			continue
		}

		if only != nil {
			if _, ok := only[id]; !ok {
				continue
			}
		}

		var err error
		switch fld := field.(type) {
		case *schema.InputField:
			err = r.promptInput(ctx, f, fld)
		case *schema.OptionField:
			err = r.promptOption(ctx, f, fld)
		case *schema.UnknownField:
			err = r.driver.Info(ctx, r.theme.ErrorPrefix+r.t(i18n.KeyUnknownFieldType, map[string]any{"type": fld.Type}))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptInput(ctx context.Context, f *form.Form, field *schema.InputField) error {
	rules, err := validation.RulesFor(field)
	if err != nil {
		r.logger.Warn("tui: field rule skipped", zap.String("field", field.ID), zap.Error(err))
	}

	resp, err := r.driver.Input(ctx, InputConfig{
		Message: promptLabel(field),
		Default: visibility.String(f.Value(field.ID)),
		Help:    inputHelp(field),
		Validator: func(s string) error {
			if failure := rules.Check(parseInput(field, s)); failure != validation.FailureNone {
				return errors.New(validation.Message(failure, field, r.translator, r.locale))
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	return f.SetValue(field.ID, parseInput(field, resp))
}

func (r *Renderer) promptOption(ctx context.Context, f *form.Form, field *schema.OptionField) error {
	res, err := r.awaitOptions(ctx, f, field)
	if err != nil {
		return err
	}

	prefix := r.theme.InfoPrefix + promptLabel(field) + ": "
	switch {
	case res.Status == options.StatusIdle:
		dep := field.DynamicOptions.DependsOn
		if depField, ok := schema.FindField(f.Fields(), dep); ok && depField.Base().Label != "" {
			dep = depField.Base().Label
		}
		return r.driver.Info(ctx, prefix+r.t(i18n.KeyWaitingFor, map[string]any{"field": dep}))
	case res.Status == options.StatusFailed:
		return r.driver.Info(ctx, prefix+r.t(i18n.KeyOptionsFailed, nil))
	case len(res.Options) == 0:
		return r.driver.Info(ctx, prefix+r.t(i18n.KeyNoOptions, nil))
	}

	current := f.Value(field.ID)
	if field.Multiple() {
		picked, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  promptLabel(field),
			Options:  res.Options,
			Defaults: indicesOf(res.Options, selected(current)),
		})
		if err != nil {
			return err
		}
		values := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(res.Options) {
				values = append(values, res.Options[idx])
			}
		}
		return f.SetValue(field.ID, values)
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      promptLabel(field),
		Options:      res.Options,
		DefaultIndex: indexOf(res.Options, visibility.String(current)),
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(res.Options) {
		return f.SetValue(field.ID, nil)
	}
	return f.SetValue(field.ID, res.Options[idx])
}

// awaitOptions returns the field's option list, waiting while it loads.
// The select stays disabled until then, so the loading line is all the
// user sees.
func (r *Renderer) awaitOptions(ctx context.Context, f *form.Form, field *schema.OptionField) (options.Result, error) {
	res, err := f.Options(field.ID)
	if err != nil || res.Status != options.StatusLoading {
		return res, err
	}
	if err := r.driver.Info(ctx, r.theme.InfoPrefix+promptLabel(field)+": "+r.t(i18n.KeyLoading, nil)); err != nil {
		return res, err
	}

	deadline := time.NewTimer(r.pollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-deadline.C:
			return options.Result{Status: options.StatusFailed, Err: context.DeadlineExceeded}, nil
		case <-ticker.C:
			if res, err = f.Options(field.ID); err != nil || res.Status != options.StatusLoading {
				return res, err
			}
		}
	}
}

func (r *Renderer) t(key string, params map[string]any) string {
	return i18n.T(r.translator, r.locale, key, params)
}

func promptLabel(field schema.Field) string {
	base := field.Base()
	label := base.Label
	if label == "" {
		label = base.ID
	}
	if base.Required {
		label += " *"
	}
	return label
}

func inputHelp(field *schema.InputField) string {
	v := field.Validation
	if v == nil {
		return ""
	}
	var parts []string
	if v.Min != nil {
		parts = append(parts, "min "+strconv.FormatFloat(*v.Min, 'f', -1, 64))
	}
	if v.Max != nil {
		parts = append(parts, "max "+strconv.FormatFloat(*v.Max, 'f', -1, 64))
	}
	if v.Pattern != "" {
		parts = append(parts, "pattern "+v.Pattern)
	}
	return strings.Join(parts, ", ")
}

// parseInput converts a typed answer into the value stored on the form.
// Number fields keep unparsable text so validation can report it.
func parseInput(field *schema.InputField, raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if field.Type == schema.TypeNumber {
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return n
		}
	}
	return raw
}

func selected(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, visibility.String(item))
		}
		return out
	case nil:
		return nil
	default:
		return []string{visibility.String(v)}
	}
}
