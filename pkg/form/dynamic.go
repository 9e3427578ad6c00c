package form

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/options"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

// bindDynamicOptions subscribes every dynamic option field to the one field
// it depends on and resolves it for the initial value.
func (f *Form) bindDynamicOptions() {
	if f.resolver == nil {
		return
	}
	var dynamic []*schema.OptionField
	schema.Walk(f.fields, func(field schema.Field, _ int) bool {
		if opt, ok := field.(*schema.OptionField); ok && opt.DynamicOptions != nil {
			dynamic = append(dynamic, opt)
		}
		return true
	})

	for _, field := range dynamic {
		field := field
		f.Watch(field.DynamicOptions.DependsOn, func(value any) {
			f.refreshOptions(field, value)
		})
		f.refreshOptions(field, f.Value(field.DynamicOptions.DependsOn))
	}
}

// optionStamp tracks the latest resolution requested for a field and the
// latest one applied. A result is only applied while the dependency still
// holds the value it was requested for and nothing newer has landed.
type optionStamp struct {
	requested uint64
	applied   uint64
}

// refreshOptions marks the field loading before resolving so a background
// result can never be overwritten by the loading marker.
func (f *Form) refreshOptions(field *schema.OptionField, depValue any) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	stamp := f.optionGen[field.ID]
	stamp.requested++
	gen := stamp.requested
	f.optionGen[field.ID] = stamp
	f.optionRes[field.ID] = options.Result{Status: options.StatusLoading}
	f.mu.Unlock()

	want := visibility.String(depValue)
	res := f.resolver.ResolveAsync(f.ctx, field, depValue, func(res options.Result) {
		f.applyOptions(field, gen, want, res)
	})
	if res.Status != options.StatusLoading {
		f.applyOptions(field, gen, want, res)
	}
}

func (f *Form) applyOptions(field *schema.OptionField, gen uint64, depValue string, res options.Result) {
	id := field.ID
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	stamp := f.optionGen[id]
	current := visibility.String(f.values[field.DynamicOptions.DependsOn])
	if current != depValue || gen < stamp.applied {
		f.mu.Unlock()
		f.logger.Debug("form: discarded stale options",
			zap.String("field", id), zap.String("for", depValue), zap.String("current", current))
		return
	}
	stamp.applied = gen
	f.optionGen[id] = stamp
	f.optionRes[id] = res
	f.mu.Unlock()

	if res.Status == options.StatusFailed {
		f.logger.Warn("form: options unavailable", zap.String("field", id), zap.Error(res.Err))
	}
	if f.onOptions != nil {
		f.onOptions(id, res)
	}
}

// Options returns the effective option list of an option field. Fields with
// dynamic options report their latest resolution, which is idle until the
// dependency has a value.
func (f *Form) Options(id string) (options.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	field, ok := schema.FindField(f.fields, id)
	if !ok {
		return options.Result{}, ErrUnknownField
	}
	opt, ok := field.(*schema.OptionField)
	if !ok {
		return options.Result{}, ErrUnknownField
	}
	if opt.DynamicOptions == nil {
		return options.Result{Options: append([]string(nil), opt.Options...), Status: options.StatusStatic}, nil
	}
	if res, ok := f.optionRes[id]; ok {
		res.Options = append([]string(nil), res.Options...)
		return res, nil
	}
	return options.Result{Status: options.StatusIdle}, nil
}
