// Package form drives one instance of a dynamic form: field values, the
// clean/dirty/submitting lifecycle, dependency watching for visibility and
// dynamic options, draft autosave, validation, submission and reordering.
package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/draft"
	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/options"
	"github.com/goliatone/go-formdesk/pkg/reorder"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/validation"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

// State is the lifecycle state of a form.
type State int

const (
	StateClean State = iota
	StateDirty
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateSubmitting:
		return "submitting"
	default:
		return "clean"
	}
}

type watcher struct {
	id int
	fn func(value any)
}

// Form is safe for concurrent use. Callbacks run without the form's lock
// held and may call back into the form.
type Form struct {
	formID string
	title  string

	drafts        *draft.Drafts
	autosaver     *draft.Autosaver
	autosaveDelay time.Duration
	resolver      *options.Resolver
	submitter     Submitter
	logger        *zap.Logger
	translator    i18n.Translator
	locale        string
	evaluator     visibility.Evaluator
	onReorder     func([]schema.Field)
	onOptions     func(string, options.Result)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	fields    []schema.Field
	values    schema.Values
	state     State
	watchers  map[string][]watcher
	nextWatch int
	optionRes map[string]options.Result
	optionGen map[string]optionStamp
	closed    bool
}

// New builds a form for def. The stored draft, when drafts are enabled, is
// loaded once and becomes the initial values.
func New(def schema.InsuranceForm, opts ...Option) *Form {
	f := &Form{
		formID:        def.FormID,
		title:         def.Title,
		autosaveDelay: draft.DefaultDelay,
		logger:        zap.NewNop(),
		locale:        i18n.DefaultLocale,
		evaluator:     visibility.Default,
		fields:        append([]schema.Field(nil), def.Fields...),
		values:        schema.Values{},
		watchers:      make(map[string][]watcher),
		optionRes:     make(map[string]options.Result),
		optionGen:     make(map[string]optionStamp),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.logger = f.logger.With(zap.String("form_id", f.formID))
	f.ctx, f.cancel = context.WithCancel(context.Background())

	if err := schema.Check(def); err != nil {
		f.logger.Warn("form: schema problems", zap.Error(err))
	}

	if f.drafts != nil {
		if stored, ok := f.drafts.Load(f.formID); ok {
			f.values = schema.Values(stored)
			f.logger.Debug("form: draft restored", zap.Int("fields", len(stored)))
		}
		f.autosaver = draft.NewAutosaver(f.drafts, f.formID, draft.WithDelay(f.autosaveDelay))
	}

	f.bindDynamicOptions()
	return f
}

// FormID returns the id of the underlying form definition.
func (f *Form) FormID() string { return f.formID }

// Title returns the form title.
func (f *Form) Title() string { return f.title }

// State reports the lifecycle state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Fields returns the top-level fields in their current order.
func (f *Form) Fields() []schema.Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]schema.Field(nil), f.fields...)
}

// Values returns a copy of the current values.
func (f *Form) Values() schema.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// Value returns the current value of a field.
func (f *Form) Value(id string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[id]
}

// SetValue records an edit: the form becomes dirty, the autosave timer is
// re-armed and only the watchers of id are notified.
func (f *Form) SetValue(id string, value any) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	if _, ok := schema.FindField(f.fields, id); !ok {
		f.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	f.values[id] = value
	f.state = StateDirty
	snapshot := f.values.Clone()
	watchers := append([]watcher(nil), f.watchers[id]...)
	f.mu.Unlock()

	if f.autosaver != nil {
		f.autosaver.Schedule(snapshot)
	}
	for _, w := range watchers {
		w.fn(value)
	}
	return nil
}

// Watch subscribes fn to changes of a single field's value. The returned
// function cancels the subscription.
func (f *Form) Watch(id string, fn func(value any)) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	f.nextWatch++
	handle := f.nextWatch
	f.watchers[id] = append(f.watchers[id], watcher{id: handle, fn: fn})
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			list := f.watchers[id]
			for i, w := range list {
				if w.id == handle {
					f.watchers[id] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(f.watchers[id]) == 0 {
				delete(f.watchers, id)
			}
		})
	}
}

// VisibleFields returns the top-level fields currently shown, in order.
// Groups are copied with their hidden children removed.
func (f *Form) VisibleFields() []schema.Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible(f.fields)
}

func (f *Form) visible(fields []schema.Field) []schema.Field {
	out := make([]schema.Field, 0, len(fields))
	for _, field := range fields {
		if !visibility.Field(field, f.values, f.evaluator) {
			continue
		}
		switch typed := field.(type) {
		case *schema.GroupField:
			group := *typed
			group.Fields = f.visible(typed.Fields)
			out = append(out, &group)
		case *schema.InputField, *schema.OptionField, *schema.UnknownField:
			out = append(out, field)
		default:
			f.logger.Error("form: unhandled field variant", zap.String("type", fmt.Sprintf("%T", field)))
		}
	}
	return out
}

// IsVisible reports whether id is shown, taking enclosing groups into
// account.
func (f *Form) IsVisible(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := schema.FindField(f.visible(f.fields), id)
	return ok
}

// Validate checks every visible field and returns messages keyed by field
// id. Hidden fields and the children of hidden groups are skipped.
func (f *Form) Validate() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validate()
}

func (f *Form) validate() map[string]string {
	errs := make(map[string]string)
	schema.Walk(f.visible(f.fields), func(field schema.Field, _ int) bool {
		if _, isGroup := field.(*schema.GroupField); isGroup {
			return true
		}
		rules, err := validation.RulesFor(field)
		if err != nil {
			f.logger.Warn("form: field rule skipped", zap.String("field", field.Base().ID), zap.Error(err))
		}
		failure := rules.Check(f.values[field.Base().ID])
		if failure != validation.FailureNone {
			errs[field.Base().ID] = validation.Message(failure, field, f.translator, f.locale)
		}
		return true
	})
	return errs
}

// Submit validates the visible fields and, when they pass, hands the values
// to the Submitter. Success clears every value and the draft; failure leaves
// both in place and the form dirty.
func (f *Form) Submit(ctx context.Context) (err error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	if errs := f.validate(); len(errs) > 0 {
		f.mu.Unlock()
		return &ValidationError{Fields: errs}
	}
	if f.submitter == nil {
		f.mu.Unlock()
		return ErrNoSubmitter
	}
	f.state = StateSubmitting
	payload := f.values.Clone()
	f.mu.Unlock()

	err = f.callSubmitter(ctx, payload)
	if err != nil {
		f.mu.Lock()
		f.state = StateDirty
		f.mu.Unlock()
		f.logger.Warn("form: submit failed", zap.Error(err))
		return err
	}

	f.logger.Info("form: submitted", zap.Int("fields", len(payload)))
	f.reset()
	return nil
}

func (f *Form) callSubmitter(ctx context.Context, payload schema.Values) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.Error("form: submitter panic", zap.Any("panic", rec), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", ErrSubmitPanic, rec)
		}
	}()
	return f.submitter.Submit(ctx, f.formID, payload)
}

// Clear resets every field, nested ones included, to nil and drops the
// draft.
func (f *Form) Clear() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	f.mu.Unlock()
	f.reset()
	return nil
}

func (f *Form) reset() {
	f.mu.Lock()
	ids := schema.AllFieldIDs(f.fields)
	values := make(schema.Values, len(ids))
	for _, id := range ids {
		values[id] = nil
	}
	f.values = values
	f.state = StateClean
	notify := make(map[string][]watcher, len(f.watchers))
	for id, list := range f.watchers {
		notify[id] = append([]watcher(nil), list...)
	}
	f.mu.Unlock()

	if f.autosaver != nil {
		f.autosaver.Cancel()
	}
	if f.drafts != nil {
		f.drafts.Clear(f.formID)
	}
	for _, id := range ids {
		for _, w := range notify[id] {
			w.fn(nil)
		}
	}
}

// Move places the top-level field activeID where overID currently is and
// reports the new order. It does not mark the form dirty.
func (f *Form) Move(activeID, overID string) bool {
	f.mu.Lock()
	next, moved := reorder.MoveKey(f.fields, fieldID, activeID, overID)
	if moved {
		f.fields = next
	}
	order := append([]schema.Field(nil), f.fields...)
	f.mu.Unlock()

	if moved && f.onReorder != nil {
		f.onReorder(order)
	}
	return moved
}

// MoveIndex moves the top-level field at from to to.
func (f *Form) MoveIndex(from, to int) bool {
	f.mu.Lock()
	if from < 0 || from >= len(f.fields) || to < 0 || to >= len(f.fields) || from == to {
		f.mu.Unlock()
		return false
	}
	f.fields = reorder.Move(f.fields, from, to)
	order := append([]schema.Field(nil), f.fields...)
	f.mu.Unlock()

	if f.onReorder != nil {
		f.onReorder(order)
	}
	return true
}

func fieldID(field schema.Field) string { return field.Base().ID }

// DraftPending reports whether an autosave is queued.
func (f *Form) DraftPending() bool {
	return f.autosaver != nil && f.autosaver.Pending()
}

// Unload writes the draft immediately when the form has unsaved edits.
func (f *Form) Unload() {
	f.mu.Lock()
	dirty := f.state == StateDirty
	snapshot := f.values.Clone()
	f.mu.Unlock()
	if !dirty || f.drafts == nil {
		return
	}
	if f.autosaver != nil {
		f.autosaver.Cancel()
	}
	f.drafts.Save(f.formID, snapshot)
}

// Close stops the autosave timer, abandons background option fetches and
// drops every watcher. Queued drafts are not written.
func (f *Form) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.watchers = make(map[string][]watcher)
	f.mu.Unlock()

	if f.autosaver != nil {
		f.autosaver.Stop()
	}
	f.cancel()
}
