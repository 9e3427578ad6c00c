package form

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/draft"
	"github.com/goliatone/go-formdesk/pkg/options"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

func minPtr(v float64) *float64 { return &v }

func ageForm() schema.InsuranceForm {
	return schema.InsuranceForm{
		FormID: "f1",
		Fields: []schema.Field{
			&schema.InputField{
				Common:     schema.Common{ID: "age", Label: "Age", Type: schema.TypeNumber, Required: true},
				Validation: &schema.Validation{Min: minPtr(18)},
			},
		},
	}
}

type recordingSubmitter struct {
	mu    sync.Mutex
	calls []schema.Values
	err   error
}

func (s *recordingSubmitter) Submit(_ context.Context, formID string, values schema.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, values)
	return s.err
}

func (s *recordingSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestSubmit_AgeExample(t *testing.T) {
	t.Parallel()

	store := draft.NewMemoryStore()
	drafts := draft.New(store)
	sub := &recordingSubmitter{}
	f := New(ageForm(), WithDrafts(drafts), WithSubmitter(sub), WithAutosaveDelay(time.Hour))
	defer f.Close()

	if err := f.SetValue("age", 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	err := f.Submit(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if diff := cmp.Diff(map[string]string{"age": "below minimum 18"}, verr.Fields); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if sub.count() != 0 {
		t.Fatalf("no submit request expected")
	}
	if f.State() != StateDirty {
		t.Fatalf("expected dirty, got %s", f.State())
	}

	_ = f.SetValue("age", 25)
	f.Unload()
	if _, ok := drafts.Load("f1"); !ok {
		t.Fatalf("expected draft after unload")
	}

	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("expected exactly one submit, got %d", sub.count())
	}
	if _, ok := drafts.Load("f1"); ok {
		t.Fatalf("draft should be cleared on success")
	}
	if f.State() != StateClean || f.Value("age") != nil {
		t.Fatalf("expected clean form with cleared values, got %s %v", f.State(), f.Values())
	}
}

func insuranceForm() schema.InsuranceForm {
	return schema.InsuranceForm{
		FormID: "health",
		Fields: []schema.Field{
			&schema.OptionField{
				Common:  schema.Common{ID: "smoker", Type: schema.TypeRadio, Required: true},
				Options: []string{"Yes", "No"},
			},
			&schema.InputField{Common: schema.Common{
				ID: "frequency", Type: schema.TypeText, Required: true,
				Visibility: &schema.VisibilityCondition{DependsOn: "smoker", Condition: schema.ConditionEquals, Value: "Yes"},
			}},
			&schema.GroupField{
				Common: schema.Common{
					ID: "details", Type: schema.TypeGroup,
					Visibility: &schema.VisibilityCondition{DependsOn: "smoker", Condition: schema.ConditionEquals, Value: "Yes"},
				},
				Fields: []schema.Field{
					&schema.InputField{Common: schema.Common{ID: "brand", Type: schema.TypeText, Required: true}},
				},
			},
			&schema.GroupField{
				Common: schema.Common{ID: "address", Type: schema.TypeGroup},
				Fields: []schema.Field{
					&schema.OptionField{
						Common:  schema.Common{ID: "country", Type: schema.TypeSelect},
						Options: []string{"USA", "CAN"},
					},
					&schema.OptionField{
						Common:         schema.Common{ID: "state", Type: schema.TypeSelect},
						DynamicOptions: &schema.DynamicOptions{DependsOn: "country", Endpoint: "/api/getStates"},
					},
				},
			},
		},
	}
}

func TestHiddenFieldsSkipValidation(t *testing.T) {
	t.Parallel()

	f := New(insuranceForm())
	defer f.Close()

	_ = f.SetValue("smoker", "No")
	if f.IsVisible("frequency") || f.IsVisible("brand") {
		t.Fatalf("dependent fields should be hidden")
	}
	if errs := f.Validate(); len(errs) != 0 {
		t.Fatalf("hidden required fields must not block: %v", errs)
	}

	_ = f.SetValue("smoker", "Yes")
	errs := f.Validate()
	want := map[string]string{"frequency": "required", "brand": "required"}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	var ids []string
	for _, field := range f.VisibleFields() {
		ids = append(ids, field.Base().ID)
	}
	if diff := cmp.Diff([]string{"smoker", "frequency", "details", "address"}, ids); diff != "" {
		t.Fatalf("visible fields mismatch:\n%s", diff)
	}
}

func TestWatchNotifiesOnlyDependents(t *testing.T) {
	t.Parallel()

	f := New(insuranceForm())
	defer f.Close()

	var smoker, country atomic.Int32
	cancel := f.Watch("smoker", func(any) { smoker.Add(1) })
	f.Watch("country", func(any) { country.Add(1) })

	_ = f.SetValue("smoker", "Yes")
	_ = f.SetValue("frequency", "daily")
	cancel()
	_ = f.SetValue("smoker", "No")

	if smoker.Load() != 1 || country.Load() != 0 {
		t.Fatalf("unexpected notifications smoker=%d country=%d", smoker.Load(), country.Load())
	}
	if err := f.SetValue("nope", 1); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestDraftRestoreAndAutosave(t *testing.T) {
	t.Parallel()

	drafts := draft.New(draft.NewMemoryStore())
	drafts.Save("health", map[string]any{"smoker": "Yes", "frequency": "weekly"})

	f := New(insuranceForm(), WithDrafts(drafts), WithAutosaveDelay(20*time.Millisecond))
	defer f.Close()

	if f.Value("frequency") != "weekly" || f.State() != StateClean {
		t.Fatalf("expected restored draft in clean state, got %v %s", f.Values(), f.State())
	}

	_ = f.SetValue("frequency", "daily")
	if !f.DraftPending() {
		t.Fatalf("expected pending autosave")
	}
	var stored map[string]any
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		stored, _ = drafts.Load("health")
		if stored["frequency"] == "daily" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if stored["frequency"] != "daily" {
		t.Fatalf("autosave did not persist latest value: %v", stored)
	}
}

func TestSubmitFailureKeepsValuesAndDraft(t *testing.T) {
	t.Parallel()

	drafts := draft.New(draft.NewMemoryStore())
	sub := &recordingSubmitter{err: errors.New("503")}
	f := New(ageForm(), WithDrafts(drafts), WithSubmitter(sub))
	defer f.Close()

	_ = f.SetValue("age", 30)
	f.Unload()
	if err := f.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit error")
	}
	if f.State() != StateDirty || f.Value("age") != 30 {
		t.Fatalf("values must be retained, got %s %v", f.State(), f.Values())
	}
	if _, ok := drafts.Load("f1"); !ok {
		t.Fatalf("draft must be retained")
	}
}

func TestSubmitRecoversPanic(t *testing.T) {
	t.Parallel()

	f := New(ageForm(), WithSubmitter(SubmitterFunc(func(context.Context, string, schema.Values) error {
		panic("kaboom")
	})))
	defer f.Close()

	_ = f.SetValue("age", 40)
	if err := f.Submit(context.Background()); !errors.Is(err, ErrSubmitPanic) {
		t.Fatalf("expected ErrSubmitPanic, got %v", err)
	}
	if err := f.SetValue("age", 41); err != nil {
		t.Fatalf("form should stay usable: %v", err)
	}
}

func TestSubmitRejectsConcurrentSubmit(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	f := New(ageForm(), WithSubmitter(SubmitterFunc(func(context.Context, string, schema.Values) error {
		close(entered)
		<-release
		return nil
	})))
	defer f.Close()
	_ = f.SetValue("age", 20)

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background()) }()
	<-entered

	if err := f.Submit(context.Background()); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("expected ErrSubmitting, got %v", err)
	}
	if err := f.SetValue("age", 21); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("edits are blocked while submitting, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestClearResetsNestedFields(t *testing.T) {
	t.Parallel()

	drafts := draft.New(draft.NewMemoryStore())
	f := New(insuranceForm(), WithDrafts(drafts))
	defer f.Close()

	_ = f.SetValue("smoker", "Yes")
	_ = f.SetValue("brand", "X")
	_ = f.SetValue("state", "Texas")
	f.Unload()

	if err := f.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	want := schema.Values{
		"smoker": nil, "frequency": nil, "details": nil, "brand": nil,
		"address": nil, "country": nil, "state": nil,
	}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if _, ok := drafts.Load("health"); ok {
		t.Fatalf("draft should be cleared")
	}
}

func TestMoveReportsOrderWithoutDirtying(t *testing.T) {
	t.Parallel()

	var reported []string
	f := New(insuranceForm(), WithReorderCallback(func(fields []schema.Field) {
		reported = reported[:0]
		for _, field := range fields {
			reported = append(reported, field.Base().ID)
		}
	}))
	defer f.Close()

	if !f.Move("address", "smoker") {
		t.Fatalf("expected move")
	}
	if diff := cmp.Diff([]string{"address", "smoker", "frequency", "details"}, reported); diff != "" {
		t.Fatalf("order mismatch:\n%s", diff)
	}
	if f.MoveIndex(0, 0) || f.Move("missing", "smoker") {
		t.Fatalf("no-op moves should report false")
	}
	if f.State() != StateClean {
		t.Fatalf("reorder must not dirty the form")
	}
}

func TestDynamicOptionsFollowDependency(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	resolver := options.NewResolver(options.FetcherFunc(func(_ context.Context, req options.Request) ([]string, error) {
		calls.Add(1)
		if req.Value == "USA" {
			return []string{"California", "Texas"}, nil
		}
		return []string{"Ontario"}, nil
	}))

	settled := make(chan options.Result, 8)
	f := New(insuranceForm(), WithResolver(resolver), WithOptionsCallback(func(id string, res options.Result) {
		if id == "state" && res.Status == options.StatusReady {
			settled <- res
		}
	}))
	defer f.Close()

	res, err := f.Options("state")
	if err != nil || res.Status != options.StatusIdle {
		t.Fatalf("expected idle before a country is chosen, got %+v (%v)", res, err)
	}

	_ = f.SetValue("country", "USA")
	select {
	case got := <-settled:
		if diff := cmp.Diff([]string{"California", "Texas"}, got.Options); diff != "" {
			t.Fatalf("options mismatch:\n%s", diff)
		}
	case <-time.After(time.Second):
		t.Fatalf("options never settled")
	}

	_ = f.SetValue("country", "CAN")
	<-settled
	_ = f.SetValue("country", "USA")
	<-settled
	if calls.Load() != 2 {
		t.Fatalf("expected cached USA list, got %d fetches", calls.Load())
	}

	static, _ := f.Options("country")
	if static.Status != options.StatusStatic {
		t.Fatalf("expected static options, got %s", static.Status)
	}
}

type gatedStates struct {
	release map[string]chan struct{}
}

func (g *gatedStates) FetchOptions(ctx context.Context, req options.Request) ([]string, error) {
	select {
	case <-g.release[req.Value]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []string{"in-" + req.Value}, nil
}

func waitOptions(t *testing.T, f *Form, want []string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		res, _ := f.Options("state")
		if res.Status == options.StatusReady && cmp.Equal(want, res.Options) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("form %s: want ready %v, got %s %v", f.FormID(), want, res.Status, res.Options)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDynamicOptionsSharedResolver(t *testing.T) {
	t.Parallel()

	fetcher := &gatedStates{release: map[string]chan struct{}{
		"USA": make(chan struct{}),
		"CAN": make(chan struct{}),
	}}
	resolver := options.NewResolver(fetcher)

	a := New(insuranceForm(), WithResolver(resolver))
	defer a.Close()
	b := New(insuranceForm(), WithResolver(resolver))
	defer b.Close()

	_ = a.SetValue("country", "USA")
	_ = b.SetValue("country", "CAN")
	close(fetcher.release["USA"])
	close(fetcher.release["CAN"])

	waitOptions(t, a, []string{"in-USA"})
	waitOptions(t, b, []string{"in-CAN"})
}

func TestDynamicOptionsDropOutdatedResult(t *testing.T) {
	t.Parallel()

	fetcher := &gatedStates{release: map[string]chan struct{}{
		"USA": make(chan struct{}),
		"CAN": make(chan struct{}),
	}}
	var mu sync.Mutex
	var seen []string
	f := New(insuranceForm(), WithResolver(options.NewResolver(fetcher)), WithOptionsCallback(func(id string, res options.Result) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, res.Options...)
	}))
	defer f.Close()

	_ = f.SetValue("country", "USA")
	_ = f.SetValue("country", "CAN")
	close(fetcher.release["CAN"])
	waitOptions(t, f, []string{"in-CAN"})

	close(fetcher.release["USA"])
	time.Sleep(30 * time.Millisecond)
	waitOptions(t, f, []string{"in-CAN"})

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"in-CAN"}, seen); diff != "" {
		t.Fatalf("only the current country should settle (-want +got):\n%s", diff)
	}
}
