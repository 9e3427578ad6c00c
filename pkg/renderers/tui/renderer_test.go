package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/draft"
	"github.com/goliatone/go-formdesk/pkg/form"
	"github.com/goliatone/go-formdesk/pkg/options"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/table"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	onInfo       func(string)
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	if s.onInfo != nil {
		s.onInfo(msg)
	}
	return nil
}

func (s *stubDriver) sawInfo(substr string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

const applicationJSON = `[{
  "formId": "application",
  "title": "Application",
  "fields": [
    {"id": "name", "label": "Name", "type": "text", "required": true},
    {"id": "age", "label": "Age", "type": "number", "required": true, "validation": {"min": 18}},
    {"id": "smoker", "label": "Smoker", "type": "radio", "required": true, "options": ["Yes", "No"]},
    {"id": "frequency", "label": "Frequency", "type": "select", "required": true,
     "options": ["Occasionally", "Daily"],
     "visibility": {"dependsOn": "smoker", "condition": "equals", "value": "Yes"}},
    {"id": "address", "label": "Address", "type": "group", "required": false, "fields": [
      {"id": "country", "label": "Country", "type": "select", "required": true, "options": ["USA", "Canada"]},
      {"id": "state", "label": "State", "type": "select", "required": true,
       "dynamicOptions": {"dependsOn": "country", "endpoint": "/api/getStates", "method": "GET"}}
    ]},
    {"id": "hobbies", "label": "Hobbies", "type": "checkbox", "required": false, "options": ["a", "b", "c"]},
    {"id": "mystery", "label": "Mystery", "type": "slider", "required": false}
  ]
}]`

func applicationForm(t *testing.T) schema.InsuranceForm {
	t.Helper()
	forms, err := schema.DecodeForms([]byte(applicationJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return forms[0]
}

// gatedFetcher holds every fetch until release is closed.
type gatedFetcher struct {
	release chan struct{}
	once    sync.Once
}

func (g *gatedFetcher) open() { g.once.Do(func() { close(g.release) }) }

func (g *gatedFetcher) FetchOptions(ctx context.Context, req options.Request) ([]string, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if req.Value == "USA" {
		return []string{"Alabama", "Alaska"}, nil
	}
	return []string{"Ontario"}, nil
}

func TestRun_FillValidateAndSubmit(t *testing.T) {
	t.Parallel()

	fetcher := &gatedFetcher{release: make(chan struct{})}
	var submitted schema.Values
	f := form.New(applicationForm(t),
		form.WithResolver(options.NewResolver(fetcher)),
		form.WithSubmitter(form.SubmitterFunc(func(_ context.Context, _ string, values schema.Values) error {
			submitted = values
			return nil
		})),
	)
	defer f.Close()

	driver := &stubDriver{
		inputs:    []string{"Ada", "10", "25"},
		selectIdx: []int{0, 1, 0, 1},
		multiIdx:  [][]int{{0, 2}},
		confirm:   []bool{true, true},
	}
	driver.onInfo = func(msg string) {
		if strings.Contains(msg, "loading options") {
			fetcher.open()
		}
	}

	r := New(WithPromptDriver(driver), WithOutput(&bytes.Buffer{}))
	if err := r.Run(context.Background(), f); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := schema.Values{
		"name":      "Ada",
		"age":       float64(25),
		"smoker":    "Yes",
		"frequency": "Daily",
		"country":   "USA",
		"state":     "Alaska",
		"hobbies":   []string{"a", "c"},
	}
	if diff := cmp.Diff(want, submitted); diff != "" {
		t.Fatalf("submitted values (-want +got):\n%s", diff)
	}

	for _, msg := range []string{"== Address", "State *: loading options...", "Age: below minimum 18", "unknown field type: slider", "Submitted."} {
		if !driver.sawInfo(msg) {
			t.Fatalf("expected info %q in %q", msg, driver.infoMessages)
		}
	}
	if driver.inputPos != 3 {
		t.Fatalf("only the failing field should be asked again, inputs used: %d", driver.inputPos)
	}
}

func TestRun_HiddenFieldIsSkipped(t *testing.T) {
	t.Parallel()

	fetcher := &gatedFetcher{release: make(chan struct{})}
	fetcher.open()
	var submitted schema.Values
	f := form.New(applicationForm(t),
		form.WithResolver(options.NewResolver(fetcher)),
		form.WithSubmitter(form.SubmitterFunc(func(_ context.Context, _ string, values schema.Values) error {
			submitted = values
			return nil
		})),
	)
	defer f.Close()

	driver := &stubDriver{
		inputs:    []string{"Bo", "40"},
		selectIdx: []int{1, 1, 0},
		multiIdx:  [][]int{{}},
	}
	r := New(WithPromptDriver(driver), WithConfirmSubmit(false), WithOutput(&bytes.Buffer{}))
	if err := r.Run(context.Background(), f); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, asked := submitted["frequency"]; asked {
		t.Fatalf("frequency is hidden for non-smokers, got %v", submitted["frequency"])
	}
	if submitted["state"] != "Ontario" {
		t.Fatalf("expected Canadian state, got %v", submitted["state"])
	}
}

func TestRun_DeclineKeepsDraft(t *testing.T) {
	t.Parallel()

	def := schema.InsuranceForm{
		FormID: "short",
		Title:  "Short",
		Fields: []schema.Field{
			&schema.InputField{Common: schema.Common{ID: "plate", Label: "Plate", Type: schema.TypeText}},
		},
	}
	drafts := draft.New(draft.NewMemoryStore())
	f := form.New(def, form.WithDrafts(drafts))
	defer f.Close()

	driver := &stubDriver{inputs: []string{"AB-12"}, confirm: []bool{false}}
	r := New(WithPromptDriver(driver), WithOutput(&bytes.Buffer{}))

	if err := r.Run(context.Background(), f); !errors.Is(err, ErrNotSubmitted) {
		t.Fatalf("expected ErrNotSubmitted, got %v", err)
	}
	stored, ok := drafts.Load("short")
	if !ok || stored["plate"] != "AB-12" {
		t.Fatalf("draft not saved on decline: %v (%v)", stored, ok)
	}
	if !driver.sawInfo("Draft saved.") {
		t.Fatalf("expected draft saved notice, got %q", driver.infoMessages)
	}
}

func TestFill_WaitsForDependency(t *testing.T) {
	t.Parallel()

	def := schema.InsuranceForm{
		FormID: "dep",
		Fields: []schema.Field{
			&schema.OptionField{
				Common:         schema.Common{ID: "state", Label: "State", Type: schema.TypeSelect},
				DynamicOptions: &schema.DynamicOptions{DependsOn: "country", Endpoint: "/api/getStates"},
			},
			&schema.OptionField{Common: schema.Common{ID: "country", Label: "Country", Type: schema.TypeSelect}, Options: []string{"USA"}},
		},
	}
	f := form.New(def)
	defer f.Close()

	driver := &stubDriver{selectIdx: []int{0}}
	r := New(WithPromptDriver(driver), WithOutput(&bytes.Buffer{}))
	if err := r.Fill(context.Background(), f); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !driver.sawInfo("State: waiting for Country") {
		t.Fatalf("expected waiting notice, got %q", driver.infoMessages)
	}
}

func TestRun_PropagatesAbort(t *testing.T) {
	t.Parallel()

	def := schema.InsuranceForm{FormID: "x", Fields: []schema.Field{
		&schema.InputField{Common: schema.Common{ID: "a", Label: "A", Type: schema.TypeText}},
	}}
	f := form.New(def)
	defer f.Close()

	r := New(WithPromptDriver(abortDriver{&stubDriver{}}), WithOutput(&bytes.Buffer{}))
	if err := r.Run(context.Background(), f); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRun_StopsWhenRetryChangesNothing(t *testing.T) {
	t.Parallel()

	def := schema.InsuranceForm{
		FormID: "stuck",
		Fields: []schema.Field{
			&schema.OptionField{Common: schema.Common{ID: "country", Label: "Country", Type: schema.TypeSelect, Required: true}, Options: []string{"USA"}},
			&schema.OptionField{
				Common:         schema.Common{ID: "state", Label: "State", Type: schema.TypeSelect, Required: true},
				DynamicOptions: &schema.DynamicOptions{DependsOn: "country", Endpoint: "/api/getStates"},
			},
		},
	}
	failing := options.FetcherFunc(func(context.Context, options.Request) ([]string, error) {
		return nil, errors.New("backend down")
	})
	drafts := draft.New(draft.NewMemoryStore())
	f := form.New(def, form.WithResolver(options.NewResolver(failing)), form.WithDrafts(drafts))
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	driver := &stubDriver{selectIdx: []int{0}}
	r := New(WithPromptDriver(driver), WithConfirmSubmit(false), WithOutput(&bytes.Buffer{}))
	err := r.Run(ctx, f)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	var verr *form.ValidationError
	if !errors.As(err, &verr) || verr.Fields["state"] == "" {
		t.Fatalf("expected the state failure to be reported, got %v", err)
	}
	if n := len(driver.infoMessages); n > 10 {
		t.Fatalf("run kept looping, %d info lines", n)
	}
	if stored, ok := drafts.Load("stuck"); !ok || stored["country"] != "USA" {
		t.Fatalf("draft should keep the answered fields: %v (%v)", stored, ok)
	}
}

type abortDriver struct{ *stubDriver }

func (abortDriver) Input(context.Context, InputConfig) (string, error) { return "", ErrAborted }
func (abortDriver) Info(context.Context, string) error                { return nil }

func submissionsController() *table.Controller {
	return table.NewController(table.NewModel(schema.SubmissionsResponse{
		Columns: []string{"Name", "Smoker"},
		Data: []schema.SubmissionRecord{
			{"id": "1", "Name": "Mary Jones", "Smoker": false},
			{"id": "2", "Name": "Jonathan Brown", "Smoker": true},
			{"id": "3", "Name": "Jon Garcia", "Smoker": nil},
		},
	}))
}

func TestPrintTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := PrintTable(&buf, submissionsController(), nil, "en"); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Mary Jones", "Yes", "No", "Showing 3 of 3 submissions", "Page 1 of 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestBrowse_SortSearchQuit(t *testing.T) {
	t.Parallel()

	c := submissionsController()
	var buf bytes.Buffer
	// Sort -> Name, Search "brown", Quit. Three rows leave no paging actions.
	driver := &stubDriver{selectIdx: []int{2, 0, 0, 5}, inputs: []string{"brown"}}
	r := New(WithPromptDriver(driver), WithOutput(&buf))

	if err := r.Browse(context.Background(), c); err != nil {
		t.Fatalf("browse: %v", err)
	}
	col, dir := c.SortState()
	if col != "Name" || dir != table.Ascending {
		t.Fatalf("sort state = %s %v", col, dir)
	}
	var names []string
	for _, row := range c.Rows() {
		names = append(names, row.Cells[0])
	}
	if diff := cmp.Diff([]string{"Jonathan Brown"}, names); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "Showing 1 of 3 submissions") {
		t.Fatalf("expected filtered summary in output:\n%s", buf.String())
	}
}
