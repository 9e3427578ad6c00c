package options

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

func stateField() *schema.OptionField {
	return &schema.OptionField{
		Common: schema.Common{ID: "state", Type: schema.TypeSelect},
		DynamicOptions: &schema.DynamicOptions{
			DependsOn: "country",
			Endpoint:  "/api/getStates",
			Method:    "GET",
		},
	}
}

type countingFetcher struct {
	mu    sync.Mutex
	calls []Request
	fail  bool
}

func (f *countingFetcher) FetchOptions(_ context.Context, req Request) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.fail {
		return nil, errors.New("boom")
	}
	return []string{req.Value + "-1", req.Value + "-2"}, nil
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestResolveCachesByDependencyValue(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{}
	r := NewResolver(fetcher)
	field := stateField()
	ctx := context.Background()

	first := r.Resolve(ctx, field, "USA")
	r.Resolve(ctx, field, "CAN")
	again := r.Resolve(ctx, field, "USA")

	if got := fetcher.count(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
	if again.Status != StatusReady {
		t.Fatalf("expected ready, got %s", again.Status)
	}
	if diff := cmp.Diff(first.Options, again.Options); diff != "" {
		t.Fatalf("cached options differ (-first +again):\n%s", diff)
	}
	if diff := cmp.Diff(Request{Endpoint: "/api/getStates", Method: "GET", Param: "country", Value: "USA"}, fetcher.calls[0]); diff != "" {
		t.Fatalf("unexpected request (-want +got):\n%s", diff)
	}
}

func TestResolveDisabledWhileDependencyFalsy(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{}
	r := NewResolver(fetcher)
	for _, v := range []any{nil, "", false, 0, float64(0), []string{}} {
		res := r.Resolve(context.Background(), stateField(), v)
		if res.Status != StatusIdle || len(res.Options) != 0 || !res.Disabled() {
			t.Fatalf("value %#v: expected idle and empty, got %+v", v, res)
		}
	}
	if fetcher.count() != 0 {
		t.Fatalf("no request should be issued")
	}
}

func TestResolveStaticOptions(t *testing.T) {
	t.Parallel()

	field := &schema.OptionField{
		Common:  schema.Common{ID: "gender", Type: schema.TypeRadio},
		Options: []string{"Male", "Female"},
	}
	res := NewResolver(nil).Resolve(context.Background(), field, nil)
	if res.Status != StatusStatic {
		t.Fatalf("expected static, got %s", res.Status)
	}
	if diff := cmp.Diff([]string{"Male", "Female"}, res.Options); diff != "" {
		t.Fatalf("options mismatch:\n%s", diff)
	}
}

func TestResolveFailureIsNotCached(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{fail: true}
	r := NewResolver(fetcher)
	res := r.Resolve(context.Background(), stateField(), "USA")
	if res.Status != StatusFailed || res.Err == nil || len(res.Options) != 0 {
		t.Fatalf("expected failed result, got %+v", res)
	}

	fetcher.mu.Lock()
	fetcher.fail = false
	fetcher.mu.Unlock()

	res = r.Resolve(context.Background(), stateField(), "USA")
	if res.Status != StatusReady || fetcher.count() != 2 {
		t.Fatalf("expected retry after failure, got %+v after %d calls", res, fetcher.count())
	}
}

type gatedFetcher struct {
	release map[string]chan struct{}
}

func (f *gatedFetcher) FetchOptions(ctx context.Context, req Request) ([]string, error) {
	select {
	case <-f.release[req.Value]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []string{req.Value}, nil
}

func TestResolveAsyncDeliversToEveryCaller(t *testing.T) {
	t.Parallel()

	fetcher := &gatedFetcher{release: map[string]chan struct{}{
		"USA": make(chan struct{}),
		"CAN": make(chan struct{}),
	}}
	r := NewResolver(fetcher)
	field := stateField()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results := make(chan Result, 2)
	deliver := func(res Result) { results <- res }

	if res := r.ResolveAsync(ctx, field, "USA", deliver); res.Status != StatusLoading {
		t.Fatalf("expected loading, got %s", res.Status)
	}
	if got := r.Status(field, "USA"); got != StatusLoading {
		t.Fatalf("expected loading status, got %s", got)
	}
	r.ResolveAsync(ctx, field, "CAN", deliver)

	close(fetcher.release["CAN"])
	close(fetcher.release["USA"])

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case res := <-results:
			got = append(got, res.Options...)
		case <-ctx.Done():
			t.Fatalf("only %d results delivered", len(got))
		}
	}
	slices.Sort(got)
	if diff := cmp.Diff([]string{"CAN", "USA"}, got); diff != "" {
		t.Fatalf("delivered options mismatch:\n%s", diff)
	}
	if r.Status(field, "USA") != StatusReady || r.Status(field, "CAN") != StatusReady {
		t.Fatalf("both lists should be cached")
	}
}

func TestDecodeOptionsShapes(t *testing.T) {
	t.Parallel()

	list, err := DecodeOptions([]byte(` ["Ontario","Quebec"]`))
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	obj, err := DecodeOptions([]byte(`{"country":"CAN","states":["Ontario","Quebec"]}`))
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	if diff := cmp.Diff(list, obj); diff != "" {
		t.Fatalf("shapes should decode alike:\n%s", diff)
	}
	if _, err := DecodeOptions([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
