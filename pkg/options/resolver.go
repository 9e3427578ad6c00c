// Package options resolves the option list of select, radio and checkbox
// fields, fetching dependent lists from an endpoint keyed by the live value
// of the field they depend on.
package options

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

// ErrNoFetcher is reported when a field needs dynamic options but the
// resolver has nothing to fetch them with.
var ErrNoFetcher = errors.New("options: no fetcher configured")

// Status describes where an option list stands.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
	StatusStatic  Status = "static"
)

// Request describes one dependent option fetch.
type Request struct {
	Endpoint string
	Method   string
	Param    string
	Value    string
}

// Fetcher loads the options for a request.
type Fetcher interface {
	FetchOptions(ctx context.Context, req Request) ([]string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) ([]string, error)

func (fn FetcherFunc) FetchOptions(ctx context.Context, req Request) ([]string, error) {
	return fn(ctx, req)
}

// Result is the effective option list of a field.
type Result struct {
	Options []string
	Status  Status
	Err     error
}

// Disabled reports whether a control bound to the result should refuse
// input.
func (r Result) Disabled() bool {
	return r.Status == StatusIdle || r.Status == StatusLoading
}

type cacheKey struct {
	endpoint  string
	dependsOn string
	value     string
}

func (k cacheKey) String() string {
	return k.endpoint + "|" + k.dependsOn + "=" + k.value
}

// Resolver resolves and caches option lists. It is safe for concurrent use.
type Resolver struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu       sync.Mutex
	cache    map[cacheKey][]string
	inflight map[cacheKey]int
	group    singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger routes fetch failures to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver returns a resolver backed by fetcher.
func NewResolver(fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:  fetcher,
		logger:   zap.NewNop(),
		cache:    make(map[cacheKey][]string),
		inflight: make(map[cacheKey]int),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Enabled reports whether a dependency value is truthy enough to issue a
// fetch: nil, "", false, zero, NaN and empty lists disable it.
func Enabled(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		n := visibility.Number(v)
		return n != 0 && !math.IsNaN(n)
	}
	return true
}

// Resolve returns the options of field for the given dependency value,
// fetching synchronously on a cache miss.
func (r *Resolver) Resolve(ctx context.Context, field *schema.OptionField, depValue any) Result {
	res, key, done := r.prepare(field, depValue)
	if done {
		return res
	}
	return r.fetch(ctx, key, requestFor(field, depValue))
}

// ResolveAsync behaves like Resolve but fetches in the background. On a miss
// it returns a loading result at once and later hands the outcome to fn.
// A resolver is shared by many forms, so fn always runs; deciding whether
// the outcome is still wanted is up to the caller.
func (r *Resolver) ResolveAsync(ctx context.Context, field *schema.OptionField, depValue any, fn func(Result)) Result {
	res, key, done := r.prepare(field, depValue)
	if done {
		return res
	}

	r.mu.Lock()
	r.inflight[key]++
	r.mu.Unlock()

	req := requestFor(field, depValue)
	go func() {
		out := r.fetch(ctx, key, req)
		r.mu.Lock()
		r.inflight[key]--
		if r.inflight[key] <= 0 {
			delete(r.inflight, key)
		}
		r.mu.Unlock()
		if fn != nil {
			fn(out)
		}
	}()
	return Result{Status: StatusLoading}
}

// Status reports the state of field's options for a dependency value without
// fetching.
func (r *Resolver) Status(field *schema.OptionField, depValue any) Status {
	if field == nil || field.DynamicOptions == nil {
		return StatusStatic
	}
	if !Enabled(depValue) {
		return StatusIdle
	}
	key := keyFor(field, depValue)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cache[key]; ok {
		return StatusReady
	}
	if r.inflight[key] > 0 {
		return StatusLoading
	}
	return StatusIdle
}

func (r *Resolver) prepare(field *schema.OptionField, depValue any) (Result, cacheKey, bool) {
	if field == nil {
		return Result{Status: StatusStatic}, cacheKey{}, true
	}
	if field.DynamicOptions == nil {
		return Result{Options: append([]string(nil), field.Options...), Status: StatusStatic}, cacheKey{}, true
	}

	if !Enabled(depValue) {
		return Result{Status: StatusIdle}, cacheKey{}, true
	}

	key := keyFor(field, depValue)
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[key]; ok {
		return Result{Options: append([]string(nil), cached...), Status: StatusReady}, key, true
	}
	return Result{}, key, false
}

func (r *Resolver) fetch(ctx context.Context, key cacheKey, req Request) Result {
	if r.fetcher == nil {
		return Result{Status: StatusFailed, Err: ErrNoFetcher}
	}

	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		return r.fetcher.FetchOptions(ctx, req)
	})
	if err != nil {
		r.logger.Warn("options: fetch failed",
			zap.String("endpoint", req.Endpoint),
			zap.String(req.Param, req.Value),
			zap.Error(err))
		return Result{Status: StatusFailed, Err: fmt.Errorf("options: fetch %s: %w", req.Endpoint, err)}
	}

	opts, _ := v.([]string)
	r.mu.Lock()
	r.cache[key] = append([]string(nil), opts...)
	r.mu.Unlock()
	return Result{Options: append([]string(nil), opts...), Status: StatusReady}
}

func keyFor(field *schema.OptionField, depValue any) cacheKey {
	return cacheKey{
		endpoint:  field.DynamicOptions.Endpoint,
		dependsOn: field.DynamicOptions.DependsOn,
		value:     visibility.String(depValue),
	}
}

func requestFor(field *schema.OptionField, depValue any) Request {
	d := field.DynamicOptions
	return Request{
		Endpoint: d.Endpoint,
		Method:   d.Method,
		Param:    d.DependsOn,
		Value:    visibility.String(depValue),
	}
}
