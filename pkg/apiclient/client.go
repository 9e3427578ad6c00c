// Package apiclient talks to the insurance forms backend: the form catalog,
// submissions and dependent option endpoints.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/options"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 4 << 10

// Client is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is still
// wrapped when a token is configured.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken attaches `Authorization: Bearer <token>` to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger logs requests at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.token != "" {
		hc := *c.httpClient
		hc.Transport = &bearerTransport{token: c.token, base: hc.Transport}
		c.httpClient = &hc
	}
	return c, nil
}

// bearerTransport injects the auth header so callers never build it.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

// Forms fetches the form catalog.
func (c *Client) Forms(ctx context.Context) ([]schema.InsuranceForm, error) {
	var raw rawBody
	if err := c.do(ctx, http.MethodGet, PathForms, nil, nil, &raw); err != nil {
		return nil, err
	}
	forms, err := schema.DecodeForms(raw)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %w", err)
	}
	return forms, nil
}

// Form fetches the catalog and returns the form with the given id.
func (c *Client) Form(ctx context.Context, formID string) (schema.InsuranceForm, error) {
	forms, err := c.Forms(ctx)
	if err != nil {
		return schema.InsuranceForm{}, err
	}
	return schema.Find(forms, formID)
}

// SubmitForm posts a submission and returns the server's echo.
func (c *Client) SubmitForm(ctx context.Context, req schema.SubmitRequest) (schema.SubmissionDetail, error) {
	var detail schema.SubmissionDetail
	if req.Data == nil {
		req.Data = schema.Values{}
	}
	err := c.do(ctx, http.MethodPost, PathSubmit, nil, req, &detail)
	return detail, err
}

// Submit implements form.Submitter.
func (c *Client) Submit(ctx context.Context, formID string, values schema.Values) error {
	_, err := c.SubmitForm(ctx, schema.SubmitRequest{FormID: formID, Data: values})
	return err
}

// Submissions fetches the submissions listing. A nil filter fetches
// everything.
func (c *Client) Submissions(ctx context.Context, filter *schema.SubmissionsFilter) (schema.SubmissionsResponse, error) {
	var resp schema.SubmissionsResponse
	err := c.do(ctx, http.MethodGet, PathSubmissions, filterQuery(filter), nil, &resp)
	return resp, err
}

// States fetches the states of a country.
func (c *Client) States(ctx context.Context, country string) ([]string, error) {
	return c.FetchOptions(ctx, options.Request{Endpoint: PathStates, Method: http.MethodGet, Param: "country", Value: country})
}

// FetchOptions implements options.Fetcher against the client's base URL,
// token and timeout.
func (c *Client) FetchOptions(ctx context.Context, req options.Request) ([]string, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	var (
		query url.Values
		body  any
	)
	if method == http.MethodGet {
		query = url.Values{req.Param: []string{req.Value}}
	} else {
		body = map[string]string{req.Param: req.Value}
	}

	var raw rawBody
	if err := c.do(ctx, method, req.Endpoint, query, body, &raw); err != nil {
		return nil, err
	}
	opts, err := options.DecodeOptions(raw)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %w", err)
	}
	return opts, nil
}

// rawBody captures a response body verbatim.
type rawBody []byte

func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return mergeQuery(u, query), nil
	}
	rel, err := url.Parse(strings.TrimPrefix(strings.TrimSpace(path), "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse path %q: %w", path, err)
	}
	return mergeQuery(c.baseURL.ResolveReference(rel), query), nil
}

func mergeQuery(u *url.URL, query url.Values) *url.URL {
	if len(query) == 0 {
		return u
	}
	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target, err := c.resolve(path, query)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("apiclient: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, target.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("apiclient: response",
		zap.String("method", method),
		zap.String("path", target.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{Method: method, URL: target.Path, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("apiclient: read %s: %w", target.Path, err)
	}
	if raw, ok := out.(*rawBody); ok {
		*raw = data
		return nil
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("apiclient: decode %s: %w", target.Path, err)
	}
	return nil
}

func filterQuery(f *schema.SubmissionsFilter) url.Values {
	if f == nil {
		return nil
	}
	q := url.Values{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			q.Set(key, value)
		}
	}
	set("formId", f.FormID)
	set("status", string(f.Status))
	set("dateFrom", f.DateFrom)
	set("dateTo", f.DateTo)
	set("searchTerm", f.SearchTerm)
	set("sortBy", f.SortBy)
	set("sortOrder", f.SortOrder)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}
