// Package mockapi is an in-memory stand-in for the insurance forms backend,
// used for local development and for exercising the client in tests.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/components/states"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

// Server serves the backend contract.
type Server struct {
	catalog *schema.Catalog
	store   *Store
	states  *states.Component
	token   string
	latency time.Duration
	logger  *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog replaces the bundled catalog.
func WithCatalog(c *schema.Catalog) Option {
	return func(s *Server) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithStore replaces the seeded submissions store.
func WithStore(store *Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStates replaces the states component.
func WithStates(c *states.Component) Option {
	return func(s *Server) {
		if c != nil {
			s.states = c
		}
	}
}

// WithToken requires `Authorization: Bearer <token>` on every API route.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = strings.TrimSpace(token)
	}
}

// WithLatency delays every response, which makes loading states visible.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.latency = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a server around the bundled catalog and seed data unless
// overridden.
func New(opts ...Option) (*Server, error) {
	s := &Server{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.catalog == nil {
		catalog, err := DefaultCatalog()
		if err != nil {
			return nil, err
		}
		s.catalog = catalog
	}
	if s.store == nil {
		seed, err := SeedSubmissions()
		if err != nil {
			return nil, err
		}
		s.store = NewStore(seed)
	}
	if s.states == nil {
		s.states = states.New(states.WithShape(states.ShapeObject))
	}
	return s, nil
}

// Store exposes the submissions store.
func (s *Server) Store() *Store { return s.store }

// Router returns the HTTP handler with every route registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Use(s.delay)

		r.Route("/api/insurance/forms", func(r chi.Router) {
			r.Get("/", s.listForms)
			r.Post("/submit", s.submit)
			r.Get("/submissions", s.listSubmissions)
			r.Get("/submissions/{id}", s.getSubmission)
		})
		if _, err := s.states.RegisterRoutes(r, ""); err != nil {
			s.logger.Error("mockapi: register states", zap.Error(err))
		}
	})
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("mockapi: listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mockapi: serve: %w", err)
	}
	return nil
}

func (s *Server) listForms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Forms())
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var req schema.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	form, err := s.catalog.Find(req.FormID)
	if err != nil {
		writeError(w, http.StatusNotFound, "FORM_NOT_FOUND", err.Error())
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "EMPTY_SUBMISSION", "data is required")
		return
	}
	detail := s.store.Add(form, req)
	s.logger.Info("mockapi: submission stored", zap.String("form_id", form.FormID), zap.String("id", detail.ID))
	writeJSON(w, http.StatusCreated, detail)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := schema.SubmissionsFilter{
		FormID:     q.Get("formId"),
		Status:     schema.SubmissionStatus(q.Get("status")),
		DateFrom:   q.Get("dateFrom"),
		DateTo:     q.Get("dateTo"),
		SearchTerm: q.Get("searchTerm"),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
		Page:       atoi(q.Get("page")),
		Limit:      atoi(q.Get("limit")),
	}
	writeJSON(w, http.StatusOK, s.store.List(filter))
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, ok := s.store.Detail(id)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "submission "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("mockapi: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, v)
}

func atoi(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
