package states

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

// StatusError lets a GuardFunc choose the HTTP status of a rejection.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

type objectResponse struct {
	Country string   `json:"country"`
	States  []string `json:"states"`
}

// Handler is New(fns...).Handler().
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions serves lookups for opts. Unknown or missing countries
// answer with an empty list so dependent selects just show no choices.
func HandlerWithOptions(opts Options) http.Handler {
	table, tableErr := opts.Table, error(nil)
	if table == nil {
		table, tableErr = DefaultTable()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			writeStatus(w, http.StatusMethodNotAllowed)
			return
		}
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeStatus(w, guardStatus(err))
				return
			}
		}
		if tableErr != nil {
			writeStatus(w, http.StatusInternalServerError)
			return
		}

		query := r.URL.Query()
		requested := strings.TrimSpace(query.Get(opts.CountryParam))
		country, names, ok := table.Lookup(requested)
		if !ok {
			country = requested
		}
		names = Filter(names, query.Get(opts.SearchParam))
		if names == nil {
			names = []string{}
		}

		var body any = names
		if opts.Shape == ShapeObject {
			body = objectResponse{Country: country, States: names}
		}
		payload, err := sonic.Marshal(body)
		if err != nil {
			writeStatus(w, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(payload)
		}
	})
}

// Filter keeps the names containing query, case-insensitively, prefix
// matches first. An empty query keeps everything.
func Filter(names []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return names
	}
	var prefix, rest []string
	for _, name := range names {
		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(lower, q):
			prefix = append(prefix, name)
		case strings.Contains(lower, q):
			rest = append(rest, name)
		}
	}
	return append(prefix, rest...)
}

func guardStatus(err error) int {
	var se StatusError
	if errors.As(err, &se) && se.Code > 0 {
		return se.Code
	}
	return http.StatusForbidden
}

func writeStatus(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}
