package states

import "net/http"

// Shape selects the response body layout.
type Shape string

const (
	// ShapeList answers with a bare JSON array of names.
	ShapeList Shape = "list"
	// ShapeObject answers with {"country": ..., "states": [...]}.
	ShapeObject Shape = "object"
)

// GuardFunc may reject a request before lookup. Returning a StatusError
// picks the response code; any other error yields 403.
type GuardFunc func(r *http.Request) error

// Options configures the handler. The zero value of every field falls back
// to DefaultOptions.
type Options struct {
	RoutePath    string
	CountryParam string
	SearchParam  string
	Shape        Shape
	Guard        GuardFunc

	// Table defaults to the embedded data set.
	Table *Table
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/getStates",
		CountryParam: "country",
		SearchParam:  "q",
		Shape:        ShapeList,
	}
}

// NewOptions applies fns over the defaults and restores any field they blank.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}

	def := DefaultOptions()
	if opts.RoutePath == "" {
		opts.RoutePath = def.RoutePath
	}
	if opts.CountryParam == "" {
		opts.CountryParam = def.CountryParam
	}
	if opts.SearchParam == "" {
		opts.SearchParam = def.SearchParam
	}
	if opts.Shape != ShapeObject {
		opts.Shape = ShapeList
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithCountryParam(name string) OptionFn {
	return func(o *Options) { o.CountryParam = name }
}

func WithShape(shape Shape) OptionFn {
	return func(o *Options) { o.Shape = shape }
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

// WithTable replaces the embedded table.
func WithTable(table *Table) OptionFn {
	return func(o *Options) { o.Table = table }
}

// WithCountries builds the table from an in-memory list.
func WithCountries(countries []Country) OptionFn {
	return func(o *Options) { o.Table = NewTable(countries) }
}
