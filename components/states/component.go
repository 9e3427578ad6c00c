package states

import (
	"errors"
	"net/http"
	"path"
	"strings"
)

// Mux is what RegisterRoutes needs from a router; *http.ServeMux and
// chi.Router both have it.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

var errNoMux = errors.New("states: missing mux")

// Component owns one configured states handler.
type Component struct {
	opts    Options
	handler http.Handler
}

// New builds a component; see OptionFn for the knobs.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	return &Component{opts: opts, handler: HandlerWithOptions(opts)}
}

// Options returns the resolved configuration.
func (c *Component) Options() Options { return c.opts }

// Handler serves state lookups.
func (c *Component) Handler() http.Handler { return c.handler }

// RegisterRoutes mounts the handler at basePath + RoutePath and returns the
// pattern used.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if mux == nil {
		return "", errNoMux
	}
	pattern := MountPath(basePath, c.opts.RoutePath)
	mux.Handle(pattern, c.handler)
	return pattern, nil
}

// RegisterRoutes is New(fns...).RegisterRoutes(mux, basePath).
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	return New(fns...).RegisterRoutes(mux, basePath)
}

// MountPath joins basePath and routePath into an absolute route.
func MountPath(basePath, routePath string) string {
	joined := path.Join("/", strings.TrimSpace(basePath), strings.TrimSpace(routePath))
	if joined == "" {
		return "/"
	}
	return joined
}
