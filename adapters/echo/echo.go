// Package yupeeecho serves a yupee document over HTTP with Echo, for
// previewing pages and driving them from a browser or a test.
//
//	e := echo.New()
//	yupeeecho.Mount(e, r)
//
// GET <path> returns the current document. POST <path>event/<name> fires a
// bus event with the form values "arg" as arguments, and POST
// <path>dispatch/<type>?target=<selector> dispatches a DOM event on the
// first matching element. Both POST routes answer with the updated
// document and require the HX-Request header.
//
// Or mount on a group with middleware:
//
//	g := e.Group("/preview", authMiddleware)
//	yupeeecho.MountGroup(g, r)
package yupeeecho

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/pthm/yupee"
	"github.com/pthm/yupee/lib/dom"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	path string
	boot bool
}

// WithPath sets the URL path prefix for the routes. Defaults to "/_y/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithBoot boots the registry on the first request if it has not been
// booted yet.
func WithBoot() Option {
	return func(o *options) {
		o.boot = true
	}
}

type router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Mount mounts the preview routes for r on an Echo instance. A nil r uses
// yupee.Default().
func Mount(e *echo.Echo, r *yupee.Registry, opts ...Option) *yupee.Registry {
	return mount(e, r, opts)
}

// MountGroup mounts the preview routes for r on an Echo group, so they
// share the group's middleware.
func MountGroup(g *echo.Group, r *yupee.Registry, opts ...Option) *yupee.Registry {
	return mount(g, r, opts)
}

type server struct {
	// The document is not safe for concurrent use.
	mu   sync.Mutex
	r    *yupee.Registry
	opts *options

	booted  bool
	bootErr error
}

func mount(rt router, r *yupee.Registry, opts []Option) *yupee.Registry {
	o := &options{path: "/_y/"}
	for _, opt := range opts {
		opt(o)
	}
	if r == nil {
		r = yupee.Default()
	}

	s := &server{r: r, opts: o}
	rt.GET(o.path, s.page)
	rt.POST(o.path+"event/:name", s.fire, requireHX)
	rt.POST(o.path+"dispatch/:type", s.dispatch, requireHX)
	return r
}

// requireHX rejects requests that were not issued by htmx, which a
// cross-site form post cannot forge.
func requireHX(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("HX-Request") != "true" {
			return echo.NewHTTPError(http.StatusForbidden, "missing HX-Request header")
		}
		return next(c)
	}
}

// ensureBooted boots the registry on the first call. A failed boot leaves
// the registry exited, so its error is returned to every later call.
// Callers hold s.mu.
func (s *server) ensureBooted(ctx context.Context) error {
	if !s.opts.boot || s.booted {
		return s.bootErr
	}
	s.booted = true
	s.bootErr = s.r.Boot(ctx)
	return s.bootErr
}

func (s *server) page(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureBooted(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return Render(c, document(s.r))
}

func (s *server) fire(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	args := make([]any, 0, len(form["arg"]))
	for _, a := range form["arg"] {
		args = append(args, a)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureBooted(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := s.r.Fire(c.Param("name"), args...); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return Render(c, document(s.r))
}

func (s *server) dispatch(c echo.Context) error {
	target := c.QueryParam("target")
	if target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing target")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureBooted(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	doc := s.r.Document()
	n := doc.Query(target)
	if n == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no element matches "+target)
	}
	if err := doc.Dispatch(n, &dom.Event{Type: c.Param("type")}); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return Render(c, document(s.r))
}

// document renders the registry's current document. It is read at render
// time since a navigation replaces it.
func document(r *yupee.Registry) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return r.Document().Render(w)
	})
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return yupeeecho.Render(c, yupee.ToastContainer())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
