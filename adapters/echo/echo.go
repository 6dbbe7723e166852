// Package behavioralecho provides Echo framework integration for behavioral
// markup.
//
// Mount the stamping middleware on an Echo instance or group so every HTML
// response arrives with is attributes on its behavior hosts:
//
//	reg := behavioral.NewRegistry()
//	reg.Add(reveal.Entry())
//
//	e := echo.New()
//	rt := behavioralecho.Mount(e, reg)
//
// Or on a group:
//
//	g := e.Group("/app", authMiddleware)
//	rt := behavioralecho.MountGroup(g, reg)
package behavioralecho

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/pthm/behavioral"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key    []byte
	logger *slog.Logger
}

// WithKey sets the key command payloads are signed with.
// If not provided, a random key is generated (suitable for development only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithLogger sets the runtime's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Mount creates a runtime over reg and installs its stamping middleware on
// an Echo instance.
//
//	rt := behavioralecho.Mount(e, reg, behavioralecho.WithKey(key))
func Mount(e *echo.Echo, reg *behavioral.Registry, opts ...Option) *behavioral.Runtime {
	rt := newRuntime(reg, opts)
	e.Use(Middleware(rt))
	return rt
}

// MountGroup creates a runtime over reg and installs its stamping middleware
// on an Echo group only.
func MountGroup(g *echo.Group, reg *behavioral.Registry, opts ...Option) *behavioral.Runtime {
	rt := newRuntime(reg, opts)
	g.Use(Middleware(rt))
	return rt
}

func newRuntime(reg *behavioral.Registry, opts []Option) *behavioral.Runtime {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var rtOpts []behavioral.Option
	if o.key != nil {
		rtOpts = append(rtOpts, behavioral.WithPayloadKey(o.key))
	}
	if o.logger != nil {
		rtOpts = append(rtOpts, behavioral.WithLogger(o.logger))
	}
	return behavioral.New(reg, rtOpts...)
}

// Middleware adapts rt.Middleware to Echo. Handler errors are rendered by
// Echo's error handler inside the buffered response, so error pages pass
// through the stamper like any other response.
func Middleware(rt *behavioral.Runtime) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := c.Response()
			orig := res.Writer
			defer func() { res.Writer = orig }()

			rt.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				res.Writer = w
				c.SetRequest(r)
				if err := next(c); err != nil {
					c.Error(err)
				}
			})).ServeHTTP(orig, c.Request())
			return nil
		}
	}
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return behavioralecho.Render(c, page())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	return component.Render(c.Request().Context(), c.Response())
}

// IsPartial reports whether the request is an htmx partial request.
func IsPartial(c echo.Context) bool {
	return behavioral.IsPartial(c.Request())
}
