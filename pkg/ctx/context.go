// Package ctx provides a request context for page handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for forms, sessions, flashes,
// redirects and page rendering:
//
//	func ShowCar(c *ctx.Context) {
//	    id, ok := c.ParamUint("carId")
//	    ...
//	    c.View("car", car)
//	}
//
//	router.Get("/cars/{carId}", "cars.show", ctx.Wrap(ShowCar))
package ctx

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/carby/pkg/bind"
	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/response"
	"github.com/shashiranjanraj/carby/pkg/session"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc so it can be
// passed to any router method.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair. It must not be retained after the
// handler returns.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int // written status code (0 = not written yet)
}

// pool recycles Context objects to reduce GC pressure.
var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter (e.g. "/configure/{carId}" → c.Param("carId")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamUint parses a URL path parameter as a positive id.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// IsPost reports whether the request is a form submission.
func (c *Context) IsPost() bool { return c.R.Method == http.MethodPost }

// PostForm returns a single submitted form field.
func (c *Context) PostForm(key string) string {
	return strings.TrimSpace(c.R.PostFormValue(key))
}

// ClientIP returns the client IP.
func (c *Context) ClientIP() string {
	return ClientIP(c.R)
}

// ClientIP extracts the caller address from r.RemoteAddr. Forwarding
// headers are ignored here; behind a trusted proxy the kernel rewrites
// RemoteAddr before this runs.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindForm decodes the submitted form into dest and runs validation. A
// malformed body is reported as an error on the "form" key so callers can
// redisplay the page the same way as for a validation failure.
func (c *Context) BindForm(dest any) map[string]string {
	errs, err := bind.Form(c.R, dest)
	if err != nil {
		return map[string]string{"form": err.Error()}
	}
	return errs
}

// ─── Session ──────────────────────────────────────────────────────────────────

// Session returns the request session. The session middleware must be
// installed; without it a throwaway session that is never saved is returned.
func (c *Context) Session() *session.Session {
	if s := session.FromCtx(c.R.Context()); s != nil {
		return s
	}
	return session.NewManager(nil, nil, session.DefaultOptions()).New()
}

// Flash queues a notice for the next rendered page.
func (c *Context) Flash(kind, message string) {
	c.Session().Flash(kind, message)
}

func (c *Context) saveSession() {
	s := session.FromCtx(c.R.Context())
	if s == nil {
		return
	}
	if err := s.Save(c.R.Context(), c.W); err != nil {
		logger.WithCtx(c.R.Context()).Error("session: save failed", "error", err)
	}
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// Redirect persists the session and sends a 303 See Other, so a POST is
// always followed by a GET.
func (c *Context) Redirect(url string) {
	c.saveSession()
	c.status = http.StatusSeeOther
	http.Redirect(c.W, c.R, url, http.StatusSeeOther)
}

// Render writes p through the installed renderer, attaching pending flashes.
func (c *Context) Render(status int, p response.Page) {
	if s := session.FromCtx(c.R.Context()); s != nil {
		p.Flashes = append(p.Flashes, s.Flashes()...)
	}
	c.saveSession()
	c.status = status
	if err := response.FromCtx(c.R.Context()).Render(c.W, status, p); err != nil {
		logger.WithCtx(c.R.Context()).Error("render failed", "page", p.Name, "error", err)
	}
}

// View renders a page with 200 OK.
func (c *Context) View(page string, data any) {
	c.Render(http.StatusOK, response.Page{Name: page, Data: data})
}

// Invalid re-renders a form page with field errors and the previous input.
func (c *Context) Invalid(page string, data any, errs map[string]string, old map[string]string) {
	c.Render(http.StatusUnprocessableEntity, response.Page{Name: page, Data: data, Errors: errs, Old: old})
}

// Error sends a bare error body.
func (c *Context) Error(code int, message string) {
	c.saveSession()
	c.status = code
	response.Error(c.W, code, message)
}

// WrittenStatus returns the HTTP status code that was written to the response,
// or 0 if no response has been written yet.
func (c *Context) WrittenStatus() int { return c.status }
