// Package response writes pages and error bodies. HTML templating lives
// outside this module: pages go through a Renderer, and the default
// JSONRenderer emits a page envelope that a front end (or a test) can read.
package response

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/carby/pkg/session"
)

// Page is everything a view needs.
type Page struct {
	Name    string            `json:"page"`
	Data    interface{}       `json:"data,omitempty"`
	Flashes []session.Flash   `json:"flashes,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Old     map[string]string `json:"old,omitempty"` // previous input for form redisplay
}

// Renderer turns a Page into a response body.
type Renderer interface {
	Render(w http.ResponseWriter, status int, p Page) error
}

// JSONRenderer renders pages as JSON envelopes.
type JSONRenderer struct{}

// Render implements Renderer.
func (JSONRenderer) Render(w http.ResponseWriter, status int, p Page) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(p)
}

type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// Error sends a bare JSON error body. Used by middleware that runs outside
// page rendering (panic recovery, rate limiting).
func Error(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Status: status, Message: message}) //nolint:errcheck
}

type ctxKey struct{}

// WithRenderer installs r for downstream handlers.
func WithRenderer(r Renderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), ctxKey{}, r)))
		})
	}
}

// FromCtx returns the installed renderer, or JSONRenderer.
func FromCtx(ctx context.Context) Renderer {
	if r, ok := ctx.Value(ctxKey{}).(Renderer); ok {
		return r
	}
	return JSONRenderer{}
}
