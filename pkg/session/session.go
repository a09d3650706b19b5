// Package session provides cookie-identified HTTP sessions whose data lives
// in a cache.Store (Redis or memory).
//
// Wiring:
//
//	mgr := session.NewManager(store, box, session.DefaultOptions())
//	r.Use(mgr.Middleware())
//
// In a handler:
//
//	sess := session.FromCtx(r.Context())
//	sess.Set("user_id", user.ID)
//	sess.Flash(session.FlashSuccess, "Welcome back")
//	sess.Save(r.Context(), w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/carby/pkg/cache"
	"github.com/shashiranjanraj/carby/pkg/crypt"
	"github.com/shashiranjanraj/carby/pkg/logger"
)

// Flash kinds understood by the page renderer.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Options configures cookies and lifetimes.
type Options struct {
	CookieName  string
	TTL         time.Duration // lifetime of a browser-session login
	RememberTTL time.Duration // lifetime of a "remember me" login
	HTTPOnly    bool
	Secure      bool
	SameSite    http.SameSite
	Path        string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		CookieName:  "carby_session",
		TTL:         2 * time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
		HTTPOnly:    true,
		Secure:      false, // set true behind TLS
		SameSite:    http.SameSiteLaxMode,
		Path:        "/",
	}
}

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type payload struct {
	Values   map[string]any `json:"values"`
	Flashes  []Flash        `json:"flashes,omitempty"`
	Remember bool           `json:"remember,omitempty"`
}

// Manager loads and persists sessions.
type Manager struct {
	store cache.Store
	box   *crypt.Box
	opts  Options
}

// NewManager creates a Manager. box seals the session id in the cookie so
// a client cannot pick or forge ids.
func NewManager(store cache.Store, box *crypt.Box, opts Options) *Manager {
	return &Manager{store: store, box: box, opts: opts}
}

// Session is an in-request session handle. It is not safe for concurrent use.
type Session struct {
	m       *Manager
	id      string
	staleID string // id to delete on Save after Regenerate/Invalidate
	data    payload
	changed bool
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func storeKey(id string) string { return "session:" + id }

// New returns an empty session with a fresh id.
func (m *Manager) New() *Session {
	id, _ := newID()
	return &Session{m: m, id: id, data: payload{Values: map[string]any{}}}
}

// Load resolves the session referenced by r's cookie, or a fresh one when
// the cookie is absent, forged or expired.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return m.New()
	}

	id, err := m.box.Decrypt(cookie.Value)
	if err != nil {
		return m.New()
	}

	raw, err := m.store.Get(r.Context(), storeKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.WithCtx(r.Context()).Warn("session: load failed", "error", err)
		}
		return m.New()
	}

	sess := &Session{m: m, id: id}
	if err := json.Unmarshal(raw, &sess.data); err != nil {
		return m.New()
	}
	if sess.data.Values == nil {
		sess.data.Values = map[string]any{}
	}
	return sess
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Set stores a value under key.
func (s *Session) Set(key string, value any) {
	s.data.Values[key] = value
	s.changed = true
}

// Get retrieves a value.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.data.Values[key]
	return v, ok
}

// GetUint is a typed convenience getter.
func (s *Session) GetUint(key string) (uint, bool) {
	switch n := s.data.Values[key].(type) {
	case float64: // JSON numbers unmarshal as float64
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	case uint:
		return n, true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}

// Delete removes key.
func (s *Session) Delete(key string) {
	delete(s.data.Values, key)
	s.changed = true
}

// Flash queues a notice for the next rendered page.
func (s *Session) Flash(kind, message string) {
	s.data.Flashes = append(s.data.Flashes, Flash{Kind: kind, Message: message})
	s.changed = true
}

// Flashes returns and clears every queued notice.
func (s *Session) Flashes() []Flash {
	out := s.data.Flashes
	if len(out) > 0 {
		s.data.Flashes = nil
		s.changed = true
	}
	return out
}

// SetRemember switches between a browser-session cookie and a persistent one.
func (s *Session) SetRemember(remember bool) {
	s.data.Remember = remember
	s.changed = true
}

// Remember reports whether the session uses a persistent cookie.
func (s *Session) Remember() bool { return s.data.Remember }

// Regenerate moves the data to a new id. Call on privilege changes (login)
// so a pre-login id cannot be reused.
func (s *Session) Regenerate() {
	if s.staleID == "" {
		s.staleID = s.id
	}
	s.id, _ = newID()
	s.changed = true
}

// Invalidate clears all data, including pending flashes, and rotates the id.
func (s *Session) Invalidate() {
	s.data = payload{Values: map[string]any{}}
	s.Regenerate()
}

func (s *Session) ttl() time.Duration {
	if s.data.Remember {
		return s.m.opts.RememberTTL
	}
	return s.m.opts.TTL
}

// Save persists the session and writes the cookie. It is a no-op when
// nothing changed. Call before the response header is written.
func (s *Session) Save(ctx context.Context, w http.ResponseWriter) error {
	if !s.changed {
		return nil
	}

	if s.staleID != "" {
		if err := s.m.store.Del(ctx, storeKey(s.staleID)); err != nil {
			logger.WithCtx(ctx).Warn("session: delete stale id", "error", err)
		}
		s.staleID = ""
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.m.store.Set(ctx, storeKey(s.id), raw, s.ttl()); err != nil {
		return fmt.Errorf("session: store: %w", err)
	}

	sealed, err := s.m.box.Encrypt(s.id)
	if err != nil {
		return fmt.Errorf("session: seal id: %w", err)
	}

	cookie := &http.Cookie{
		Name:     s.m.opts.CookieName,
		Value:    sealed,
		Path:     s.m.opts.Path,
		HttpOnly: s.m.opts.HTTPOnly,
		Secure:   s.m.opts.Secure,
		SameSite: s.m.opts.SameSite,
	}
	if s.data.Remember {
		cookie.MaxAge = int(s.m.opts.RememberTTL.Seconds())
	}
	http.SetCookie(w, cookie)

	s.changed = false
	return nil
}

// ------------------- Middleware -------------------

type ctxKey struct{}

// Middleware loads (or creates) the session for every request and injects
// it into the request context.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := m.Load(r)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromCtx retrieves the session from ctx, or nil when the middleware did
// not run.
func FromCtx(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
