// Package middleware provides HTTP middleware for the site.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shashiranjanraj/carby/pkg/ctx"
	"github.com/shashiranjanraj/carby/pkg/response"
)

// bucket tracks a fixed-window request count for one key.
type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key (client IP) in fixed windows.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter allows max requests per key per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		now:     time.Now,
		buckets: map[string]*bucket{},
	}
}

// Allow records one request for key and reports whether it is within limits.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}

	b.count++
	return b.count <= l.max
}

// Sweep evicts buckets whose window has expired. The scheduler runs it
// periodically to bound memory on long-running servers.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for key, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// RateLimit limits requests with the given methods (all methods when none
// are listed) per client IP.
//
//	r.Post("/login", "login.submit", h, middleware.RateLimit(limiter, http.MethodPost))
func RateLimit(l *Limiter, methods ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applies(r.Method, methods) && !l.Allow(ctx.ClientIP(r)) {
				w.Header().Set("Retry-After", retryAfter(l.window))
				response.Error(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func applies(method string, methods []string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
