package reqid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromCtx(r.Context())
	}))

	t.Run("generates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 32)
		assert.Equal(t, seen, rec.Header().Get(Header))
	})

	t.Run("reuses upstream", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, "gw-123")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "gw-123", seen)
	})

	t.Run("rejects unsafe upstream", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, "x\" level=ERROR")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Len(t, seen, 32)
	})
}
