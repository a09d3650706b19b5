package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/carby/pkg/session"
)

func TestJSONRendererWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	err := JSONRenderer{}.Render(rec, http.StatusUnprocessableEntity, Page{
		Name:    "register",
		Flashes: []session.Flash{{Kind: session.FlashDanger, Message: "nope"}},
		Errors:  map[string]string{"email": "taken"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "register", got["page"])
	assert.NotContains(t, got, "data")
	assert.Equal(t, map[string]any{"email": "taken"}, got["errors"])
}

type stubRenderer struct{ pages []string }

func (s *stubRenderer) Render(w http.ResponseWriter, status int, p Page) error {
	s.pages = append(s.pages, p.Name)
	w.WriteHeader(status)
	return nil
}

func TestWithRendererInstallsRenderer(t *testing.T) {
	stub := &stubRenderer{}
	h := WithRenderer(stub)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = FromCtx(r.Context()).Render(w, http.StatusOK, Page{Name: "home"})
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"home"}, stub.pages)
	assert.IsType(t, JSONRenderer{}, FromCtx(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
