package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedRoutesAndURL(t *testing.T) {
	r := New()
	noop := func(w http.ResponseWriter, req *http.Request) {}
	r.Form("/order/{carId}/{configId}", "order", noop)

	url, err := r.URL("order", map[string]string{"carId": "1", "configId": "9"})
	require.NoError(t, err)
	assert.Equal(t, "/order/1/9", url)

	_, err = r.URL("order", map[string]string{"carId": "1"})
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestFormServesGetAndPost(t *testing.T) {
	r := New()
	var methods []string
	r.Form("/login", "login", func(w http.ResponseWriter, req *http.Request) {
		methods = append(methods, req.Method)
	})

	for _, m := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(m, "/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, []string{"GET", "POST"}, methods)

	assert.Equal(t, []Route{
		{Method: "GET", Path: "/login", Name: "login"},
		{Method: "POST", Path: "/login"},
	}, r.Routes())
}

func TestGroupMiddlewareOrder(t *testing.T) {
	r := New()
	var order []string
	mw := func(tag string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, tag)
				next.ServeHTTP(w, req)
			})
		}
	}

	g := r.Group("/", mw("group"))
	g.Get("/catalog", "catalog", func(w http.ResponseWriter, req *http.Request) {
		order = append(order, "handler")
	}, mw("route"))

	r.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog", nil))
	assert.Equal(t, []string{"group", "route", "handler"}, order)
}
