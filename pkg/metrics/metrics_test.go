package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/configure/{carId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/configure/7", nil))

	body := scrape(t)
	assert.Contains(t, body, `route="/configure/{carId}"`)
	assert.Contains(t, body, `status="202"`)
	assert.NotContains(t, body, `route="/configure/7"`)
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	OrdersPlaced.Inc()
	Notifications.WithLabelValues("sent").Inc()

	body := scrape(t)
	assert.Contains(t, body, "carby_orders_placed_total")
	assert.Contains(t, body, `carby_notifications_total{result="sent"}`)
}
