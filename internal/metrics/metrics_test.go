package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"officecrm/internal/metrics"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New("officecrm")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/offices/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/offices/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `officecrm_http_requests_total{method="GET",route="/api/offices/{id}",status="404"} 3`)
}

func TestDomainCounters(t *testing.T) {
	m := metrics.New("officecrm")
	m.ObserveRejection("booking", "conflict")
	m.ObserveRejection("booking", "conflict")
	m.ObserveSweep(4)
	m.ObserveSweep(0)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `officecrm_reservation_conflicts_total{kind="conflict",resource="booking"} 2`)
	assert.Contains(t, rec.Body.String(), "officecrm_payments_marked_overdue_total 4")
	assert.Contains(t, rec.Body.String(), "officecrm_overdue_sweeps_total 2")
}
