package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/edit-snippet/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/edit-snippet/"+id, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `devhelper_http_requests_total{method="GET",route="/edit-snippet/{id}",status="404"} 3`)
	assert.Contains(t, body, `devhelper_http_request_duration_seconds_count{method="GET",route="/edit-snippet/{id}"} 3`)
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	assert.Contains(t, scrape(t, m), `route="unmatched",status="404"`)
}

func TestMetrics_ObserveGeneration(t *testing.T) {
	m := NewMetrics()
	m.ObserveGeneration("success")
	m.ObserveGeneration("success")
	m.ObserveGeneration("error")

	body := scrape(t, m)
	assert.Contains(t, body, `devhelper_generations_total{outcome="success"} 2`)
	assert.Contains(t, body, `devhelper_generations_total{outcome="error"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// Two instances must not collide the way the global registry would.
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
