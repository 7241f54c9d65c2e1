package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderMetrics(t *testing.T) {
	m := New()

	m.StartFolder()
	m.FinishFolder("classified", 2*time.Second, 1)
	m.StartFolder()
	m.FinishFolder("failed", time.Second, 0)
	m.StartFolder()
	m.FinishFolder("classified", time.Second, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.foldersTotal.WithLabelValues("classified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.foldersTotal.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.imagesSkipped))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.foldersInFlight))

	m.ObserveProviderCall("gemini", "ok")
	m.ObserveProviderCall("gemini", "")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerCalls.WithLabelValues("gemini", "unknown")))

	m.ObserveRun(nil)
	m.ObserveRun(errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchRuns.WithLabelValues("error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.StartFolder()
	m.FinishFolder("failed", time.Second, 3)
	m.ObserveProviderCall("gemini", "timeout")
	m.ObserveRun(nil)
	assert.Nil(t, m.Registry())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/v1/classify/{request_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/classify/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/v1/classify/{request_id}", "404"))
	assert.Equal(t, 2.0, got)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "studio_classifier_http_requests_total"))
}
