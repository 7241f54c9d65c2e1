package routers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/cache"
	"github.com/RIDLEYsan/studio-classification-app/internal/config"
	"github.com/RIDLEYsan/studio-classification-app/internal/handlers"
	"github.com/RIDLEYsan/studio-classification-app/internal/metrics"
)

func TestHealthRoutes(t *testing.T) {
	router := chi.NewRouter()
	handler := handlers.NewHealthHandler(nil, nil, &config.Config{Provider: "gemini"}, nil)

	HealthRoutes(router, handler, metrics.New().Handler())

	for _, path := range []string{"/healthz", "/metrics"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s route not registered correctly, got status %d", path, rec.Code)
		}
	}
}

func TestAPIRoutesRegistersEndpoints(t *testing.T) {
	router := chi.NewRouter()
	resultCache := cache.NewResultCache(time.Minute)
	defer resultCache.Close()

	APIRoutes(router, APIHandlers{
		Classify: handlers.NewClassifyHandler(nil, "stub", resultCache, 1024, zap.NewNop()),
		Catalog:  handlers.NewCatalogHandler(nil, nil),
		History:  handlers.NewHistoryHandler(nil, nil),
		Batch:    handlers.NewBatchHandler(nil),
	}, APIOptions{MaxBodyBytes: 1 << 20})

	paths := map[string]bool{}
	if err := chi.Walk(router, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		paths[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("failed walking routes: %v", err)
	}

	expected := []string{
		"POST /api/v1/classify",
		"GET /api/v1/classify/{request_id}",
		"GET /api/v1/examples",
		"GET /api/v1/taxonomy",
		"GET /api/v1/history/stats",
		"GET /api/v1/history/recent",
		"GET /api/v1/history/folders/{folder}",
		"GET /api/v1/batch/last",
	}
	for _, route := range expected {
		if !paths[route] {
			t.Fatalf("expected route %s to be registered, got %v", route, paths)
		}
	}
}

func TestClassifyRouteLimitsBody(t *testing.T) {
	router := chi.NewRouter()
	resultCache := cache.NewResultCache(time.Minute)
	defer resultCache.Close()

	APIRoutes(router, APIHandlers{
		Classify: handlers.NewClassifyHandler(nil, "stub", resultCache, 1024, zap.NewNop()),
		Catalog:  handlers.NewCatalogHandler(nil, nil),
		History:  handlers.NewHistoryHandler(nil, nil),
		Batch:    handlers.NewBatchHandler(nil),
	}, APIOptions{MaxBodyBytes: 64})

	body := `{"images":["` + strings.Repeat("A", 256) + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestAPIRoutesRequireTokenWhenConfigured(t *testing.T) {
	router := chi.NewRouter()
	APIRoutes(router, APIHandlers{
		Classify: handlers.NewClassifyHandler(nil, "stub", nil, 1024, zap.NewNop()),
		Catalog:  handlers.NewCatalogHandler(nil, nil),
		History:  handlers.NewHistoryHandler(nil, nil),
		Batch:    handlers.NewBatchHandler(nil),
	}, APIOptions{MaxBodyBytes: 1 << 20, JWTSecret: "secret"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
