package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/RIDLEYsan/studio-classification-app/internal/history"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

func TestHistoryHandlerDisabled(t *testing.T) {
	handler := NewHistoryHandler(nil, nil)

	for _, h := range []http.HandlerFunc{handler.StatsHandler, handler.RecentHandler, handler.FolderHandler} {
		rec := performRequest(h, http.MethodGet, "/api/v1/history/stats", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != "history_disabled" {
			t.Fatalf("unexpected code %s", resp.Code)
		}
	}
}

func TestStatsHandler(t *testing.T) {
	store := &mockHistory{
		summaryFn: func(ctx context.Context) (*history.Summary, error) {
			return &history.Summary{
				Total:      3,
				ByStatus:   map[string]int64{"classified": 2, "failed": 1},
				ByCategory: []models.CategoryCount{{BroadCategory: "自然", Count: 2}},
			}, nil
		},
	}
	rec := performRequest(http.HandlerFunc(NewHistoryHandler(store, nil).StatsHandler), http.MethodGet, "/api/v1/history/stats", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary history.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.Total != 3 || summary.ByStatus["failed"] != 1 || summary.ByCategory[0].BroadCategory != "自然" {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	store.summaryFn = func(context.Context) (*history.Summary, error) { return nil, errors.New("db down") }
	rec = performRequest(http.HandlerFunc(NewHistoryHandler(store, nil).StatsHandler), http.MethodGet, "/api/v1/history/stats", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store error, got %d", rec.Code)
	}
}

func TestRecentHandlerLimit(t *testing.T) {
	var gotLimit int
	store := &mockHistory{
		recentFn: func(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
			gotLimit = limit
			return []models.AnalysisRecord{{FolderName: "house_01"}}, nil
		},
	}
	handler := http.HandlerFunc(NewHistoryHandler(store, nil).RecentHandler)

	cases := []struct {
		target string
		status int
		limit  int
	}{
		{"/api/v1/history/recent", http.StatusOK, defaultRecentLimit},
		{"/api/v1/history/recent?limit=5", http.StatusOK, 5},
		{"/api/v1/history/recent?limit=5000", http.StatusOK, maxRecentLimit},
		{"/api/v1/history/recent?limit=abc", http.StatusBadRequest, 0},
		{"/api/v1/history/recent?limit=0", http.StatusBadRequest, 0},
	}

	for _, tc := range cases {
		gotLimit = 0
		rec := performRequest(handler, http.MethodGet, tc.target, "")
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.target, tc.status, rec.Code)
		}
		if gotLimit != tc.limit {
			t.Fatalf("%s: expected limit %d, got %d", tc.target, tc.limit, gotLimit)
		}
	}
}

func TestFolderHandler(t *testing.T) {
	store := &mockHistory{
		latestFn: func(ctx context.Context, folder string) (*models.AnalysisRecord, error) {
			switch folder {
			case "house_01":
				return &models.AnalysisRecord{FolderName: folder, BroadCategory: "ハウススタジオ"}, nil
			case "broken":
				return nil, errors.New("db down")
			}
			return nil, fmt.Errorf("%w: %s", history.ErrNotFound, folder)
		},
	}
	router := chi.NewRouter()
	router.Get("/api/v1/history/folders/{folder}", NewHistoryHandler(store, nil).FolderHandler)

	rec := performRequest(router, http.MethodGet, "/api/v1/history/folders/house_01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var record models.AnalysisRecord
	if err := json.NewDecoder(rec.Body).Decode(&record); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	if record.FolderName != "house_01" || record.BroadCategory != "ハウススタジオ" {
		t.Fatalf("unexpected record: %+v", record)
	}

	rec = performRequest(router, http.MethodGet, "/api/v1/history/folders/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown folder, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "not_found" {
		t.Fatalf("unexpected code %s", resp.Code)
	}

	rec = performRequest(router, http.MethodGet, "/api/v1/history/folders/broken", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store error, got %d", rec.Code)
	}
}
