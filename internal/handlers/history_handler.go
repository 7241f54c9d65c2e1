package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/history"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// HistoryReader is satisfied by *history.Store
type HistoryReader interface {
	Summary(ctx context.Context) (*history.Summary, error)
	Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	LatestByFolder(ctx context.Context, folder string) (*models.AnalysisRecord, error)
}

type HistoryHandler struct {
	store  HistoryReader
	logger *zap.Logger
}

// NewHistoryHandler accepts a nil store when history is disabled
func NewHistoryHandler(store HistoryReader, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{store: store, logger: logger}
}

func (h *HistoryHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		historyDisabled(w)
		return
	}

	summary, err := h.store.Summary(r.Context())
	if err != nil {
		h.logger.Error("Failed to load history summary", zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "history_error", "Failed to load history statistics")
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}

func (h *HistoryHandler) RecentHandler(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		historyDisabled(w)
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
				Code:    "invalid_limit",
				Message: "limit must be a positive integer",
				Details: []models.ValidationErrorDetail{{Field: "limit", Reason: "got " + strconv.Quote(raw)}},
			})
			return
		}
		limit = min(n, maxRecentLimit)
	}

	records, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load recent history", zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "history_error", "Failed to load recent analyses")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// FolderHandler returns the latest analysis of one property folder
func (h *HistoryHandler) FolderHandler(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		historyDisabled(w)
		return
	}

	folder := chi.URLParam(r, "folder")
	record, err := h.store.LatestByFolder(r.Context(), folder)
	if errors.Is(err, history.ErrNotFound) {
		utils.Error(w, http.StatusNotFound, "not_found", "No analysis recorded for folder "+strconv.Quote(folder))
		return
	}
	if err != nil {
		h.logger.Error("Failed to load folder history", zap.String("folder", folder), zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "history_error", "Failed to load folder analysis")
		return
	}
	utils.JSON(w, http.StatusOK, record)
}

func historyDisabled(w http.ResponseWriter) {
	utils.Error(w, http.StatusServiceUnavailable, "history_disabled", "Analysis history is not configured")
}
