package handlers

import (
	"net/http"

	"github.com/RIDLEYsan/studio-classification-app/internal/jobs"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

// LastRunReporter is satisfied by *jobs.BatchJob
type LastRunReporter interface {
	LastRun() *jobs.RunSummary
}

type BatchHandler struct {
	job LastRunReporter
}

func NewBatchHandler(job LastRunReporter) *BatchHandler {
	return &BatchHandler{job: job}
}

// LastRunHandler reports the most recent scheduled batch run
func (h *BatchHandler) LastRunHandler(w http.ResponseWriter, r *http.Request) {
	if h.job == nil {
		utils.Error(w, http.StatusServiceUnavailable, "batch_disabled", "Scheduled batch is not configured")
		return
	}
	last := h.job.LastRun()
	if last == nil {
		utils.Error(w, http.StatusNotFound, "no_runs", "No scheduled batch has run yet")
		return
	}
	utils.JSON(w, http.StatusOK, last)
}
