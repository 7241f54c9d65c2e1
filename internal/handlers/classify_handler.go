package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/imageset"
	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
	"github.com/RIDLEYsan/studio-classification-app/internal/middleware"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
	"github.com/RIDLEYsan/studio-classification-app/internal/utils"
)

// ImageClassifier is satisfied by *batch.Runner
type ImageClassifier interface {
	ClassifyImages(ctx context.Context, requestID, folder string, images []models.Image, withExamples bool) (models.ClassificationResult, int, error)
}

// ResultStore is satisfied by *cache.ResultCache and *cache.RedisResultCache
type ResultStore interface {
	Set(requestID string, resp *models.ClassifyResponse)
	Get(requestID string) (*models.ClassifyResponse, bool)
}

type ClassifyHandler struct {
	classifier    ImageClassifier
	provider      string
	results       ResultStore
	maxImageBytes int64
	logger        *zap.Logger
}

func NewClassifyHandler(classifier ImageClassifier, provider string, results ResultStore, maxImageBytes int64, logger *zap.Logger) *ClassifyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifyHandler{
		classifier:    classifier,
		provider:      provider,
		results:       results,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// ClassifyHandler classifies the uploaded images as a single property folder
func (h *ClassifyHandler) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ClassifyRequest](r)
	req.RequestID = ensureRequestID(req.RequestID)

	images := make([]models.Image, 0, len(req.Images))
	var details []models.ValidationErrorDetail
	for i, payload := range req.Images {
		img, err := imageset.DecodeUpload(i, payload, h.maxImageBytes)
		if err != nil {
			details = append(details, models.ValidationErrorDetail{
				Field:  imageField(i),
				Reason: err.Error(),
			})
			continue
		}
		images = append(images, img)
	}
	if len(details) > 0 {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "invalid_images",
			Message: "Some images could not be decoded",
			Details: details,
		})
		return
	}

	startTime := time.Now()
	result, examplesUsed, err := h.classifier.ClassifyImages(r.Context(), req.RequestID, req.FolderName, images, req.WantsExamples())
	if err != nil {
		h.logger.Error("Classification failed",
			zap.Error(err),
			zap.String("request_id", req.RequestID),
			zap.String("folder", req.FolderName))
		status, code := providerErrorStatus(err)
		utils.Error(w, status, code, "Failed to classify images")
		return
	}

	resp := &models.ClassifyResponse{
		RequestID: req.RequestID,
		Result:    result,
		Metadata: models.ClassifyMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Provider:       h.provider,
			ExamplesUsed:   examplesUsed,
		},
	}
	if h.results != nil {
		h.results.Set(req.RequestID, resp)
	}

	h.logger.Info("Folder classified",
		zap.String("request_id", req.RequestID),
		zap.String("folder", req.FolderName),
		zap.String("status", string(result.Status)),
		zap.String("category", result.Category),
		zap.Int("processing_time_ms", resp.Metadata.ProcessingTime))

	utils.JSON(w, http.StatusOK, resp)
}

// GetResultHandler returns a recently computed classification by request ID
func (h *ClassifyHandler) GetResultHandler(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "request_id")
	if h.results == nil {
		utils.Error(w, http.StatusNotFound, "not_found", "No cached result for request")
		return
	}
	resp, ok := h.results.Get(requestID)
	if !ok {
		utils.Error(w, http.StatusNotFound, "not_found", "No cached result for request")
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// providerErrorStatus maps a classifier error to an HTTP status and error code
func providerErrorStatus(err error) (int, string) {
	if errors.Is(err, imageset.ErrEmptyImage) {
		return http.StatusBadRequest, "invalid_images"
	}
	if errors.Is(err, imageset.ErrRequestTooLarge) {
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	}
	switch code := llm.ErrorCode(err); code {
	case llm.ErrCodeRateLimit:
		return http.StatusTooManyRequests, code
	case llm.ErrCodeInvalidInput:
		return http.StatusBadRequest, code
	case llm.ErrCodeTimeout:
		return http.StatusGatewayTimeout, code
	case "":
		return http.StatusBadGateway, "ai_error"
	default:
		return http.StatusBadGateway, code
	}
}

func imageField(i int) string {
	return "images[" + strconv.Itoa(i) + "]"
}

func generateRequestID() string {
	return uuid.New().String()
}

// ensureRequestID generates a request ID if one is not provided
func ensureRequestID(requestID string) string {
	if requestID == "" {
		return generateRequestID()
	}
	return requestID
}
