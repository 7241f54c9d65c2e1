package llm

import (
	"context"
	"errors"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

// Classifier sends a folder's images with a prompt to a hosted model and returns its label
type Classifier interface {
	Classify(ctx context.Context, req *models.ClassificationRequest) (*models.Label, error)
	GetProviderName() string
}

// ModelLister is implemented by providers that can enumerate their models
type ModelLister interface {
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}

// represents an error from an LLM provider
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
	ErrCodeMalformed    = "malformed_response"
)

// ErrorCode returns the provider error code carried by err, or "" when there is none
func ErrorCode(err error) string {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Code
	}
	return ""
}
