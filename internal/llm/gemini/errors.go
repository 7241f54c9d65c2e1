package gemini

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
	"github.com/RIDLEYsan/studio-classification-app/internal/resilience"
)

// apiError extracts the genai API error whether it was returned by value or by pointer
func apiError(err error) (genai.APIError, bool) {
	var byValue genai.APIError
	if errors.As(err, &byValue) {
		return byValue, true
	}
	var byPointer *genai.APIError
	if errors.As(err, &byPointer) && byPointer != nil {
		return *byPointer, true
	}
	return genai.APIError{}, false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := apiError(err); ok {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota")
}

func isAuthError(err error) bool {
	apiErr, ok := apiError(err)
	if !ok {
		return false
	}
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		msg := strings.ToLower(apiErr.Message)
		return strings.Contains(msg, "api key") || strings.Contains(msg, "api_key")
	}
	return false
}

func isServerError(err error) bool {
	apiErr, ok := apiError(err)
	if !ok {
		return false
	}
	return apiErr.Code >= http.StatusInternalServerError || apiErr.Code == http.StatusRequestTimeout
}

// classifyError decides which Gemini failures are worth another attempt
func classifyError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case isAuthError(err):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case isRateLimitError(err), isServerError(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	if _, ok := apiError(err); ok {
		// remaining 4xx: the request itself is wrong
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func toProviderError(err error, message string) *llm.ProviderError {
	code := llm.ErrCodeServiceDown
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = llm.ErrCodeTimeout
	case isAuthError(err):
		code = llm.ErrCodeAPIKey
	case isRateLimitError(err):
		code = llm.ErrCodeRateLimit
	case isServerError(err), resilience.IsCircuitOpen(err):
		code = llm.ErrCodeServiceDown
	default:
		if _, ok := apiError(err); ok {
			code = llm.ErrCodeInvalidInput
		}
	}

	return &llm.ProviderError{
		Provider: providerName,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}
