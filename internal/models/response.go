package models

// response for a classification request made over HTTP
type ClassifyResponse struct {
	RequestID string               `json:"request_id"`
	Result    ClassificationResult `json:"result"`
	Metadata  ClassifyMetadata     `json:"metadata"`
}

// additional information about the classification
type ClassifyMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Provider       string `json:"provider"`
	ExamplesUsed   int    `json:"examples_used"`
}

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
