package models

import (
	"strconv"
	"strings"
)

const (
	DefaultUploadFolder = "upload"
	MaxUploadImages     = 10
)

// ClassifyRequest is the body of POST /api/v1/classify
type ClassifyRequest struct {
	FolderName  string   `json:"folder_name"`
	Images      []string `json:"images"` // base64 payloads, data URLs accepted
	UseExamples *bool    `json:"use_examples,omitempty"`
	RequestID   string   `json:"request_id"`
}

// implements the Validator interface
func (r *ClassifyRequest) Validate() error {
	if len(r.Images) == 0 {
		return &ErrorResponse{
			Code:    "missing_images",
			Message: "At least one image is required",
		}
	}

	if len(r.Images) > MaxUploadImages {
		return &ErrorResponse{
			Code:    "too_many_images",
			Message: "Too many images in one request",
			Details: []ValidationErrorDetail{
				{Field: "images", Reason: "at most 10 images are accepted"},
			},
		}
	}

	var details []ValidationErrorDetail
	for i, img := range r.Images {
		if strings.TrimSpace(img) == "" {
			details = append(details, ValidationErrorDetail{
				Field:  "images[" + strconv.Itoa(i) + "]",
				Reason: "empty image payload",
			})
		}
	}
	if len(details) > 0 {
		return &ErrorResponse{
			Code:    "invalid_images",
			Message: "Some images are empty",
			Details: details,
		}
	}

	r.FolderName = strings.TrimSpace(r.FolderName)
	if r.FolderName == "" {
		r.FolderName = DefaultUploadFolder
	}

	return nil
}

// WantsExamples defaults to true when the field is omitted
func (r *ClassifyRequest) WantsExamples() bool {
	return r.UseExamples == nil || *r.UseExamples
}
