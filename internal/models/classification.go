package models

import "sort"

// UnclassifiedLabel is the category written for folders that did not get a valid label
const UnclassifiedLabel = "unclassified"

// outcome of classifying one property folder
type Status string

const (
	StatusClassified   Status = "classified"
	StatusUnclassified Status = "unclassified"
	StatusFailed       Status = "failed"
)

// single file inside a property folder
type ImageRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// PropertyFolder is one location/studio directory and its photographs, in file name order
type PropertyFolder struct {
	Name   string     `json:"name"`
	Path   string     `json:"path"`
	Images []ImageRef `json:"images"`

	// ScanErr is set when the folder exists but its entries could not be listed
	ScanErr error `json:"-"`
}

// validated image ready to be sent inline to the provider
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Example is a labelled image shown to the model before the images to classify
type Example struct {
	Image       Image
	Category    string
	Subcategory string
	Note        string
}

// ClassificationRequest is built once per folder and discarded after the call
type ClassificationRequest struct {
	RequestID string
	Folder    string
	Prompt    string
	Images    []Image
	Examples  []Example
}

// Label is the parsed answer of the classification service
type Label struct {
	Category       string   `json:"category"`
	Subcategory    string   `json:"subcategory"`
	Reason         string   `json:"reason"`
	Confidence     float64  `json:"confidence"`
	ImpressionTags []string `json:"impression_tags,omitempty"`
	ObjectTags     []string `json:"object_tags,omitempty"`
	Purpose        string   `json:"purpose,omitempty"`
	Model          string   `json:"model,omitempty"`
}

// image that was found in a folder but not sent
type SkippedImage struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ClassificationResult is the single report row produced for a property folder
type ClassificationResult struct {
	Folder         string         `json:"folder"`
	Category       string         `json:"category"`
	Subcategory    string         `json:"subcategory"`
	Reason         string         `json:"reason"`
	Confidence     float64        `json:"confidence,omitempty"`
	ImpressionTags []string       `json:"impression_tags,omitempty"`
	ObjectTags     []string       `json:"object_tags,omitempty"`
	Purpose        string         `json:"purpose,omitempty"`
	Status         Status         `json:"status"`
	Error          string         `json:"error,omitempty"`
	ImageCount     int            `json:"image_count"`
	ImagesSent     int            `json:"images_sent"`
	Skipped        []SkippedImage `json:"skipped,omitempty"`
}

func (r ClassificationResult) Succeeded() bool {
	return r.Status == StatusClassified
}

// Report aggregates one result per folder. It deliberately carries no timestamps.
type Report struct {
	Provider string                 `json:"provider"`
	Model    string                 `json:"model,omitempty"`
	Results  []ClassificationResult `json:"results"`
}

func (r *Report) Len() int {
	return len(r.Results)
}

// CategoryCounts counts rows per category, failures included under UnclassifiedLabel
func (r *Report) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, res := range r.Results {
		counts[res.Category]++
	}
	return counts
}

// SortedCategories returns the category names of CategoryCounts in lexical order
func (r *Report) SortedCategories() []string {
	counts := r.CategoryCounts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FailedFolders lists folders that should be re-run
func (r *Report) FailedFolders() []string {
	var failed []string
	for _, res := range r.Results {
		if !res.Succeeded() {
			failed = append(failed, res.Folder)
		}
	}
	return failed
}

// model metadata returned by providers that can enumerate models
type ModelInfo struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name"`
	SupportedActions []string `json:"supported_actions"`
	InputTokenLimit  int32    `json:"input_token_limit"`
	OutputTokenLimit int32    `json:"output_token_limit"`
}
