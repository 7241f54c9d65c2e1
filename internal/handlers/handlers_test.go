package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"text/template"

	"github.com/RIDLEYsan/studio-classification-app/internal/history"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

type mockImageClassifier struct {
	classifyImagesFn func(ctx context.Context, requestID, folder string, images []models.Image, withExamples bool) (models.ClassificationResult, int, error)
}

func (m *mockImageClassifier) ClassifyImages(ctx context.Context, requestID, folder string, images []models.Image, withExamples bool) (models.ClassificationResult, int, error) {
	if m.classifyImagesFn == nil {
		return models.ClassificationResult{
			Folder:     folder,
			Category:   "自然",
			Status:     models.StatusClassified,
			ImageCount: len(images),
			ImagesSent: len(images),
		}, 0, nil
	}
	return m.classifyImagesFn(ctx, requestID, folder, images, withExamples)
}

type mockClassifier struct{}

func (mockClassifier) Classify(context.Context, *models.ClassificationRequest) (*models.Label, error) {
	return &models.Label{Category: "自然"}, nil
}

func (mockClassifier) GetProviderName() string { return "mock" }

type mockPromptManager struct {
	getTemplatesFn func() map[string]map[string]*template.Template
}

func (m *mockPromptManager) BuildPrompt(mode, variant string, data interface{}) (string, error) {
	return "mock prompt", nil
}

func (m *mockPromptManager) GetTemplates() map[string]map[string]*template.Template {
	if m.getTemplatesFn == nil {
		return map[string]map[string]*template.Template{
			"classify": {
				"zero_shot": template.Must(template.New("test").Parse("test")),
			},
		}
	}
	return m.getTemplatesFn()
}

type mockHistory struct {
	summaryFn func(ctx context.Context) (*history.Summary, error)
	recentFn  func(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	latestFn  func(ctx context.Context, folder string) (*models.AnalysisRecord, error)
	pingFn    func(ctx context.Context) error
}

func (m *mockHistory) Summary(ctx context.Context) (*history.Summary, error) {
	if m.summaryFn == nil {
		return &history.Summary{}, nil
	}
	return m.summaryFn(ctx)
}

func (m *mockHistory) Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if m.recentFn == nil {
		return nil, nil
	}
	return m.recentFn(ctx, limit)
}

func (m *mockHistory) LatestByFolder(ctx context.Context, folder string) (*models.AnalysisRecord, error) {
	if m.latestFn == nil {
		return nil, history.ErrNotFound
	}
	return m.latestFn(ctx, folder)
}

func (m *mockHistory) Ping(ctx context.Context) error {
	if m.pingFn == nil {
		return nil
	}
	return m.pingFn(ctx)
}

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func performRequest(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}
