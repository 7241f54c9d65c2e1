package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RIDLEYsan/studio-classification-app/internal/llm"
	"github.com/RIDLEYsan/studio-classification-app/internal/models"
	"github.com/RIDLEYsan/studio-classification-app/internal/resilience"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(handler)

	cfg := &Config{
		APIKey:         "test",
		Model:          "test-model",
		BaseURL:        server.URL,
		APIVersion:     "v1beta",
		Temperature:    0.2,
		RequestTimeout: 2 * time.Second,
		Resilience: resilience.Config{
			RetryMaxAttempts:    1,
			RetryInitialBackoff: time.Millisecond,
			BreakerEnabled:      false,
		},
	}

	client, err := newClient(context.Background(), cfg, server.Client(), zap.NewNop())
	if err != nil {
		server.Close()
		t.Fatalf("failed to create client: %v", err)
	}
	return client, server.Close
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
			},
		},
		"modelVersion": "test-version",
	}
}

func testRequest() *models.ClassificationRequest {
	return &models.ClassificationRequest{
		RequestID: "req-1",
		Folder:    "studio_a",
		Prompt:    "classify",
		Images: []models.Image{
			{Name: "1.jpg", MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}},
			{Name: "2.png", MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
		},
	}
}

func TestClientClassifySuccess(t *testing.T) {
	var inlineParts int
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Contents []struct {
				Parts []map[string]any `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			for _, c := range body.Contents {
				for _, p := range c.Parts {
					if _, ok := p["inlineData"]; ok {
						inlineParts++
					}
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(textResponse("```json\n{\"category\": \"飲食店\", \"subcategory\": \"カフェ\", \"reason\": \"カウンター席\", \"confidence\": 0.8}\n```"))
	}

	client, cleanup := newStubClient(t, handler)
	defer cleanup()

	label, err := client.Classify(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if label.Category != "飲食店" || label.Subcategory != "カフェ" {
		t.Fatalf("unexpected label: %+v", label)
	}
	if label.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %f", label.Confidence)
	}
	if label.Model != "test-version" {
		t.Fatalf("expected model version from response, got %s", label.Model)
	}
	if inlineParts != 2 {
		t.Fatalf("expected both images in a single request, got %d inline parts", inlineParts)
	}
}

func TestClientClassifyRateLimit(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "429 rate limit", http.StatusTooManyRequests)
	}
	client, cleanup := newStubClient(t, handler)
	defer cleanup()

	_, err := client.Classify(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	var provErr *llm.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != llm.ErrCodeRateLimit {
		t.Fatalf("expected provider rate limit error, got %v", err)
	}
}

func TestClientClassifyEmptyResponse(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(textResponse(""))
	}
	client, cleanup := newStubClient(t, handler)
	defer cleanup()

	_, err := client.Classify(context.Background(), testRequest())
	if llm.ErrorCode(err) != llm.ErrCodeMalformed {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestClientClassifyUnparseableResponse(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(textResponse("I think this is a cafe."))
	}
	client, cleanup := newStubClient(t, handler)
	defer cleanup()

	_, err := client.Classify(context.Background(), testRequest())
	if llm.ErrorCode(err) != llm.ErrCodeMalformed {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestClientClassifyRequiresImages(t *testing.T) {
	client, cleanup := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without images")
	})
	defer cleanup()

	_, err := client.Classify(context.Background(), &models.ClassificationRequest{Prompt: "p"})
	if llm.ErrorCode(err) != llm.ErrCodeInvalidInput {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestClientListModels(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := map[string]any{
			"models": []map[string]any{
				{
					"name":                       "models/gemini-2.0-flash",
					"displayName":                "Gemini 2.0 Flash",
					"supportedGenerationMethods": []string{"generateContent", "countTokens"},
					"supportedActions":           []string{"generateContent", "countTokens"},
				},
				{
					"name":                       "models/text-embedding-004",
					"displayName":                "Text Embedding",
					"supportedGenerationMethods": []string{"embedContent"},
					"supportedActions":           []string{"embedContent"},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
	client, cleanup := newStubClient(t, handler)
	defer cleanup()

	got, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "gemini-2.0-flash" {
		t.Fatalf("expected only the generateContent model, got %+v", got)
	}
}

func TestBuildPartsOrdersExamplesBeforeTargets(t *testing.T) {
	req := testRequest()
	req.Examples = []models.Example{{
		Image:       models.Image{Name: "ex.jpg", MIMEType: "image/jpeg", Data: []byte{1}},
		Category:    "自然",
		Subcategory: "森",
		Note:        "木々",
	}}

	parts := buildParts(req)
	if len(parts) != 6 {
		t.Fatalf("expected prompt, example pair, target header and 2 images, got %d parts", len(parts))
	}
	if parts[0].Text != "classify" {
		t.Fatalf("prompt should come first, got %q", parts[0].Text)
	}
	if parts[1].InlineData == nil || parts[2].Text != "→ 分類: 自然 / 森（木々）" {
		t.Fatalf("unexpected example parts: %+v %+v", parts[1], parts[2])
	}
	if parts[4].InlineData == nil || parts[5].InlineData == nil {
		t.Fatal("target images should close the request")
	}
}

func TestClassifyError(t *testing.T) {
	if c := classifyError(context.Canceled); c.Retryable || c.RecordFailure {
		t.Fatalf("cancellation must not be retried, got %+v", c)
	}
	if c := classifyError(context.DeadlineExceeded); !c.Retryable {
		t.Fatalf("timeouts should be retried, got %+v", c)
	}
	if c := classifyError(errors.New("RESOURCE_EXHAUSTED: quota")); !c.Retryable {
		t.Fatalf("quota errors should be retried, got %+v", c)
	}
	if code := toProviderError(context.DeadlineExceeded, "x").Code; code != llm.ErrCodeTimeout {
		t.Fatalf("expected timeout code, got %s", code)
	}
}
