package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

func serveClassify(t *testing.T, body string, limit int64) (*httptest.ResponseRecorder, *models.ClassifyRequest) {
	t.Helper()
	var got *models.ClassifyRequest

	handler := LimitBody(limit)(ValidateRequest[*models.ClassifyRequest]()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetValidatedRequest[*models.ClassifyRequest](r)
			w.WriteHeader(http.StatusNoContent)
		})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, got
}

func TestValidateRequestSuccess(t *testing.T) {
	rec, got := serveClassify(t, `{"images":["aGVsbG8="],"folder_name":"  house  "}`, 0)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected handler to run, got %d", rec.Code)
	}
	if got == nil || got.FolderName != "house" || len(got.Images) != 1 {
		t.Fatalf("unexpected validated request: %+v", got)
	}
}

func TestValidateRequestInvalidJSON(t *testing.T) {
	rec, got := serveClassify(t, `{`, 0)
	if rec.Code != http.StatusBadRequest || got != nil {
		t.Fatalf("expected 400 for invalid json, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "invalid_json")
}

func TestValidateRequestValidationError(t *testing.T) {
	rec, _ := serveClassify(t, `{"images":[]}`, 0)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "missing_images")
}

func TestLimitBody(t *testing.T) {
	body := `{"images":["` + strings.Repeat("A", 4096) + `"]}`
	rec, got := serveClassify(t, body, 1024)
	if rec.Code != http.StatusRequestEntityTooLarge || got != nil {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "payload_too_large")
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Code != code {
		t.Fatalf("expected error code %s, got %s", code, resp.Code)
	}
}
