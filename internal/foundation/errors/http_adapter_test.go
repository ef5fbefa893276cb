package errors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation", ValidationError("invalid input").Build(), http.StatusBadRequest},
		{"title", TitleError("invalid title").Build(), http.StatusBadRequest},
		{"not found", NotFoundError("no such page").Build(), http.StatusNotFound},
		{"conflict", AlreadyExistsError("page exists").Build(), http.StatusConflict},
		{"parse", ParseError("unbalanced braces").Build(), http.StatusUnprocessableEntity},
		{"storage", StorageError("db locked").Build(), http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(tt.err); got != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	req := httptest.NewRequest(http.MethodGet, "/pages/Nope", nil)
	rec := httptest.NewRecorder()

	adapter.WriteErrorResponse(rec, req, NotFoundError("page not found").WithContext("page", "Nope").Build())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	var body HTTPErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "page not found" || body.Code != "not_found" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Details["page"] != "Nope" {
		t.Errorf("expected page detail, got %v", body.Details)
	}
}
