package visitors

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/digital-twin-ai/platform/pkg/logging"
)

func newTestHandler() (*Handler, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	registry := NewRegistry(repo, &fakeLinker{}, logging.Default())
	return NewHandler(registry, logging.Default()), repo
}

func TestCreateVisitor_Success(t *testing.T) {
	handler, _ := newTestHandler()

	body, _ := json.Marshal(map[string]string{
		"conversationId": "conv-1",
		"name":           "Jane Doe",
		"email":          "jane@example.com",
		"linkedin":       "https://linkedin.com/in/janedoe",
	})
	req := httptest.NewRequest(http.MethodPost, "/visitors", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var resp createVisitorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Visitor.ID == "" {
		t.Error("expected visitor id in response")
	}
	if resp.Visitor.Email != "jane@example.com" {
		t.Errorf("unexpected email: %s", resp.Visitor.Email)
	}
}

func TestCreateVisitor_MissingFields(t *testing.T) {
	handler, repo := newTestHandler()

	body, _ := json.Marshal(map[string]string{
		"name": "Jane Doe",
	})
	req := httptest.NewRequest(http.MethodPost, "/visitors", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if len(repo.byID) != 0 {
		t.Errorf("no row should be written on validation error")
	}
}

func TestCreateVisitor_InvalidEmail(t *testing.T) {
	handler, repo := newTestHandler()

	body, _ := json.Marshal(map[string]string{
		"conversationId": "conv-1",
		"name":           "Jane Doe",
		"email":          "not-an-email",
	})
	req := httptest.NewRequest(http.MethodPost, "/visitors", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if len(repo.byID) != 0 {
		t.Errorf("no row should be written for invalid email")
	}
}

func TestCreateVisitor_InvalidJSON(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/visitors", strings.NewReader("{"))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
