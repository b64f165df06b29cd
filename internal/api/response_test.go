package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]string{"name": "test"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type application/json, got %q", ct)
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Error != "" {
		t.Errorf("expected empty error, got %q", env.Error)
	}

	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected data to be map, got %T", env.Data)
	}
	if data["name"] != "test" {
		t.Errorf("expected name=test, got %v", data["name"])
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusBadRequest, "invalid input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Error != "invalid input" {
		t.Errorf("expected error 'invalid input', got %q", env.Error)
	}
}

func TestWriteRawHasNoEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	writeRaw(w, http.StatusOK, map[string]string{"sessionId": "abc"})

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := raw["data"]; ok {
		t.Error("raw responses must not be enveloped")
	}
	if _, ok := raw["sessionId"]; !ok {
		t.Error("expected sessionId at the top level")
	}
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	if msg := readJSON(req, &dst); msg != "" {
		t.Fatalf("unexpected error message %q", msg)
	}
	if dst.Name != "x" {
		t.Errorf("expected name x, got %q", dst.Name)
	}

	// Empty body.
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if msg := readJSON(req, &dst); msg == "" {
		t.Error("expected error for empty body")
	}

	// Malformed JSON.
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	if msg := readJSON(req, &dst); msg == "" {
		t.Error("expected error for malformed JSON")
	}

	// Unknown fields are rejected.
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","bogus":1}`))
	if msg := readJSON(req, &dst); msg == "" {
		t.Error("expected error for unknown field")
	}
}
