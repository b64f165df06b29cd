package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestCampaignCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)

	scheduled := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/campaigns/", token, map[string]string{
		"name":         "Festive offer",
		"question":     "Would you like to hear about our festive discount?",
		"scheduled_at": scheduled,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create campaign returned %d: %s", rec.Code, rec.Body.String())
	}

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding campaign data: %v", err)
	}
	if created.Status != "scheduled" {
		t.Errorf("new campaign status = %q, want scheduled", created.Status)
	}

	// Advance status to running.
	rec = doJSON(t, srv, http.MethodPut, "/api/v1/campaigns/1", token, map[string]string{
		"name":     "Festive offer",
		"question": "Would you like to hear about our festive discount?",
		"status":   "running",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "running") {
		t.Errorf("expected running status in body: %s", rec.Body.String())
	}

	// List shows it.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/campaigns/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Festive offer") {
		t.Errorf("expected campaign in list: %s", rec.Body.String())
	}

	// Delete, then 404.
	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/campaigns/1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/campaigns/1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete returned %d, want 404", rec.Code)
	}
}

func TestCampaignValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/campaigns/", token, map[string]string{
		"question": "A question without a name?",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/campaigns/", token, map[string]string{
		"name": "No question",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing question returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/campaigns/", token, map[string]string{
		"name": "Bad date", "question": "Q?", "scheduled_at": "tomorrow",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad scheduled_at returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/campaigns/1", token, map[string]string{
		"name": "X", "question": "Q?", "status": "paused",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status returned %d, want 400", rec.Code)
	}
}

func TestDialCall(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ivr/call", token, map[string]string{
		"mobile": "+919876543210",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("dial returned %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "+919876543210") {
		t.Errorf("expected mobile echoed in body: %s", rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/ivr/call", token, map[string]string{
		"mobile": "nope",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad mobile returned %d, want 400", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/settings", token, map[string]any{
		"tts":       map[string]string{"voice": "Amy"},
		"recording": map[string]string{"max_days": "30"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update settings returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/settings", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings returned %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Amy") || !strings.Contains(body, "30") {
		t.Errorf("unexpected settings body: %s", body)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/settings", token, map[string]any{
		"recording": map[string]string{"max_days": "-1"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative max_days returned %d, want 400", rec.Code)
	}
}
