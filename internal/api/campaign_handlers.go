package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leanivr/leanivr/internal/database/models"
)

// campaignRequest is the body for creating/updating a campaign.
type campaignRequest struct {
	Name        string `json:"name"`
	Question    string `json:"question"`
	ScheduledAt string `json:"scheduled_at"`
	Status      string `json:"status"`
}

// campaignResponse is the JSON shape for a single campaign.
type campaignResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Question    string `json:"question"`
	ScheduledAt string `json:"scheduled_at"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toCampaignResponse(c *models.Campaign) campaignResponse {
	return campaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Question:    c.Question,
		ScheduledAt: c.ScheduledAt.UTC().Format(time.RFC3339),
		Status:      c.Status,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func validCampaignStatus(status string) bool {
	switch status {
	case models.CampaignScheduled, models.CampaignRunning, models.CampaignCompleted:
		return true
	}
	return false
}

// parseCampaignRequest validates the request and resolves the schedule
// time. A missing scheduled_at means "now".
func parseCampaignRequest(req campaignRequest) (name, question string, scheduledAt time.Time, errMsg string) {
	name = strings.TrimSpace(req.Name)
	question = strings.TrimSpace(req.Question)

	if errMsg = validateRequiredStringLen("name", name, maxNameLen); errMsg != "" {
		return
	}
	if errMsg = validateRequiredStringLen("question", question, maxQuestionLen); errMsg != "" {
		return
	}

	scheduledAt = time.Now().UTC()
	if req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			errMsg = "scheduled_at must be RFC 3339"
			return
		}
		scheduledAt = t.UTC()
	}
	return
}

// handleListCampaigns returns all campaigns.
func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.campaigns.List(r.Context())
	if err != nil {
		slog.Error("list campaigns: failed to query", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]campaignResponse, len(campaigns))
	for i := range campaigns {
		items[i] = toCampaignResponse(&campaigns[i])
	}

	writeJSON(w, http.StatusOK, items)
}

// handleCreateCampaign schedules a new campaign. New campaigns always
// start in the scheduled state.
func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	name, question, scheduledAt, errMsg := parseCampaignRequest(req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	c := &models.Campaign{
		Name:        name,
		Question:    question,
		ScheduledAt: scheduledAt,
		Status:      models.CampaignScheduled,
	}
	if err := s.campaigns.Create(r.Context(), c); err != nil {
		slog.Error("create campaign: failed to insert", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := s.campaigns.GetByID(r.Context(), c.ID)
	if err != nil || created == nil {
		slog.Error("create campaign: failed to re-fetch", "error", err, "campaign_id", c.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("campaign scheduled", "campaign_id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, toCampaignResponse(created))
}

// handleGetCampaign returns a single campaign by ID.
func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign ID")
		return
	}

	c, err := s.campaigns.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("get campaign: failed to query", "error", err, "campaign_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	writeJSON(w, http.StatusOK, toCampaignResponse(c))
}

// handleUpdateCampaign replaces a campaign's fields. Status may be
// advanced here (scheduled, running, completed).
func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign ID")
		return
	}

	var req campaignRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	name, question, scheduledAt, errMsg := parseCampaignRequest(req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if req.Status != "" && !validCampaignStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid campaign status")
		return
	}

	existing, err := s.campaigns.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("update campaign: failed to query", "error", err, "campaign_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	existing.Name = name
	existing.Question = question
	existing.ScheduledAt = scheduledAt
	if req.Status != "" {
		existing.Status = req.Status
	}

	if err := s.campaigns.Update(r.Context(), existing); err != nil {
		slog.Error("update campaign: failed to update", "error", err, "campaign_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	updated, err := s.campaigns.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		slog.Error("update campaign: failed to re-fetch", "error", err, "campaign_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toCampaignResponse(updated))
}

// handleDeleteCampaign removes a campaign.
func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign ID")
		return
	}

	if err := s.campaigns.Delete(r.Context(), id); err != nil {
		slog.Error("delete campaign: failed to delete", "error", err, "campaign_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
