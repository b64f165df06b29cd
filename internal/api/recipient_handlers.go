package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leanivr/leanivr/internal/database/models"
)

// maxCSVUpload caps recipient import files (5 MB).
const maxCSVUpload = 5 << 20

// recipientRequest is the body for creating/updating a recipient.
type recipientRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
	City   string `json:"city"`
}

// recipientResponse is the JSON shape for a single recipient.
type recipientResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile"`
	Email     string `json:"email"`
	City      string `json:"city"`
	CreatedAt string `json:"created_at"`
}

func (r *recipientRequest) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Email = strings.TrimSpace(r.Email)
	r.City = strings.TrimSpace(r.City)
}

func toRecipientResponse(rec *models.Recipient) recipientResponse {
	return recipientResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		Mobile:    rec.Mobile,
		Email:     rec.Email,
		City:      rec.City,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// validateRecipient checks the four required fields. All of Name,
// Mobile, Email and City must be present.
func validateRecipient(req recipientRequest) string {
	if errMsg := validateRequiredStringLen("Name", req.Name, maxNameLen); errMsg != "" {
		return errMsg
	}
	if errMsg := validateRequiredStringLen("Mobile", req.Mobile, 20); errMsg != "" {
		return errMsg
	}
	if errMsg := validateMobile("Mobile", req.Mobile); errMsg != "" {
		return errMsg
	}
	if errMsg := validateRequiredStringLen("Email", req.Email, maxNameLen); errMsg != "" {
		return errMsg
	}
	if errMsg := validateEmail("Email", req.Email); errMsg != "" {
		return errMsg
	}
	if errMsg := validateRequiredStringLen("City", req.City, maxNameLen); errMsg != "" {
		return errMsg
	}
	return ""
}

// handleListRecipients returns all recipients.
func (s *Server) handleListRecipients(w http.ResponseWriter, r *http.Request) {
	recs, err := s.recipients.List(r.Context())
	if err != nil {
		slog.Error("list recipients: failed to query", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]recipientResponse, len(recs))
	for i := range recs {
		items[i] = toRecipientResponse(&recs[i])
	}

	writeJSON(w, http.StatusOK, items)
}

// handleCreateRecipient adds a single recipient.
func (s *Server) handleCreateRecipient(w http.ResponseWriter, r *http.Request) {
	var req recipientRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	req.trim()
	if errMsg := validateRecipient(req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	rec := &models.Recipient{
		Name:   req.Name,
		Mobile: req.Mobile,
		Email:  req.Email,
		City:   req.City,
	}
	if err := s.recipients.Create(r.Context(), rec); err != nil {
		slog.Error("create recipient: failed to insert", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := s.recipients.GetByID(r.Context(), rec.ID)
	if err != nil || created == nil {
		slog.Error("create recipient: failed to re-fetch", "error", err, "recipient_id", rec.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toRecipientResponse(created))
}

// handleGetRecipient returns a single recipient by ID.
func (s *Server) handleGetRecipient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipient ID")
		return
	}

	rec, err := s.recipients.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("get recipient: failed to query", "error", err, "recipient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "recipient not found")
		return
	}

	writeJSON(w, http.StatusOK, toRecipientResponse(rec))
}

// handleUpdateRecipient replaces a recipient's fields.
func (s *Server) handleUpdateRecipient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipient ID")
		return
	}

	var req recipientRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	req.trim()
	if errMsg := validateRecipient(req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	existing, err := s.recipients.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("update recipient: failed to query", "error", err, "recipient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "recipient not found")
		return
	}

	existing.Name = req.Name
	existing.Mobile = req.Mobile
	existing.Email = req.Email
	existing.City = req.City

	if err := s.recipients.Update(r.Context(), existing); err != nil {
		slog.Error("update recipient: failed to update", "error", err, "recipient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toRecipientResponse(existing))
}

// handleDeleteRecipient removes a recipient.
func (s *Server) handleDeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipient ID")
		return
	}

	if err := s.recipients.Delete(r.Context(), id); err != nil {
		slog.Error("delete recipient: failed to delete", "error", err, "recipient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// importResult summarizes a CSV import.
type importResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// handleImportRecipients ingests a CSV upload (multipart field "file")
// with a Name,Mobile,Email,City header row. Rows failing validation
// are skipped and reported; valid rows are inserted in one batch.
func (s *Server) handleImportRecipients(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCSVUpload)

	if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or upload too large")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		writeError(w, http.StatusBadRequest, "empty or unreadable CSV")
		return
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "mobile", "email", "city"} {
		if _, ok := cols[required]; !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("CSV missing required column: %s", required))
			return
		}
	}

	cell := func(row []string, name string) string {
		idx := cols[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var (
		recs   []models.Recipient
		result importResult
		line   = 1
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: malformed row", line))
			continue
		}

		req := recipientRequest{
			Name:   cell(row, "name"),
			Mobile: cell(row, "mobile"),
			Email:  cell(row, "email"),
			City:   cell(row, "city"),
		}
		if errMsg := validateRecipient(req); errMsg != "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", line, errMsg))
			continue
		}

		recs = append(recs, models.Recipient{
			Name:   req.Name,
			Mobile: req.Mobile,
			Email:  req.Email,
			City:   req.City,
		})
	}

	if len(recs) > 0 {
		inserted, err := s.recipients.CreateBatch(r.Context(), recs)
		if err != nil {
			slog.Error("import recipients: batch insert failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		result.Imported = inserted
	}

	slog.Info("recipients imported", "imported", result.Imported, "skipped", result.Skipped)
	writeJSON(w, http.StatusOK, result)
}

// handleExportRecipients streams all recipients as a CSV download.
func (s *Server) handleExportRecipients(w http.ResponseWriter, r *http.Request) {
	recs, err := s.recipients.List(r.Context())
	if err != nil {
		slog.Error("export recipients: failed to query", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="recipients-%s.csv"`, time.Now().UTC().Format("20060102-150405")))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Name", "Mobile", "Email", "City"})
	for i := range recs {
		_ = cw.Write([]string{recs[i].Name, recs[i].Mobile, recs[i].Email, recs[i].City})
	}
	cw.Flush()
}
