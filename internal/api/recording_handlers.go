package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leanivr/leanivr/internal/database/models"
)

// recordingResponse is the JSON shape for a recording's metadata.
type recordingResponse struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	MimeType  string `json:"mime_type"`
	FileSize  int64  `json:"file_size"`
	CreatedAt string `json:"created_at"`
}

func toRecordingResponse(rec *models.Recording) recordingResponse {
	return recordingResponse{
		ID:        rec.ID,
		SessionID: rec.SessionID,
		MimeType:  rec.MimeType,
		FileSize:  rec.FileSize,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleListRecordings returns metadata for all captured recordings.
func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	recs, err := s.recordings.List(r.Context())
	if err != nil {
		slog.Error("list recordings: failed to query", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]recordingResponse, len(recs))
	for i := range recs {
		items[i] = toRecordingResponse(&recs[i])
	}

	writeJSON(w, http.StatusOK, items)
}

// handleDownloadRecording streams a recording's audio file.
func (s *Server) handleDownloadRecording(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recording ID")
		return
	}

	rec, err := s.recordings.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("download recording: failed to query", "error", err, "recording_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}

	path := filepath.Join(s.recordingsDir, filepath.Base(rec.FilePath))
	f, err := os.Open(path)
	if err != nil {
		slog.Error("download recording: file missing", "error", err, "recording_id", id, "path", path)
		writeError(w, http.StatusNotFound, "recording file not found")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	name := filepath.Base(rec.FilePath)
	w.Header().Set("Content-Type", rec.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// handleDeleteRecording removes a recording's metadata row and its
// file on disk. A missing file is not an error.
func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recording ID")
		return
	}

	rec, err := s.recordings.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("delete recording: failed to query", "error", err, "recording_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}

	if err := s.recordings.Delete(r.Context(), id); err != nil {
		slog.Error("delete recording: failed to delete row", "error", err, "recording_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	path := filepath.Join(s.recordingsDir, filepath.Base(rec.FilePath))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("delete recording: failed to remove file", "error", err, "path", path)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
