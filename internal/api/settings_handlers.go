package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// settingsResponse is the shape returned by GET /settings.
type settingsResponse struct {
	TTS       ttsSettingsResponse       `json:"tts"`
	Recording recordingSettingsResponse `json:"recording"`
}

type ttsSettingsResponse struct {
	Voice string `json:"voice"`
}

type recordingSettingsResponse struct {
	MaxDays string `json:"max_days"`
}

// settingsRequest is the shape accepted by PUT /settings.
type settingsRequest struct {
	TTS       *ttsSettingsRequest       `json:"tts"`
	Recording *recordingSettingsRequest `json:"recording"`
}

type ttsSettingsRequest struct {
	Voice string `json:"voice"`
}

type recordingSettingsRequest struct {
	MaxDays string `json:"max_days"`
}

// handleGetSettings returns the stored system settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	get := func(key string) string {
		v, err := s.sysConfig.Get(ctx, key)
		if err != nil {
			slog.Error("get settings: failed to read key", "error", err, "key", key)
		}
		return v
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		TTS: ttsSettingsResponse{
			Voice: get("tts_voice"),
		},
		Recording: recordingSettingsResponse{
			MaxDays: get("recording_max_days"),
		},
	})
}

// handleUpdateSettings saves system settings. Only provided sections
// are updated.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	ctx := r.Context()

	if req.TTS != nil {
		voice := strings.TrimSpace(req.TTS.Voice)
		if err := s.sysConfig.Set(ctx, "tts_voice", voice); err != nil {
			slog.Error("failed to save tts settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	if req.Recording != nil {
		maxDays := strings.TrimSpace(req.Recording.MaxDays)
		if maxDays != "" {
			days, err := strconv.Atoi(maxDays)
			if err != nil || days < 0 {
				writeError(w, http.StatusBadRequest, "recording max_days must be a non-negative integer")
				return
			}
		}
		if err := s.sysConfig.Set(ctx, "recording_max_days", maxDays); err != nil {
			slog.Error("failed to save recording settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	slog.Info("settings updated")
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}
