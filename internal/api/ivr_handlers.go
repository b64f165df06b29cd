package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leanivr/leanivr/internal/ivr"
	"github.com/leanivr/leanivr/internal/media"
)

// maxRecordingUpload is the upper limit for audio submissions (10 MB).
const maxRecordingUpload = 10 << 20

// dialSimDelay is how long the simulated outbound call "rings" before
// it is reported complete.
var dialSimDelay = 5 * time.Second

// ivrStartResponse is the fixed reply shape for POST /ivr/start.
type ivrStartResponse struct {
	SessionID string  `json:"sessionId"`
	AudioURL  *string `json:"audioUrl"`
	Action    string  `json:"action"`
}

// ivrOptionRequest is the body of POST /ivr/options.
type ivrOptionRequest struct {
	SessionID string `json:"sessionId"`
	Option    string `json:"option"`
}

// ivrStepResponse is the fixed reply shape for option and record
// submissions.
type ivrStepResponse struct {
	AudioURL *string `json:"audioUrl"`
	Action   string  `json:"action"`
}

// ivrError is the bare error shape used on the IVR surface.
type ivrError struct {
	Error string `json:"error"`
}

// audioURLField converts an instruction's audio URL to the nullable
// JSON field: null when synthesis was unavailable.
func audioURLField(in *ivr.Instruction) *string {
	if in.AudioURL == "" {
		return nil
	}
	u := in.AudioURL
	return &u
}

// handleIVRStart begins a new IVR session and returns the welcome
// instruction. Session allocation never fails; a synthesis failure
// only nulls the audio URL.
func (s *Server) handleIVRStart(w http.ResponseWriter, r *http.Request) {
	in, err := s.machine.StartSession(r.Context())
	if err != nil {
		slog.Error("ivr start failed", "error", err)
		writeRaw(w, http.StatusInternalServerError, ivrError{Error: "internal error"})
		return
	}

	writeRaw(w, http.StatusOK, ivrStartResponse{
		SessionID: in.SessionID,
		AudioURL:  audioURLField(in),
		Action:    string(in.Action),
	})
}

// handleIVROption applies a keypad option to a session.
func (s *Server) handleIVROption(w http.ResponseWriter, r *http.Request) {
	var req ivrOptionRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeRaw(w, http.StatusBadRequest, ivrError{Error: errMsg})
		return
	}
	if req.SessionID == "" {
		writeRaw(w, http.StatusBadRequest, ivrError{Error: "sessionId is required"})
		return
	}

	in, err := s.machine.SubmitOption(r.Context(), req.SessionID, req.Option)
	if err != nil {
		if errors.Is(err, ivr.ErrSessionNotFound) {
			writeRaw(w, http.StatusBadRequest, ivrError{Error: "unknown session"})
			return
		}
		slog.Error("ivr option failed", "session_id", req.SessionID, "error", err)
		writeRaw(w, http.StatusInternalServerError, ivrError{Error: "internal error"})
		return
	}

	writeRaw(w, http.StatusOK, ivrStepResponse{
		AudioURL: audioURLField(in),
		Action:   string(in.Action),
	})
}

// handleIVRRecord accepts the caller's captured audio as multipart
// form data (field "audio", plus "sessionId") and returns the fixed
// acknowledgment instruction.
func (s *Server) handleIVRRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRecordingUpload)

	if err := r.ParseMultipartForm(maxRecordingUpload); err != nil {
		writeRaw(w, http.StatusBadRequest, ivrError{Error: "invalid multipart form or upload too large"})
		return
	}

	sessionID := r.FormValue("sessionId")
	if sessionID == "" {
		writeRaw(w, http.StatusBadRequest, ivrError{Error: "sessionId is required"})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeRaw(w, http.StatusBadRequest, ivrError{Error: "No file uploaded"})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		slog.Error("ivr record: failed to read upload", "session_id", sessionID, "error", err)
		writeRaw(w, http.StatusInternalServerError, ivrError{Error: "failed to read uploaded audio"})
		return
	}

	in, err := s.machine.SubmitRecording(r.Context(), sessionID, audio, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, ivr.ErrSessionNotFound):
			writeRaw(w, http.StatusBadRequest, ivrError{Error: "unknown session"})
		case errors.Is(err, ivr.ErrNoAudioReceived), errors.Is(err, media.ErrEmptyUpload):
			writeRaw(w, http.StatusBadRequest, ivrError{Error: "No file uploaded"})
		default:
			slog.Error("ivr record failed", "session_id", sessionID, "error", err)
			writeRaw(w, http.StatusInternalServerError, ivrError{Error: "failed to store recording"})
		}
		return
	}

	writeRaw(w, http.StatusOK, ivrStepResponse{
		AudioURL: audioURLField(in),
		Action:   string(in.Action),
	})
}

// handleTTSAudio streams a cached synthesized prompt.
func (s *Server) handleTTSAudio(w http.ResponseWriter, r *http.Request) {
	// Base-name only; no traversal out of the cache directory.
	name := filepath.Base(chi.URLParam(r, "file"))
	if name == "." || name == ".." {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	path := filepath.Join(s.ttsDir, name)
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "audio not found")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// handleRecordingAudio streams a captured clip by filename. This is
// the unauthenticated playback path next to prompt audio; the
// management API additionally offers an attachment download by id.
func (s *Server) handleRecordingAudio(w http.ResponseWriter, r *http.Request) {
	// Base-name only; no traversal out of the recordings directory.
	name := filepath.Base(chi.URLParam(r, "file"))
	if name == "." || name == ".." {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	path := filepath.Join(s.recordingsDir, name)
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "audio not found")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", recordingContentType(name))
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// recordingContentType maps a stored clip's extension back to its
// MIME type, inverting the extension mapping used at capture time.
func recordingContentType(name string) string {
	switch filepath.Ext(name) {
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// dialRequest is the body for the simulated outbound call trigger.
type dialRequest struct {
	Mobile string `json:"mobile"`
}

// handleDialCall triggers a simulated outbound IVR call to a mobile
// number. The "call" completes asynchronously after a short delay;
// there is no real telephony behind it.
func (s *Server) handleDialCall(w http.ResponseWriter, r *http.Request) {
	var req dialRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if errMsg := validateMobile("mobile", req.Mobile); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	slog.Info("initiating simulated ivr call", "mobile", req.Mobile)

	time.AfterFunc(dialSimDelay, func() {
		slog.Info("simulated ivr call completed", "mobile", req.Mobile)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "IVR call initiated to " + req.Mobile,
	})
}
