// Package media provides the audio capture intake: it persists caller
// recordings to durable storage and records their metadata. It is a
// pure side-effecting sink; the audio is never interpreted.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leanivr/leanivr/internal/database"
	"github.com/leanivr/leanivr/internal/database/models"
)

// ErrEmptyUpload is returned when a submission carries no audio bytes.
var ErrEmptyUpload = errors.New("empty upload")

// Store writes captured audio blobs under a recordings directory and
// tracks each artifact in the recordings table.
type Store struct {
	dir        string
	recordings database.RecordingRepository
	logger     *slog.Logger
}

// NewStore creates an artifact store rooted at dir. The repository may
// be nil, in which case only the file is written.
func NewStore(dir string, recordings database.RecordingRepository, logger *slog.Logger) *Store {
	return &Store{
		dir:        dir,
		recordings: recordings,
		logger:     logger.With("subsystem", "media"),
	}
}

// Store persists an audio blob for a session and returns the artifact
// filename. The name combines the session ID with a nanosecond
// timestamp so repeated submissions for one session never collide.
func (s *Store) Store(ctx context.Context, sessionID string, audio []byte, mimeHint string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyUpload
	}

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", fmt.Errorf("creating recordings directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%d%s", sanitizeSessionID(sessionID), time.Now().UnixNano(), extForMIME(mimeHint))
	path := filepath.Join(s.dir, filename)

	if err := os.WriteFile(path, audio, 0640); err != nil {
		return "", fmt.Errorf("writing recording file: %w", err)
	}

	if s.recordings != nil {
		rec := &models.Recording{
			SessionID: sessionID,
			FilePath:  filename,
			MimeType:  normalizeMIME(mimeHint),
			FileSize:  int64(len(audio)),
		}
		if err := s.recordings.Create(ctx, rec); err != nil {
			// Keep the artifact; metadata can be reconciled later.
			s.logger.Warn("recording stored but metadata insert failed",
				"session_id", sessionID,
				"file", filename,
				"error", err,
			)
		}
	}

	s.logger.Info("recording stored",
		"session_id", sessionID,
		"file", filename,
		"bytes", len(audio),
	)

	return filename, nil
}

// Dir returns the directory artifacts are written to.
func (s *Store) Dir() string {
	return s.dir
}

// extForMIME maps an upload MIME hint to a file extension.
func extForMIME(mime string) string {
	switch normalizeMIME(mime) {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav", "audio/wave", "audio/x-wav":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".bin"
	}
}

// normalizeMIME strips any parameters (e.g. "audio/webm;codecs=opus")
// and lowercases the type. Empty hints default to audio/webm, the
// format browsers submit from MediaRecorder.
func normalizeMIME(mime string) string {
	mime = strings.TrimSpace(strings.ToLower(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" {
		return "audio/webm"
	}
	return mime
}

// sanitizeSessionID keeps only characters safe in a filename.
func sanitizeSessionID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "session"
	}
	return b.String()
}
