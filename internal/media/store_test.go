package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreWritesFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil, discardLogger())

	name, err := s.Store(context.Background(), "sess-abc", []byte("audio-bytes"), "audio/webm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(name, "sess-abc_") {
		t.Errorf("expected filename prefixed with session ID, got %q", name)
	}
	if !strings.HasSuffix(name, ".webm") {
		t.Errorf("expected .webm extension, got %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestStoreEmptyUpload(t *testing.T) {
	s := NewStore(t.TempDir(), nil, discardLogger())

	_, err := s.Store(context.Background(), "sess", nil, "audio/webm")
	if !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("expected ErrEmptyUpload, got %v", err)
	}
}

func TestStoreSanitizesSessionID(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil, discardLogger())

	name, err := s.Store(context.Background(), "../../etc/passwd", []byte("x"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Errorf("filename must not contain path elements, got %q", name)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("expected file inside the recordings dir: %v", err)
	}
}

func TestExtForMIME(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{"audio/webm", ".webm"},
		{"audio/webm;codecs=opus", ".webm"},
		{"audio/ogg", ".ogg"},
		{"audio/wav", ".wav"},
		{"audio/mpeg", ".mp3"},
		{"", ".webm"},
		{"application/octet-stream", ".bin"},
	}
	for _, c := range cases {
		if got := extForMIME(c.mime); got != c.want {
			t.Errorf("extForMIME(%q) = %q, want %q", c.mime, got, c.want)
		}
	}
}

func TestNormalizeMIME(t *testing.T) {
	if got := normalizeMIME("Audio/WebM; codecs=opus"); got != "audio/webm" {
		t.Errorf("expected audio/webm, got %q", got)
	}
	if got := normalizeMIME(""); got != "audio/webm" {
		t.Errorf("expected default audio/webm, got %q", got)
	}
}
