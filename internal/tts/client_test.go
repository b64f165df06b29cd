package tts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSynthesizeNoEndpoint(t *testing.T) {
	c := NewClient("", "Brian", t.TempDir(), time.Second, nil, discardLogger())

	_, err := c.Synthesize(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSynthesizeCachesAudio(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.URL.Query().Get("voice"); got != "Brian" {
			t.Errorf("expected voice Brian, got %q", got)
		}
		if got := r.URL.Query().Get("text"); got != "hello there" {
			t.Errorf("unexpected text %q", got)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	c := NewClient(srv.URL, "Brian", cacheDir, time.Second, nil, discardLogger())

	url1, err := c.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(url1, "/audio/tts/") {
		t.Errorf("expected /audio/tts/ prefix, got %q", url1)
	}

	// Cached file exists on disk with the synthesized bytes.
	filename := strings.TrimPrefix(url1, "/audio/tts/")
	data, err := os.ReadFile(filepath.Join(cacheDir, filename))
	if err != nil {
		t.Fatalf("expected cached file: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("unexpected cached content %q", data)
	}

	// Second synthesis of the same text is served from cache.
	url2, err := c.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url2 != url1 {
		t.Errorf("expected stable URL, got %q then %q", url1, url2)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 provider hit, got %d", hits.Load())
	}
}

func TestSynthesizeDistinctTextsDistinctFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "Brian", t.TempDir(), time.Second, nil, discardLogger())

	a, err := c.Synthesize(context.Background(), "one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := c.Synthesize(context.Background(), "two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Errorf("different prompts must not share a cache file: %q", a)
	}
}

func TestSynthesizeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "Brian", t.TempDir(), time.Second, nil, discardLogger())

	_, err := c.Synthesize(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "Brian", t.TempDir(), time.Second, nil, discardLogger())

	_, err := c.Synthesize(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for empty body, got %v", err)
	}
}

func TestSynthesizeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "Brian", t.TempDir(), 20*time.Millisecond, nil, discardLogger())

	_, err := c.Synthesize(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
}

// mapSettings serves setting values from a map, standing in for the
// system config repository.
type mapSettings struct {
	values map[string]string
}

func (m *mapSettings) Get(_ context.Context, key string) (string, error) {
	return m.values[key], nil
}

func TestSynthesizeUsesVoiceSetting(t *testing.T) {
	var lastVoice atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastVoice.Store(r.URL.Query().Get("voice"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	settings := &mapSettings{values: map[string]string{"tts_voice": "Alice"}}
	c := NewClient(srv.URL, "Brian", t.TempDir(), time.Second, settings, discardLogger())

	urlAlice, err := c.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lastVoice.Load(); got != "Alice" {
		t.Fatalf("expected provider to see stored voice Alice, got %v", got)
	}

	// Changing the setting takes effect on the next call and caches
	// under a distinct file.
	settings.values["tts_voice"] = "Carmen"
	urlCarmen, err := c.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lastVoice.Load(); got != "Carmen" {
		t.Errorf("expected provider to see updated voice Carmen, got %v", got)
	}
	if urlCarmen == urlAlice {
		t.Errorf("expected distinct cache files per voice, got %q twice", urlAlice)
	}

	// An unset setting falls back to the configured default.
	settings.values["tts_voice"] = ""
	if _, err := c.Synthesize(context.Background(), "goodbye"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lastVoice.Load(); got != "Brian" {
		t.Errorf("expected default voice Brian, got %v", got)
	}
}
