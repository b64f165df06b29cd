// Package tts provides the speech synthesis adapter. It converts a
// text prompt into playable audio via an external HTTP synthesis
// service and caches the result on disk so repeated prompts do not
// re-hit the provider.
package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// ErrUnavailable is returned when the synthesis provider failed, timed
// out, or is not configured. Callers degrade to a text-only prompt.
var ErrUnavailable = errors.New("tts unavailable")

// maxAudioSize caps a single synthesized clip (4 MB).
const maxAudioSize = 4 << 20

// voiceKey is the system setting holding the operator-selected voice.
const voiceKey = "tts_voice"

// SettingsSource reads an operator setting by key. The system config
// repository satisfies it.
type SettingsSource interface {
	Get(ctx context.Context, key string) (string, error)
}

// Client is an HTTP client for an external text-to-speech service.
// The service is expected to answer GET <base>?voice=<voice>&text=<text>
// with an audio/mpeg body.
type Client struct {
	httpClient *http.Client
	baseURL    string
	voice      string
	cacheDir   string
	settings   SettingsSource
	logger     *slog.Logger
}

// NewClient creates a synthesis client. baseURL may be empty, in which
// case every call reports ErrUnavailable and the IVR runs text-only.
// voice is the default; when settings is non-nil the stored tts_voice
// setting overrides it per call. Synthesized audio is cached under
// cacheDir, keyed by voice and text hash.
func NewClient(baseURL, voice, cacheDir string, timeout time.Duration, settings SettingsSource, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		voice:      voice,
		cacheDir:   cacheDir,
		settings:   settings,
		logger:     logger.With("subsystem", "tts"),
	}
}

// voiceFor resolves the voice for one synthesis call, preferring the
// stored operator setting over the configured default.
func (c *Client) voiceFor(ctx context.Context) string {
	if c.settings == nil {
		return c.voice
	}
	v, err := c.settings.Get(ctx, voiceKey)
	if err != nil || v == "" {
		return c.voice
	}
	return v
}

// Synthesize converts text to audio and returns a URL path under
// /audio/tts/ where the API serves the clip. The wait is bounded by the
// client timeout and the caller's context; any failure is reported as a
// wrapped ErrUnavailable, never a panic.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("%w: no synthesis endpoint configured", ErrUnavailable)
	}

	voice := c.voiceFor(ctx)
	filename := cacheKey(voice, text) + ".mp3"
	cached := filepath.Join(c.cacheDir, filename)
	if _, err := os.Stat(cached); err == nil {
		return "/audio/tts/" + filename, nil
	}

	data, err := c.fetch(ctx, voice, text)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.cacheDir, 0750); err != nil {
		return "", fmt.Errorf("%w: creating cache directory: %v", ErrUnavailable, err)
	}
	if err := os.WriteFile(cached, data, 0640); err != nil {
		return "", fmt.Errorf("%w: writing cached audio: %v", ErrUnavailable, err)
	}

	c.logger.Debug("synthesized prompt", "bytes", len(data), "file", filename)

	return "/audio/tts/" + filename, nil
}

// fetch performs the provider request and returns the audio bytes.
func (c *Client) fetch(ctx context.Context, voice, text string) ([]byte, error) {
	q := url.Values{}
	q.Set("voice", voice)
	q.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: provider returned empty audio", ErrUnavailable)
	}
	if len(data) > maxAudioSize {
		return nil, fmt.Errorf("%w: audio exceeds %d bytes", ErrUnavailable, maxAudioSize)
	}

	return data, nil
}

// cacheKey derives a stable filename from the voice and prompt text.
func cacheKey(voice, text string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + text))
	return hex.EncodeToString(sum[:16])
}
