// Package config loads runtime configuration for the leanivr server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration.
// Precedence: CLI flags > env vars > defaults.
type Config struct {
	DataDir        string
	HTTPPort       int
	LogLevel       string
	LogFormat      string // "text" or "json"
	CORSOrigins    string // comma-separated allowed origins
	JWTSecret      string // hex-encoded 32-byte secret for operator token signing
	TTSBaseURL     string // speech synthesis endpoint; empty runs text-only
	TTSVoice       string
	TTSTimeoutSecs int // bounded wait for the synthesis provider
	SessionTTLSecs int // IVR session idle timeout before eviction
	PaymentSecret  string // shared secret for payment signature verification
}

// defaults
const (
	defaultDataDir        = "./data"
	defaultHTTPPort       = 5000
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
	defaultTTSVoice       = "Brian"
	defaultTTSTimeoutSecs = 15
	defaultSessionTTLSecs = 600
)

// envPrefix is the prefix for all leanivr environment variables.
const envPrefix = "LEANIVR_"

// Load parses configuration from CLI flags and environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("leanivr", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "data-dir", defaultDataDir, "data directory for database, prompt cache, and recordings")
	fs.IntVar(&cfg.HTTPPort, "http-port", defaultHTTPPort, "HTTP server listen port")
	fs.StringVar(&cfg.LogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", defaultLogFormat, "log output format (text, json)")
	fs.StringVar(&cfg.CORSOrigins, "cors-origins", "", "comma-separated list of allowed CORS origins (use * for all)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "hex-encoded 32-byte secret for operator token signing (auto-generated if empty)")
	fs.StringVar(&cfg.TTSBaseURL, "tts-url", "", "speech synthesis endpoint URL (empty disables audio prompts)")
	fs.StringVar(&cfg.TTSVoice, "tts-voice", defaultTTSVoice, "voice name passed to the synthesis provider")
	fs.IntVar(&cfg.TTSTimeoutSecs, "tts-timeout", defaultTTSTimeoutSecs, "synthesis request timeout in seconds")
	fs.IntVar(&cfg.SessionTTLSecs, "session-ttl", defaultSessionTTLSecs, "IVR session idle timeout in seconds before eviction")
	fs.StringVar(&cfg.PaymentSecret, "payment-secret", "", "shared secret for payment signature verification (empty accepts unsigned mock payments)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	applyEnvOverrides(fs, cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides checks environment variables for any flag that was
// not explicitly provided on the command line.
func applyEnvOverrides(fs *flag.FlagSet, cfg *Config) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	envMap := map[string]string{
		"data-dir":       envPrefix + "DATA_DIR",
		"http-port":      envPrefix + "HTTP_PORT",
		"log-level":      envPrefix + "LOG_LEVEL",
		"log-format":     envPrefix + "LOG_FORMAT",
		"cors-origins":   envPrefix + "CORS_ORIGINS",
		"jwt-secret":     envPrefix + "JWT_SECRET",
		"tts-url":        envPrefix + "TTS_URL",
		"tts-voice":      envPrefix + "TTS_VOICE",
		"tts-timeout":    envPrefix + "TTS_TIMEOUT",
		"session-ttl":    envPrefix + "SESSION_TTL",
		"payment-secret": envPrefix + "PAYMENT_SECRET",
	}

	for flagName, envVar := range envMap {
		if set[flagName] {
			continue
		}
		val, ok := os.LookupEnv(envVar)
		if !ok || val == "" {
			continue
		}
		switch flagName {
		case "data-dir":
			cfg.DataDir = val
		case "http-port":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.HTTPPort = v
			}
		case "log-level":
			cfg.LogLevel = val
		case "log-format":
			cfg.LogFormat = val
		case "cors-origins":
			cfg.CORSOrigins = val
		case "jwt-secret":
			cfg.JWTSecret = val
		case "tts-url":
			cfg.TTSBaseURL = val
		case "tts-voice":
			cfg.TTSVoice = val
		case "tts-timeout":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.TTSTimeoutSecs = v
			}
		case "session-ttl":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.SessionTTLSecs = v
			}
		case "payment-secret":
			cfg.PaymentSecret = val
		}
	}
}

// validate checks that the config values are sane.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http-port must be between 1 and 65535, got %d", c.HTTPPort)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log-level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.LogFormat)] {
		return fmt.Errorf("log-format must be one of text, json; got %q", c.LogFormat)
	}
	c.LogFormat = strings.ToLower(c.LogFormat)

	if c.TTSTimeoutSecs < 1 {
		return fmt.Errorf("tts-timeout must be at least 1 second, got %d", c.TTSTimeoutSecs)
	}
	if c.SessionTTLSecs < 1 {
		return fmt.Errorf("session-ttl must be at least 1 second, got %d", c.SessionTTLSecs)
	}

	return nil
}

// TTSTimeout returns the synthesis timeout as a duration.
func (c *Config) TTSTimeout() time.Duration {
	return time.Duration(c.TTSTimeoutSecs) * time.Second
}

// SessionTTL returns the IVR session idle timeout as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSecs) * time.Second
}

// JWTSecretBytes returns the decoded 32-byte token signing secret.
// If no secret is configured, it generates a random key for the
// process lifetime.
func (c *Config) JWTSecretBytes() ([]byte, error) {
	if c.JWTSecret == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generating jwt secret: %w", err)
		}
		c.JWTSecret = hex.EncodeToString(key)
		slog.Warn("no jwt-secret configured, generated ephemeral key (tokens will not survive restart)")
		return key, nil
	}
	key, err := hex.DecodeString(c.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("decoding jwt secret: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("jwt secret must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// SlogHandler returns a slog.Handler configured with the appropriate
// format and level.
func (c *Config) SlogHandler(w *os.File) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SlogLevel returns the slog.Level corresponding to the configured level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
