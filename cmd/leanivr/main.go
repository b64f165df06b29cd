package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/leanivr/leanivr/internal/api"
	"github.com/leanivr/leanivr/internal/config"
	"github.com/leanivr/leanivr/internal/database"
	"github.com/leanivr/leanivr/internal/ivr"
	"github.com/leanivr/leanivr/internal/media"
	"github.com/leanivr/leanivr/internal/metrics"
	"github.com/leanivr/leanivr/internal/recording"
	"github.com/leanivr/leanivr/internal/tts"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging.
	logger := slog.New(cfg.SlogHandler(os.Stdout))
	slog.SetDefault(logger)

	slog.Info("starting leanivr",
		"http_port", cfg.HTTPPort,
		"data_dir", cfg.DataDir,
	)

	// Open database and run migrations.
	db, err := database.Open(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Application context for background goroutines.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// Load system configuration from database.
	sysConfig, err := database.NewSystemConfigRepository(context.Background(), db)
	if err != nil {
		slog.Error("failed to load system config", "error", err)
		os.Exit(1)
	}

	jwtSecret, err := cfg.JWTSecretBytes()
	if err != nil {
		slog.Error("invalid jwt secret", "error", err)
		os.Exit(1)
	}

	ttsDir := filepath.Join(cfg.DataDir, "tts")
	recordingsDir := filepath.Join(cfg.DataDir, "recordings")
	for _, dir := range []string{ttsDir, recordingsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create data directory", "error", err, "dir", dir)
			os.Exit(1)
		}
	}

	recordings := database.NewRecordingRepository(db)

	// IVR pipeline: session store, synthesis client, recording sink.
	synth := tts.NewClient(cfg.TTSBaseURL, cfg.TTSVoice, ttsDir, cfg.TTSTimeout(), sysConfig, logger)
	sink := media.NewStore(recordingsDir, recordings, logger)
	sessions := ivr.NewStore(cfg.SessionTTL())
	machine := ivr.NewMachine(sessions, synth, sink, logger)

	ivr.StartEvictionTicker(appCtx, sessions, time.Minute)
	recording.StartCleanupTicker(appCtx, recordings, sysConfig, recordingsDir, time.Hour)

	collector := metrics.NewCollector(
		sessions,
		recordings,
		database.NewRecipientRepository(db),
		database.NewCampaignRepository(db),
		time.Now(),
	)

	// HTTP server using the api package.
	handler := api.NewServer(cfg, db, machine, sysConfig, jwtSecret, ttsDir, recordingsDir, metrics.Handler(collector))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		slog.Error("http server error", "error", err)
	}

	// Graceful shutdown with timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
		os.Exit(1)
	}
	handler.Close()

	slog.Info("leanivr stopped")
}
