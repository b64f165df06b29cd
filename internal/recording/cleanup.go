// Package recording provides retention housekeeping for captured IVR
// audio artifacts.
package recording

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/leanivr/leanivr/internal/database"
)

// StartCleanupTicker runs a background goroutine that periodically
// removes recordings older than the recording_max_days setting. The
// metadata row is deleted and the audio file is removed from disk.
// A value of 0 or an unset setting disables cleanup. The goroutine
// stops when the provided context is cancelled.
func StartCleanupTicker(ctx context.Context, recordings database.RecordingRepository, sysConfig database.SystemConfigRepository, recordingsDir string, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				maxDaysStr, err := sysConfig.Get(ctx, "recording_max_days")
				if err != nil {
					slog.Error("recording retention: failed to read setting", "error", err)
					continue
				}
				if maxDaysStr == "" || maxDaysStr == "0" {
					continue
				}

				maxDays, err := strconv.Atoi(maxDaysStr)
				if err != nil || maxDays <= 0 {
					continue
				}

				paths, err := recordings.DeleteOlderThan(ctx, maxDays)
				if err != nil {
					slog.Error("recording retention cleanup failed", "error", err)
					continue
				}
				if len(paths) == 0 {
					continue
				}

				slog.Info("recording retention cleanup", "deleted", len(paths), "max_days", maxDays)

				for _, p := range paths {
					full := filepath.Join(recordingsDir, p)
					if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
						slog.Warn("failed to remove recording file", "path", full, "error", err)
					}
				}
			}
		}
	}()
}
