package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leanivr/leanivr/internal/database/models"
)

// recordingRepo implements RecordingRepository.
type recordingRepo struct {
	db *DB
}

// NewRecordingRepository creates a new RecordingRepository.
func NewRecordingRepository(db *DB) RecordingRepository {
	return &recordingRepo{db: db}
}

// Create inserts a recording metadata row.
func (r *recordingRepo) Create(ctx context.Context, rec *models.Recording) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO recordings (session_id, file_path, mime_type, file_size, created_at)
		 VALUES (?, ?, ?, ?, datetime('now'))`,
		rec.SessionID, rec.FilePath, rec.MimeType, rec.FileSize,
	)
	if err != nil {
		return fmt.Errorf("inserting recording: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetByID returns a recording by ID, or nil if not found.
func (r *recordingRepo) GetByID(ctx context.Context, id int64) (*models.Recording, error) {
	var rec models.Recording
	err := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, file_path, mime_type, file_size, created_at
		 FROM recordings WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.SessionID, &rec.FilePath, &rec.MimeType, &rec.FileSize, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recording: %w", err)
	}
	return &rec, nil
}

// List returns all recordings, newest first.
func (r *recordingRepo) List(ctx context.Context) ([]models.Recording, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, file_path, mime_type, file_size, created_at
		 FROM recordings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying recordings: %w", err)
	}
	defer rows.Close()

	var recs []models.Recording
	for rows.Next() {
		var rec models.Recording
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.FilePath, &rec.MimeType,
			&rec.FileSize, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recording row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes a recording row by ID.
func (r *recordingRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting recording: %w", err)
	}
	return nil
}

// DeleteOlderThan removes recording rows older than maxDays and returns
// the file paths of the deleted rows so the caller can remove the
// artifacts from disk.
func (r *recordingRepo) DeleteOlderThan(ctx context.Context, maxDays int) ([]string, error) {
	cutoff := fmt.Sprintf("-%d days", maxDays)

	rows, err := r.db.QueryContext(ctx,
		`SELECT file_path FROM recordings WHERE created_at < datetime('now', ?)`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying expired recordings: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning expired recording path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, nil
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM recordings WHERE created_at < datetime('now', ?)`, cutoff); err != nil {
		return nil, fmt.Errorf("deleting expired recordings: %w", err)
	}

	return paths, nil
}

// Count returns the total number of recordings.
func (r *recordingRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recordings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting recordings: %w", err)
	}
	return count, nil
}
