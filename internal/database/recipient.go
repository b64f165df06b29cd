package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leanivr/leanivr/internal/database/models"
)

// recipientRepo implements RecipientRepository.
type recipientRepo struct {
	db *DB
}

// NewRecipientRepository creates a new RecipientRepository.
func NewRecipientRepository(db *DB) RecipientRepository {
	return &recipientRepo{db: db}
}

// Create inserts a single recipient.
func (r *recipientRepo) Create(ctx context.Context, rec *models.Recipient) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO recipients (name, mobile, email, city, created_at)
		 VALUES (?, ?, ?, ?, datetime('now'))`,
		rec.Name, rec.Mobile, rec.Email, rec.City,
	)
	if err != nil {
		return fmt.Errorf("inserting recipient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// CreateBatch inserts recipients in a single transaction, as used by
// CSV import. Returns the number of rows inserted.
func (r *recipientRepo) CreateBatch(ctx context.Context, recs []models.Recipient) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recipients (name, mobile, email, city, created_at)
		 VALUES (?, ?, ?, ?, datetime('now'))`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range recs {
		if _, err := stmt.ExecContext(ctx, recs[i].Name, recs[i].Mobile, recs[i].Email, recs[i].City); err != nil {
			return 0, fmt.Errorf("inserting recipient row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing batch: %w", err)
	}
	return len(recs), nil
}

// GetByID returns a recipient by ID, or nil if not found.
func (r *recipientRepo) GetByID(ctx context.Context, id int64) (*models.Recipient, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, mobile, email, city, created_at FROM recipients WHERE id = ?`, id,
	))
}

// List returns all recipients ordered by creation time.
func (r *recipientRepo) List(ctx context.Context) ([]models.Recipient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, mobile, email, city, created_at FROM recipients ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying recipients: %w", err)
	}
	defer rows.Close()

	var recs []models.Recipient
	for rows.Next() {
		var rec models.Recipient
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Mobile, &rec.Email, &rec.City, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recipient row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Update replaces the mutable fields of a recipient.
func (r *recipientRepo) Update(ctx context.Context, rec *models.Recipient) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recipients SET name = ?, mobile = ?, email = ?, city = ? WHERE id = ?`,
		rec.Name, rec.Mobile, rec.Email, rec.City, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating recipient: %w", err)
	}
	return nil
}

// Delete removes a recipient by ID.
func (r *recipientRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recipients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting recipient: %w", err)
	}
	return nil
}

// Count returns the total number of recipients.
func (r *recipientRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipients`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting recipients: %w", err)
	}
	return count, nil
}

func (r *recipientRepo) scanOne(row *sql.Row) (*models.Recipient, error) {
	var rec models.Recipient
	err := row.Scan(&rec.ID, &rec.Name, &rec.Mobile, &rec.Email, &rec.City, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recipient: %w", err)
	}
	return &rec, nil
}
