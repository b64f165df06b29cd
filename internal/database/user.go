package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leanivr/leanivr/internal/database/models"
)

// userRepo implements UserRepository.
type userRepo struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a new operator account.
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, kyc_pan, kyc_gst, kyc_bank, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		user.Username, user.PasswordHash, user.KYCPan, user.KYCGst, user.KYCBank,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByID returns a user by ID, or nil if not found.
func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, kyc_pan, kyc_gst, kyc_bank, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	))
}

// GetByUsername returns a user by username, or nil if not found.
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, kyc_pan, kyc_gst, kyc_bank, created_at, updated_at
		 FROM users WHERE username = ?`, username,
	))
}

// UpdateKYC sets the KYC profile fields for a user.
func (r *userRepo) UpdateKYC(ctx context.Context, id int64, pan, gst, bank string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET kyc_pan = ?, kyc_gst = ?, kyc_bank = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		pan, gst, bank, id,
	)
	if err != nil {
		return fmt.Errorf("updating kyc: %w", err)
	}
	return nil
}

// Count returns the number of operator accounts.
func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *userRepo) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.KYCPan, &u.KYCGst,
		&u.KYCBank, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}
