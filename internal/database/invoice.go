package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leanivr/leanivr/internal/database/models"
)

// invoiceRepo implements InvoiceRepository.
type invoiceRepo struct {
	db *DB
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(db *DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

// Create inserts a new invoice.
func (r *invoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	if inv.Status == "" {
		inv.Status = models.InvoiceDue
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (user_id, description, amount, status, created_at)
		 VALUES (?, ?, ?, ?, datetime('now'))`,
		inv.UserID, inv.Description, inv.Amount, inv.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	inv.ID = id
	return nil
}

// GetByID returns an invoice by ID, or nil if not found.
func (r *invoiceRepo) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, description, amount, status, created_at
		 FROM invoices WHERE id = ?`, id,
	).Scan(&inv.ID, &inv.UserID, &inv.Description, &inv.Amount, &inv.Status, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning invoice: %w", err)
	}
	return &inv, nil
}

// ListByUser returns all invoices for a user, newest first.
func (r *invoiceRepo) ListByUser(ctx context.Context, userID int64) ([]models.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, description, amount, status, created_at
		 FROM invoices WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Description, &inv.Amount,
			&inv.Status, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning invoice row: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// UpdateStatus sets the status of an invoice.
func (r *invoiceRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE invoices SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("updating invoice status: %w", err)
	}
	return nil
}
