package database

import (
	"context"
	"fmt"

	"github.com/leanivr/leanivr/internal/database/models"
)

// paymentRepo implements PaymentRepository.
type paymentRepo struct {
	db *DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *DB) PaymentRepository {
	return &paymentRepo{db: db}
}

// Create inserts a payment record.
func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (invoice_id, order_ref, payment_ref, amount, status, created_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))`,
		p.InvoiceID, p.OrderRef, p.PaymentRef, p.Amount, p.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// ListByInvoice returns all payments against an invoice, oldest first.
func (r *paymentRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, order_ref, payment_ref, amount, status, created_at
		 FROM payments WHERE invoice_id = ? ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.OrderRef, &p.PaymentRef,
			&p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
