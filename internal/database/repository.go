package database

import (
	"context"

	"github.com/leanivr/leanivr/internal/database/models"
)

// UserRepository manages operator accounts and their KYC fields.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateKYC(ctx context.Context, id int64, pan, gst, bank string) error
	Count(ctx context.Context) (int64, error)
}

// RecipientRepository manages outreach recipients.
type RecipientRepository interface {
	Create(ctx context.Context, rec *models.Recipient) error
	CreateBatch(ctx context.Context, recs []models.Recipient) (int, error)
	GetByID(ctx context.Context, id int64) (*models.Recipient, error)
	List(ctx context.Context) ([]models.Recipient, error)
	Update(ctx context.Context, rec *models.Recipient) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// CampaignRepository manages outreach campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	List(ctx context.Context) ([]models.Campaign, error)
	Update(ctx context.Context, c *models.Campaign) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// InvoiceRepository manages billing invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Invoice, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// PaymentRepository manages payment records.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	ListByInvoice(ctx context.Context, invoiceID int64) ([]models.Payment, error)
}

// RecordingRepository manages captured IVR recording metadata.
type RecordingRepository interface {
	Create(ctx context.Context, rec *models.Recording) error
	GetByID(ctx context.Context, id int64) (*models.Recording, error)
	List(ctx context.Context) ([]models.Recording, error)
	Delete(ctx context.Context, id int64) error
	DeleteOlderThan(ctx context.Context, maxDays int) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// SystemConfigRepository manages key-value system configuration.
type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetAll(ctx context.Context) ([]models.SystemConfig, error)
}
