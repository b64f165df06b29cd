// Package models defines the persistent record types shared by the
// database repositories and the API layer.
package models

import "time"

// User is an operator account. KYC fields are filled in after signup
// via the KYC form.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	KYCPan       string
	KYCGst       string
	KYCBank      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Recipient is one outreach target, typically imported from CSV.
type Recipient struct {
	ID        int64
	Name      string
	Mobile    string
	Email     string
	City      string
	CreatedAt time.Time
}

// Campaign statuses.
const (
	CampaignScheduled = "scheduled"
	CampaignRunning   = "running"
	CampaignCompleted = "completed"
)

// Campaign is an outbound outreach campaign with a scripted question.
type Campaign struct {
	ID          int64
	Name        string
	Question    string
	ScheduledAt time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Invoice statuses.
const (
	InvoiceDue  = "due"
	InvoicePaid = "paid"
)

// Invoice bills an operator for campaign usage. Amount is stored in
// the smallest currency unit (paise).
type Invoice struct {
	ID          int64
	UserID      int64
	Description string
	Amount      int64
	Status      string
	CreatedAt   time.Time
}

// Payment records a settlement attempt against an invoice.
type Payment struct {
	ID         int64
	InvoiceID  int64
	OrderRef   string
	PaymentRef string
	Amount     int64
	Status     string
	CreatedAt  time.Time
}

// Recording is the metadata row for a captured IVR audio artifact.
// The audio bytes themselves live on disk at FilePath.
type Recording struct {
	ID        int64
	SessionID string
	FilePath  string
	MimeType  string
	FileSize  int64
	CreatedAt time.Time
}

// SystemConfig is a key-value settings entry.
type SystemConfig struct {
	ID        int64
	Key       string
	Value     string
	UpdatedAt time.Time
}
