package models

import (
	"time"

	"gorm.io/gorm"
)

// WithdrawalRequest is an artist's request to cash out part of their
// available balance to M-Pesa. Lifecycle: PENDING -> APPROVED | REJECTED
// (admin review); APPROVED -> COMPLETED | FAILED (settlement outcome).
// REJECTED, COMPLETED and FAILED are terminal.
type WithdrawalRequest struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ArtistID uint `gorm:"not null;index" json:"artist_id"`
	// Reference is the unique gateway order id ("wd-<uuid>"); it doubles as
	// the idempotency key for settlement and webhook reconciliation.
	Reference     string         `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	AmountCents   int64          `gorm:"not null" json:"amount_cents"`
	MpesaPhone    string         `gorm:"size:20;not null" json:"mpesa_phone"` // canonical +254XXXXXXXXX
	Status        string         `gorm:"size:20;not null;index" json:"status"`
	RequestNotes  string         `gorm:"type:text" json:"request_notes"`
	AdminNotes    string         `gorm:"type:text" json:"admin_notes"`
	RequestedAt   time.Time      `gorm:"not null" json:"requested_at"`
	ReviewedAt    *time.Time     `json:"reviewed_at"`
	ReviewedBy    *uint          `json:"reviewed_by"`
	CompletedAt   *time.Time     `json:"completed_at"`
	TransactionRef string        `gorm:"size:128" json:"transaction_ref"` // gateway transaction id
	FailureReason string         `gorm:"type:text" json:"failure_reason"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Artist User `gorm:"foreignKey:ArtistID" json:"-"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }

// Terminal reports whether no further status transition is possible.
func (w *WithdrawalRequest) Terminal() bool {
	switch w.Status {
	case "REJECTED", "COMPLETED", "FAILED":
		return true
	}
	return false
}
