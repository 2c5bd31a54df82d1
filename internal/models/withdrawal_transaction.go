package models

import (
	"time"

	"gorm.io/gorm"
)

// WithdrawalTransaction records one external settlement attempt for a
// withdrawal request, independently from the request row so that repeated
// attempts can be tracked.
type WithdrawalTransaction struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	WithdrawalID    uint           `gorm:"not null;index" json:"withdrawal_id"`
	TransactionType string         `gorm:"size:20;not null" json:"transaction_type"` // MPESA_TRANSFER, BANK_TRANSFER, MANUAL
	AmountCents     int64          `gorm:"not null" json:"amount_cents"`
	FeesCents       int64          `gorm:"not null;default:0" json:"fees_cents"`
	NetCents        int64          `gorm:"not null" json:"net_cents"`
	Status          string         `gorm:"size:20;not null;index" json:"status"`
	ExternalTxID    string         `gorm:"size:128" json:"external_transaction_id"`
	ProviderResponse string        `gorm:"type:text" json:"provider_response"` // raw gateway payload
	ProcessedAt     *time.Time     `json:"processed_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Withdrawal WithdrawalRequest `gorm:"foreignKey:WithdrawalID" json:"-"`
}

func (WithdrawalTransaction) TableName() string { return "withdrawal_transactions" }
