package models

import (
	"time"

	"gorm.io/gorm"
)

// EarningRecord is one unit of money owed to an artist from a sale or
// commission event. Records are append-only: settlement flips status and,
// for a partial consumption, rewrites the amounts and inserts a sibling
// record for the remainder. Invariant: NetCents = GrossCents - FeeCents,
// all non-negative.
type EarningRecord struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ArtistID    uint   `gorm:"not null;index" json:"artist_id"`
	OrderRef    string `gorm:"size:64" json:"order_ref"`
	ProductRef  string `gorm:"size:64" json:"product_ref"`
	EarningType string `gorm:"size:20;not null" json:"earning_type"` // SALE, COMMISSION, BONUS, REFUND
	GrossCents  int64  `gorm:"not null" json:"gross_cents"`
	FeeCents    int64  `gorm:"not null" json:"fee_cents"`
	NetCents    int64  `gorm:"not null" json:"net_cents"`
	Status      string `gorm:"size:20;not null;index" json:"status"` // PENDING, AVAILABLE, WITHDRAWN, ON_HOLD
	// AvailableAt is when the hold period expires and the earning becomes
	// withdrawable.
	AvailableAt  time.Time      `gorm:"not null;index" json:"available_at"`
	WithdrawnAt  *time.Time     `json:"withdrawn_at"`
	WithdrawalID *uint          `gorm:"index" json:"withdrawal_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Artist User `gorm:"foreignKey:ArtistID" json:"-"`
}

func (EarningRecord) TableName() string { return "earning_records" }
