package models

import (
	"time"

	"sanaa/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Role         string `gorm:"size:20;not null;index" json:"role"` // ARTIST | ADMIN
	MpesaPhone   string `gorm:"size:20" json:"mpesa_phone"`         // canonical +254XXXXXXXXX
	// TotalEarningsCents is a denormalized rollup of the earnings ledger
	// (available + withdrawn), recomputed by settlement for display.
	TotalEarningsCents int64          `gorm:"not null;default:0" json:"total_earnings_cents"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsArtist() bool { return u.Role == domain.RoleArtist }
func (u *User) IsAdmin() bool  { return u.Role == domain.RoleAdmin }
