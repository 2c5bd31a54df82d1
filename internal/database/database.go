package database

import (
	"errors"
	"log"
	"os"

	"sanaa/config"
	"sanaa/internal/domain"
	"sanaa/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.EarningRecord{},
		&models.WithdrawalRequest{},
		&models.WithdrawalTransaction{},
		&models.Notification{},
		&models.SystemSetting{},
	)
}

// SeedAdmin creates the initial admin account if no admin exists yet.
// Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD.
func SeedAdmin(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	var existing models.User
	err := db.Where("role = ?", domain.RoleAdmin).First(&existing).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Seed] admin lookup failed: %v", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Seed] hash admin password: %v", err)
		return
	}
	admin := &models.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[Seed] create admin: %v", err)
		return
	}
	log.Printf("[Seed] admin account created: %s", email)
}
