package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Withdrawal WithdrawalConfig
	Mpesa      MpesaConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type WithdrawalConfig struct {
	MinimumCents int64
	HoldDays     int
}

// MpesaConfig configures the B2C payout gateway. Leave Email empty to run
// with the stub provider.
type MpesaConfig struct {
	BaseURL        string
	Email          string
	Password       string
	WebhookBaseURL string // callback will be WebhookBaseURL + /api/v1/webhooks/withdrawal
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8088"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "sanaa:sanaa@tcp(localhost:3306)/sanaa?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "sanaa",
		},
		Withdrawal: WithdrawalConfig{
			MinimumCents: getenvInt64("MINIMUM_WITHDRAWAL_CENTS", 100000),
			HoldDays:     int(getenvInt64("WITHDRAWAL_HOLD_DAYS", 7)),
		},
		Mpesa: MpesaConfig{
			BaseURL:        getenv("MPESA_BASE_URL", "https://card-api.theliberec.com"),
			Email:          getenv("MPESA_EMAIL", ""),
			Password:       getenv("MPESA_PASSWORD", ""),
			WebhookBaseURL: getenv("MPESA_WEBHOOK_BASE_URL", ""),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
