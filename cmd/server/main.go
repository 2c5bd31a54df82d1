package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sanaa/config"
	"sanaa/internal/database"
	"sanaa/internal/domain"
	"sanaa/internal/repository"
	"sanaa/internal/router"
	"sanaa/pkg/payment"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("[Config] loaded .env")
	}
	cfg := config.Load()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db)

	settingRepo := repository.NewSettingRepository(db)
	if err := settingRepo.SeedDefaults(map[string]string{
		domain.SettingMinimumWithdrawal:  strconv.FormatInt(cfg.Withdrawal.MinimumCents, 10),
		domain.SettingWithdrawalHoldDays: strconv.Itoa(cfg.Withdrawal.HoldDays),
	}); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	var provider payment.Provider
	if cfg.Mpesa.Email != "" {
		provider = payment.NewMpesaB2CProvider(cfg.Mpesa.BaseURL, cfg.Mpesa.Email, cfg.Mpesa.Password, cfg.Mpesa.WebhookBaseURL)
		log.Printf("[Payment] M-Pesa B2C gateway enabled")
	} else {
		provider = &payment.StubProvider{}
		log.Printf("[Payment] no gateway credentials, using stub provider")
	}

	engine := router.Setup(cfg, db, provider)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	log.Println("server stopped")
}
