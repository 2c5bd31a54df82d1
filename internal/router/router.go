package router

import (
	"time"

	"sanaa/config"
	"sanaa/internal/domain"
	"sanaa/internal/handler"
	"sanaa/internal/middleware"
	"sanaa/internal/repository"
	"sanaa/internal/service"
	"sanaa/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, provider payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo)
	balanceSvc := service.NewBalanceService(earningRepo, withdrawalRepo, settingRepo)
	withdrawalSvc := service.NewWithdrawalService(db, earningRepo, withdrawalRepo, settingRepo)
	settlementSvc := service.NewSettlementService(db, earningRepo, withdrawalRepo, txRepo, userRepo, notifSvc, provider, cfg.Mpesa.WebhookBaseURL)
	earningSvc := service.NewEarningService(earningRepo, userRepo, settingRepo, notifSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	withdrawalHandler := handler.NewWithdrawalHandler(balanceSvc, withdrawalSvc)
	earningHandler := handler.NewEarningHandler(earningSvc)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	adminHandler := handler.NewAdminHandler(withdrawalRepo, settingRepo, balanceSvc, settlementSvc, earningSvc)
	webhookHandler := handler.NewWithdrawalWebhookHandler(settlementSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		me := api.Group("/me")
		me.Use(authMw, middleware.RequireRole(domain.RoleArtist))
		{
			me.GET("/withdrawals/summary", withdrawalHandler.GetSummary)
			me.POST("/withdrawals", withdrawalHandler.Create)
			me.GET("/withdrawals", withdrawalHandler.List)
			me.GET("/earnings", earningHandler.List)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.GET("/withdrawals/:id", adminHandler.GetWithdrawal)
			admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
			admin.POST("/earnings", adminHandler.RecordEarning)
			admin.GET("/artists/:id/summary", adminHandler.GetArtistSummary)
			admin.GET("/settings", adminHandler.ListSettings)
			admin.PUT("/settings", adminHandler.UpdateSetting)
		}

		api.POST("/webhooks/withdrawal", webhookHandler.Handle)
	}

	return r
}
