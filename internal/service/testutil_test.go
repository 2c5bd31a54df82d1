package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"
	"sanaa/internal/repository"
	"sanaa/pkg/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack against an in-memory database.
type testEnv struct {
	db          *gorm.DB
	users       *repository.UserRepository
	earnings    *repository.EarningRepository
	withdrawals *repository.WithdrawalRepository
	txs         *repository.TransactionRepository
	settings    *repository.SettingRepository
	notifRepo   *repository.NotificationRepository

	notifSvc      *NotificationService
	balanceSvc    *BalanceService
	withdrawalSvc *WithdrawalService
	earningSvc    *EarningService

	provider      *fakeProvider
	settlementSvc *SettlementService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.EarningRecord{},
		&models.WithdrawalRequest{},
		&models.WithdrawalTransaction{},
		&models.Notification{},
		&models.SystemSetting{},
	))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	e := &testEnv{
		db:          db,
		users:       repository.NewUserRepository(db),
		earnings:    repository.NewEarningRepository(db),
		withdrawals: repository.NewWithdrawalRepository(db),
		txs:         repository.NewTransactionRepository(db),
		settings:    repository.NewSettingRepository(db),
		notifRepo:   repository.NewNotificationRepository(db),
		provider:    &fakeProvider{},
	}
	e.notifSvc = NewNotificationService(e.notifRepo)
	e.balanceSvc = NewBalanceService(e.earnings, e.withdrawals, e.settings)
	e.withdrawalSvc = NewWithdrawalService(db, e.earnings, e.withdrawals, e.settings)
	e.earningSvc = NewEarningService(e.earnings, e.users, e.settings, e.notifSvc)
	e.settlementSvc = NewSettlementService(db, e.earnings, e.withdrawals, e.txs,
		e.users, e.notifSvc, e.provider, "")
	return e
}

func (e *testEnv) createArtist(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     domain.RoleArtist,
	}
	require.NoError(t, e.users.Create(u))
	return u
}

func (e *testEnv) createAdmin(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Role:     domain.RoleAdmin,
	}
	require.NoError(t, e.users.Create(u))
	return u
}

// addAvailable inserts a matured, withdrawable earning with consistent
// gross/fee/net amounts.
func (e *testEnv) addAvailable(t *testing.T, artistID uint, netCents int64) *models.EarningRecord {
	t.Helper()
	rec := &models.EarningRecord{
		ArtistID:    artistID,
		EarningType: domain.EarningTypeSale,
		GrossCents:  grossFromNet(netCents),
		NetCents:    netCents,
		Status:      domain.EarningStatusAvailable,
		AvailableAt: time.Now().Add(-time.Hour),
	}
	rec.FeeCents = rec.GrossCents - rec.NetCents
	require.NoError(t, e.earnings.Create(rec))
	return rec
}

func (e *testEnv) addPending(t *testing.T, artistID uint, netCents int64, availableAt time.Time) *models.EarningRecord {
	t.Helper()
	rec := &models.EarningRecord{
		ArtistID:    artistID,
		EarningType: domain.EarningTypeSale,
		GrossCents:  grossFromNet(netCents),
		NetCents:    netCents,
		Status:      domain.EarningStatusPending,
		AvailableAt: availableAt,
	}
	rec.FeeCents = rec.GrossCents - rec.NetCents
	require.NoError(t, e.earnings.Create(rec))
	return rec
}

// allEarnings returns every earning row for the artist, oldest first.
func (e *testEnv) allEarnings(t *testing.T, artistID uint) []models.EarningRecord {
	t.Helper()
	var list []models.EarningRecord
	require.NoError(t, e.db.Where("artist_id = ?", artistID).
		Order("created_at ASC, id ASC").Find(&list).Error)
	return list
}

func timeInDays(d int) time.Time {
	return time.Now().AddDate(0, 0, d)
}

// fakeProvider is an in-process payment gateway double.
type fakeProvider struct {
	decline bool
	err     error
	calls   int
	lastReq payment.TransferRequest
}

func (p *fakeProvider) InitiateTransfer(_ context.Context, req payment.TransferRequest) (*payment.TransferResponse, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	if p.decline {
		return &payment.TransferResponse{
			Success: false,
			Status:  "FAILED",
			Message: "insufficient float",
			RawBody: `{"status":"FAILED","responseDescription":"insufficient float"}`,
		}, nil
	}
	return &payment.TransferResponse{
		Success:       true,
		TransactionID: fmt.Sprintf("MPESA-TX-%d", p.calls),
		Status:        "COMPLETED",
		RawBody:       `{"status":"COMPLETED","responseCode":"0"}`,
	}, nil
}

func (p *fakeProvider) CheckStatus(_ context.Context, transactionID string) (*payment.TransferStatus, error) {
	return &payment.TransferStatus{Status: "COMPLETED", Timestamp: time.Now()}, nil
}
