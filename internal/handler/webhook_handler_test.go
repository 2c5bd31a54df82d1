package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"
	"sanaa/internal/repository"
	"sanaa/internal/service"
	"sanaa/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type webhookFixture struct {
	db          *gorm.DB
	router      *gin.Engine
	withdrawals *repository.WithdrawalRepository
	earnings    *repository.EarningRepository
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
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
		&models.User{}, &models.EarningRecord{}, &models.WithdrawalRequest{},
		&models.WithdrawalTransaction{}, &models.Notification{}, &models.SystemSetting{},
	))
	t.Cleanup(func() { _ = sqlDB.Close() })

	earnings := repository.NewEarningRepository(db)
	withdrawals := repository.NewWithdrawalRepository(db)
	txs := repository.NewTransactionRepository(db)
	users := repository.NewUserRepository(db)
	notifSvc := service.NewNotificationService(repository.NewNotificationRepository(db))
	settlementSvc := service.NewSettlementService(db, earnings, withdrawals, txs,
		users, notifSvc, &payment.StubProvider{}, "")

	r := gin.New()
	r.POST("/api/v1/webhooks/withdrawal", NewWithdrawalWebhookHandler(settlementSvc).Handle)
	return &webhookFixture{db: db, router: r, withdrawals: withdrawals, earnings: earnings}
}

// seedApproved plants an artist with one consumed-ready earning and a
// withdrawal stuck in APPROVED with a PROCESSING transaction, the state a
// crashed settlement leaves behind.
func (f *webhookFixture) seedApproved(t *testing.T, reference string) *models.WithdrawalRequest {
	t.Helper()
	artist := &models.User{Username: "wanjiku", Email: "wanjiku@example.com", Role: domain.RoleArtist}
	require.NoError(t, f.db.Create(artist).Error)
	require.NoError(t, f.earnings.Create(&models.EarningRecord{
		ArtistID:    artist.ID,
		EarningType: domain.EarningTypeSale,
		GrossCents:  157895,
		FeeCents:    7895,
		NetCents:    150000,
		Status:      domain.EarningStatusAvailable,
		AvailableAt: time.Now().Add(-time.Hour),
	}))
	w := &models.WithdrawalRequest{
		ArtistID:    artist.ID,
		Reference:   reference,
		AmountCents: 150000,
		MpesaPhone:  "+254712345678",
		Status:      domain.WithdrawalStatusApproved,
		RequestedAt: time.Now(),
	}
	require.NoError(t, f.withdrawals.Create(w))
	require.NoError(t, f.db.Create(&models.WithdrawalTransaction{
		WithdrawalID:    w.ID,
		TransactionType: domain.TxTypeMpesaTransfer,
		AmountCents:     w.AmountCents,
		NetCents:        w.AmountCents,
		Status:          domain.TxStatusProcessing,
	}).Error)
	return w
}

func (f *webhookFixture) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/withdrawal", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_CompletedCallbackFinalizes(t *testing.T) {
	f := newWebhookFixture(t)
	w := f.seedApproved(t, "wd-cb-1")

	rec := f.post(`{"merchant_order_id":"wd-cb-1","status":"COMPLETED","transaction_uuid":"MP-CB-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := f.withdrawals.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, got.Status)
	assert.Equal(t, "MP-CB-1", got.TransactionRef)

	consumed, err := f.earnings.CountByWithdrawal(w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), consumed)
}

func TestWebhook_FailedCallbackFailsRequest(t *testing.T) {
	f := newWebhookFixture(t)
	w := f.seedApproved(t, "wd-cb-2")

	rec := f.post(`{"order_id":"wd-cb-2","status":"FAILED","status_description":"recipient blocked"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := f.withdrawals.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusFailed, got.Status)
	assert.Equal(t, "recipient blocked", got.FailureReason)

	consumed, err := f.earnings.CountByWithdrawal(w.ID)
	require.NoError(t, err)
	assert.Zero(t, consumed)
}

func TestWebhook_UnknownReferenceStillAcks(t *testing.T) {
	f := newWebhookFixture(t)
	rec := f.post(`{"merchant_order_id":"wd-missing","status":"COMPLETED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_MalformedBody(t *testing.T) {
	f := newWebhookFixture(t)
	rec := f.post(`{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
