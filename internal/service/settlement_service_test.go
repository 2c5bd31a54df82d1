package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"
	"sanaa/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestFor(t *testing.T, e *testEnv, artistID uint, amountCents int64) *models.WithdrawalRequest {
	t.Helper()
	w, err := e.withdrawalSvc.CreateRequest(artistID, amountCents, "0712345678", "")
	require.NoError(t, err)
	return w
}

func notificationTypes(t *testing.T, e *testEnv, userID uint) []string {
	t.Helper()
	list, err := e.notifRepo.ListByUserID(userID, 50, 0)
	require.NoError(t, err)
	types := make([]string, 0, len(list))
	for _, n := range list {
		types = append(types, n.Type)
	}
	return types
}

func TestApprove_ExactConsumption(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	rec := e.addAvailable(t, artist.ID, 150000)
	w := requestFor(t, e, artist.ID, 150000)

	got, err := e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, got.Status)
	assert.Equal(t, "MPESA-TX-1", got.TransactionRef)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, admin.ID, *got.ReviewedBy)
	assert.NotNil(t, got.CompletedAt)

	// earning fully consumed and tagged with the withdrawal
	consumed, err := e.earnings.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusWithdrawn, consumed.Status)
	require.NotNil(t, consumed.WithdrawalID)
	assert.Equal(t, w.ID, *consumed.WithdrawalID)
	assert.NotNil(t, consumed.WithdrawnAt)

	sum, err := e.balanceSvc.GetSummary(artist.ID)
	require.NoError(t, err)
	assert.Zero(t, sum.AvailableCents)
	assert.Zero(t, sum.PendingCents)
	assert.Equal(t, int64(150000), sum.TotalWithdrawnCents)

	// rollup reflects withdrawn + available nets
	u, err := e.users.GetByID(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), u.TotalEarningsCents)

	// the settlement attempt is on record
	tx, err := e.txs.LatestByWithdrawal(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, tx.Status)
	assert.Equal(t, "MPESA-TX-1", tx.ExternalTxID)
	assert.NotEmpty(t, tx.ProviderResponse)
	assert.Equal(t, int64(150000), tx.AmountCents)
	assert.Zero(t, tx.FeesCents)

	assert.Contains(t, notificationTypes(t, e, artist.ID), domain.NotifWithdrawalApproved)
	assert.Contains(t, notificationTypes(t, e, artist.ID), domain.NotifWithdrawalCompleted)

	// the gateway saw the reference and the unprefixed phone number
	assert.Equal(t, w.Reference, e.provider.lastReq.Reference)
	assert.Equal(t, "254712345678", e.provider.lastReq.PhoneNumber)
	assert.Equal(t, int64(150000), e.provider.lastReq.AmountCents)
}

func TestApprove_SplitConsumption(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	rec := e.addAvailable(t, artist.ID, 500000)
	w := requestFor(t, e, artist.ID, 200000)

	_, err := e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "")
	require.NoError(t, err)

	rows := e.allEarnings(t, artist.ID)
	require.Len(t, rows, 2)

	withdrawn, leftover := rows[0], rows[1]
	assert.Equal(t, rec.ID, withdrawn.ID)
	assert.Equal(t, domain.EarningStatusWithdrawn, withdrawn.Status)
	assert.Equal(t, int64(200000), withdrawn.NetCents)
	assert.Equal(t, domain.EarningStatusAvailable, leftover.Status)
	assert.Equal(t, int64(300000), leftover.NetCents)

	// value is conserved across the split
	assert.Equal(t, int64(500000), withdrawn.NetCents+leftover.NetCents)

	// both halves keep consistent amounts and the original availability date
	for _, r := range rows {
		assert.Equal(t, r.NetCents, r.GrossCents-r.FeeCents)
	}
	assert.WithinDuration(t, rec.AvailableAt, leftover.AvailableAt, time.Second)
	assert.Equal(t, rec.EarningType, leftover.EarningType)

	sum, err := e.balanceSvc.GetSummary(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), sum.AvailableCents)
	assert.Equal(t, int64(200000), sum.TotalWithdrawnCents)

	u, err := e.users.GetByID(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), u.TotalEarningsCents)
}

func TestApprove_ConsumesOldestFirst(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	first := e.addAvailable(t, artist.ID, 50000)
	second := e.addAvailable(t, artist.ID, 80000)
	w := requestFor(t, e, artist.ID, 100000)

	_, err := e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "")
	require.NoError(t, err)

	oldest, err := e.earnings.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusWithdrawn, oldest.Status)
	assert.Equal(t, int64(50000), oldest.NetCents)

	// the newer record was split to cover the remainder
	split, err := e.earnings.GetByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusWithdrawn, split.Status)
	assert.Equal(t, int64(50000), split.NetCents)

	var withdrawnTotal int64
	require.NoError(t, e.db.Model(&models.EarningRecord{}).
		Where("withdrawal_id = ?", w.ID).
		Select("COALESCE(SUM(net_cents), 0)").Scan(&withdrawnTotal).Error)
	assert.Equal(t, int64(100000), withdrawnTotal)

	sum, err := e.balanceSvc.GetSummary(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), sum.AvailableCents)
}

func TestApprove_GatewayDecline(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	e.addAvailable(t, artist.ID, 300000)
	w := requestFor(t, e, artist.ID, 150000)
	e.provider.decline = true

	got, err := e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusFailed, got.Status)
	assert.Equal(t, "insufficient float", got.FailureReason)

	// the ledger is untouched: nothing consumed, balance restored
	sum, err := e.balanceSvc.GetSummary(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), sum.AvailableCents)
	assert.Zero(t, sum.PendingCents)
	assert.Zero(t, sum.TotalWithdrawnCents)

	tx, err := e.txs.LatestByWithdrawal(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, tx.Status)

	assert.Contains(t, notificationTypes(t, e, artist.ID), domain.NotifWithdrawalFailed)
}

func TestApprove_GatewayError(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	e.addAvailable(t, artist.ID, 300000)
	w := requestFor(t, e, artist.ID, 150000)
	e.provider.err = errors.New("connection timeout")

	got, err := e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusFailed, got.Status)
	assert.Contains(t, got.FailureReason, "connection timeout")

	sum, err := e.balanceSvc.GetSummary(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), sum.AvailableCents)
}

func TestReject(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	e.addAvailable(t, artist.ID, 300000)
	w := requestFor(t, e, artist.ID, 150000)

	got, err := e.settlementSvc.Reject(w.ID, admin.ID, "suspicious activity")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusRejected, got.Status)
	assert.Equal(t, "suspicious activity", got.FailureReason)
	assert.Zero(t, e.provider.calls)

	sum, err := e.balanceSvc.GetSummary(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), sum.AvailableCents)
	assert.Zero(t, sum.PendingCents)

	// a rejected request can never be approved afterwards
	_, err = e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	assert.Contains(t, notificationTypes(t, e, artist.ID), domain.NotifWithdrawalRejected)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	e.addAvailable(t, artist.ID, 300000)
	w := requestFor(t, e, artist.ID, 150000)

	_, err := e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "")
	require.NoError(t, err)

	_, err = e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	_, err = e.settlementSvc.Reject(w.ID, admin.ID, "late rejection")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	got, err := e.withdrawals.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, got.Status)
}

func TestSettle_OnlyApprovedRequests(t *testing.T) {
	e := newTestEnv(t)
	artist := e.createArtist(t, "wanjiku")
	e.addAvailable(t, artist.ID, 300000)
	w := requestFor(t, e, artist.ID, 150000)

	err := e.settlementSvc.Settle(context.Background(), w.ID)
	assert.ErrorIs(t, err, ErrNotSettleable)
	assert.Zero(t, e.provider.calls)
}

// The gateway confirmed the transfer but the process died before the
// ledger write: the webhook callback must finish the job.
func TestFinalizeFromCallback_RecoversCrashWindow(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	e.addAvailable(t, artist.ID, 300000)
	w := requestFor(t, e, artist.ID, 150000)

	require.NoError(t, e.withdrawals.MarkApproved(w.ID, admin.ID, "", time.Now()))
	require.NoError(t, e.txs.Create(&models.WithdrawalTransaction{
		WithdrawalID:    w.ID,
		TransactionType: domain.TxTypeMpesaTransfer,
		AmountCents:     w.AmountCents,
		NetCents:        w.AmountCents,
		Status:          domain.TxStatusProcessing,
	}))

	err := e.settlementSvc.FinalizeFromCallback(w.Reference, true, "MP-EXT-9", `{"status":"COMPLETED"}`, "")
	require.NoError(t, err)

	got, err := e.withdrawals.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, got.Status)
	assert.Equal(t, "MP-EXT-9", got.TransactionRef)

	tx, err := e.txs.LatestByWithdrawal(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, tx.Status)
	assert.Equal(t, "MP-EXT-9", tx.ExternalTxID)

	sum, err := e.balanceSvc.GetSummary(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), sum.AvailableCents)
	assert.Equal(t, int64(150000), sum.TotalWithdrawnCents)
}

func TestFinalizeFromCallback_ReplayIsIgnored(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	e.addAvailable(t, artist.ID, 300000)
	w := requestFor(t, e, artist.ID, 150000)

	_, err := e.settlementSvc.Approve(context.Background(), w.ID, admin.ID, "")
	require.NoError(t, err)
	before := e.allEarnings(t, artist.ID)

	// gateway retries its callback after we already finalized
	require.NoError(t, e.settlementSvc.FinalizeFromCallback(w.Reference, true, "MP-DUP", "{}", ""))

	after := e.allEarnings(t, artist.ID)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Status, after[i].Status)
		assert.Equal(t, before[i].NetCents, after[i].NetCents)
	}
	got, err := e.withdrawals.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "MPESA-TX-1", got.TransactionRef)
}

func TestFinalizeFromCallback_Failure(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createAdmin(t)
	artist := e.createArtist(t, "wanjiku")
	e.addAvailable(t, artist.ID, 300000)
	w := requestFor(t, e, artist.ID, 150000)

	require.NoError(t, e.withdrawals.MarkApproved(w.ID, admin.ID, "", time.Now()))
	require.NoError(t, e.txs.Create(&models.WithdrawalTransaction{
		WithdrawalID:    w.ID,
		TransactionType: domain.TxTypeMpesaTransfer,
		AmountCents:     w.AmountCents,
		NetCents:        w.AmountCents,
		Status:          domain.TxStatusProcessing,
	}))

	err := e.settlementSvc.FinalizeFromCallback(w.Reference, false, "", `{"status":"FAILED"}`, "recipient not registered")
	require.NoError(t, err)

	got, err := e.withdrawals.GetByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusFailed, got.Status)
	assert.Equal(t, "recipient not registered", got.FailureReason)

	sum, err := e.balanceSvc.GetSummary(artist.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), sum.AvailableCents)
	assert.Zero(t, sum.TotalWithdrawnCents)
}

func TestGrossFromNet_KeepsAmountsExact(t *testing.T) {
	for _, net := range []int64{1, 99, 100, 12345, 50000, 300000, 1000000} {
		gross := grossFromNet(net)
		fee := gross - net
		assert.GreaterOrEqual(t, fee, int64(0))
		assert.Equal(t, net, gross-fee)
		// fee stays close to the platform rate
		assert.InDelta(t, float64(gross)*domain.PlatformFeeRate, float64(fee), 1)
	}
}
