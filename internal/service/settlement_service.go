package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"
	"sanaa/internal/repository"
	"sanaa/pkg/payment"
	"sanaa/pkg/phone"

	"gorm.io/gorm"
)

var ErrNotSettleable = errors.New("withdrawal is not in an approved state")

// SettlementService drives approved withdrawals through the payment
// gateway and reconciles the earnings ledger afterwards. The ledger
// mutation (complete request, complete transaction, consume earnings,
// recompute rollup) runs in one database transaction; the gateway call
// happens outside it, and the webhook path replays finalization safely if
// the process dies in between.
type SettlementService struct {
	db             *gorm.DB
	earningRepo    *repository.EarningRepository
	withdrawalRepo *repository.WithdrawalRepository
	txRepo         *repository.TransactionRepository
	userRepo       *repository.UserRepository
	notifSvc       *NotificationService
	provider       payment.Provider
	webhookBase    string
}

func NewSettlementService(
	db *gorm.DB,
	earningRepo *repository.EarningRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	txRepo *repository.TransactionRepository,
	userRepo *repository.UserRepository,
	notifSvc *NotificationService,
	provider payment.Provider,
	webhookBase string,
) *SettlementService {
	return &SettlementService{
		db:             db,
		earningRepo:    earningRepo,
		withdrawalRepo: withdrawalRepo,
		txRepo:         txRepo,
		userRepo:       userRepo,
		notifSvc:       notifSvc,
		provider:       provider,
		webhookBase:    webhookBase,
	}
}

// Approve transitions a PENDING request to APPROVED (guarded update) and
// immediately runs settlement. Returns the request in its post-settlement
// state.
func (s *SettlementService) Approve(ctx context.Context, withdrawalID, adminID uint, notes string) (*models.WithdrawalRequest, error) {
	if err := s.withdrawalRepo.MarkApproved(withdrawalID, adminID, notes, time.Now()); err != nil {
		return nil, err
	}
	w, err := s.withdrawalRepo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	_ = s.notifSvc.NotifyWithdrawalApproved(w.ArtistID, w.ID, w.AmountCents)
	if err := s.Settle(ctx, withdrawalID); err != nil {
		log.Printf("[Settlement] withdrawal %d settle error: %v", withdrawalID, err)
	}
	return s.withdrawalRepo.GetByID(withdrawalID)
}

// Reject transitions a PENDING request to REJECTED. No earnings are touched.
func (s *SettlementService) Reject(withdrawalID, adminID uint, reason string) (*models.WithdrawalRequest, error) {
	if err := s.withdrawalRepo.MarkRejected(withdrawalID, adminID, reason, time.Now()); err != nil {
		return nil, err
	}
	w, err := s.withdrawalRepo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	_ = s.notifSvc.NotifyWithdrawalRejected(w.ArtistID, w.ID, reason)
	return w, nil
}

// Settle executes the external transfer for an APPROVED withdrawal and, on
// success, consumes earnings. A panic anywhere in here is recovered and
// the request forced to FAILED; that is a best-effort compensating write,
// not a rollback.
func (s *SettlementService) Settle(ctx context.Context, withdrawalID uint) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Settlement] withdrawal %d panic: %v", withdrawalID, rec)
			_ = s.withdrawalRepo.MarkFailed(withdrawalID, "internal settlement error")
			err = fmt.Errorf("settlement panic: %v", rec)
		}
	}()

	w, err := s.withdrawalRepo.GetByID(withdrawalID)
	if err != nil {
		return err
	}
	if w.Status != domain.WithdrawalStatusApproved {
		return ErrNotSettleable
	}

	txRecord := &models.WithdrawalTransaction{
		WithdrawalID:    w.ID,
		TransactionType: domain.TxTypeMpesaTransfer,
		AmountCents:     w.AmountCents,
		FeesCents:       0, // gateway fees are not charged to the artist
		NetCents:        w.AmountCents,
		Status:          domain.TxStatusPending,
	}
	if err := s.txRepo.Create(txRecord); err != nil {
		_ = s.withdrawalRepo.MarkFailed(w.ID, "failed to record settlement attempt")
		return err
	}
	if err := s.txRepo.MarkProcessing(txRecord.ID); err != nil {
		return err
	}

	resp, err := s.provider.InitiateTransfer(ctx, payment.TransferRequest{
		AmountCents: w.AmountCents,
		PhoneNumber: phone.GatewayFormat(w.MpesaPhone),
		Reference:   w.Reference,
		Description: fmt.Sprintf("Artist withdrawal %s", w.Reference),
		Remarks:     "Sanaa artist payout",
		CallbackURL: s.callbackURL(),
	})
	if err != nil {
		_ = s.txRepo.MarkFailed(txRecord.ID, err.Error())
		_ = s.withdrawalRepo.MarkFailed(w.ID, "transfer failed: "+err.Error())
		_ = s.notifSvc.NotifyWithdrawalFailed(w.ArtistID, w.ID, err.Error())
		return nil
	}
	if !resp.Success {
		_ = s.txRepo.MarkFailed(txRecord.ID, resp.RawBody)
		_ = s.withdrawalRepo.MarkFailed(w.ID, resp.Message)
		_ = s.notifSvc.NotifyWithdrawalFailed(w.ArtistID, w.ID, resp.Message)
		return nil
	}
	return s.finalize(w, txRecord.ID, resp.TransactionID, resp.RawBody)
}

// FinalizeFromCallback reconciles a withdrawal from the gateway's async
// callback. Covers the crash window between a successful transfer and the
// ledger update: if the request is still APPROVED a success callback
// finalizes it (replay-safe, consumption is idempotent) and a failure
// callback fails it. Terminal requests are left untouched.
func (s *SettlementService) FinalizeFromCallback(reference string, success bool, externalTxID, rawBody, failureReason string) error {
	w, err := s.withdrawalRepo.GetByReference(reference)
	if err != nil {
		return err
	}
	if w.Status != domain.WithdrawalStatusApproved {
		log.Printf("[Settlement] callback for withdrawal %d ignored, status=%s", w.ID, w.Status)
		return nil
	}
	txRecord, err := s.txRepo.LatestByWithdrawal(w.ID)
	if err != nil {
		return err
	}
	if !success {
		_ = s.txRepo.MarkFailed(txRecord.ID, rawBody)
		if err := s.withdrawalRepo.MarkFailed(w.ID, failureReason); err != nil {
			return err
		}
		_ = s.notifSvc.NotifyWithdrawalFailed(w.ArtistID, w.ID, failureReason)
		return nil
	}
	return s.finalize(w, txRecord.ID, externalTxID, rawBody)
}

// finalize completes the request and its transaction, consumes earnings
// and recomputes the artist's rollup, all in one transaction.
func (s *SettlementService) finalize(w *models.WithdrawalRequest, txID uint, externalTxID, rawBody string) error {
	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.withdrawalRepo.WithTx(tx).MarkCompleted(w.ID, externalTxID, now); err != nil {
			return err
		}
		if err := s.txRepo.WithTx(tx).MarkCompleted(txID, externalTxID, rawBody, now); err != nil {
			return err
		}
		if err := s.consume(tx, w.ArtistID, w.AmountCents, w.ID, now); err != nil {
			return err
		}
		return s.updateRollup(tx, w.ArtistID)
	})
	if err != nil {
		return err
	}
	_ = s.notifSvc.NotifyWithdrawalCompleted(w.ArtistID, w.ID, w.AmountCents)
	log.Printf("[Settlement] withdrawal %d completed, external_tx=%s", w.ID, externalTxID)
	return nil
}

// consume walks the artist's available earnings oldest-first and marks
// them withdrawn until amountCents is covered. An earning larger than the
// remainder is split: its amounts are rewritten down to the remainder and
// a sibling record is inserted for the leftover, keeping the original
// availability date. Idempotent per withdrawal: if any earning already
// carries this withdrawal id the walk is skipped.
func (s *SettlementService) consume(tx *gorm.DB, artistID uint, amountCents int64, withdrawalID uint, now time.Time) error {
	earnings := s.earningRepo.WithTx(tx)
	already, err := earnings.CountByWithdrawal(withdrawalID)
	if err != nil {
		return err
	}
	if already > 0 {
		log.Printf("[Settlement] withdrawal %d earnings already consumed", withdrawalID)
		return nil
	}
	list, err := earnings.ListAvailable(artistID, now)
	if err != nil {
		return err
	}
	remaining := amountCents
	for i := range list {
		if remaining == 0 {
			break
		}
		e := &list[i]
		if e.NetCents <= remaining {
			if err := earnings.MarkWithdrawn(e.ID, withdrawalID, now); err != nil {
				return err
			}
			remaining -= e.NetCents
			continue
		}
		// split: rewrite this record down to the remainder, insert a
		// sibling for the leftover
		leftover := e.NetCents - remaining
		wid := withdrawalID
		e.Status = domain.EarningStatusWithdrawn
		e.NetCents = remaining
		e.GrossCents = grossFromNet(remaining)
		e.FeeCents = e.GrossCents - e.NetCents
		e.WithdrawalID = &wid
		e.WithdrawnAt = &now
		if err := earnings.Save(e); err != nil {
			return err
		}
		sibling := &models.EarningRecord{
			ArtistID:    artistID,
			OrderRef:    e.OrderRef,
			ProductRef:  e.ProductRef,
			EarningType: e.EarningType,
			GrossCents:  grossFromNet(leftover),
			NetCents:    leftover,
			Status:      domain.EarningStatusAvailable,
			AvailableAt: e.AvailableAt,
		}
		sibling.FeeCents = sibling.GrossCents - sibling.NetCents
		if err := earnings.Create(sibling); err != nil {
			return err
		}
		remaining = 0
	}
	if remaining > 0 {
		// sufficiency was checked at request creation; hitting this means
		// the ledger changed underneath us, so roll the whole settlement
		// write back and leave the request APPROVED for reconciliation
		return fmt.Errorf("available earnings short by %d cents for withdrawal %d", remaining, withdrawalID)
	}
	return nil
}

// updateRollup recomputes the artist's denormalized total_earnings as
// available + withdrawn net amounts.
func (s *SettlementService) updateRollup(tx *gorm.DB, artistID uint) error {
	earnings := s.earningRepo.WithTx(tx)
	available, err := earnings.SumNetByStatus(artistID, domain.EarningStatusAvailable)
	if err != nil {
		return err
	}
	withdrawn, err := earnings.SumNetByStatus(artistID, domain.EarningStatusWithdrawn)
	if err != nil {
		return err
	}
	return s.userRepo.WithTx(tx).UpdateTotalEarnings(artistID, available+withdrawn)
}

func (s *SettlementService) callbackURL() string {
	if s.webhookBase == "" {
		return ""
	}
	base := s.webhookBase
	if len(base) > 0 && base[0] != 'h' {
		base = "https://" + base
	}
	return base + "/api/v1/webhooks/withdrawal"
}

// grossFromNet back-computes the gross amount for a split record from the
// fixed platform fee rate; the fee is the difference, which keeps
// net = gross - fee exact in integer cents.
func grossFromNet(netCents int64) int64 {
	return int64(math.Round(float64(netCents) / (1 - domain.PlatformFeeRate)))
}
