package service

import (
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/repository"
)

// WithdrawalSummary is the derived balance view shown to artists. It is
// computed from the ledger on every call, never persisted.
type WithdrawalSummary struct {
	AvailableCents      int64      `json:"available_cents"`
	PendingCents        int64      `json:"pending_cents"`
	TotalWithdrawnCents int64      `json:"total_withdrawn_cents"`
	MinimumCents        int64      `json:"minimum_cents"`
	NextAvailableAt     *time.Time `json:"next_available_at,omitempty"`
}

// BalanceService aggregates earning and withdrawal records into balances.
// Read-mostly: its only write is releasing matured holds.
type BalanceService struct {
	earningRepo    *repository.EarningRepository
	withdrawalRepo *repository.WithdrawalRepository
	settingRepo    *repository.SettingRepository
}

func NewBalanceService(
	earningRepo *repository.EarningRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	settingRepo *repository.SettingRepository,
) *BalanceService {
	return &BalanceService{
		earningRepo:    earningRepo,
		withdrawalRepo: withdrawalRepo,
		settingRepo:    settingRepo,
	}
}

// GetSummary computes the artist's current balances. Matured PENDING
// earnings are released to AVAILABLE first so the summary reflects expired
// holds without a background job.
func (s *BalanceService) GetSummary(artistID uint) (*WithdrawalSummary, error) {
	now := time.Now()
	if err := s.earningRepo.ReleaseMatured(artistID, now); err != nil {
		return nil, err
	}
	available, err := s.earningRepo.SumAvailable(artistID, now)
	if err != nil {
		return nil, err
	}
	pending, err := s.withdrawalRepo.SumAmountByStatuses(artistID,
		domain.WithdrawalStatusPending, domain.WithdrawalStatusApproved)
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.withdrawalRepo.SumAmountByStatuses(artistID,
		domain.WithdrawalStatusCompleted)
	if err != nil {
		return nil, err
	}
	next, err := s.earningRepo.NextAvailableAt(artistID)
	if err != nil {
		return nil, err
	}
	return &WithdrawalSummary{
		AvailableCents:      available,
		PendingCents:        pending,
		TotalWithdrawnCents: withdrawn,
		MinimumCents:        s.settingRepo.GetInt64(domain.SettingMinimumWithdrawal, domain.MinimumWithdrawalCents),
		NextAvailableAt:     next,
	}, nil
}
