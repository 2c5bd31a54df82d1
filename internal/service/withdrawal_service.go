package service

import (
	"errors"
	"fmt"
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"
	"sanaa/internal/repository"
	"sanaa/pkg/phone"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrInvalidPhone        = errors.New("invalid M-Pesa phone number")
)

// WithdrawalService validates and creates withdrawal requests. The balance
// check and the insert run inside one database transaction so concurrent
// requests for the same artist cannot both pass validation against the
// same balance snapshot.
type WithdrawalService struct {
	db             *gorm.DB
	earningRepo    *repository.EarningRepository
	withdrawalRepo *repository.WithdrawalRepository
	settingRepo    *repository.SettingRepository
}

func NewWithdrawalService(
	db *gorm.DB,
	earningRepo *repository.EarningRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	settingRepo *repository.SettingRepository,
) *WithdrawalService {
	return &WithdrawalService{
		db:             db,
		earningRepo:    earningRepo,
		withdrawalRepo: withdrawalRepo,
		settingRepo:    settingRepo,
	}
}

// CreateRequest validates the amount and phone number and inserts a
// PENDING withdrawal request. No earnings are touched: consumption is
// deferred to settlement, so a request alone does not reserve funds beyond
// the in-flight amount counted by the balance check.
func (s *WithdrawalService) CreateRequest(artistID uint, amountCents int64, phoneRaw, notes string) (*models.WithdrawalRequest, error) {
	minimum := s.settingRepo.GetInt64(domain.SettingMinimumWithdrawal, domain.MinimumWithdrawalCents)
	if amountCents < minimum {
		return nil, ErrBelowMinimum
	}
	canonical, err := phone.Normalize(phoneRaw)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	now := time.Now()
	w := &models.WithdrawalRequest{
		ArtistID:     artistID,
		Reference:    fmt.Sprintf("wd-%s", uuid.New().String()),
		AmountCents:  amountCents,
		MpesaPhone:   canonical,
		Status:       domain.WithdrawalStatusPending,
		RequestNotes: notes,
		RequestedAt:  now,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		earnings := s.earningRepo.WithTx(tx)
		if err := earnings.ReleaseMatured(artistID, now); err != nil {
			return err
		}
		available, err := earnings.SumAvailable(artistID, now)
		if err != nil {
			return err
		}
		// in-flight requests count against the balance so two requests
		// cannot spend the same earnings
		inFlight, err := s.withdrawalRepo.WithTx(tx).SumAmountByStatuses(artistID,
			domain.WithdrawalStatusPending, domain.WithdrawalStatusApproved)
		if err != nil {
			return err
		}
		if amountCents > available-inFlight {
			return ErrInsufficientBalance
		}
		return s.withdrawalRepo.WithTx(tx).Create(w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WithdrawalService) ListByArtist(artistID uint, limit, offset int) ([]models.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListByArtist(artistID, limit, offset)
}
