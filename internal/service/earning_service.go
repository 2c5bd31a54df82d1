package service

import (
	"errors"
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"
	"sanaa/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrInvalidAmounts = errors.New("earning amounts must satisfy net = gross - fee, all non-negative")
	ErrUnknownArtist  = errors.New("artist not found")
)

// EarningService records earning entries on behalf of the sale/commission
// collaborator. New earnings are held for the configured number of days
// before becoming withdrawable.
type EarningService struct {
	earningRepo *repository.EarningRepository
	userRepo    *repository.UserRepository
	settingRepo *repository.SettingRepository
	notifSvc    *NotificationService
}

func NewEarningService(
	earningRepo *repository.EarningRepository,
	userRepo *repository.UserRepository,
	settingRepo *repository.SettingRepository,
	notifSvc *NotificationService,
) *EarningService {
	return &EarningService{
		earningRepo: earningRepo,
		userRepo:    userRepo,
		settingRepo: settingRepo,
		notifSvc:    notifSvc,
	}
}

// Record validates and inserts a new earning for an artist. The hold
// period starts now; with a zero hold the record is immediately AVAILABLE.
func (s *EarningService) Record(artistID uint, earningType string, grossCents, feeCents int64, orderRef, productRef string) (*models.EarningRecord, error) {
	netCents := grossCents - feeCents
	if grossCents < 0 || feeCents < 0 || netCents < 0 {
		return nil, ErrInvalidAmounts
	}
	switch earningType {
	case domain.EarningTypeSale, domain.EarningTypeCommission, domain.EarningTypeBonus, domain.EarningTypeRefund:
	default:
		return nil, errors.New("unknown earning type")
	}
	artist, err := s.userRepo.GetByID(artistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownArtist
		}
		return nil, err
	}
	if !artist.IsArtist() {
		return nil, ErrUnknownArtist
	}
	holdDays := s.settingRepo.GetInt64(domain.SettingWithdrawalHoldDays, domain.WithdrawalHoldDays)
	now := time.Now()
	e := &models.EarningRecord{
		ArtistID:    artistID,
		OrderRef:    orderRef,
		ProductRef:  productRef,
		EarningType: earningType,
		GrossCents:  grossCents,
		FeeCents:    feeCents,
		NetCents:    netCents,
		Status:      domain.EarningStatusPending,
		AvailableAt: now.AddDate(0, 0, int(holdDays)),
	}
	if holdDays <= 0 {
		e.Status = domain.EarningStatusAvailable
		e.AvailableAt = now
	}
	if err := s.earningRepo.Create(e); err != nil {
		return nil, err
	}
	_ = s.notifSvc.NotifyEarningRecorded(artistID, e.ID, e.NetCents)
	return e, nil
}

func (s *EarningService) ListByArtist(artistID uint, limit, offset int) ([]models.EarningRecord, error) {
	return s.earningRepo.ListByArtist(artistID, limit, offset)
}
