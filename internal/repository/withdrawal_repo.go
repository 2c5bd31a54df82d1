package repository

import (
	"errors"
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"

	"gorm.io/gorm"
)

// ErrInvalidTransition means a guarded status update matched no row: the
// request was not in the expected state (already reviewed, settled, or
// raced by a concurrent transition).
var ErrInvalidTransition = errors.New("withdrawal not in expected status")

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

func (r *WithdrawalRepository) Create(w *models.WithdrawalRequest) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByReference(reference string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.Where("reference = ?", reference).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) ListByArtist(artistID uint, limit, offset int) ([]models.WithdrawalRequest, error) {
	var list []models.WithdrawalRequest
	err := r.db.Where("artist_id = ?", artistID).
		Order("requested_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ListByStatus returns the admin review queue, oldest request first.
func (r *WithdrawalRepository) ListByStatus(status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	var list []models.WithdrawalRequest
	q := r.db.Order("requested_at ASC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&list).Error
	return list, err
}

// SumAmountByStatuses totals request amounts across the given statuses
// (pending+approved = in-flight, completed = total withdrawn).
func (r *WithdrawalRepository) SumAmountByStatuses(artistID uint, statuses ...string) (int64, error) {
	var total int64
	err := r.db.Model(&models.WithdrawalRequest{}).
		Where("artist_id = ? AND status IN ?", artistID, statuses).
		Select("COALESCE(SUM(amount_cents), 0)").Scan(&total).Error
	return total, err
}

// guarded transitions: each UPDATE matches only the expected current
// status, so terminal states are monotonic and races surface as
// ErrInvalidTransition.

func (r *WithdrawalRepository) MarkApproved(id, adminID uint, notes string, now time.Time) error {
	return r.transition(id, domain.WithdrawalStatusPending, map[string]interface{}{
		"status":      domain.WithdrawalStatusApproved,
		"reviewed_by": adminID,
		"reviewed_at": now,
		"admin_notes": notes,
	})
}

func (r *WithdrawalRepository) MarkRejected(id, adminID uint, reason string, now time.Time) error {
	return r.transition(id, domain.WithdrawalStatusPending, map[string]interface{}{
		"status":         domain.WithdrawalStatusRejected,
		"reviewed_by":    adminID,
		"reviewed_at":    now,
		"failure_reason": reason,
	})
}

func (r *WithdrawalRepository) MarkCompleted(id uint, transactionRef string, now time.Time) error {
	return r.transition(id, domain.WithdrawalStatusApproved, map[string]interface{}{
		"status":          domain.WithdrawalStatusCompleted,
		"completed_at":    now,
		"transaction_ref": transactionRef,
	})
}

func (r *WithdrawalRepository) MarkFailed(id uint, reason string) error {
	return r.transition(id, domain.WithdrawalStatusApproved, map[string]interface{}{
		"status":         domain.WithdrawalStatusFailed,
		"failure_reason": reason,
	})
}

func (r *WithdrawalRepository) transition(id uint, fromStatus string, updates map[string]interface{}) error {
	res := r.db.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}
