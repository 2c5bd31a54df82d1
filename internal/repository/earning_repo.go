package repository

import (
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EarningRepository struct {
	db *gorm.DB
}

func NewEarningRepository(db *gorm.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *EarningRepository) WithTx(tx *gorm.DB) *EarningRepository {
	return &EarningRepository{db: tx}
}

func (r *EarningRepository) Create(e *models.EarningRecord) error {
	return r.db.Create(e).Error
}

func (r *EarningRepository) GetByID(id uint) (*models.EarningRecord, error) {
	var e models.EarningRecord
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ListAvailable returns the artist's withdrawable earnings, oldest first
// (FIFO consumption order). When running inside a settlement transaction on
// MySQL the rows are locked with FOR UPDATE so concurrent settlements
// cannot double-consume; SQLite serializes writers on its own.
func (r *EarningRepository) ListAvailable(artistID uint, now time.Time) ([]models.EarningRecord, error) {
	q := r.db.Where("artist_id = ? AND status = ? AND available_at <= ?",
		artistID, domain.EarningStatusAvailable, now).
		Order("created_at ASC, id ASC")
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var list []models.EarningRecord
	err := q.Find(&list).Error
	return list, err
}

func (r *EarningRepository) ListByArtist(artistID uint, limit, offset int) ([]models.EarningRecord, error) {
	var list []models.EarningRecord
	err := r.db.Where("artist_id = ?", artistID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// SumAvailable is the artist's available balance: net amounts of AVAILABLE
// earnings whose hold period has expired.
func (r *EarningRepository) SumAvailable(artistID uint, now time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&models.EarningRecord{}).
		Where("artist_id = ? AND status = ? AND available_at <= ?",
			artistID, domain.EarningStatusAvailable, now).
		Select("COALESCE(SUM(net_cents), 0)").Scan(&total).Error
	return total, err
}

// SumNetByStatus totals net amounts for one status, hold period ignored.
func (r *EarningRepository) SumNetByStatus(artistID uint, status string) (int64, error) {
	var total int64
	err := r.db.Model(&models.EarningRecord{}).
		Where("artist_id = ? AND status = ?", artistID, status).
		Select("COALESCE(SUM(net_cents), 0)").Scan(&total).Error
	return total, err
}

// NextAvailableAt returns the earliest hold expiry among PENDING earnings,
// or nil if there are none.
func (r *EarningRepository) NextAvailableAt(artistID uint) (*time.Time, error) {
	var e models.EarningRecord
	err := r.db.Where("artist_id = ? AND status = ?", artistID, domain.EarningStatusPending).
		Order("available_at ASC").First(&e).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &e.AvailableAt, nil
}

// ReleaseMatured flips PENDING earnings whose hold period has expired to
// AVAILABLE. Run by the balance read path so availability never needs a
// background job.
func (r *EarningRepository) ReleaseMatured(artistID uint, now time.Time) error {
	return r.db.Model(&models.EarningRecord{}).
		Where("artist_id = ? AND status = ? AND available_at <= ?",
			artistID, domain.EarningStatusPending, now).
		Update("status", domain.EarningStatusAvailable).Error
}

// MarkWithdrawn consumes a whole earning for the given withdrawal.
func (r *EarningRepository) MarkWithdrawn(id, withdrawalID uint, now time.Time) error {
	return r.db.Model(&models.EarningRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.EarningStatusWithdrawn,
			"withdrawal_id": withdrawalID,
			"withdrawn_at":  now,
		}).Error
}

// Save writes back a record whose amount fields were rewritten (split
// consumption).
func (r *EarningRepository) Save(e *models.EarningRecord) error {
	return r.db.Save(e).Error
}

// CountByWithdrawal reports how many earnings were already consumed by the
// given withdrawal; non-zero means consumption already ran.
func (r *EarningRepository) CountByWithdrawal(withdrawalID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.EarningRecord{}).
		Where("withdrawal_id = ?", withdrawalID).Count(&n).Error
	return n, err
}
