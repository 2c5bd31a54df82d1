package repository

import (
	"time"

	"sanaa/internal/domain"
	"sanaa/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(t *models.WithdrawalTransaction) error {
	return r.db.Create(t).Error
}

// LatestByWithdrawal returns the most recent settlement attempt for a
// withdrawal.
func (r *TransactionRepository) LatestByWithdrawal(withdrawalID uint) (*models.WithdrawalTransaction, error) {
	var t models.WithdrawalTransaction
	err := r.db.Where("withdrawal_id = ?", withdrawalID).
		Order("created_at DESC, id DESC").First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) MarkProcessing(id uint) error {
	return r.db.Model(&models.WithdrawalTransaction{}).Where("id = ?", id).
		Update("status", domain.TxStatusProcessing).Error
}

func (r *TransactionRepository) MarkCompleted(id uint, externalTxID, providerResponse string, now time.Time) error {
	return r.db.Model(&models.WithdrawalTransaction{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":            domain.TxStatusCompleted,
			"external_tx_id":    externalTxID,
			"provider_response": providerResponse,
			"processed_at":      now,
		}).Error
}

func (r *TransactionRepository) MarkFailed(id uint, providerResponse string) error {
	return r.db.Model(&models.WithdrawalTransaction{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":            domain.TxStatusFailed,
			"provider_response": providerResponse,
		}).Error
}
