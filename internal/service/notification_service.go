package service

import (
	"encoding/json"
	"fmt"

	"sanaa/internal/domain"
	"sanaa/internal/models"
	"sanaa/internal/repository"
)

// NotificationService persists in-app notifications for withdrawal and
// earning events. Delivery (push, email) is out of scope; rows are read
// back through the notifications endpoints.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

func (s *NotificationService) NotifyWithdrawalApproved(artistID, withdrawalID uint, amountCents int64) error {
	return s.Notify(artistID, domain.NotifWithdrawalApproved, "Withdrawal approved",
		fmt.Sprintf("Your withdrawal of KES %d is being processed.", amountCents/100),
		map[string]interface{}{"withdrawal_id": withdrawalID, "amount_cents": amountCents})
}

func (s *NotificationService) NotifyWithdrawalRejected(artistID, withdrawalID uint, reason string) error {
	return s.Notify(artistID, domain.NotifWithdrawalRejected, "Withdrawal rejected",
		"Your withdrawal request was rejected: "+reason,
		map[string]interface{}{"withdrawal_id": withdrawalID})
}

func (s *NotificationService) NotifyWithdrawalCompleted(artistID, withdrawalID uint, amountCents int64) error {
	return s.Notify(artistID, domain.NotifWithdrawalCompleted, "Withdrawal sent",
		fmt.Sprintf("KES %d has been sent to your M-Pesa.", amountCents/100),
		map[string]interface{}{"withdrawal_id": withdrawalID, "amount_cents": amountCents})
}

func (s *NotificationService) NotifyWithdrawalFailed(artistID, withdrawalID uint, reason string) error {
	return s.Notify(artistID, domain.NotifWithdrawalFailed, "Withdrawal failed",
		"Your withdrawal could not be completed. Your balance is unaffected; you may submit a new request.",
		map[string]interface{}{"withdrawal_id": withdrawalID, "reason": reason})
}

func (s *NotificationService) NotifyEarningRecorded(artistID, earningID uint, netCents int64) error {
	return s.Notify(artistID, domain.NotifEarningRecorded, "New earning",
		fmt.Sprintf("You earned KES %d. It becomes withdrawable after the hold period.", netCents/100),
		map[string]interface{}{"earning_id": earningID, "net_cents": netCents})
}
