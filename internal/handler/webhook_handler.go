package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"sanaa/internal/service"

	"github.com/gin-gonic/gin"
)

// B2CCallback is the webhook payload from the M-Pesa B2C gateway.
type B2CCallback struct {
	Amount                   string `json:"amount"`
	ConversationID           string `json:"conversation_id"`
	Currency                 string `json:"currency"`
	CustomerPhone            string `json:"customer_phone"`
	MerchantOrderID          string `json:"merchant_order_id"`
	OrderID                  string `json:"order_id"`
	OriginatorConversationID string `json:"originator_conversation_id"`
	ReceiptNumber            string `json:"receipt_number"`
	ReferenceOrderID         string `json:"reference_order_id"`
	Status                   string `json:"status"`
	StatusCode               string `json:"status_code"`
	StatusDescription        string `json:"status_description"`
	TransactionDate          string `json:"transaction_date"`
	TransactionUUID          string `json:"transaction_uuid"`
}

type WithdrawalWebhookHandler struct {
	settlementSvc *service.SettlementService
}

func NewWithdrawalWebhookHandler(settlementSvc *service.SettlementService) *WithdrawalWebhookHandler {
	return &WithdrawalWebhookHandler{settlementSvc: settlementSvc}
}

// Handle processes the async B2C callback. Settlement normally completes
// synchronously; this path reconciles requests stuck in APPROVED when the
// process died between the gateway call and the ledger update. Replays are
// safe because earnings consumption is idempotent per withdrawal.
func (h *WithdrawalWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var payload B2CCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Withdrawal callback] json unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	reference := payload.MerchantOrderID
	if reference == "" {
		reference = payload.OrderID
	}
	if reference == "" {
		reference = payload.ReferenceOrderID
	}
	if reference == "" {
		log.Printf("[Withdrawal callback] no order id in payload")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	success := payload.Status == "COMPLETED"
	err = h.settlementSvc.FinalizeFromCallback(reference, success,
		payload.TransactionUUID, string(body), payload.StatusDescription)
	if err != nil {
		// the gateway retries on non-2xx; a missing withdrawal is not
		// worth a retry storm
		log.Printf("[Withdrawal callback] reconcile %s failed: %v", reference, err)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
