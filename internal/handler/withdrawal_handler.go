package handler

import (
	"errors"
	"net/http"
	"strconv"

	"sanaa/internal/middleware"
	"sanaa/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	balanceSvc    *service.BalanceService
	withdrawalSvc *service.WithdrawalService
}

func NewWithdrawalHandler(balanceSvc *service.BalanceService, withdrawalSvc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{balanceSvc: balanceSvc, withdrawalSvc: withdrawalSvc}
}

// GetSummary handles GET /me/withdrawals/summary.
func (h *WithdrawalHandler) GetSummary(c *gin.Context) {
	artistID := middleware.GetUserID(c)
	summary, err := h.balanceSvc.GetSummary(artistID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute balance"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Create handles POST /me/withdrawals — artist requests a payout.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	artistID := middleware.GetUserID(c)
	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
		MpesaPhone  string `json:"mpesa_phone" binding:"required"`
		Notes       string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.withdrawalSvc.CreateRequest(artistID, req.AmountCents, req.MpesaPhone, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBelowMinimum),
			errors.Is(err, service.ErrInsufficientBalance),
			errors.Is(err, service.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create withdrawal request"})
		}
		return
	}
	c.JSON(http.StatusCreated, w)
}

// List handles GET /me/withdrawals — the artist's request history.
func (h *WithdrawalHandler) List(c *gin.Context) {
	artistID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	list, err := h.withdrawalSvc.ListByArtist(artistID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "page": page, "limit": limit})
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
