package handler

import (
	"errors"
	"net/http"
	"strconv"

	"sanaa/internal/middleware"
	"sanaa/internal/repository"
	"sanaa/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	withdrawalRepo *repository.WithdrawalRepository
	settingRepo    *repository.SettingRepository
	balanceSvc     *service.BalanceService
	settlementSvc  *service.SettlementService
	earningSvc     *service.EarningService
}

func NewAdminHandler(
	withdrawalRepo *repository.WithdrawalRepository,
	settingRepo *repository.SettingRepository,
	balanceSvc *service.BalanceService,
	settlementSvc *service.SettlementService,
	earningSvc *service.EarningService,
) *AdminHandler {
	return &AdminHandler{
		withdrawalRepo: withdrawalRepo,
		settingRepo:    settingRepo,
		balanceSvc:     balanceSvc,
		settlementSvc:  settlementSvc,
		earningSvc:     earningSvc,
	}
}

// ListWithdrawals handles GET /admin/withdrawals?status= — the review
// queue, oldest request first.
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := c.Query("status")
	page, limit := parsePagination(c)
	list, err := h.withdrawalRepo.ListByStatus(status, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "page": page, "limit": limit})
}

// GetWithdrawal handles GET /admin/withdrawals/:id.
func (h *AdminHandler) GetWithdrawal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	w, err := h.withdrawalRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// ApproveWithdrawal handles POST /admin/withdrawals/:id/approve — approves
// a pending request and runs settlement immediately. The response carries
// the post-settlement state (COMPLETED or FAILED).
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)
	adminID := middleware.GetUserID(c)
	w, err := h.settlementSvc.Approve(c.Request.Context(), uint(id), adminID, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal is not pending"})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "approval failed"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// RejectWithdrawal handles POST /admin/withdrawals/:id/reject.
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.settlementSvc.Reject(uint(id), middleware.GetUserID(c), req.Reason)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal is not pending"})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rejection failed"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// RecordEarning handles POST /admin/earnings — records an earning on
// behalf of the sale/commission pipeline.
func (h *AdminHandler) RecordEarning(c *gin.Context) {
	var req struct {
		ArtistID    uint   `json:"artist_id" binding:"required"`
		EarningType string `json:"earning_type" binding:"required"`
		GrossCents  int64  `json:"gross_cents" binding:"required,min=1"`
		FeeCents    int64  `json:"fee_cents"`
		OrderRef    string `json:"order_ref"`
		ProductRef  string `json:"product_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.earningSvc.Record(req.ArtistID, req.EarningType, req.GrossCents, req.FeeCents, req.OrderRef, req.ProductRef)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmounts), errors.Is(err, service.ErrUnknownArtist):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record earning"})
		}
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GetArtistSummary handles GET /admin/artists/:id/summary.
func (h *AdminHandler) GetArtistSummary(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	summary, err := h.balanceSvc.GetSummary(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute balance"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListSettings handles GET /admin/settings.
func (h *AdminHandler) ListSettings(c *gin.Context) {
	list, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// UpdateSetting handles PUT /admin/settings.
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settingRepo.Set(req.Key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": req.Value})
}
