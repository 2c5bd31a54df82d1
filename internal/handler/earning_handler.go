package handler

import (
	"net/http"

	"sanaa/internal/middleware"
	"sanaa/internal/service"

	"github.com/gin-gonic/gin"
)

type EarningHandler struct {
	earningSvc *service.EarningService
}

func NewEarningHandler(earningSvc *service.EarningService) *EarningHandler {
	return &EarningHandler{earningSvc: earningSvc}
}

// List handles GET /me/earnings — the artist's earning ledger, newest first.
func (h *EarningHandler) List(c *gin.Context) {
	artistID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	list, err := h.earningSvc.ListByArtist(artistID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list earnings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "page": page, "limit": limit})
}
