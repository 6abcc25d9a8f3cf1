package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kabeba2027/donations-backend/internal/services"
)

// AdminHandler serves the JWT-protected donation history endpoints
type AdminHandler struct {
	paymentService services.PaymentService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(paymentService services.PaymentService) *AdminHandler {
	return &AdminHandler{
		paymentService: paymentService,
	}
}

// ListDonations handles GET /api/admin/donations
func (h *AdminHandler) ListDonations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	donations, total, err := h.paymentService.ListDonations(c.Request.Context(), page, limit)
	if err != nil {
		if errors.Is(err, services.ErrArchiveDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"message": "Donation archive is not enabled on this deployment",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to list donations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"donations": donations,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}
