package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridehub/ridehub-backend/internal/middleware"
	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/internal/services"
)

// PaymentHandler handles payment order and verification endpoints
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrder opens a gateway payment order for the passenger's priced
// booking. Safe to call twice: the open order is returned.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.payments.CreateOrder(c.Param("id"), userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// VerifyPayment settles a payment from the gateway callback fields
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	payment, err := h.payments.VerifyAndComplete(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified",
		"payment": payment,
	})
}
