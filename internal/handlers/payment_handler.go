package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kabeba2027/donations-backend/internal/models"
	"github.com/kabeba2027/donations-backend/internal/repositories"
	"github.com/kabeba2027/donations-backend/internal/services"
	"github.com/kabeba2027/donations-backend/pkg/daraja"
)

// callbackAck is the fixed acknowledgment the provider expects. It is
// returned unconditionally; anything else triggers provider-side
// retries.
var callbackAck = gin.H{"ResultCode": 0, "ResultDesc": "Accepted"}

// PaymentHandler handles donation payment HTTP requests
type PaymentHandler struct {
	paymentService services.PaymentService
	environment    string
	log            *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService services.PaymentService, environment string, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		environment:    environment,
		log:            log,
	}
}

// InitiateSTKPush handles POST /api/mpesa/stkpush
func (h *PaymentHandler) InitiateSTKPush(c *gin.Context) {
	var req models.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Amount and phone number are required",
		})
		return
	}

	result, err := h.paymentService.InitiateDonation(c.Request.Context(), &req)
	if err != nil {
		h.respondInitiateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"checkoutRequestId": result.CheckoutRequestID,
		"message":           result.CustomerMessage,
	})
}

// respondInitiateError maps the error taxonomy onto HTTP responses:
// validation → 400 before any gateway contact, auth → generic 503,
// gateway rejection → provider description when available.
func (h *PaymentHandler) respondInitiateError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": validationErr.Message,
		})
		return
	}

	var authErr *daraja.AuthError
	if errors.As(err, &authErr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "Payment service is currently unavailable",
		})
		return
	}

	var gatewayErr *daraja.GatewayError
	if errors.As(err, &gatewayErr) && gatewayErr.Description != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": gatewayErr.Description,
		})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{
		"success": false,
		"message": "Failed to process payment request",
	})
}

// Callback handles POST /api/mpesa/callback. The provider calls this
// endpoint unauthenticated, so every field is untrusted; a malformed
// body is logged and still acknowledged.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var envelope models.CallbackEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.log.WithError(err).Warn("Malformed M-Pesa callback body")
		c.JSON(http.StatusOK, callbackAck)
		return
	}

	stkCallback := envelope.Body.STKCallback
	if stkCallback.CheckoutRequestID == "" {
		h.log.Warn("M-Pesa callback without CheckoutRequestID")
		c.JSON(http.StatusOK, callbackAck)
		return
	}

	h.paymentService.ProcessCallback(c.Request.Context(), &stkCallback)
	c.JSON(http.StatusOK, callbackAck)
}

// GetStatus handles GET /api/mpesa/status/:checkoutRequestId
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	checkoutRequestID := c.Param("checkoutRequestId")

	txn, err := h.paymentService.GetStatus(c.Request.Context(), checkoutRequestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Transaction not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to check payment status",
		})
		return
	}

	response := gin.H{
		"success":           true,
		"status":            txn.Status,
		"checkoutRequestId": txn.CheckoutRequestID,
		"amount":            txn.Amount,
		"phoneNumber":       txn.PhoneNumber,
		"timestamp":         txn.CreatedAt,
	}
	if txn.Status == models.StatusCompleted {
		response["mpesaReceiptNumber"] = txn.ReceiptNumber
		response["completedAt"] = txn.CompletedAt
	}
	if txn.Status == models.StatusFailed {
		response["failureReason"] = txn.FailureReason
		response["failedAt"] = txn.FailedAt
	}

	c.JSON(http.StatusOK, response)
}

// Query handles POST /api/mpesa/query
func (h *PaymentHandler) Query(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CheckoutRequestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "CheckoutRequestID is required",
		})
		return
	}

	payload, err := h.paymentService.QueryGateway(c.Request.Context(), req.CheckoutRequestID)
	if err != nil {
		h.log.WithError(err).Error("STK push status query failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "Failed to query payment status",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payload,
	})
}

// HealthCheck handles GET /api/health
func (h *PaymentHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "M-Pesa API server is running",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"environment":        h.environment,
		"activeTransactions": h.paymentService.ActiveCount(),
	})
}
