package handlers

import (
	"log/slog"
	"net/http"

	"tamasya/internal/models"

	"github.com/gin-gonic/gin"
)

// Payment handlers

// CreatePaymentIntent - POST /api/bookings/:reference/payment-intent
func (h *Handlers) CreatePaymentIntent(c *gin.Context) {
	var req models.CreatePaymentIntentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	response, err := h.services.Payments.CreateIntent(c.Request.Context(), c.Param("reference"), &req)
	if err != nil {
		slog.Error("Failed to create payment intent", "reference", c.Param("reference"), "error", err)
		respondError(c, err, "Failed to create payment intent")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ConfirmPayment - POST /api/payments/confirm
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Payments.ConfirmPayment(c.Request.Context(), &req); err != nil {
		slog.Error("Failed to confirm payment", "intent_id", req.IntentID, "error", err)
		respondError(c, err, "Failed to confirm payment")
		return
	}

	c.Status(http.StatusOK)
}

// HandleWebhook - POST /api/payments/webhook
// Signature verification happens upstream; this endpoint must acknowledge
// unknown event types with 200 so the processor stops retrying them.
func (h *Handlers) HandleWebhook(c *gin.Context) {
	var event models.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Payments.HandleWebhookEvent(c.Request.Context(), &event); err != nil {
		slog.Error("Failed to process webhook event", "event_id", event.ID, "type", event.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ProcessRefund - POST /api/bookings/:reference/refund
func (h *Handlers) ProcessRefund(c *gin.Context) {
	var req models.ProcessRefundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	payment, err := h.services.Payments.ProcessRefund(c.Request.Context(), c.Param("reference"), &req)
	if err != nil {
		slog.Error("Failed to process refund", "reference", c.Param("reference"), "error", err)
		respondError(c, err, "Failed to process refund")
		return
	}

	c.JSON(http.StatusOK, payment)
}
