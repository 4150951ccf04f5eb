package handlers

import (
	"log/slog"
	"net/http"

	"tamasya/internal/models"

	"github.com/gin-gonic/gin"
)

// Booking handlers

// CreateBooking - POST /api/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Bookings.Create(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create booking", "error", err)
		respondError(c, err, "Failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetBooking - GET /api/bookings/:reference
func (h *Handlers) GetBooking(c *gin.Context) {
	response, err := h.services.Bookings.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err, "Failed to get booking")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ConfirmBooking - PATCH /api/bookings/:reference/confirm
func (h *Handlers) ConfirmBooking(c *gin.Context) {
	response, err := h.services.Bookings.Confirm(c.Request.Context(), c.Param("reference"))
	if err != nil {
		slog.Error("Failed to confirm booking", "reference", c.Param("reference"), "error", err)
		respondError(c, err, "Failed to confirm booking")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CancelBooking - PATCH /api/bookings/:reference/cancel
func (h *Handlers) CancelBooking(c *gin.Context) {
	var req models.CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	response, err := h.services.Bookings.Cancel(c.Request.Context(), c.Param("reference"), &req)
	if err != nil {
		slog.Error("Failed to cancel booking", "reference", c.Param("reference"), "error", err)
		respondError(c, err, "Failed to cancel booking")
		return
	}

	c.JSON(http.StatusOK, response)
}

// QuoteBooking - POST /api/bookings/quote
func (h *Handlers) QuoteBooking(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	breakdown, err := h.services.Bookings.Quote(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to quote booking")
		return
	}

	c.JSON(http.StatusOK, breakdown)
}
