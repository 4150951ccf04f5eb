package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"tamasya/internal/models"

	"github.com/gin-gonic/gin"
)

// Review handlers

// CreateReview - POST /api/reviews
func (h *Handlers) CreateReview(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.services.Reviews.Create(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create review", "activity_id", req.ActivityID, "error", err)
		respondError(c, err, "Failed to create review")
		return
	}

	c.JSON(http.StatusCreated, review)
}

// RespondToReview - PATCH /api/reviews/:id/response
func (h *Handlers) RespondToReview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	var req models.SupplierResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.services.Reviews.SetSupplierResponse(c.Request.Context(), id, &req)
	if err != nil {
		slog.Error("Failed to set supplier response", "review_id", id, "error", err)
		respondError(c, err, "Failed to set supplier response")
		return
	}

	c.JSON(http.StatusOK, review)
}
