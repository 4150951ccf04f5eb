package handlers

import (
	"errors"
	"net/http"
	"strconv"

	apperrors "tamasya/internal/errors"
	"tamasya/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		services: services,
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Business
// rejections keep their message and code; system faults hide details.
func respondError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if be, ok := apperrors.AsBusiness(err); ok {
		status := http.StatusConflict
		switch be.Code {
		case apperrors.CodeGroupSizeOutOfBounds, apperrors.CodeRefundTooLarge, apperrors.CodeUnsupportedCurrency:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": be.Message, "code": be.Code})
		return
	}
	if apperrors.IsIntegration(err) {
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

// Activity handlers

// ListActivities - GET /api/activities
func (h *Handlers) ListActivities(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	response, err := h.services.Activities.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err, "Failed to list activities")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetActivity - GET /api/activities/:id
func (h *Handlers) GetActivity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity id"})
		return
	}

	activity, err := h.services.Activities.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get activity")
		return
	}

	c.JSON(http.StatusOK, activity)
}

// ListActivitySlots - GET /api/activities/:id/slots
func (h *Handlers) ListActivitySlots(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity id"})
		return
	}

	slots, err := h.services.Activities.ListOpenSlots(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to list slots")
		return
	}

	c.JSON(http.StatusOK, slots)
}
