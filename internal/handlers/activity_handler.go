package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/pagination"
	"budgetwise/internal/services"
)

// ActivityHandler exposes the audit trail.
type ActivityHandler struct {
	auditService services.AuditServicer
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(auditService services.AuditServicer) *ActivityHandler {
	return &ActivityHandler{auditService: auditService}
}

// RecordActivityRequest is a client-reported action.
type RecordActivityRequest struct {
	ActivityType string `json:"activity_type" binding:"required,min=1,max=50"`
	Description  string `json:"description" binding:"max=500"`
}

// RecordActivity appends an entry to the caller's audit trail. Recording is
// best effort, so the endpoint acknowledges even if the write is dropped.
// @Summary     Record activity
// @Tags        activity
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecordActivityRequest true "Activity"
// @Success     202 {object} MessageResponse "Accepted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /activity [post]
func (h *ActivityHandler) RecordActivity(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	h.auditService.Record(ownerID, req.ActivityType, req.Description)
	c.JSON(http.StatusAccepted, gin.H{"message": "Activity recorded"})
}

// GetActivity lists the caller's audit trail, newest first.
// @Summary     List activity
// @Tags        activity
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ActivityLog] "Paginated activity"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /activity [get]
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.auditService.List(ownerID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
