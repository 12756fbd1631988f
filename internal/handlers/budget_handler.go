package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	now           func() time.Time
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, now: time.Now}
}

// SaveBudget creates a budget, or edits it when the payload carries an id.
// @Summary     Save a budget
// @Description Create a spending cap for a category, or update an existing one
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body models.BudgetInput true "Budget details"
// @Success     200 {object} models.Budget "Budget saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [put]
func (h *BudgetHandler) SaveBudget(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req models.BudgetInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.SaveBudget(ownerID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudgets lists the caller's budgets.
// @Summary     List budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Budget "Budgets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.GetOwnerBudgets(ownerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// DeleteBudget removes a budget. Transactions in its category are untouched.
// @Summary     Delete a budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(ownerID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// GetBudgetUsage reports spending against a budget for its current period.
// @Summary     Get budget usage
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} usage.Usage "Usage"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/usage [get]
func (h *BudgetHandler) GetBudgetUsage(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	u, err := h.budgetService.GetBudgetUsage(ownerID, c.Param("id"), h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage": u})
}
