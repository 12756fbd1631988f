package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/services"
)

// InvestmentHandler handles investment-related requests.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

// RecordInvestmentRequest represents the request payload for recording a purchase.
type RecordInvestmentRequest struct {
	Type         models.InvestmentType `json:"type" binding:"required,investment_type"`
	Name         string                `json:"name" binding:"required,min=1,max=100"`
	Amount       decimal.Decimal       `json:"amount" binding:"required,gt=0"`
	Quantity     *decimal.Decimal      `json:"quantity" binding:"omitempty,gt=0"`
	Symbol       string                `json:"symbol" binding:"max=20"`
	PurchaseDate string                `json:"purchase_date"`
}

// RecordInvestment records a holding together with the expense that paid for it.
// @Summary     Record an investment
// @Description Create an investment and its offsetting expense transaction atomically
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecordInvestmentRequest true "Investment details"
// @Success     201 {object} models.Investment "Investment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments [post]
func (h *InvestmentHandler) RecordInvestment(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	purchased, err := parseDate("purchase_date", req.PurchaseDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, expense, err := h.investmentService.RecordInvestment(ownerID, models.InvestmentInput{
		Type:         req.Type,
		Name:         req.Name,
		Amount:       req.Amount,
		Quantity:     req.Quantity,
		Symbol:       req.Symbol,
		PurchaseDate: purchased,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"investment": investment, "transaction": expense})
}

// GetInvestments lists the caller's holdings.
// @Summary     List investments
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Investment "Investments"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /investments [get]
func (h *InvestmentHandler) GetInvestments(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	investments, err := h.investmentService.GetOwnerInvestments(ownerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"investments": investments})
}

// DeleteInvestment removes a holding. Its purchase expense stays in the ledger.
// @Summary     Delete an investment
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} MessageResponse "Investment deleted"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Router      /investments/{id} [delete]
func (h *InvestmentHandler) DeleteInvestment(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.investmentService.DeleteInvestment(ownerID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Investment deleted successfully"})
}
