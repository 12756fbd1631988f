package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/export"
	"budgetwise/internal/models"
	"budgetwise/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	Kind        models.TransactionKind `json:"kind" binding:"required,transaction_kind"`
	Amount      decimal.Decimal        `json:"amount" binding:"required,gt=0"`
	Category    string                 `json:"category" binding:"required,min=1,max=100"`
	Description string                 `json:"description" binding:"max=500"`
	Date        string                 `json:"date"`
}

// UpdateTransactionRequest represents a partial update; omitted fields are kept.
type UpdateTransactionRequest struct {
	Kind        *models.TransactionKind `json:"kind" binding:"omitempty,transaction_kind"`
	Amount      *decimal.Decimal        `json:"amount" binding:"omitempty,gt=0"`
	Category    *string                 `json:"category" binding:"omitempty,min=1,max=100"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Date        *string                 `json:"date"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Add an income or expense entry to the caller's ledger
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(ownerID, models.TransactionInput{
		Kind:        req.Kind,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions lists the caller's ledger, newest first
// @Summary     List transactions
// @Description List transactions ordered by date descending, optionally filtered
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       from     query string false "Earliest date, inclusive (YYYY-MM-DD)"
// @Param       to       query string false "Latest date, inclusive (YYYY-MM-DD)"
// @Param       kind     query string false "income or expense"
// @Param       category query string false "Exact category"
// @Success     200 {array}  models.Transaction "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.GetOwnerTransactions(ownerID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// GetTransactionByID handles the retrieval of a single transaction
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(ownerID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction applies a partial edit
// @Summary     Update a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	patch := models.TransactionPatch{
		Kind:        req.Kind,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
		if date.IsZero() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date cannot be empty"))
			return
		}
		patch.Date = &date
	}

	transaction, err := h.transactionService.UpdateTransaction(ownerID, c.Param("id"), patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction removes a single transaction
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(ownerID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// ResetTransactions clears the caller's whole ledger
// @Summary     Reset the ledger
// @Description Delete every transaction the caller owns. Budgets and investments are kept.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64 "Number of deleted rows"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [delete]
func (h *TransactionHandler) ResetTransactions(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.transactionService.ResetTransactions(ownerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(ownerID, "ledger_reset", fmt.Sprintf("Deleted %d transactions", deleted))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ExportTransactions streams the filtered ledger as an Excel workbook
// @Summary     Export transactions
// @Tags        transactions
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       from query string false "Earliest date, inclusive (YYYY-MM-DD)"
// @Param       to   query string false "Latest date, inclusive (YYYY-MM-DD)"
// @Success     200 {file} file "Workbook"
// @Router      /transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.GetOwnerTransactions(ownerID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	workbook, err := export.Transactions(transactions)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer func() { _ = workbook.Close() }()

	filename := fmt.Sprintf("budgetwise_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := workbook.Write(c.Writer); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	h.auditService.Record(ownerID, "ledger_exported", fmt.Sprintf("Exported %d transactions", len(transactions)))
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	from, err := parseOptionalDate("from", c.Query("from"))
	if err != nil {
		return filter, err
	}
	to, err := parseOptionalDate("to", c.Query("to"))
	if err != nil {
		return filter, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from")
	}
	filter.From, filter.To = from, to

	if raw := strings.TrimSpace(c.Query("kind")); raw != "" {
		kind := models.TransactionKind(strings.ToLower(raw))
		if !kind.Valid() {
			return filter, apperrors.ErrInvalidTransactionKind
		}
		filter.Kind = &kind
	}
	filter.Category = strings.TrimSpace(c.Query("category"))
	return filter, nil
}
