package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"budgetwise/internal/changefeed"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
)

// investmentService handles investment-related business logic.
type investmentService struct {
	db   *gorm.DB
	feed changefeed.Publisher
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB, feed changefeed.Publisher) InvestmentServicer {
	return &investmentService{db: db, feed: feed}
}

// RecordInvestment stores a purchase and the expense that pays for it in one
// database transaction. Either both rows persist or neither does.
func (s *investmentService) RecordInvestment(ownerID string, input models.InvestmentInput) (*models.Investment, *models.Transaction, error) {
	if ownerID == "" {
		return nil, nil, apperrors.ErrUnauthorized
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if !input.Amount.IsPositive() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.Quantity != nil && !input.Quantity.IsPositive() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be greater than zero")
	}
	switch input.Type {
	case models.InvestmentTypeSIP, models.InvestmentTypeStock, models.InvestmentTypeMutualFund,
		models.InvestmentTypeCrypto, models.InvestmentTypeOther:
	default:
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown investment type")
	}

	purchaseDate := input.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}
	purchaseDate = models.DateOf(purchaseDate)

	expense := &models.Transaction{
		OwnerID:     ownerID,
		Kind:        models.TransactionKindExpense,
		Amount:      input.Amount,
		Category:    models.InvestmentCategory,
		Description: "Investment: " + name,
		Date:        purchaseDate,
	}
	investment := &models.Investment{
		OwnerID:      ownerID,
		Type:         input.Type,
		Name:         name,
		Amount:       input.Amount,
		Quantity:     input.Quantity,
		Symbol:       strings.ToUpper(strings.TrimSpace(input.Symbol)),
		PurchaseDate: purchaseDate,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(expense).Error; txErr != nil {
			return txErr
		}
		investment.TransactionID = expense.ID
		return tx.Create(investment).Error
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	txRecord := *expense
	invRecord := *investment
	s.feed.Publish(models.ChangeEvent{
		Table:       models.TableTransactions,
		Kind:        models.ChangeInsert,
		OwnerID:     ownerID,
		ID:          expense.ID,
		Transaction: &txRecord,
	})
	s.feed.Publish(models.ChangeEvent{
		Table:      models.TableInvestments,
		Kind:       models.ChangeInsert,
		OwnerID:    ownerID,
		ID:         investment.ID,
		Investment: &invRecord,
	})
	return investment, expense, nil
}

// GetOwnerInvestments returns the owner's holdings, most recent purchase first.
func (s *investmentService) GetOwnerInvestments(ownerID string) ([]models.Investment, error) {
	investments := []models.Investment{}
	if err := s.db.Where("owner_id = ?", ownerID).
		Order("purchase_date DESC").Order("created_at DESC").Order("id ASC").
		Find(&investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return investments, nil
}

// DeleteInvestment removes the holding only; the expense recorded with it
// stays in the ledger.
func (s *investmentService) DeleteInvestment(ownerID, investmentID string) error {
	var investment models.Investment
	if err := s.db.Where("id = ? AND owner_id = ?", investmentID, ownerID).First(&investment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvestmentNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Delete(&investment).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.feed.Publish(models.ChangeEvent{
		Table:   models.TableInvestments,
		Kind:    models.ChangeDelete,
		OwnerID: ownerID,
		ID:      investment.ID,
	})
	return nil
}
