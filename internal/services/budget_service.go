package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgetwise/internal/changefeed"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/usage"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db   *gorm.DB
	feed changefeed.Publisher
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, feed changefeed.Publisher) BudgetServicer {
	return &budgetService{db: db, feed: feed}
}

// SaveBudget creates a budget when input.ID is empty, otherwise edits the
// existing one in place.
func (s *budgetService) SaveBudget(ownerID string, input models.BudgetInput) (*models.Budget, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if input.Limit.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must not be negative")
	}
	if input.Period != models.BudgetPeriodMonthly && input.Period != models.BudgetPeriodYearly {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be 'monthly' or 'yearly'")
	}

	kind := models.ChangeInsert
	budget := &models.Budget{OwnerID: ownerID}
	if input.ID != "" {
		existing, err := s.GetBudgetByID(ownerID, input.ID)
		if err != nil {
			return nil, err
		}
		budget = existing
		kind = models.ChangeUpdate
	}
	budget.Category = category
	budget.Limit = input.Limit
	budget.Period = input.Period

	if err := s.db.Save(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	record := *budget
	s.feed.Publish(models.ChangeEvent{
		Table:   models.TableBudgets,
		Kind:    kind,
		OwnerID: ownerID,
		ID:      budget.ID,
		Budget:  &record,
	})
	return budget, nil
}

// GetOwnerBudgets returns all budgets of the owner ordered by category.
func (s *budgetService) GetOwnerBudgets(ownerID string) ([]models.Budget, error) {
	budgets := []models.Budget{}
	if err := s.db.Where("owner_id = ?", ownerID).Order("category ASC").Order("id ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the owner.
func (s *budgetService) GetBudgetByID(ownerID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND owner_id = ?", budgetID, ownerID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// DeleteBudget removes a budget. Transactions in its category are untouched.
func (s *budgetService) DeleteBudget(ownerID, budgetID string) error {
	budget, err := s.GetBudgetByID(ownerID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.feed.Publish(models.ChangeEvent{
		Table:   models.TableBudgets,
		Kind:    models.ChangeDelete,
		OwnerID: ownerID,
		ID:      budget.ID,
	})
	return nil
}

// GetBudgetUsage calculates spending vs budget for the period containing now.
func (s *budgetService) GetBudgetUsage(ownerID, budgetID string, now time.Time) (*usage.Usage, error) {
	budget, err := s.GetBudgetByID(ownerID, budgetID)
	if err != nil {
		return nil, err
	}

	from, to := usage.Window(budget.Period, now)

	// Sum expense transactions for this category within the period
	var amounts []decimal.Decimal
	err = s.db.Model(&models.Transaction{}).
		Where("owner_id = ? AND category = ? AND kind = ? AND date >= ? AND date < ?",
			ownerID, budget.Category, models.TransactionKindExpense, from, to).
		Pluck("amount", &amounts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	used := decimal.Sum(decimal.Zero, amounts...)
	result := usage.Compute(*budget, used)
	return &result, nil
}
