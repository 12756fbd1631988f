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

// transactionService handles transaction-related business logic.
type transactionService struct {
	db   *gorm.DB
	feed changefeed.Publisher
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, feed changefeed.Publisher) TransactionServicer {
	return &transactionService{db: db, feed: feed}
}

// CreateTransaction records a new income or expense for the owner.
func (s *transactionService) CreateTransaction(ownerID string, input models.TransactionInput) (*models.Transaction, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if !input.Kind.Valid() {
		return nil, apperrors.ErrInvalidTransactionKind
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	// Default date to today if not provided
	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		OwnerID:     ownerID,
		Kind:        input.Kind,
		Amount:      input.Amount,
		Category:    category,
		Description: input.Description,
		Date:        models.DateOf(date),
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.publish(models.ChangeInsert, transaction)
	return transaction, nil
}

// GetOwnerTransactions lists the owner's transactions, newest date first.
func (s *transactionService) GetOwnerTransactions(ownerID string, filter TransactionFilter) ([]models.Transaction, error) {
	q := s.db.Model(&models.Transaction{}).Where("owner_id = ?", ownerID)
	q = applyTransactionFilters(q, filter)

	var transactions []models.Transaction
	if err := q.Order("date DESC").Order("created_at DESC").Order("id ASC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	return transactions, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.From != nil {
		q = q.Where("date >= ?", models.DateOf(*f.From))
	}
	if f.To != nil {
		q = q.Where("date < ?", models.DateOf(*f.To).AddDate(0, 0, 1))
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", *f.Kind)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific owner
func (s *transactionService) GetTransactionByID(ownerID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND owner_id = ?", transactionID, ownerID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies a partial update and returns the stored record.
func (s *transactionService) UpdateTransaction(ownerID, transactionID string, patch models.TransactionPatch) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(ownerID, transactionID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return transaction, nil
	}

	if patch.Kind != nil {
		if !patch.Kind.Valid() {
			return nil, apperrors.ErrInvalidTransactionKind
		}
		transaction.Kind = *patch.Kind
	}
	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		transaction.Amount = *patch.Amount
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
		}
		transaction.Category = category
	}
	if patch.Description != nil {
		transaction.Description = *patch.Description
	}
	if patch.Date != nil {
		transaction.Date = models.DateOf(*patch.Date)
	}

	if err := s.db.Save(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.publish(models.ChangeUpdate, transaction)
	return transaction, nil
}

// DeleteTransaction removes a single transaction.
func (s *transactionService) DeleteTransaction(ownerID, transactionID string) error {
	transaction, err := s.GetTransactionByID(ownerID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.feed.Publish(models.ChangeEvent{
		Table:   models.TableTransactions,
		Kind:    models.ChangeDelete,
		OwnerID: ownerID,
		ID:      transaction.ID,
	})
	return nil
}

// ResetTransactions deletes the owner's whole ledger and returns the number of
// rows removed. A delete event is published for every removed row.
func (s *transactionService) ResetTransactions(ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, apperrors.ErrUnauthorized
	}

	var ids []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("owner_id = ? AND id IN ?", ownerID, ids).Delete(&models.Transaction{}).Error
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, id := range ids {
		s.feed.Publish(models.ChangeEvent{
			Table:   models.TableTransactions,
			Kind:    models.ChangeDelete,
			OwnerID: ownerID,
			ID:      id,
		})
	}
	return int64(len(ids)), nil
}

func (s *transactionService) publish(kind models.ChangeKind, t *models.Transaction) {
	record := *t
	s.feed.Publish(models.ChangeEvent{
		Table:       models.TableTransactions,
		Kind:        kind,
		OwnerID:     t.OwnerID,
		ID:          t.ID,
		Transaction: &record,
	})
}
