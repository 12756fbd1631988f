// Package backend defines the CRUD and subscribe contract the client core
// uses to reach the hosted store, and an in-process implementation of it.
package backend

import (
	"context"
	"time"

	"budgetwise/internal/models"
)

// DateRange limits a transaction fetch to [From, To], both inclusive calendar
// dates. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Handler receives pushed change events.
type Handler func(models.ChangeEvent)

// Unsubscribe closes a push subscription. It returns once no further events
// will be delivered and is safe to call more than once. It must not be
// called from inside the Handler.
type Unsubscribe func()

// Backend is the remote store as seen by the client core.
type Backend interface {
	FetchTransactions(ctx context.Context, ownerID string, r *DateRange) ([]models.Transaction, error)
	InsertTransaction(ctx context.Context, ownerID string, input models.TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	ResetTransactions(ctx context.Context, ownerID string) (int64, error)

	FetchBudgets(ctx context.Context, ownerID string) ([]models.Budget, error)
	UpsertBudget(ctx context.Context, ownerID string, input models.BudgetInput) (*models.Budget, error)
	DeleteBudget(ctx context.Context, ownerID, id string) error

	FetchInvestments(ctx context.Context, ownerID string) ([]models.Investment, error)
	RecordInvestment(ctx context.Context, ownerID string, input models.InvestmentInput) (*models.Investment, *models.Transaction, error)
	DeleteInvestment(ctx context.Context, ownerID, id string) error

	// Subscribe delivers every change to the owner's rows, across all tables,
	// until the returned Unsubscribe is called or ctx is done.
	Subscribe(ctx context.Context, ownerID string, h Handler) (Unsubscribe, error)

	// RecordActivity appends to the audit trail. Callers treat failures as
	// non-fatal.
	RecordActivity(ctx context.Context, ownerID, activityType, description string) error
}
