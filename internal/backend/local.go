package backend

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"budgetwise/internal/changefeed"
	"budgetwise/internal/models"
	"budgetwise/internal/services"
)

// Local serves the Backend contract in process, straight from the service
// layer and the change feed hub.
type Local struct {
	transactions services.TransactionServicer
	budgets      services.BudgetServicer
	investments  services.InvestmentServicer
	audit        services.AuditServicer
	hub          *changefeed.Hub
}

// NewLocal builds the services over db and publishes their changes on hub.
func NewLocal(db *gorm.DB, hub *changefeed.Hub) *Local {
	return &Local{
		transactions: services.NewTransactionService(db, hub),
		budgets:      services.NewBudgetService(db, hub),
		investments:  services.NewInvestmentService(db, hub),
		audit:        services.NewAuditService(db),
		hub:          hub,
	}
}

var _ Backend = (*Local)(nil)

// FetchTransactions implements Backend.
func (l *Local) FetchTransactions(ctx context.Context, ownerID string, r *DateRange) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var filter services.TransactionFilter
	if r != nil {
		if !r.From.IsZero() {
			from := r.From
			filter.From = &from
		}
		if !r.To.IsZero() {
			to := r.To
			filter.To = &to
		}
	}
	return l.transactions.GetOwnerTransactions(ownerID, filter)
}

// InsertTransaction implements Backend.
func (l *Local) InsertTransaction(ctx context.Context, ownerID string, input models.TransactionInput) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.transactions.CreateTransaction(ownerID, input)
}

// UpdateTransaction implements Backend.
func (l *Local) UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.transactions.UpdateTransaction(ownerID, id, patch)
}

// DeleteTransaction implements Backend.
func (l *Local) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.transactions.DeleteTransaction(ownerID, id)
}

// ResetTransactions implements Backend.
func (l *Local) ResetTransactions(ctx context.Context, ownerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.transactions.ResetTransactions(ownerID)
}

// FetchBudgets implements Backend.
func (l *Local) FetchBudgets(ctx context.Context, ownerID string) ([]models.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.budgets.GetOwnerBudgets(ownerID)
}

// UpsertBudget implements Backend.
func (l *Local) UpsertBudget(ctx context.Context, ownerID string, input models.BudgetInput) (*models.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.budgets.SaveBudget(ownerID, input)
}

// DeleteBudget implements Backend.
func (l *Local) DeleteBudget(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.budgets.DeleteBudget(ownerID, id)
}

// FetchInvestments implements Backend.
func (l *Local) FetchInvestments(ctx context.Context, ownerID string) ([]models.Investment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.investments.GetOwnerInvestments(ownerID)
}

// RecordInvestment implements Backend.
func (l *Local) RecordInvestment(ctx context.Context, ownerID string, input models.InvestmentInput) (*models.Investment, *models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return l.investments.RecordInvestment(ownerID, input)
}

// DeleteInvestment implements Backend.
func (l *Local) DeleteInvestment(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.investments.DeleteInvestment(ownerID, id)
}

// RecordActivity implements Backend. Storage errors are logged by the audit
// service and never returned.
func (l *Local) RecordActivity(ctx context.Context, ownerID, activityType, description string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.audit.Record(ownerID, activityType, description)
	return nil
}

// Subscribe implements Backend. Events are delivered on a dedicated goroutine
// in publish order.
func (l *Local) Subscribe(ctx context.Context, ownerID string, h Handler) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events, cancel := l.hub.Subscribe(ownerID)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				h(ev)
			case <-ctx.Done():
				cancel()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}
