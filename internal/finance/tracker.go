// Package finance is the client-side facade over the ledger, budgets and
// investments: it validates input, performs writes against the backend,
// applies confirmed results and exposes the derived figures.
package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"budgetwise/internal/aggregate"
	"budgetwise/internal/backend"
	"budgetwise/internal/currency"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/ledger"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
	"budgetwise/internal/syncer"
	"budgetwise/internal/usage"
	appvalidator "budgetwise/internal/validator"
)

// ErrSignedOut is returned by mutations when no owner is signed in.
var ErrSignedOut = apperrors.WithMessage(apperrors.ErrUnauthorized, "Sign in to continue")

// activityTimeout bounds a best-effort audit write.
const activityTimeout = 5 * time.Second

// Options configure a Tracker.
type Options struct {
	Interval time.Duration
	Now      func() time.Time
	OnNotice func(Notice)
	OnChange func()
}

// Tracker composes the ledger store, reconciler, currency preference,
// aggregation engine and sync scheduler for one signed-in owner at a time.
type Tracker struct {
	backend  backend.Backend
	rec      *ledger.Reconciler
	pref     *currency.Preference
	engine   *aggregate.Engine
	sched    *syncer.Scheduler
	validate *validator.Validate
	now      func() time.Time
	onNotice func(Notice)
	onChange func()
	log      *zap.SugaredLogger

	activity  sync.WaitGroup
	unsubPref func()
}

// New wires a Tracker around b. pref supplies and persists the display currency.
func New(b backend.Backend, pref *currency.Preference, opts Options) *Tracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rec := ledger.NewReconciler(ledger.NewStore())
	t := &Tracker{
		backend:  b,
		rec:      rec,
		pref:     pref,
		engine:   aggregate.NewEngine(rec.Store(), pref),
		validate: appvalidator.New(),
		now:      opts.Now,
		onNotice: opts.OnNotice,
		onChange: opts.OnChange,
		log:      logger.Named("finance"),
	}
	t.sched = syncer.New(b, rec, syncer.Options{
		Interval: opts.Interval,
		OnChange: t.changed,
		OnFetchError: func(error) {
			t.notify(NoticeFailure, actionLoad, actionLoad.failure)
		},
	})
	t.unsubPref = pref.Subscribe(func(currency.Selection) { t.changed() })
	return t
}

// SignIn starts syncing owner's data. The initial fetch error is returned but
// syncing continues and retries on the polling cadence.
func (t *Tracker) SignIn(ctx context.Context, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrSignedOut
	}
	return t.sched.SetOwner(ctx, ownerID)
}

// SignOut stops syncing and clears all held data.
func (t *Tracker) SignOut() {
	t.sched.Stop()
	t.changed()
}

// Close signs out and waits for pending audit writes.
func (t *Tracker) Close() {
	t.SignOut()
	t.unsubPref()
	t.activity.Wait()
}

// Owner returns the signed-in owner, or "".
func (t *Tracker) Owner() string { return t.sched.Owner() }

// State returns the sync state.
func (t *Tracker) State() syncer.State { return t.sched.State() }

// Refresh refetches everything for the signed-in owner.
func (t *Tracker) Refresh() error { return t.sched.Refresh() }

// SetDateRange filters the ledger to [from, to] and refetches. Zero bounds are open.
func (t *Tracker) SetDateRange(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "end date is before start date")
	}
	if from.IsZero() && to.IsZero() {
		return t.sched.SetDateRange(nil)
	}
	return t.sched.SetDateRange(&backend.DateRange{From: from, To: to})
}

// AddTransaction validates input, inserts it and applies the stored record.
func (t *Tracker) AddTransaction(ctx context.Context, input models.TransactionInput) (*models.Transaction, error) {
	owner, err := t.begin(actionAddTransaction, input)
	if err != nil {
		return nil, err
	}
	tx, err := t.backend.InsertTransaction(ctx, owner, input)
	if err != nil {
		return nil, t.fail(actionAddTransaction, err)
	}
	if t.rec.ApplyConfirmed(*tx) {
		t.changed()
	}
	t.succeed(ctx, owner, actionAddTransaction, fmt.Sprintf("Added %s %s in %s", tx.Kind, tx.Amount.StringFixed(2), tx.Category))
	return tx, nil
}

// UpdateTransaction applies a partial edit.
func (t *Tracker) UpdateTransaction(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	owner, err := t.begin(actionUpdateTransaction, patch)
	if err != nil {
		return nil, err
	}
	tx, err := t.backend.UpdateTransaction(ctx, owner, id, patch)
	if err != nil {
		return nil, t.fail(actionUpdateTransaction, err)
	}
	if t.rec.ApplyConfirmed(*tx) {
		t.changed()
	}
	t.succeed(ctx, owner, actionUpdateTransaction, fmt.Sprintf("Updated transaction in %s", tx.Category))
	return tx, nil
}

// DeleteTransaction removes one transaction.
func (t *Tracker) DeleteTransaction(ctx context.Context, id string) error {
	owner, err := t.begin(actionDeleteTransaction, nil)
	if err != nil {
		return err
	}
	if err := t.backend.DeleteTransaction(ctx, owner, id); err != nil {
		return t.fail(actionDeleteTransaction, err)
	}
	if t.rec.ApplyConfirmedDelete(id) {
		t.changed()
	}
	t.succeed(ctx, owner, actionDeleteTransaction, "Deleted a transaction")
	return nil
}

// ResetLedger deletes every transaction of the signed-in owner.
func (t *Tracker) ResetLedger(ctx context.Context) (int64, error) {
	owner, err := t.begin(actionResetLedger, nil)
	if err != nil {
		return 0, err
	}
	n, err := t.backend.ResetTransactions(ctx, owner)
	if err != nil {
		return 0, t.fail(actionResetLedger, err)
	}
	t.rec.ApplyConfirmedReset()
	t.changed()
	t.succeed(ctx, owner, actionResetLedger, fmt.Sprintf("Removed %d transactions", n))
	return n, nil
}

// SaveBudget creates or edits a budget.
func (t *Tracker) SaveBudget(ctx context.Context, input models.BudgetInput) (*models.Budget, error) {
	owner, err := t.begin(actionSaveBudget, input)
	if err != nil {
		return nil, err
	}
	b, err := t.backend.UpsertBudget(ctx, owner, input)
	if err != nil {
		return nil, t.fail(actionSaveBudget, err)
	}
	t.rec.ApplyConfirmedBudget(*b)
	t.changed()
	t.succeed(ctx, owner, actionSaveBudget, fmt.Sprintf("Saved %s budget for %s", b.Period, b.Category))
	return b, nil
}

// DeleteBudget removes a budget. Its category's transactions are untouched.
func (t *Tracker) DeleteBudget(ctx context.Context, id string) error {
	owner, err := t.begin(actionDeleteBudget, nil)
	if err != nil {
		return err
	}
	if err := t.backend.DeleteBudget(ctx, owner, id); err != nil {
		return t.fail(actionDeleteBudget, err)
	}
	t.rec.ApplyConfirmedBudgetDelete(id)
	t.changed()
	t.succeed(ctx, owner, actionDeleteBudget, "Deleted a budget")
	return nil
}

// RecordInvestment stores a purchase and its offsetting expense as one unit.
func (t *Tracker) RecordInvestment(ctx context.Context, input models.InvestmentInput) (*models.Investment, *models.Transaction, error) {
	owner, err := t.begin(actionRecordInvestment, input)
	if err != nil {
		return nil, nil, err
	}
	inv, tx, err := t.backend.RecordInvestment(ctx, owner, input)
	if err != nil {
		return nil, nil, t.fail(actionRecordInvestment, err)
	}
	t.rec.ApplyConfirmed(*tx)
	t.rec.ApplyConfirmedInvestment(*inv)
	t.changed()
	t.succeed(ctx, owner, actionRecordInvestment, fmt.Sprintf("Invested %s in %s", inv.Amount.StringFixed(2), inv.Name))
	return inv, tx, nil
}

// DeleteInvestment removes a holding. The expense recorded with it stays.
func (t *Tracker) DeleteInvestment(ctx context.Context, id string) error {
	owner, err := t.begin(actionDeleteInvestment, nil)
	if err != nil {
		return err
	}
	if err := t.backend.DeleteInvestment(ctx, owner, id); err != nil {
		return t.fail(actionDeleteInvestment, err)
	}
	t.rec.ApplyConfirmedInvestmentDelete(id)
	t.changed()
	t.succeed(ctx, owner, actionDeleteInvestment, "Deleted an investment")
	return nil
}

// SetCurrency switches the display currency. Stored amounts are unchanged.
func (t *Tracker) SetCurrency(code string) error {
	if err := t.validate.Var(strings.ToUpper(code), "required,currency_code"); err != nil {
		t.notify(NoticeFailure, actionSetCurrency, actionSetCurrency.failure)
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unsupported currency %q", code))
	}
	if err := t.pref.Set(code); err != nil {
		t.notify(NoticeFailure, actionSetCurrency, actionSetCurrency.failure)
		return err
	}
	t.notify(NoticeSuccess, actionSetCurrency, actionSetCurrency.success)
	return nil
}

// Currency returns the active display currency.
func (t *Tracker) Currency() currency.Selection { return t.pref.Current() }

// Summary returns the headline totals.
func (t *Tracker) Summary() aggregate.Summary { return t.engine.Summary() }

// Transactions returns the ledger with display amounts.
func (t *Tracker) Transactions() []aggregate.DisplayTransaction {
	return t.engine.DisplayTransactions()
}

// ExpensesByCategory returns canonical expense totals per category.
func (t *Tracker) ExpensesByCategory() map[string]decimal.Decimal {
	return t.engine.ExpensesByCategory()
}

// MonthlyTrend returns the last n months including the current one.
func (t *Tracker) MonthlyTrend(n int) []aggregate.MonthTotal {
	return t.engine.MonthlyTrend(n, t.now())
}

// NetWorth returns balance minus the invested total.
func (t *Tracker) NetWorth() aggregate.NetWorth {
	return t.engine.NetWorth(t.rec.Investments().Items())
}

// Budgets returns the held budgets.
func (t *Tracker) Budgets() []models.Budget { return t.rec.Budgets().Items() }

// Investments returns the held investments.
func (t *Tracker) Investments() []models.Investment { return t.rec.Investments().Items() }

// BudgetUsage evaluates every held budget against the current period.
func (t *Tracker) BudgetUsage() []usage.Usage {
	return usage.Evaluate(t.rec.Budgets().Items(), t.engine, t.now())
}

func (t *Tracker) begin(a action, input any) (string, error) {
	owner := t.sched.Owner()
	if owner == "" {
		t.notify(NoticeFailure, a, a.failure)
		return "", ErrSignedOut
	}
	if input != nil {
		if err := t.validate.Struct(input); err != nil {
			verr := validationError(err)
			t.notify(NoticeFailure, a, verr.Message)
			return "", verr
		}
	}
	return owner, nil
}

func (t *Tracker) fail(a action, err error) error {
	t.log.Warnw("action failed", "action", a.name, "error", err)
	t.notify(NoticeFailure, a, a.failure)
	return err
}

func (t *Tracker) succeed(ctx context.Context, owner string, a action, description string) {
	t.notify(NoticeSuccess, a, a.success)
	if a.activity == "" {
		return
	}

	t.activity.Add(1)
	go func() {
		defer t.activity.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityTimeout)
		defer cancel()
		if err := t.backend.RecordActivity(actx, owner, a.activity, description); err != nil {
			t.log.Warnw("failed to record activity", "activity_type", a.activity, "error", err)
		}
	}()
}

func (t *Tracker) notify(kind NoticeKind, a action, message string) {
	if t.onNotice == nil {
		return
	}
	t.onNotice(Notice{Kind: kind, Action: a.name, Message: message, At: t.now()})
}

func (t *Tracker) changed() {
	if t.onChange != nil {
		t.onChange()
	}
}

// validationError turns validator output into an InvalidInput AppError naming
// the offending fields.
func validationError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, "Please check: "+strings.Join(fields, ", "))
}
