package ledger

import (
	"sync"
	"time"

	"budgetwise/internal/logger"
	"budgetwise/internal/models"
)

// Ticket identifies one fetch. Only the most recently issued ticket for the
// current owner may apply its result.
type Ticket struct {
	seq   uint64
	owner string
}

// Owner returns the owner the fetch was issued for.
func (t Ticket) Owner() string { return t.owner }

// Reconciler is the single entry point for every change to the ledger and its
// side collections. Fetched snapshots, confirmed writes and pushed events all
// pass through it, so neither channel can produce duplicates or resurrect
// stale state.
type Reconciler struct {
	mu          sync.Mutex
	seq         uint64
	store       *Store
	budgets     *Collection[models.Budget]
	investments *Collection[models.Investment]
}

// NewReconciler wires a reconciler around store and fresh side collections.
func NewReconciler(store *Store) *Reconciler {
	return &Reconciler{
		store:       store,
		budgets:     NewBudgets(),
		investments: NewInvestments(),
	}
}

// Store returns the transaction store.
func (r *Reconciler) Store() *Store { return r.store }

// Budgets returns the budget collection.
func (r *Reconciler) Budgets() *Collection[models.Budget] { return r.budgets }

// Investments returns the investment collection.
func (r *Reconciler) Investments() *Collection[models.Investment] { return r.investments }

// Reset switches to owner, clears all held state and invalidates every
// outstanding ticket.
func (r *Reconciler) Reset(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.store.Reset(owner)
	r.budgets.Clear()
	r.investments.Clear()
}

// BeginFetch issues a ticket for a fetch on behalf of the current owner.
// Issuing a ticket makes all earlier ones stale.
func (r *Reconciler) BeginFetch() Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return Ticket{seq: r.seq, owner: r.store.Owner()}
}

// current must be called with r.mu held.
func (r *Reconciler) current(t Ticket) bool {
	return t.seq == r.seq && t.owner == r.store.Owner() && t.owner != ""
}

// Current reports whether t is still the newest ticket for the current owner.
func (r *Reconciler) Current(t Ticket) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current(t)
}

// ApplyFetch replaces the ledger with snapshot if t is still current and
// reports whether it did.
func (r *Reconciler) ApplyFetch(t Ticket, snapshot []models.Transaction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.current(t) {
		logger.Named("reconciler").Debugw("discarding stale fetch", "owner_id", t.owner, "ticket", t.seq)
		return false
	}
	r.store.Replace(t.owner, snapshot)
	return true
}

// ApplyBudgets replaces the budget collection if t is still current.
func (r *Reconciler) ApplyBudgets(t Ticket, budgets []models.Budget) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.current(t) {
		return false
	}
	r.budgets.Replace(filterOwner(budgets, t.owner, func(b models.Budget) string { return b.OwnerID }))
	return true
}

// ApplyInvestments replaces the investment collection if t is still current.
func (r *Reconciler) ApplyInvestments(t Ticket, investments []models.Investment) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.current(t) {
		return false
	}
	r.investments.Replace(filterOwner(investments, t.owner, func(i models.Investment) string { return i.OwnerID }))
	return true
}

// FailFetch records a failed fetch. The held state is left untouched. It
// reports whether the ticket was still current, i.e. whether the failure is
// worth surfacing.
func (r *Reconciler) FailFetch(t Ticket, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.current(t)
	logger.Named("reconciler").Warnw("fetch failed",
		"owner_id", t.owner,
		"ticket", t.seq,
		"current", current,
		"error", err,
	)
	return current
}

// SetDateRange limits the ledger to [from, to], both inclusive calendar
// dates with zero bounds open. Fetches issued under the previous range are
// discarded.
func (r *Reconciler) SetDateRange(from, to time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.store.SetWindow(from, to)
}

// ApplyConfirmed merges a record the backend has acknowledged. Fetches
// already in flight predate it and are discarded.
func (r *Reconciler) ApplyConfirmed(tx models.Transaction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.store.UpsertOne(tx)
}

// ApplyConfirmedDelete removes a record the backend has deleted. Fetches
// already in flight are discarded.
func (r *Reconciler) ApplyConfirmedDelete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.store.RemoveOne(id)
}

// ApplyConfirmedReset empties the ledger after the backend deleted all of
// the owner's transactions. Fetches already in flight are discarded.
func (r *Reconciler) ApplyConfirmedReset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.store.RemoveAll()
}

// ApplyConfirmedBudget merges an acknowledged budget.
func (r *Reconciler) ApplyConfirmedBudget(b models.Budget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if b.OwnerID == r.store.Owner() {
		r.budgets.Upsert(b)
	}
}

// ApplyConfirmedBudgetDelete removes an acknowledged budget deletion.
func (r *Reconciler) ApplyConfirmedBudgetDelete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.budgets.Remove(id)
}

// ApplyConfirmedInvestment merges an acknowledged investment.
func (r *Reconciler) ApplyConfirmedInvestment(i models.Investment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if i.OwnerID == r.store.Owner() {
		r.investments.Upsert(i)
	}
}

// ApplyConfirmedInvestmentDelete removes an acknowledged investment deletion.
func (r *Reconciler) ApplyConfirmedInvestmentDelete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.investments.Remove(id)
}

// ApplyEvent routes a pushed change event and reports whether anything
// changed. Events for other owners or unknown tables are dropped. An event
// that changed held state discards fetches already in flight.
func (r *Reconciler) ApplyEvent(ev models.ChangeEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := r.applyEvent(ev)
	if changed {
		r.seq++
	}
	return changed
}

// applyEvent must be called with r.mu held.
func (r *Reconciler) applyEvent(ev models.ChangeEvent) bool {
	owner := r.store.Owner()
	if owner == "" || ev.OwnerID != owner {
		return false
	}

	switch ev.Table {
	case models.TableTransactions:
		if ev.Kind == models.ChangeDelete {
			return r.store.RemoveOne(ev.ID)
		}
		if ev.Transaction == nil {
			return false
		}
		return r.store.UpsertOne(*ev.Transaction)

	case models.TableBudgets:
		if ev.Kind == models.ChangeDelete {
			return r.budgets.Remove(ev.ID)
		}
		if ev.Budget == nil || ev.Budget.OwnerID != owner {
			return false
		}
		return r.budgets.Upsert(*ev.Budget)

	case models.TableInvestments:
		if ev.Kind == models.ChangeDelete {
			return r.investments.Remove(ev.ID)
		}
		if ev.Investment == nil || ev.Investment.OwnerID != owner {
			return false
		}
		return r.investments.Upsert(*ev.Investment)
	}

	logger.Named("reconciler").Debugw("ignoring event for unknown table", "table", ev.Table)
	return false
}

func filterOwner[T any](items []T, owner string, ownerOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if ownerOf(item) == owner {
			out = append(out, item)
		}
	}
	return out
}
