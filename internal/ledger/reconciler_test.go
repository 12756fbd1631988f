package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/models"
)

func TestReconcilerStaleFetch(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")

	first := r.BeginFetch()
	second := r.BeginFetch()

	// The newer fetch resolves first; the older one must not overwrite it.
	assert.True(t, r.ApplyFetch(second, []models.Transaction{txn("alice", "new", 2, "20")}))
	assert.False(t, r.ApplyFetch(first, []models.Transaction{txn("alice", "old", 1, "10")}))

	assert.Equal(t, []string{"new"}, ids(r.Store().Snapshot()))
}

func TestReconcilerOwnerSwitch(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")
	ticket := r.BeginFetch()
	assert.Equal(t, "alice", ticket.Owner())

	r.Reset("bob")
	assert.False(t, r.ApplyFetch(ticket, []models.Transaction{txn("alice", "a", 1, "10")}))
	assert.Equal(t, 0, r.Store().Len())
	assert.Equal(t, "bob", r.Store().Owner())

	// Pushed events for the previous owner are dropped too.
	tx := txn("alice", "late", 1, "5")
	assert.False(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableTransactions, Kind: models.ChangeInsert, OwnerID: "alice", ID: tx.ID, Transaction: &tx,
	}))
	assert.Equal(t, 0, r.Store().Len())
}

func TestReconcilerNoOwner(t *testing.T) {
	r := NewReconciler(NewStore())
	ticket := r.BeginFetch()
	assert.False(t, r.ApplyFetch(ticket, []models.Transaction{txn("", "a", 1, "1")}))
	assert.False(t, r.FailFetch(ticket, errors.New("boom")))
}

func TestReconcilerFailFetch(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")
	require.True(t, r.ApplyFetch(r.BeginFetch(), []models.Transaction{txn("alice", "a", 1, "10")}))
	v := r.Store().Version()

	ticket := r.BeginFetch()
	assert.True(t, r.FailFetch(ticket, errors.New("network down")))
	assert.Equal(t, v, r.Store().Version())
	assert.Equal(t, 1, r.Store().Len())
}

func TestReconcilerPushAndConfirmConverge(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")
	tx := txn("alice", "a", 1, "10")

	// The confirmed write and its own push echo arrive in either order.
	assert.True(t, r.ApplyConfirmed(tx))
	assert.False(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableTransactions, Kind: models.ChangeInsert, OwnerID: "alice", ID: tx.ID, Transaction: &tx,
	}))
	assert.Equal(t, 1, r.Store().Len())

	// A later poll that includes the same row leaves one copy.
	assert.True(t, r.ApplyFetch(r.BeginFetch(), []models.Transaction{tx}))
	assert.Equal(t, 1, r.Store().Len())

	assert.True(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableTransactions, Kind: models.ChangeDelete, OwnerID: "alice", ID: tx.ID,
	}))
	assert.False(t, r.ApplyConfirmedDelete(tx.ID))
	assert.Equal(t, 0, r.Store().Len())
}

func TestReconcilerSideCollections(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")
	ticket := r.BeginFetch()

	budget := models.Budget{Base: models.Base{ID: "b1"}, OwnerID: "alice", Category: "Food", Limit: decimal.NewFromInt(100), Period: models.BudgetPeriodMonthly}
	foreign := models.Budget{Base: models.Base{ID: "b2"}, OwnerID: "bob", Category: "Rent"}
	require.True(t, r.ApplyBudgets(ticket, []models.Budget{budget, foreign}))
	assert.Len(t, r.Budgets().Items(), 1)

	inv := models.Investment{Base: models.Base{ID: "i1"}, OwnerID: "alice", Name: "Acme", Amount: decimal.NewFromInt(1000)}
	require.True(t, r.ApplyInvestments(ticket, []models.Investment{inv}))

	updated := budget
	updated.Limit = decimal.NewFromInt(200)
	assert.True(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableBudgets, Kind: models.ChangeUpdate, OwnerID: "alice", ID: "b1", Budget: &updated,
	}))
	assert.True(t, r.Budgets().Items()[0].Limit.Equal(decimal.NewFromInt(200)))

	assert.True(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableInvestments, Kind: models.ChangeDelete, OwnerID: "alice", ID: "i1",
	}))
	assert.Equal(t, 0, r.Investments().Len())

	r.Reset("bob")
	assert.Equal(t, 0, r.Budgets().Len())
}

func TestReconcilerConfirmedWriteBeatsInflightFetch(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")
	original := txn("alice", "a", 1, "10")
	require.True(t, r.ApplyFetch(r.BeginFetch(), []models.Transaction{original}))

	// A poll starts, then the user's edit is confirmed before it lands.
	ticket := r.BeginFetch()
	edited := original
	edited.Amount = decimal.NewFromInt(99)
	edited.UpdatedAt = original.UpdatedAt.Add(time.Minute)
	require.True(t, r.ApplyConfirmed(edited))

	added := txn("alice", "b", 2, "5")
	require.True(t, r.ApplyConfirmed(added))

	assert.False(t, r.ApplyFetch(ticket, []models.Transaction{original}))
	snap := r.Store().Snapshot()
	assert.Equal(t, []string{"b", "a"}, ids(snap))
	assert.True(t, snap[1].Amount.Equal(decimal.NewFromInt(99)), "amount %s", snap[1].Amount)

	// Side collections are protected the same way.
	ticket = r.BeginFetch()
	r.ApplyConfirmedBudget(models.Budget{Base: models.Base{ID: "b1"}, OwnerID: "alice", Category: "Food"})
	assert.False(t, r.ApplyBudgets(ticket, nil))
	assert.Equal(t, 1, r.Budgets().Len())
}

func TestReconcilerPushBeatsInflightFetch(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")

	ticket := r.BeginFetch()
	pushed := txn("alice", "other-device", 1, "7")
	require.True(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableTransactions, Kind: models.ChangeInsert, OwnerID: "alice", ID: pushed.ID, Transaction: &pushed,
	}))

	assert.False(t, r.ApplyFetch(ticket, nil))
	assert.Equal(t, 1, r.Store().Len())
}

func TestReconcilerDeletedInvestmentStaysDeleted(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")

	inv := models.Investment{Base: models.Base{ID: "inv-1"}, OwnerID: "alice", Name: "Acme", Amount: decimal.NewFromInt(500)}
	r.ApplyConfirmedInvestment(inv)
	r.ApplyConfirmedInvestmentDelete(inv.ID)

	// The insert echo arrives after the delete was confirmed.
	assert.False(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableInvestments, Kind: models.ChangeInsert, OwnerID: "alice", ID: inv.ID, Investment: &inv,
	}))
	assert.Equal(t, 0, r.Investments().Len())

	budget := models.Budget{Base: models.Base{ID: "b1"}, OwnerID: "alice", Category: "Food"}
	r.ApplyConfirmedBudget(budget)
	r.ApplyConfirmedBudgetDelete(budget.ID)
	assert.False(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableBudgets, Kind: models.ChangeUpdate, OwnerID: "alice", ID: budget.ID, Budget: &budget,
	}))
	assert.True(t, r.ApplyBudgets(r.BeginFetch(), []models.Budget{budget}))
	assert.Equal(t, 0, r.Budgets().Len())

	// A new owner session starts with a clean slate.
	r.Reset("alice")
	r.ApplyConfirmedInvestment(inv)
	assert.Equal(t, 1, r.Investments().Len())
}

func TestReconcilerDateRange(t *testing.T) {
	r := NewReconciler(NewStore())
	r.Reset("alice")
	ticket := r.BeginFetch()

	r.SetDateRange(base, base.AddDate(0, 0, 3))
	assert.False(t, r.ApplyFetch(ticket, nil), "fetches under the old range are discarded")

	outside := txn("alice", "old", -10, "5")
	assert.False(t, r.ApplyEvent(models.ChangeEvent{
		Table: models.TableTransactions, Kind: models.ChangeInsert, OwnerID: "alice", ID: outside.ID, Transaction: &outside,
	}))
	assert.False(t, r.ApplyConfirmed(outside))
	assert.True(t, r.ApplyConfirmed(txn("alice", "in", 2, "5")))
	assert.Equal(t, []string{"in"}, ids(r.Store().Snapshot()))
}
