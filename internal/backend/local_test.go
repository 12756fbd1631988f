package backend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/changefeed"
	"budgetwise/internal/models"
	"budgetwise/internal/testutil"
)

type collector struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (c *collector) handle(ev models.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestLocalRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	hub := changefeed.NewHub(0)
	b := NewLocal(db, hub)
	ctx := context.Background()
	owner := testutil.NewOwnerID()

	c := &collector{}
	unsubscribe, err := b.Subscribe(ctx, owner, c.handle)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers(owner))

	created, err := b.InsertTransaction(ctx, owner, models.TransactionInput{
		Kind:     models.TransactionKindExpense,
		Amount:   testutil.Amount(t, "42"),
		Category: "Food",
		Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, _, err = b.RecordInvestment(ctx, owner, models.InvestmentInput{
		Type:   models.InvestmentTypeSIP,
		Name:   "Index",
		Amount: testutil.Amount(t, "100"),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return c.len() == 3 }, time.Second, 10*time.Millisecond)

	march := &DateRange{From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)}
	txs, err := b.FetchTransactions(ctx, owner, march)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, created.ID, txs[0].ID)

	all, err := b.FetchTransactions(ctx, owner, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.Subscribers(owner))

	require.NoError(t, b.DeleteTransaction(ctx, owner, created.ID))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, c.len(), "no events after unsubscribe")
}

func TestLocalSubscribeStopsOnContextCancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	hub := changefeed.NewHub(0)
	b := NewLocal(db, hub)
	owner := testutil.NewOwnerID()

	ctx, cancel := context.WithCancel(context.Background())
	unsubscribe, err := b.Subscribe(ctx, owner, func(models.ChangeEvent) {})
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool { return hub.Subscribers(owner) == 0 }, time.Second, 10*time.Millisecond)
	unsubscribe()
}

func TestLocalHonoursCancelledContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	b := NewLocal(db, changefeed.NewHub(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.FetchBudgets(ctx, testutil.NewOwnerID())
	assert.ErrorIs(t, err, context.Canceled)
}
