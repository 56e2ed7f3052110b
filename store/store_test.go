package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finzora/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return New(NewFileBackend(filepath.Join(t.TempDir(), "store.json"))).
		WithClock(func() time.Time { return fixed })
}

func TestIncomeLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.AddIncome(ctx, "u1", &models.Income{Amount: 5000, Source: "Salary", Date: "2024-04-30"})
	require.NoError(t, err)
	assert.Len(t, id, 32)

	incomes, err := s.ListIncome(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, "income", incomes[0].Type)
	assert.Equal(t, "2024-05-01T12:00:00.000000", incomes[0].Timestamp)

	others, err := s.ListIncome(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)

	ok, err := s.DeleteIncome(ctx, "u1", id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListsAreNewestFirstAcrossDateFormats(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, in := range []*models.Income{
		{Amount: 100, Source: "old", Date: "2024-01-01"},
		{Amount: 200, Source: "newest", Date: "15/03/2025"},
		{Amount: 300, Source: "middle", Date: "02-06-2024"},
	} {
		_, err := s.AddIncome(ctx, "u1", in)
		require.NoError(t, err)
	}

	incomes, err := s.ListIncome(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, incomes, 3)
	assert.Equal(t, "newest", incomes[0].Source)
	assert.Equal(t, "2025-03-15", incomes[0].Date)
	assert.Equal(t, "middle", incomes[1].Source)
	assert.Equal(t, "2024-06-02", incomes[1].Date)
	assert.Equal(t, "old", incomes[2].Source)

	_, err = s.AddExpense(ctx, "u1", &models.Expense{Amount: 10, Merchant: "Uber", Date: "31/12/2024"})
	require.NoError(t, err)
	expenses, err := s.ListExpenses(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "2024-12-31", expenses[0].Date)
}

func TestExpenseFilterAndStatistics(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, e := range []models.Expense{
		{Amount: 100.10, Merchant: "Zomato", Category: "Food", Date: "2024-04-01"},
		{Amount: 50.20, Merchant: "Uber", Category: "Transport", Date: "2024-04-02"},
		{Amount: 0.20, Merchant: "Swiggy", Category: "Food", Date: "2024-04-03"},
	} {
		e := e
		_, err := s.AddExpense(ctx, "u1", &e)
		require.NoError(t, err)
	}

	food, err := s.ListExpenses(ctx, "u1", "Food")
	require.NoError(t, err)
	require.Len(t, food, 2)
	assert.Equal(t, "Swiggy", food[0].Merchant)

	stats, err := s.ExpenseStatistics(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 150.5, stats.Total)
	assert.Equal(t, 100.3, stats.ByCategory["Food"])
	assert.Equal(t, 50.2, stats.ByCategory["Transport"])
}

func TestStockPriceUpdateRecomputesProfitLoss(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.AddStock(ctx, "u1", &models.Stock{Symbol: "AAPL", Quantity: 10, BuyPrice: 150.25, CurrentPrice: 152.50})
	require.NoError(t, err)

	stocks, err := s.ListStocks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, 22.5, stocks[0].ProfitLoss)

	for _, price := range []float64{140, 160.75, 150.25} {
		st, err := s.UpdateStockPrice(ctx, "u1", id, price)
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.InDelta(t, (price-150.25)*10, st.ProfitLoss, 1e-9)
	}

	st, err := s.UpdateStockPrice(ctx, "u1", "missing", 10)
	require.NoError(t, err)
	assert.Nil(t, st)

	ok, err := s.DeleteStock(ctx, "u1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCryptoPriceUpdate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	id, err := s.AddCrypto(ctx, "u1", &models.Crypto{Symbol: "BTC", CoinID: "bitcoin", Quantity: 0.5, BuyPrice: 100, CurrentPrice: 100})
	require.NoError(t, err)

	c, err := s.UpdateCryptoPrice(ctx, "u1", id, 120)
	require.NoError(t, err)
	assert.Equal(t, 10.0, c.ProfitLoss)
	assert.Equal(t, "crypto", c.Type)
}

func TestAlertsPendingAndTrigger(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	id, err := s.AddAlert(ctx, "u1", &models.Alert{Symbol: "TCS", Type: "target", Value: 100, Triggered: true})
	require.NoError(t, err)

	pending, err := s.PendingAlerts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.False(t, pending[0].Triggered)

	ok, err := s.MarkAlertTriggered(ctx, "u1", id)
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err = s.PendingAlerts(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := s.ListAlerts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Triggered)
	assert.NotEmpty(t, all[0].TriggeredAt)
}

func TestBudgetUpsert(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.SetBudget(ctx, "u1", "Food", 100)
	require.NoError(t, err)
	b, err := s.SetBudget(ctx, "u1", " food ", 300)
	require.NoError(t, err)
	assert.Equal(t, "budget_food", b.ID)

	budgets, err := s.ListBudgets(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, 300.0, budgets[0].Limit)
}

func TestOTPAndPushTokens(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveOTP(ctx, &models.OTPRecord{Email: "A@x.com", CodeHash: "h", Expiry: 42}))
	rec, err := s.GetOTP(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(42), rec.Expiry)
	require.NoError(t, s.DeleteOTP(ctx, "a@x.com"))
	rec, err = s.GetOTP(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, s.SavePushToken(ctx, "u1", "tok-1"))
	require.NoError(t, s.SavePushToken(ctx, "u1", "tok-2"))
	tok, err := s.GetPushToken(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.Token)

	users, err := s.UsersWithPushTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users)
}
