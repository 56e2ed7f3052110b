package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"finzora/api/llm"
	"finzora/api/models"

	"github.com/stretchr/testify/assert"
)

type recordingProvider struct {
	reply  string
	err    error
	system string
	user   string
}

func (r *recordingProvider) Name() string { return "fake" }

func (r *recordingProvider) Chat(_ context.Context, system, user string) (string, error) {
	r.system, r.user = system, user
	return r.reply, r.err
}

func TestNewPicksFirstConfigured(t *testing.T) {
	second := &recordingProvider{}
	a := New(nil, second, &recordingProvider{})
	assert.True(t, a.Enabled())

	a.GenerateResponse(context.Background(), "hi", nil)
	assert.Equal(t, "hi", second.user)

	assert.False(t, New().Enabled())
	assert.False(t, New(nil).Enabled())
}

func TestGenerateResponseWithoutProvider(t *testing.T) {
	res := New().GenerateResponse(context.Background(), "hi", nil)
	assert.Empty(t, res.Response)
	assert.Equal(t, NotConfiguredMessage, res.Error)
}

func TestGenerateResponseInjectsContext(t *testing.T) {
	p := &recordingProvider{reply: "  Cut food spend.  "}
	data := &UserData{Expenses: []models.Expense{{Amount: 100, Category: "Food"}}}

	res := New(p).GenerateResponse(context.Background(), "advice", data)
	assert.Equal(t, "Cut food spend.", res.Response)
	assert.Contains(t, p.system, "You are FinZora AI")
	assert.Contains(t, p.system, "User's Financial Data:")

	New(p).GenerateResponse(context.Background(), "advice", &UserData{})
	assert.NotContains(t, p.system, "User's Financial Data:")
}

func TestGenerateResponseErrors(t *testing.T) {
	limited := &recordingProvider{err: &llm.APIError{Provider: "groq", StatusCode: 429, Message: "slow down"}}
	assert.Equal(t, RateLimitedMessage, New(limited).GenerateResponse(context.Background(), "x", nil).Error)

	broken := &recordingProvider{err: errors.New(strings.Repeat("x", 400))}
	res := New(broken).GenerateResponse(context.Background(), "x", nil)
	assert.Len(t, res.Error, len("Error: ")+150)
}

func TestBuildContext(t *testing.T) {
	var stocks []models.Stock
	for i := 0; i < 7; i++ {
		stocks = append(stocks, models.Stock{
			Symbol: fmt.Sprintf("S%d", i), Quantity: 1, BuyPrice: 10, CurrentPrice: float64(10 + i), ProfitLoss: float64(i),
		})
	}
	got := BuildContext(&UserData{
		Expenses: []models.Expense{
			{Amount: 50, Category: "Transport"},
			{Amount: 120.5, Category: "Food"},
			{Amount: 10},
		},
		Income: []models.Income{{Amount: 5000}, {Amount: 250.25}},
		Stocks: stocks,
	})

	assert.Contains(t, got, "Expenses: 3 transactions\nTotal expenses: ₹180.50\n")
	assert.Contains(t, got, "By category:\n  - Food: ₹120.50\n  - Transport: ₹50.00\n  - Other: ₹10.00\n")
	assert.Contains(t, got, "Income: 2 records\nTotal income: ₹5250.25\n")
	assert.Contains(t, got, "Net Worth: ₹91.00\n")
	assert.Contains(t, got, "  - S6: 1 shares, P&L: ₹6.00\n")
	assert.NotContains(t, got, "S1:")
	assert.Equal(t, 5, strings.Count(got, " shares, "))
}

func TestQuickPromptsIsACopy(t *testing.T) {
	p := QuickPrompts()
	p[0] = "changed"
	assert.Equal(t, "Show my expense breakdown", QuickPrompts()[0])
	assert.Len(t, QuickPrompts(), 6)
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	assert.Equal(t, "₹₹", truncate("₹₹₹", 2))
	assert.Equal(t, "short", truncate("short", 10))
}
