// Package advisor answers finance questions through the first configured
// generative-text provider.
package advisor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"finzora/api/llm"
	"finzora/api/logger"
	"finzora/api/models"
	"finzora/api/portfolio"

	"go.uber.org/zap"
)

const systemPrompt = `You are FinZora AI, a financial advisor. Answer questions about:
 - Expenses and spending habits
 - Income and salary
 - Stock portfolio and investments
 - Financial advice and budgeting

 Keep answers under 150 words. Use ₹ for amounts.`

const (
	NotConfiguredMessage = "No AI provider configured. Set GROQ_API_KEY (free, fast), HUGGINGFACE_API_KEY or GOOGLE_GEMINI_API_KEY."
	RateLimitedMessage   = "Rate limited. Try Groq (more generous): https://console.groq.com"

	maxHoldings = 5
)

var quickPrompts = []string{
	"Show my expense breakdown",
	"What's my total income?",
	"Portfolio profit/loss?",
	"Give me financial advice",
	"How can I save more money?",
	"What are my top expenses?",
}

// Provider is a chat-capable model client.
type Provider interface {
	Name() string
	Chat(ctx context.Context, system, user string) (string, error)
}

// UserData is the optional snapshot injected as context.
type UserData struct {
	Expenses []models.Expense
	Income   []models.Income
	Stocks   []models.Stock
}

func (d *UserData) empty() bool {
	return d == nil || (len(d.Expenses) == 0 && len(d.Income) == 0 && len(d.Stocks) == 0)
}

type Result struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Advisor struct {
	provider Provider
}

// New keeps the first non-nil provider. Order is the preference order.
func New(providers ...Provider) *Advisor {
	for _, p := range providers {
		if p != nil {
			return &Advisor{provider: p}
		}
	}
	return &Advisor{}
}

func (a *Advisor) Enabled() bool { return a != nil && a.provider != nil }

func (a *Advisor) ProviderName() string {
	if !a.Enabled() {
		return ""
	}
	return a.provider.Name()
}

func QuickPrompts() []string {
	return append([]string(nil), quickPrompts...)
}

// GenerateResponse never fails: provider errors come back in Result.Error.
func (a *Advisor) GenerateResponse(ctx context.Context, message string, data *UserData) Result {
	if !a.Enabled() {
		return Result{Error: NotConfiguredMessage}
	}

	system := systemPrompt
	if !data.empty() {
		system += "\n\n" + BuildContext(data)
	}

	text, err := a.provider.Chat(ctx, system, message)
	if err != nil {
		logger.Get().Warn("advisor provider failed",
			zap.String("provider", a.provider.Name()),
			zap.Error(err))
		if llm.IsRateLimited(err) {
			return Result{Error: RateLimitedMessage}
		}
		return Result{Error: "Error: " + truncate(err.Error(), 150)}
	}
	return Result{Response: strings.TrimSpace(text)}
}

// BuildContext flattens the snapshot into a short plain-text summary.
func BuildContext(data *UserData) string {
	var b strings.Builder
	b.WriteString("User's Financial Data:\n\n")

	if len(data.Expenses) > 0 {
		byCategory := map[string]float64{}
		amounts := make([]float64, 0, len(data.Expenses))
		for _, e := range data.Expenses {
			category := e.Category
			if category == "" {
				category = "Other"
			}
			byCategory[category] = portfolio.Sum(byCategory[category], e.Amount)
			amounts = append(amounts, e.Amount)
		}
		fmt.Fprintf(&b, "Expenses: %d transactions\n", len(data.Expenses))
		fmt.Fprintf(&b, "Total expenses: ₹%.2f\n", portfolio.Sum(amounts...))

		categories := make([]string, 0, len(byCategory))
		for c := range byCategory {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool {
			if byCategory[categories[i]] != byCategory[categories[j]] {
				return byCategory[categories[i]] > byCategory[categories[j]]
			}
			return categories[i] < categories[j]
		})
		b.WriteString("By category:\n")
		for _, c := range categories {
			fmt.Fprintf(&b, "  - %s: ₹%.2f\n", c, byCategory[c])
		}
	}

	if len(data.Income) > 0 {
		amounts := make([]float64, 0, len(data.Income))
		for _, in := range data.Income {
			amounts = append(amounts, in.Amount)
		}
		fmt.Fprintf(&b, "\nIncome: %d records\n", len(data.Income))
		fmt.Fprintf(&b, "Total income: ₹%.2f\n", portfolio.Sum(amounts...))
	}

	if len(data.Stocks) > 0 {
		totals := portfolio.StockTotals(data.Stocks)
		b.WriteString("\nStock Portfolio:\n")
		fmt.Fprintf(&b, "Net Worth: ₹%.2f\n", totals.NetWorth)
		fmt.Fprintf(&b, "Profit/Loss: ₹%.2f\n", totals.ProfitLoss)
		b.WriteString("Holdings:\n")
		for _, s := range topHoldings(data.Stocks, maxHoldings) {
			fmt.Fprintf(&b, "  - %s: %g shares, P&L: ₹%.2f\n", s.Symbol, s.Quantity, s.ProfitLoss)
		}
	}
	return b.String()
}

// topHoldings orders stocks by current value, largest first.
func topHoldings(stocks []models.Stock, n int) []models.Stock {
	sorted := append([]models.Stock(nil), stocks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CurrentPrice*sorted[i].Quantity > sorted[j].CurrentPrice*sorted[j].Quantity
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
