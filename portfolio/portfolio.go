// Package portfolio holds the money arithmetic shared by the stock and
// crypto endpoints. All sums go through decimal so repeated refreshes never
// drift.
package portfolio

import (
	"finzora/api/models"

	"github.com/shopspring/decimal"
)

// ProfitLoss returns (current - buy) * quantity.
func ProfitLoss(current, buy, quantity float64) float64 {
	return decimal.NewFromFloat(current).
		Sub(decimal.NewFromFloat(buy)).
		Mul(decimal.NewFromFloat(quantity)).
		InexactFloat64()
}

func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

type Totals struct {
	Invested   float64 `json:"invested"`
	NetWorth   float64 `json:"net_worth"`
	ProfitLoss float64 `json:"total_profit_loss"`
}

type position struct {
	quantity, buy, current float64
}

func totals(positions []position) Totals {
	invested, worth := decimal.Zero, decimal.Zero
	for _, p := range positions {
		qty := decimal.NewFromFloat(p.quantity)
		invested = invested.Add(decimal.NewFromFloat(p.buy).Mul(qty))
		worth = worth.Add(decimal.NewFromFloat(p.current).Mul(qty))
	}
	return Totals{
		Invested:   invested.Round(2).InexactFloat64(),
		NetWorth:   worth.Round(2).InexactFloat64(),
		ProfitLoss: worth.Sub(invested).Round(2).InexactFloat64(),
	}
}

func StockTotals(stocks []models.Stock) Totals {
	positions := make([]position, 0, len(stocks))
	for _, s := range stocks {
		positions = append(positions, position{s.Quantity, s.BuyPrice, s.CurrentPrice})
	}
	return totals(positions)
}

func CryptoTotals(coins []models.Crypto) Totals {
	positions := make([]position, 0, len(coins))
	for _, c := range coins {
		positions = append(positions, position{c.Quantity, c.BuyPrice, c.CurrentPrice})
	}
	return totals(positions)
}

// Sum adds amounts exactly and rounds the result to cents.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}
