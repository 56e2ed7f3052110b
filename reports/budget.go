package reports

import (
	"sort"
	"strings"

	"finzora/api/models"
	"finzora/api/portfolio"
)

const (
	BudgetOK       = "ok"
	BudgetWarning  = "warning"
	BudgetExceeded = "exceeded"

	warningPercent = 85.0
)

// BudgetStatus measures each budget against spend in month. Categories are
// matched case-insensitively.
func BudgetStatus(month string, budgets []models.Budget, expenses []models.Expense) []models.BudgetStatus {
	spent := map[string][]float64{}
	for _, e := range expenses {
		if models.Month(e.Date) != month {
			continue
		}
		key := strings.ToLower(e.Category)
		spent[key] = append(spent[key], e.Amount)
	}

	out := make([]models.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		total := portfolio.Sum(spent[strings.ToLower(b.Category)]...)
		pct := 0.0
		if b.Limit > 0 {
			pct = portfolio.Round2(total / b.Limit * 100)
		}
		state := BudgetOK
		switch {
		case pct >= 100:
			state = BudgetExceeded
		case pct >= warningPercent:
			state = BudgetWarning
		}
		out = append(out, models.BudgetStatus{
			Category: b.Category,
			Limit:    b.Limit,
			Spent:    total,
			Percent:  pct,
			State:    state,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}
