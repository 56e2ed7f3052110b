// Package reports builds monthly spending summaries, budget status and the
// PDF rendering of a month.
package reports

import (
	"sort"
	"strings"

	"finzora/api/models"
	"finzora/api/portfolio"
)

type MonthlySummary struct {
	Month           string           `json:"month"` // YYYY-MM
	TotalExpenses   float64          `json:"total_expenses"`
	TotalIncome     float64          `json:"total_income"`
	Net             float64          `json:"net"`
	TopCategory     string           `json:"top_category"`
	CategoryBreakup []CategoryBucket `json:"category_breakup"`
	Insight         string           `json:"insight"`
	Transactions    int              `json:"transactions"`
}

type CategoryBucket struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Percent  float64 `json:"percent"`
}

// Summarize keeps only records dated in month.
func Summarize(month string, expenses []models.Expense, income []models.Income) *MonthlySummary {
	byCategory := map[string][]float64{}
	var spent, earned []float64
	txns := 0

	for _, e := range expenses {
		if models.Month(e.Date) != month {
			continue
		}
		category := e.Category
		if category == "" {
			category = "Other"
		}
		byCategory[category] = append(byCategory[category], e.Amount)
		spent = append(spent, e.Amount)
		txns++
	}
	for _, in := range income {
		if models.Month(in.Date) == month {
			earned = append(earned, in.Amount)
		}
	}

	total := portfolio.Sum(spent...)
	buckets := make([]CategoryBucket, 0, len(byCategory))
	for category, amounts := range byCategory {
		catTotal := portfolio.Sum(amounts...)
		pct := 0.0
		if total > 0 {
			pct = portfolio.Round2(catTotal / total * 100)
		}
		buckets = append(buckets, CategoryBucket{Category: category, Total: catTotal, Percent: pct})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Total != buckets[j].Total {
			return buckets[i].Total > buckets[j].Total
		}
		return buckets[i].Category < buckets[j].Category
	})

	topCat := "NONE"
	if len(buckets) > 0 {
		topCat = buckets[0].Category
	}
	incomeTotal := portfolio.Sum(earned...)

	return &MonthlySummary{
		Month:           month,
		TotalExpenses:   total,
		TotalIncome:     incomeTotal,
		Net:             portfolio.Round2(incomeTotal - total),
		TopCategory:     topCat,
		CategoryBreakup: buckets,
		Insight:         buildInsight(buckets, total, incomeTotal),
		Transactions:    txns,
	}
}

func buildInsight(buckets []CategoryBucket, total, income float64) string {
	if total <= 0 {
		return "No expenses recorded this month."
	}
	if income > 0 && total > income {
		return "You spent more than you earned this month. Review your largest categories first."
	}
	top := buckets[0]
	if top.Percent >= 45 {
		return "Almost half of your spending went to " + strings.ToLower(top.Category) + ". Small cuts here make the biggest difference."
	}
	if top.Category == "Uncategorized" && top.Percent >= 25 {
		return "A large share of spending is uncategorized. Add merchant names so expenses can be sorted."
	}
	return "Your spending is fairly spread out across categories."
}
