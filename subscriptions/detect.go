// Package subscriptions finds recurring charges in an expense history.
package subscriptions

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"finzora/api/models"
	"finzora/api/portfolio"
)

type Options struct {
	MinOccurrences        int
	TargetIntervalDays    float64
	IntervalToleranceDays float64
	// AmountTolerance is a fraction of the median amount (0.10 = 10%).
	AmountTolerance float64
}

func DefaultOptions() Options {
	return Options{
		MinOccurrences:        3,
		TargetIntervalDays:    30,
		IntervalToleranceDays: 6,
		AmountTolerance:       0.10,
	}
}

type Candidate struct {
	Merchant         string  `json:"merchant"`
	Occurrences      int     `json:"occurrences"`
	AverageAmount    float64 `json:"average_amount"`
	IntervalDays     float64 `json:"interval_days"`
	LastDate         string  `json:"last_date"`
	NextExpectedDate string  `json:"next_expected_date"`
}

var merchantNoise = regexp.MustCompile(`[0-9#]+`)

// NormalizeMerchant strips the digits and hashes banks append to merchant
// names ("Netflix #123" and "NETFLIX 456" group together).
func NormalizeMerchant(s string) string {
	s = merchantNoise.ReplaceAllString(strings.ToLower(s), "")
	return strings.Join(strings.Fields(s), " ")
}

type charge struct {
	merchant string
	amount   float64
	day      time.Time
}

// Detect returns the merchants whose charges recur at the target interval
// with a consistent amount. It does not modify its input.
func Detect(expenses []models.Expense, opts Options) []Candidate {
	minOcc := opts.MinOccurrences
	if minOcc < 2 {
		minOcc = 2
	}

	groups := map[string][]charge{}
	for _, e := range expenses {
		if e.Amount <= 0 {
			continue
		}
		key := NormalizeMerchant(e.Merchant)
		if key == "" {
			continue
		}
		t, err := models.ParseDate(e.Date)
		if err != nil {
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		groups[key] = append(groups[key], charge{merchant: e.Merchant, amount: e.Amount, day: day})
	}

	var out []Candidate
	for _, charges := range groups {
		if c, ok := evaluate(charges, minOcc, opts); ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextExpectedDate != out[j].NextExpectedDate {
			return out[i].NextExpectedDate < out[j].NextExpectedDate
		}
		return out[i].Merchant < out[j].Merchant
	})
	return out
}

func evaluate(charges []charge, minOcc int, opts Options) (Candidate, bool) {
	n := len(charges)
	if n < minOcc {
		return Candidate{}, false
	}
	sort.SliceStable(charges, func(i, j int) bool { return charges[i].day.Before(charges[j].day) })

	gaps := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		gaps = append(gaps, charges[i].day.Sub(charges[i-1].day).Hours()/24)
	}
	interval := median(gaps)
	if interval < opts.TargetIntervalDays-opts.IntervalToleranceDays ||
		interval > opts.TargetIntervalDays+opts.IntervalToleranceDays {
		return Candidate{}, false
	}

	amounts := make([]float64, n)
	for i, c := range charges {
		amounts[i] = c.amount
	}
	typical := median(amounts)
	consistent := 0
	for _, a := range amounts {
		if math.Abs(a-typical) <= typical*opts.AmountTolerance+1e-9 {
			consistent++
		}
	}
	required := int(math.Ceil(0.7 * float64(n)))
	if required < 2 {
		required = 2
	}
	if consistent < required {
		return Candidate{}, false
	}

	last := charges[n-1]
	next := last.day.AddDate(0, 0, int(math.Round(interval)))
	return Candidate{
		Merchant:         last.merchant,
		Occurrences:      n,
		AverageAmount:    portfolio.Round2(portfolio.Sum(amounts...) / float64(n)),
		IntervalDays:     interval,
		LastDate:         last.day.Format(models.DateLayout),
		NextExpectedDate: next.Format(models.DateLayout),
	}, true
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
