package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const AlphaVantageURL = "https://www.alphavantage.co"

// AlphaVantage reads GLOBAL_QUOTE from the Alpha Vantage API.
type AlphaVantage struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

type alphaVantageResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
	Error       string            `json:"Error Message"`
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (float64, error) {
	base := a.BaseURL
	if base == "" {
		base = AlphaVantageURL
	}
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", a.APIKey)

	var resp alphaVantageResponse
	if err := getJSON(ctx, a.Client, base+"/query?"+q.Encode(), &resp); err != nil {
		return 0, err
	}
	// Free-tier throttling comes back as a 200 with a Note.
	if resp.Note != "" || strings.Contains(strings.ToLower(resp.Information), "rate limit") {
		return 0, fmt.Errorf("%w: alpha vantage rate limit", ErrTransient)
	}
	if resp.Error != "" {
		return 0, fmt.Errorf("alpha vantage: %s", resp.Error)
	}
	raw := strings.TrimSpace(resp.GlobalQuote["05. price"])
	if raw == "" {
		return 0, ErrNoPrice
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("alpha vantage: bad price %q", raw)
	}
	return price, nil
}
