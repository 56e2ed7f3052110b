package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	YahooChartURL = "https://query1.finance.yahoo.com"
	YahooQuoteURL = "https://query2.finance.yahoo.com"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func fetchChart(ctx context.Context, client *http.Client, base, symbol string) (*chartResponse, error) {
	if base == "" {
		base = YahooChartURL
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", base, url.PathEscape(symbol))
	var resp chartResponse
	if err := getJSON(ctx, client, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrNoPrice
	}
	return &resp, nil
}

// YahooFast reads the regular market price from the chart metadata.
type YahooFast struct {
	BaseURL string
	Client  *http.Client
}

func (y *YahooFast) Name() string { return "yahoo-fast" }

func (y *YahooFast) Quote(ctx context.Context, symbol string) (float64, error) {
	resp, err := fetchChart(ctx, y.Client, y.BaseURL, symbol)
	if err != nil {
		return 0, err
	}
	return resp.Chart.Result[0].Meta.RegularMarketPrice, nil
}

// YahooDailyClose uses the most recent non-empty daily close.
type YahooDailyClose struct {
	BaseURL string
	Client  *http.Client
}

func (y *YahooDailyClose) Name() string { return "yahoo-close" }

func (y *YahooDailyClose) Quote(ctx context.Context, symbol string) (float64, error) {
	resp, err := fetchChart(ctx, y.Client, y.BaseURL, symbol)
	if err != nil {
		return 0, err
	}
	quotes := resp.Chart.Result[0].Indicators.Quote
	if len(quotes) == 0 {
		return 0, ErrNoPrice
	}
	closes := quotes[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != nil && *closes[i] > 0 {
			return *closes[i], nil
		}
	}
	return 0, ErrNoPrice
}

// YahooQuote is the unauthenticated v7 quote endpoint. It also serves bulk
// lookups.
type YahooQuote struct {
	BaseURL string
	Client  *http.Client
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (y *YahooQuote) Name() string { return "yahoo-quote" }

func (y *YahooQuote) QuoteBatch(ctx context.Context, symbols []string) (map[string]float64, error) {
	base := y.BaseURL
	if base == "" {
		base = YahooQuoteURL
	}
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))

	var resp quoteResponse
	if err := getJSON(ctx, y.Client, base+"/v7/finance/quote?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		if r.RegularMarketPrice > 0 {
			prices[strings.ToUpper(r.Symbol)] = r.RegularMarketPrice
		}
	}
	return prices, nil
}

func (y *YahooQuote) Quote(ctx context.Context, symbol string) (float64, error) {
	prices, err := y.QuoteBatch(ctx, []string{symbol})
	if err != nil {
		return 0, err
	}
	price, ok := prices[strings.ToUpper(symbol)]
	if !ok {
		return 0, ErrNoPrice
	}
	return price, nil
}
