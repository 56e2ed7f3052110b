// Package crypto prices coins through the CoinGecko public API.
package crypto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finzora/api/logger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

var ErrNoPrice = errors.New("no crypto price available")

var errRateLimited = errors.New("coingecko rate limit")

// aliases maps common ticker symbols to CoinGecko ids.
var aliases = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"sol":   "solana",
	"ada":   "cardano",
	"doge":  "dogecoin",
	"dot":   "polkadot",
	"matic": "matic-network",
}

// CoinID resolves a symbol through the alias table, lower-casing it.
func CoinID(symbol string) string {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if id, ok := aliases[symbol]; ok {
		return id
	}
	return symbol
}

type Coin struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type Client struct {
	BaseURL  string
	Currency string
	HTTP     *http.Client

	// A 429 waits RetryWait and tries again, at most MaxRetries times.
	RetryWait  time.Duration
	MaxRetries int
}

func NewClient(baseURL, currency string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if currency == "" {
		currency = "inr"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Currency:   strings.ToLower(currency),
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		RetryWait:  5 * time.Second,
		MaxRetries: 3,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.BaseURL + path + "?" + params.Encode()
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.RetryWait), uint64(c.MaxRetries)), ctx)
	attempt := 0
	return backoff.RetryNotify(func() error {
		err := c.getOnce(ctx, endpoint, out)
		if err != nil && !errors.Is(err, errRateLimited) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(_ error, wait time.Duration) {
		attempt++
		logger.Get().Warn("CoinGecko rate limit reached, waiting",
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt))
	})
}

func (c *Client) getOnce(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coingecko: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetPrices prices several coin ids at once. Unknown ids are omitted.
func (c *Client) GetPrices(ctx context.Context, coinIDs []string) (map[string]float64, error) {
	if len(coinIDs) == 0 {
		return map[string]float64{}, nil
	}
	params := url.Values{}
	params.Set("ids", strings.Join(coinIDs, ","))
	params.Set("vs_currencies", c.Currency)

	var body map[string]map[string]float64
	if err := c.get(ctx, "/simple/price", params, &body); err != nil {
		return nil, fmt.Errorf("error fetching crypto prices: %w", err)
	}
	prices := make(map[string]float64, len(body))
	for id, quote := range body {
		if p, ok := quote[c.Currency]; ok && p > 0 {
			prices[id] = p
		}
	}
	return prices, nil
}

func (c *Client) GetLivePrice(ctx context.Context, coinID string) (float64, error) {
	prices, err := c.GetPrices(ctx, []string{coinID})
	if err != nil {
		return 0, err
	}
	price, ok := prices[coinID]
	if !ok {
		return 0, fmt.Errorf("%w for %s", ErrNoPrice, coinID)
	}
	return price, nil
}

func (c *Client) SearchCoin(ctx context.Context, query string) ([]Coin, error) {
	params := url.Values{}
	params.Set("query", query)

	var body struct {
		Coins []Coin `json:"coins"`
	}
	if err := c.get(ctx, "/search", params, &body); err != nil {
		return nil, fmt.Errorf("error searching coins: %w", err)
	}
	return body.Coins, nil
}

// Resolve turns a user-entered symbol into a priced coin id: alias table
// first, then a search when the direct lookup has no price.
func (c *Client) Resolve(ctx context.Context, symbol string) (string, float64, error) {
	coinID := CoinID(symbol)
	price, err := c.GetLivePrice(ctx, coinID)
	if err == nil {
		return coinID, price, nil
	}
	logger.Get().Debug("direct coin lookup failed, searching",
		zap.String("coin_id", coinID),
		zap.Error(err))

	coins, err := c.SearchCoin(ctx, strings.ToLower(strings.TrimSpace(symbol)))
	if err != nil || len(coins) == 0 {
		return "", 0, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
	}
	coinID = coins[0].ID
	price, err = c.GetLivePrice(ctx, coinID)
	if err != nil {
		return "", 0, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
	}
	return coinID, price, nil
}
