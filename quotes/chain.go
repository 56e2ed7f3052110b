// Package quotes resolves equity tickers to live prices through an ordered
// list of interchangeable providers.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finzora/api/logger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var (
	// ErrNoPrice means every provider and symbol variant was exhausted.
	ErrNoPrice = errors.New("no price available")
	// ErrTransient marks failures worth retrying: network errors, timeouts
	// and rate limits.
	ErrTransient = errors.New("transient quote failure")
)

// Provider is one source of live prices.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (float64, error)
}

// BatchProvider can price several symbols in one request. Symbols missing
// from the result simply had no quote.
type BatchProvider interface {
	QuoteBatch(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Exchange suffixes tried for bare symbols: NSE then BSE.
var exchangeSuffixes = []string{".NS", ".BO"}

type Chain struct {
	providers []Provider
	batch     BatchProvider
	attempts  int
	delay     time.Duration
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers, attempts: 3, delay: time.Second}
}

// WithRetry sets how many times a transient failure is attempted per
// provider and the fixed wait between attempts.
func (c *Chain) WithRetry(attempts int, delay time.Duration) *Chain {
	if attempts < 1 {
		attempts = 1
	}
	c.attempts = attempts
	c.delay = delay
	return c
}

func (c *Chain) WithBatch(b BatchProvider) *Chain {
	c.batch = b
	return c
}

func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// SymbolVariants returns the symbol followed by its exchange-suffixed forms
// when it carries no suffix of its own.
func SymbolVariants(symbol string) []string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}
	if strings.Contains(symbol, ".") {
		return []string{symbol}
	}
	variants := []string{symbol}
	for _, suffix := range exchangeSuffixes {
		variants = append(variants, symbol+suffix)
	}
	return variants
}

func (c *Chain) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.delay), uint64(c.attempts-1)),
		ctx,
	)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !errors.Is(err, ErrTransient) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (c *Chain) quote(ctx context.Context, p Provider, symbol string) (float64, error) {
	var price float64
	err := c.retry(ctx, func() error {
		var err error
		price, err = p.Quote(ctx, symbol)
		if err == nil && price <= 0 {
			return ErrNoPrice
		}
		return err
	})
	return price, err
}

// GetLivePrice walks symbol variants and providers in order and returns the
// first positive price.
func (c *Chain) GetLivePrice(ctx context.Context, symbol string) (float64, error) {
	for _, variant := range SymbolVariants(symbol) {
		for _, p := range c.providers {
			price, err := c.quote(ctx, p, variant)
			if err == nil {
				logger.Get().Debug("price resolved",
					zap.String("symbol", variant),
					zap.String("provider", p.Name()),
					zap.Float64("price", price))
				return price, nil
			}
			if ctx.Err() != nil {
				return 0, fmt.Errorf("%w: %v", ErrNoPrice, ctx.Err())
			}
			logger.Get().Debug("provider failed",
				zap.String("symbol", variant),
				zap.String("provider", p.Name()),
				zap.Error(err))
		}
	}
	logger.Get().Warn("no price for symbol", zap.String("symbol", symbol))
	return 0, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
}

// GetBatchPrices prices every symbol it can. The bulk provider is asked
// first; anything it fails to price, or everything when it errors, is
// looked up one symbol at a time. Failed symbols are omitted.
func (c *Chain) GetBatchPrices(ctx context.Context, symbols []string) map[string]float64 {
	prices := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return prices
	}

	if c.batch != nil {
		upper := make([]string, 0, len(symbols))
		for _, s := range symbols {
			upper = append(upper, strings.ToUpper(strings.TrimSpace(s)))
		}
		var bulk map[string]float64
		err := c.retry(ctx, func() error {
			var err error
			bulk, err = c.batch.QuoteBatch(ctx, upper)
			return err
		})
		if err != nil {
			logger.Get().Warn("bulk quote failed, falling back to single lookups",
				zap.Int("symbols", len(symbols)),
				zap.Error(err))
		}
		for i, s := range symbols {
			if p, ok := bulk[upper[i]]; ok && p > 0 {
				prices[s] = p
			}
		}
	}

	for _, s := range symbols {
		if _, ok := prices[s]; ok {
			continue
		}
		if p, err := c.GetLivePrice(ctx, s); err == nil {
			prices[s] = p
		}
	}
	return prices
}
