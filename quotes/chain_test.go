package quotes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider answers from a fixed table and can fail a number of times
// before succeeding.
type fakeProvider struct {
	name     string
	prices   map[string]float64
	failWith error
	failures int
	calls    []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Quote(_ context.Context, symbol string) (float64, error) {
	f.calls = append(f.calls, symbol)
	if f.failures > 0 {
		f.failures--
		return 0, f.failWith
	}
	if p, ok := f.prices[symbol]; ok {
		return p, nil
	}
	return 0, ErrNoPrice
}

type fakeBatch struct {
	prices map[string]float64
	err    error
	calls  int
}

func (f *fakeBatch) QuoteBatch(_ context.Context, symbols []string) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]float64{}
	for _, s := range symbols {
		if p, ok := f.prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

func TestSymbolVariants(t *testing.T) {
	assert.Equal(t, []string{"TCS", "TCS.NS", "TCS.BO"}, SymbolVariants(" tcs "))
	assert.Equal(t, []string{"INFY.NS"}, SymbolVariants("infy.ns"))
	assert.Nil(t, SymbolVariants(""))
}

func TestFirstProviderWins(t *testing.T) {
	a := &fakeProvider{name: "a", prices: map[string]float64{"AAPL": 152.5}}
	b := &fakeProvider{name: "b", prices: map[string]float64{"AAPL": 999}}
	price, err := NewChain(a, b).WithRetry(3, 0).GetLivePrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 152.5, price)
	assert.Empty(t, b.calls)
}

func TestFallsThroughProvidersThenVariants(t *testing.T) {
	a := &fakeProvider{name: "a"}
	b := &fakeProvider{name: "b", prices: map[string]float64{"RELIANCE.BO": 2500}}
	price, err := NewChain(a, b).WithRetry(1, 0).GetLivePrice(context.Background(), "reliance")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, price)
	assert.Equal(t, []string{"RELIANCE", "RELIANCE.NS", "RELIANCE.BO"}, a.calls)
	assert.Equal(t, []string{"RELIANCE", "RELIANCE.NS", "RELIANCE.BO"}, b.calls)
}

func TestTransientErrorsAreRetried(t *testing.T) {
	a := &fakeProvider{
		name:     "a",
		prices:   map[string]float64{"AAPL.NS": 10},
		failWith: fmt.Errorf("%w: status 429", ErrTransient),
		failures: 2,
	}
	price, err := NewChain(a).WithRetry(3, time.Millisecond).GetLivePrice(context.Background(), "AAPL.NS")
	require.NoError(t, err)
	assert.Equal(t, 10.0, price)
	assert.Len(t, a.calls, 3)
}

func TestRetriesAreBounded(t *testing.T) {
	a := &fakeProvider{name: "a", failWith: ErrTransient, failures: 100}
	_, err := NewChain(a).WithRetry(3, 0).GetLivePrice(context.Background(), "AAPL.NS")
	assert.ErrorIs(t, err, ErrNoPrice)
	assert.Len(t, a.calls, 3)
}

func TestPermanentErrorsAreNotRetried(t *testing.T) {
	a := &fakeProvider{name: "a", failWith: errors.New("bad request"), failures: 100}
	_, err := NewChain(a).WithRetry(3, 0).GetLivePrice(context.Background(), "AAPL.NS")
	assert.ErrorIs(t, err, ErrNoPrice)
	assert.Len(t, a.calls, 1)
}

func TestZeroPriceIsNoPrice(t *testing.T) {
	a := &fakeProvider{name: "a", prices: map[string]float64{"X.NS": 0}}
	_, err := NewChain(a).WithRetry(2, 0).GetLivePrice(context.Background(), "X.NS")
	assert.ErrorIs(t, err, ErrNoPrice)
	assert.Len(t, a.calls, 1)
}

func TestBatchPrefersBulkAndFillsGaps(t *testing.T) {
	single := &fakeProvider{name: "single", prices: map[string]float64{"TCS.NS": 3900}}
	batch := &fakeBatch{prices: map[string]float64{"AAPL": 150}}

	got := NewChain(single).WithRetry(1, 0).WithBatch(batch).
		GetBatchPrices(context.Background(), []string{"aapl", "TCS", "NOPE"})
	assert.Equal(t, map[string]float64{"aapl": 150, "TCS": 3900}, got)
	assert.Equal(t, 1, batch.calls)
	assert.NotContains(t, single.calls, "AAPL")
}

func TestBatchFailureFallsBackToSingles(t *testing.T) {
	single := &fakeProvider{name: "single", prices: map[string]float64{"AAPL": 150, "MSFT": 400}}
	batch := &fakeBatch{err: errors.New("boom")}

	got := NewChain(single).WithRetry(1, 0).WithBatch(batch).
		GetBatchPrices(context.Background(), []string{"AAPL", "MSFT"})
	assert.Equal(t, map[string]float64{"AAPL": 150, "MSFT": 400}, got)
}
