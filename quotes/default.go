package quotes

import "net/http"

// Endpoints overrides provider base URLs; empty fields use the public APIs.
type Endpoints struct {
	AlphaVantage string
	YahooChart   string
	YahooQuote   string
}

// NewDefaultChain wires the standard provider order: Alpha Vantage (only
// with a key), Yahoo fast quote, Yahoo daily close, then the Yahoo v7 quote
// endpoint, which also handles bulk lookups.
func NewDefaultChain(alphaVantageKey string, client *http.Client, endpoints Endpoints) *Chain {
	if client == nil {
		client = NewHTTPClient()
	}
	var providers []Provider
	if alphaVantageKey != "" {
		providers = append(providers, &AlphaVantage{APIKey: alphaVantageKey, BaseURL: endpoints.AlphaVantage, Client: client})
	}
	quote := &YahooQuote{BaseURL: endpoints.YahooQuote, Client: client}
	providers = append(providers,
		&YahooFast{BaseURL: endpoints.YahooChart, Client: client},
		&YahooDailyClose{BaseURL: endpoints.YahooChart, Client: client},
		quote,
	)
	return NewChain(providers...).WithBatch(quote)
}
