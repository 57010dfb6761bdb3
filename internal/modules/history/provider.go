package history

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/domain"
)

// Fetcher downloads daily price history from an external source
type Fetcher interface {
	FetchDailyHistory(symbol string, start, end time.Time) ([]domain.PriceBar, error)
}

// Provider serves price history cache-first: the local store is consulted
// before the external fetcher, and fetched data is stored for later reads.
// Remote failures degrade to whatever the store holds; an empty series is a
// valid answer the caller treats as skip-for-symbol.
type Provider struct {
	store   *Store
	fetcher Fetcher
	log     zerolog.Logger
}

// NewProvider creates a cache-first price provider
func NewProvider(store *Store, fetcher Fetcher, log zerolog.Logger) *Provider {
	return &Provider{
		store:   store,
		fetcher: fetcher,
		log:     log.With().Str("component", "price_provider").Logger(),
	}
}

// GetPriceHistory returns ordered daily bars for the symbol within
// [start, end]. Store contents win; only a completely empty range triggers
// a remote fetch.
func (p *Provider) GetPriceHistory(symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	bars, err := p.store.GetDailyPrices(symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		return bars, nil
	}

	if p.fetcher == nil {
		return nil, nil
	}

	fetched, err := p.fetcher.FetchDailyHistory(symbol, start, end)
	if err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Remote price fetch failed")
		return nil, err
	}

	if err := p.store.SaveDailyPrices(symbol, fetched); err != nil {
		// Serving the data matters more than caching it
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache fetched prices")
	}

	return fetched, nil
}

// Refresh fetches the trailing window for a symbol and stores it,
// regardless of cache state
func (p *Provider) Refresh(symbol string, days int) (int, error) {
	if p.fetcher == nil {
		return 0, nil
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	bars, err := p.fetcher.FetchDailyHistory(symbol, start, end)
	if err != nil {
		return 0, err
	}

	if err := p.store.SaveDailyPrices(symbol, bars); err != nil {
		return 0, err
	}

	return len(bars), nil
}
