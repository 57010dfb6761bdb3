// Package jobs holds the scheduled jobs that keep price history fresh.
package jobs

import (
	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/events"
	"github.com/bluewave/stocksim/internal/modules/history"
)

// SymbolSource supplies the symbols to sync
type SymbolSource interface {
	Symbols() ([]string, error)
}

// syncWindowDays covers a year of daily bars plus the simulation lookback
const syncWindowDays = 400

// PriceSyncJob refreshes daily price history for every watchlist symbol
type PriceSyncJob struct {
	provider *history.Provider
	source   SymbolSource
	events   *events.Manager
	log      zerolog.Logger
}

// NewPriceSyncJob creates a price sync job
func NewPriceSyncJob(provider *history.Provider, source SymbolSource, eventManager *events.Manager, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		provider: provider,
		source:   source,
		events:   eventManager,
		log:      log.With().Str("job", "price_sync").Logger(),
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run refreshes history for all symbols. Per-symbol failures are logged
// and do not stop the sweep.
func (j *PriceSyncJob) Run() error {
	symbols, err := j.source.Symbols()
	if err != nil {
		return err
	}

	j.events.Emit(events.PriceSyncStart, "history", map[string]interface{}{
		"symbols": len(symbols),
	})

	synced := 0
	for _, symbol := range symbols {
		bars, err := j.provider.Refresh(symbol, syncWindowDays)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Price sync failed for symbol")
			continue
		}
		j.log.Debug().Str("symbol", symbol).Int("bars", bars).Msg("Price history refreshed")
		synced++
	}

	j.events.Emit(events.PriceSyncComplete, "history", map[string]interface{}{
		"synced": synced,
		"total":  len(symbols),
	})

	j.log.Info().Int("synced", synced).Int("total", len(symbols)).Msg("Price sync complete")
	return nil
}
