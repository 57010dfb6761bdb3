package simulation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/domain"
	"github.com/bluewave/stocksim/internal/modules/indicators"
	"github.com/bluewave/stocksim/internal/modules/ledger"
	"github.com/bluewave/stocksim/internal/modules/signals"
)

// PriceProvider supplies ordered daily price history. An empty series means
// no data is available for the range; the engine treats that as skip, not
// failure.
type PriceProvider interface {
	GetPriceHistory(symbol string, start, end time.Time) ([]domain.PriceBar, error)
}

// ProgressFunc receives the fraction of simulated days processed, in [0, 1]
type ProgressFunc func(fraction float64)

// Engine runs a single simulation: one calendar-day loop from the start
// date to now, feeding signals into a ledger it owns. Engines are
// single-use and single-threaded; each run gets its own instance.
//
// Price convention: decisions and executions for a simulated day use the
// latest close of the lookback window ending at that day. The same price
// marks positions, sizes sells and fills orders, so there is a single
// reference price per symbol per day.
type Engine struct {
	provider   PriceProvider
	classifier *signals.Classifier
	params     Parameters
	recParams  signals.RecommendationParameters
	ledger     *ledger.Ledger
	log        zerolog.Logger

	lookbackDays int
	minBars      int
	now          func() time.Time
}

// NewEngine creates a simulation engine for one run
func NewEngine(
	provider PriceProvider,
	params Parameters,
	recParams signals.RecommendationParameters,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		provider:     provider,
		classifier:   signals.NewClassifier(log),
		params:       params,
		recParams:    recParams,
		ledger:       ledger.New(params.LedgerRules(), log),
		log:          log.With().Str("component", "simulation").Logger(),
		lookbackDays: 60,
		minBars:      indicators.MinBarsForMACD,
		now:          time.Now,
	}
}

// Run executes the simulation over the watchlist and returns the final
// results. It fails fast on invalid parameters with an error listing every
// violation, checks ctx between days, and reports fractional progress to
// the optional callback. A successful run always returns a complete,
// internally consistent result.
func (e *Engine) Run(ctx context.Context, watchlist []string, progress ProgressFunc) (*Results, error) {
	endDate := e.now()

	if err := e.params.Validate(endDate); err != nil {
		return nil, err
	}

	symbols := dedupeSymbols(watchlist)

	currentDate := e.params.StartDate
	totalDays := int(endDate.Sub(currentDate).Hours()/24) + 1
	daysProcessed := 0

	for !currentDate.After(endDate) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if progress != nil && totalDays > 0 {
			fraction := float64(daysProcessed) / float64(totalDays)
			if fraction > 1 {
				fraction = 1
			}
			progress(fraction)
		}

		daySignals, dayPrices := e.generateSignalsAndPrices(symbols, currentDate)
		e.ledger.ProcessSignals(currentDate, daySignals, dayPrices, symbols)

		currentDate = currentDate.AddDate(0, 0, 1)
		daysProcessed++
	}

	results, err := ComputeResults(e.ledger.Snapshots(), e.params.InitialCapital)
	if err != nil {
		return nil, err
	}

	if progress != nil {
		progress(1.0)
	}

	e.log.Info().
		Int("days", daysProcessed).
		Int("trades", results.NumberOfTrades).
		Float64("final_value", results.FinalPortfolioValue).
		Msg("Simulation complete")

	return results, nil
}

// generateSignalsAndPrices fetches the trailing lookback window for every
// symbol and classifies it. A symbol with a fetch failure or fewer than the
// minimum bars is skipped for the day; one symbol's failure never aborts
// the day.
func (e *Engine) generateSignalsAndPrices(symbols []string, date time.Time) (map[string]domain.SignalType, map[string]float64) {
	daySignals := make(map[string]domain.SignalType)
	dayPrices := make(map[string]float64)

	lookback := date.AddDate(0, 0, -e.lookbackDays)

	for _, symbol := range symbols {
		bars, err := e.provider.GetPriceHistory(symbol, lookback, date)
		if err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Time("date", date).
				Msg("Price fetch failed, skipping symbol for the day")
			continue
		}

		if len(bars) < e.minBars {
			e.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).
				Msg("Insufficient price history, skipping symbol for the day")
			continue
		}

		macd, err := indicators.CalculateDefaultMACD(bars)
		if err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("MACD calculation failed, skipping symbol")
			continue
		}

		signal, _ := e.classifier.Evaluate(bars, macd, e.recParams)

		daySignals[symbol] = signal
		dayPrices[symbol] = bars[len(bars)-1].Close
	}

	return daySignals, dayPrices
}

// dedupeSymbols collapses duplicate watchlist entries to a single logical
// symbol, preserving first-seen order
func dedupeSymbols(watchlist []string) []string {
	seen := make(map[string]struct{}, len(watchlist))
	var symbols []string
	for _, s := range watchlist {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	return symbols
}
