// Package analysis evaluates every watchlist symbol against the current
// recommendation thresholds and produces buy/sell guidance.
package analysis

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/domain"
	"github.com/bluewave/stocksim/internal/modules/indicators"
	"github.com/bluewave/stocksim/internal/modules/signals"
)

// Calendar days of history fetched per symbol. Generous enough for the
// 50-day SMA plus non-trading days.
const lookbackDays = 120

const (
	rsiPeriod = 14
	smaPeriod = 50
)

// PriceProvider supplies daily bars for a symbol
type PriceProvider interface {
	GetPriceHistory(symbol string, start, end time.Time) ([]domain.PriceBar, error)
}

// SymbolSource supplies the symbols to analyze
type SymbolSource interface {
	Symbols() ([]string, error)
}

// ParametersSource supplies the recommendation thresholds
type ParametersSource interface {
	GetRecommendationParameters() (signals.RecommendationParameters, error)
}

// Service runs watchlist analysis
type Service struct {
	provider   PriceProvider
	watchlist  SymbolSource
	params     ParametersSource
	classifier *signals.Classifier
	log        zerolog.Logger

	now func() time.Time
}

// NewService creates a new analysis service
func NewService(
	provider PriceProvider,
	watchlist SymbolSource,
	params ParametersSource,
	classifier *signals.Classifier,
	log zerolog.Logger,
) *Service {
	return &Service{
		provider:   provider,
		watchlist:  watchlist,
		params:     params,
		classifier: classifier,
		log:        log.With().Str("service", "analysis").Logger(),
		now:        time.Now,
	}
}

// AnalyzeWatchlist evaluates every watchlist symbol. Symbols with missing
// or insufficient history are reported as skipped rather than failing the
// run.
func (s *Service) AnalyzeWatchlist() (*Report, error) {
	symbols, err := s.watchlist.Symbols()
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	recParams, err := s.params.GetRecommendationParameters()
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation parameters: %w", err)
	}

	report := &Report{GeneratedAt: s.now()}

	for _, symbol := range symbols {
		rec, err := s.AnalyzeSymbol(symbol, recParams)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol in watchlist analysis")
			report.Skipped = append(report.Skipped, SkippedSymbol{
				Symbol: symbol,
				Reason: err.Error(),
			})
			continue
		}
		report.Recommendations = append(report.Recommendations, *rec)
	}

	s.log.Info().
		Int("analyzed", len(report.Recommendations)).
		Int("skipped", len(report.Skipped)).
		Msg("Watchlist analysis complete")

	return report, nil
}

// AnalyzeSymbol evaluates a single symbol against the given thresholds
func (s *Service) AnalyzeSymbol(symbol string, recParams signals.RecommendationParameters) (*Recommendation, error) {
	end := s.now()
	start := end.AddDate(0, 0, -lookbackDays)

	bars, err := s.provider.GetPriceHistory(symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("price history fetch failed: %w", err)
	}
	if len(bars) < indicators.MinBarsForMACD {
		return nil, fmt.Errorf("insufficient history: %d bars, need %d", len(bars), indicators.MinBarsForMACD)
	}

	macd, err := indicators.CalculateDefaultMACD(bars)
	if err != nil {
		return nil, fmt.Errorf("MACD calculation failed: %w", err)
	}

	signal, strength := s.classifier.Evaluate(bars, macd, recParams)

	latest := bars[len(bars)-1]
	closes := domain.Closes(bars)

	rec := &Recommendation{
		Symbol:        symbol,
		Signal:        signal,
		TrendStrength: strength,
		LatestPrice:   latest.Close,
		LatestDate:    latest.Date,
		RSI:           indicators.CalculateRSI(closes, rsiPeriod),
		SMA50:         indicators.CalculateSMA(closes, smaPeriod),
	}
	if macd.Len() > 0 {
		last := macd.Len() - 1
		rec.MACD = macd.MACDLine[last]
		rec.MACDSignal = macd.SignalLine[last]
		rec.Histogram = macd.Histogram[last]
	}

	return rec, nil
}
