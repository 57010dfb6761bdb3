package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewave/stocksim/internal/domain"
	"github.com/bluewave/stocksim/internal/modules/signals"
)

type fakeProvider struct {
	bars map[string][]domain.PriceBar
	errs map[string]error
}

func (f *fakeProvider) GetPriceHistory(symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

type fakeWatchlist struct {
	symbols []string
	err     error
}

func (f *fakeWatchlist) Symbols() ([]string, error) {
	return f.symbols, f.err
}

type fakeParams struct{}

func (fakeParams) GetRecommendationParameters() (signals.RecommendationParameters, error) {
	return signals.DefaultRecommendationParameters(), nil
}

func risingBars(n int) []domain.PriceBar {
	bars := make([]domain.PriceBar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = domain.PriceBar{
			Date:  base.AddDate(0, 0, i),
			Close: 100 + 2*float64(i),
		}
	}
	return bars
}

func newTestService(provider PriceProvider, watchlist SymbolSource) *Service {
	svc := NewService(provider, watchlist, fakeParams{}, signals.NewClassifier(zerolog.Nop()), zerolog.Nop())
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestAnalyzeWatchlist(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]domain.PriceBar{
			"AAPL": risingBars(60),
			"MSFT": risingBars(60),
		},
	}
	svc := newTestService(provider, &fakeWatchlist{symbols: []string{"AAPL", "MSFT"}})

	report, err := svc.AnalyzeWatchlist()
	require.NoError(t, err)

	require.Len(t, report.Recommendations, 2)
	assert.Empty(t, report.Skipped)

	rec := report.Recommendations[0]
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.True(t, rec.Signal.IsBuy())
	assert.Greater(t, rec.TrendStrength, 0.0)
	assert.InDelta(t, 100+2*59.0, rec.LatestPrice, 1e-9)
	assert.NotNil(t, rec.RSI)
	assert.NotNil(t, rec.SMA50)
}

func TestAnalyzeWatchlistSkipsFailedSymbols(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]domain.PriceBar{
			"AAPL":  risingBars(60),
			"SHORT": risingBars(5),
		},
		errs: map[string]error{
			"BROKEN": fmt.Errorf("fetch exploded"),
		},
	}
	svc := newTestService(provider, &fakeWatchlist{symbols: []string{"AAPL", "SHORT", "BROKEN"}})

	report, err := svc.AnalyzeWatchlist()
	require.NoError(t, err)

	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "AAPL", report.Recommendations[0].Symbol)

	require.Len(t, report.Skipped, 2)
	skipped := map[string]string{}
	for _, s := range report.Skipped {
		skipped[s.Symbol] = s.Reason
	}
	assert.Contains(t, skipped["SHORT"], "insufficient history")
	assert.Contains(t, skipped["BROKEN"], "fetch exploded")
}

func TestAnalyzeWatchlistSourceFailure(t *testing.T) {
	svc := newTestService(&fakeProvider{}, &fakeWatchlist{err: fmt.Errorf("db closed")})

	_, err := svc.AnalyzeWatchlist()
	assert.Error(t, err)
}

func TestAnalyzeSymbolMACDFields(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]domain.PriceBar{"AAPL": risingBars(60)}}
	svc := newTestService(provider, &fakeWatchlist{})

	rec, err := svc.AnalyzeSymbol("AAPL", signals.DefaultRecommendationParameters())
	require.NoError(t, err)

	// Rising prices keep the fast EMA above the slow one
	assert.Greater(t, rec.MACD, 0.0)
	assert.InDelta(t, rec.MACD-rec.MACDSignal, rec.Histogram, 1e-12)
}
