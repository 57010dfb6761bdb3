package simulation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewave/stocksim/internal/domain"
	"github.com/bluewave/stocksim/internal/modules/ledger"
	"github.com/bluewave/stocksim/internal/modules/signals"
)

// fakeProvider synthesizes deterministic daily bars without touching disk
// or network
type fakeProvider struct {
	calls  int
	series func(symbol string, date time.Time) float64
	err    error
}

func (f *fakeProvider) GetPriceHistory(symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	var bars []domain.PriceBar
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		bars = append(bars, domain.PriceBar{
			Date:  d,
			Close: f.series(symbol, d),
		})
	}
	return bars, nil
}

// risingSeries compounds 1% per day from a fixed epoch
func risingSeries(_ string, date time.Time) float64 {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := date.Sub(epoch).Hours() / 24
	return 100 * math.Pow(1.01, days)
}

func testEngine(provider PriceProvider, params Parameters) *Engine {
	engine := NewEngine(provider, params, signals.DefaultRecommendationParameters(), zerolog.Nop())
	engine.now = func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	return engine
}

func TestRunRisingMarketBuys(t *testing.T) {
	provider := &fakeProvider{series: risingSeries}
	params := DefaultParameters(time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC))

	engine := testEngine(provider, params)

	var fractions []float64
	results, err := engine.Run(context.Background(), []string{"AAPL"}, func(f float64) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)

	// 2024-05-22 through 2024-06-01 inclusive is 11 simulated days
	assert.Len(t, results.PortfolioValues, 11)
	assert.NotEmpty(t, results.Transactions)
	assert.Equal(t, domain.TransactionBuy, results.Transactions[0].Type)
	assert.Equal(t, 10000.0, results.InitialCapital)
	assert.Greater(t, results.FinalPortfolioValue, 0.0)

	// Progress is monotone within [0, 1] and finishes at exactly 1
	require.NotEmpty(t, fractions)
	for i, f := range fractions {
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, f, fractions[i-1])
		}
	}
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestRunValidatesBeforeFetching(t *testing.T) {
	provider := &fakeProvider{series: risingSeries}
	params := DefaultParameters(time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC))
	params.InitialCapital = -1

	engine := testEngine(provider, params)

	_, err := engine.Run(context.Background(), []string{"AAPL"}, nil)
	require.Error(t, err)
	assert.Zero(t, provider.calls)
}

func TestRunContextCancellation(t *testing.T) {
	provider := &fakeProvider{series: risingSeries}
	params := DefaultParameters(time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC))

	engine := testEngine(provider, params)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, []string{"AAPL"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInsufficientHistoryIsANoTradeRun(t *testing.T) {
	// A 3-day lookback yields 4 bars per fetch, below the indicator minimum
	provider := &fakeProvider{series: risingSeries}

	engine := testEngine(provider, DefaultParameters(time.Date(2024, 5, 29, 0, 0, 0, 0, time.UTC)))
	engine.lookbackDays = 3

	results, err := engine.Run(context.Background(), []string{"AAPL"}, nil)
	require.NoError(t, err)

	assert.Empty(t, results.Transactions)
	assert.Equal(t, 10000.0, results.FinalPortfolioValue)
	assert.Len(t, results.PortfolioValues, 4)
}

func TestRunDeduplicatesWatchlist(t *testing.T) {
	provider := &fakeProvider{series: risingSeries}
	params := DefaultParameters(time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC))

	engine := testEngine(provider, params)

	_, err := engine.Run(context.Background(), []string{"AAPL", "AAPL", "AAPL"}, nil)
	require.NoError(t, err)

	// 3 simulated days, one fetch per day for the single logical symbol
	assert.Equal(t, 3, provider.calls)
}

// TestBuySellRoundTripConservation scripts a single strong buy and a later
// full liquidation over a 90 day run and checks the resulting metrics end
// to end: exactly two transactions, value conservation with fees, and one
// completed trade with the right holding period.
func TestBuySellRoundTripConservation(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	params := DefaultParameters(start)

	led := ledger.New(params.LedgerRules(), zerolog.Nop())

	price := func(day int) float64 { return 50 + 0.5*float64(day) }

	for day := 0; day < 90; day++ {
		date := start.AddDate(0, 0, day)
		prices := map[string]float64{"ACME": price(day)}

		daySignals := map[string]domain.SignalType{}
		switch day {
		case 5:
			daySignals["ACME"] = domain.SignalStrongBuy
		case 40:
			daySignals["ACME"] = domain.SignalStrongSell
		}

		led.ProcessSignals(date, daySignals, prices, []string{"ACME"})
	}

	results, err := ComputeResults(led.Snapshots(), params.InitialCapital)
	require.NoError(t, err)

	require.Equal(t, 2, results.NumberOfTrades)
	require.Len(t, results.Transactions, 2)

	buy := results.Transactions[0]
	sell := results.Transactions[1]
	assert.Equal(t, domain.TransactionBuy, buy.Type)
	assert.Equal(t, domain.TransactionSell, sell.Type)
	assert.Equal(t, buy.Shares, sell.Shares)
	assert.Greater(t, buy.Fees, 0.0)
	assert.Greater(t, sell.Fees, 0.0)

	// Every unit of value is accounted for: with the position fully closed,
	// the final value differs from initial capital by exactly the cash
	// impact of the two transactions, fees included.
	expected := params.InitialCapital - buy.TotalAmount() + sell.TotalAmount()
	assert.InDelta(t, expected, results.FinalPortfolioValue, 1e-9)

	require.Len(t, results.CompletedTrades, 1)
	trade := results.CompletedTrades[0]
	assert.Equal(t, buy.Shares, trade.Shares)
	assert.Equal(t, 35, trade.HoldingDays)
	assert.Greater(t, trade.Profit, 0.0)

	assert.Len(t, results.PortfolioValues, 90)
}

func TestDedupeSymbols(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, dedupeSymbols([]string{"A", "B", "A", "C", "B"}))
	assert.Nil(t, dedupeSymbols(nil))
}
