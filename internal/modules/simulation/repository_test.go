package simulation

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewave/stocksim/internal/modules/signals"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, InitSchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetParametersDefaultsWhenEmpty(t *testing.T) {
	repo := NewParametersRepository(setupTestDB(t), zerolog.Nop())

	p, err := repo.GetParameters()
	require.NoError(t, err)

	assert.Equal(t, 10000.0, p.InitialCapital)
	assert.Equal(t, 0.1, p.TransactionFeePercent)

	// Default start date sits roughly 90 days back
	daysBack := time.Since(p.StartDate).Hours() / 24
	assert.InDelta(t, 90, daysBack, 2)
}

func TestSaveAndGetParameters(t *testing.T) {
	repo := NewParametersRepository(setupTestDB(t), zerolog.Nop())

	saved := DefaultParameters(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	saved.InitialCapital = 25000
	saved.InvestmentRules.BuyPercent = 15
	require.NoError(t, repo.SaveParameters(saved))

	got, err := repo.GetParameters()
	require.NoError(t, err)

	assert.Equal(t, saved.StartDate, got.StartDate)
	assert.Equal(t, 25000.0, got.InitialCapital)
	assert.Equal(t, 15.0, got.InvestmentRules.BuyPercent)
}

func TestSaveParametersUpsert(t *testing.T) {
	repo := NewParametersRepository(setupTestDB(t), zerolog.Nop())

	first := DefaultParameters(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.SaveParameters(first))

	second := first
	second.InitialCapital = 50000
	require.NoError(t, repo.SaveParameters(second))

	got, err := repo.GetParameters()
	require.NoError(t, err)
	assert.Equal(t, 50000.0, got.InitialCapital)
}

func TestGetParametersMalformedDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParametersRepository(db, zerolog.Nop())

	_, err := db.Exec(`
		INSERT INTO simulation_parameters (
			id, start_date, initial_capital, transaction_fee_percent,
			strong_buy_percent, buy_percent, sell_percent, strong_sell_percent,
			max_single_position_percent, updated_at
		) VALUES (1, 'not-a-date', 10000, 0.1, 20, 10, 50, 100, 20, '2024-01-01T00:00:00Z')
	`)
	require.NoError(t, err)

	_, err = repo.GetParameters()
	assert.Error(t, err)
}

func TestGetRecommendationParametersDefaults(t *testing.T) {
	repo := NewParametersRepository(setupTestDB(t), zerolog.Nop())

	params, err := repo.GetRecommendationParameters()
	require.NoError(t, err)

	defaults := signals.DefaultRecommendationParameters()
	assert.Equal(t, defaults, params)
}

func TestSaveAndGetRecommendationParameters(t *testing.T) {
	repo := NewParametersRepository(setupTestDB(t), zerolog.Nop())

	params := signals.DefaultRecommendationParameters()
	params.StrongBuy.TrendStrength = 0.7
	params.Sell.TrendStrength = -0.1
	require.NoError(t, repo.SaveRecommendationParameters(params))

	got, err := repo.GetRecommendationParameters()
	require.NoError(t, err)

	assert.Equal(t, 0.7, got.StrongBuy.TrendStrength)
	assert.Equal(t, -0.1, got.Sell.TrendStrength)
}

func TestGetRecommendationParametersUnknownCategory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParametersRepository(db, zerolog.Nop())

	_, err := db.Exec(`
		INSERT INTO recommendation_parameters (category, trend_strength, macd_threshold, histogram_change)
		VALUES ('mystery', 0.5, 0, 0)
	`)
	require.NoError(t, err)

	_, err = repo.GetRecommendationParameters()
	assert.Error(t, err)
}
