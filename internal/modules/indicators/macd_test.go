package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewave/stocksim/internal/domain"
)

func barsFromCloses(closes []float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = domain.PriceBar{
			Date:  base.AddDate(0, 0, i),
			Close: c,
		}
	}
	return bars
}

func TestCalculateMACDInsufficientData(t *testing.T) {
	_, err := CalculateDefaultMACD(barsFromCloses([]float64{100}))
	assert.Error(t, err)

	_, err = CalculateDefaultMACD(nil)
	assert.Error(t, err)
}

func TestCalculateMACDSeriesLength(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	macd, err := CalculateDefaultMACD(barsFromCloses(closes))
	require.NoError(t, err)

	assert.Equal(t, 60, macd.Len())
	assert.Len(t, macd.SignalLine, 60)
	assert.Len(t, macd.Histogram, 60)
}

func TestCalculateMACDConstantPrices(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 50
	}

	macd, err := CalculateDefaultMACD(barsFromCloses(closes))
	require.NoError(t, err)

	// Flat prices produce flat zero MACD with first-value EMA seeding
	for i := 0; i < macd.Len(); i++ {
		assert.InDelta(t, 0.0, macd.MACDLine[i], 1e-9)
		assert.InDelta(t, 0.0, macd.SignalLine[i], 1e-9)
		assert.InDelta(t, 0.0, macd.Histogram[i], 1e-9)
	}
}

func TestCalculateMACDDeterministic(t *testing.T) {
	closes := []float64{100, 102, 101, 105, 107, 106, 110, 108, 112, 115,
		113, 117, 120, 118, 122, 125, 123, 127, 130, 128}
	bars := barsFromCloses(closes)

	first, err := CalculateDefaultMACD(bars)
	require.NoError(t, err)
	second, err := CalculateDefaultMACD(bars)
	require.NoError(t, err)

	assert.Equal(t, first.MACDLine, second.MACDLine)
	assert.Equal(t, first.SignalLine, second.SignalLine)
	assert.Equal(t, first.Histogram, second.Histogram)
}

func TestCalculateMACDHistogramIdentity(t *testing.T) {
	closes := []float64{10, 12, 11, 14, 13, 16, 15, 18, 17, 20}
	macd, err := CalculateMACD(barsFromCloses(closes), 3, 6, 2)
	require.NoError(t, err)

	for i := 0; i < macd.Len(); i++ {
		assert.InDelta(t, macd.MACDLine[i]-macd.SignalLine[i], macd.Histogram[i], 1e-12)
		assert.False(t, math.IsNaN(macd.MACDLine[i]))
	}
}

func TestCalculateMACDRisingTrend(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.01, float64(i))
	}

	macd, err := CalculateDefaultMACD(barsFromCloses(closes))
	require.NoError(t, err)

	// Sustained rise keeps the fast EMA above the slow EMA
	macdLast, _, _ := macd.Latest()
	assert.Greater(t, macdLast, 0.0)
}

func TestMACDLatestEmpty(t *testing.T) {
	m := &MACD{}
	macd, signal, hist := m.Latest()
	assert.Equal(t, 0.0, macd)
	assert.Equal(t, 0.0, signal)
	assert.Equal(t, 0.0, hist)
}
