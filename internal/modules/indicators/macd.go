// Package indicators computes technical indicators over daily price series.
package indicators

import (
	"fmt"

	"github.com/bluewave/stocksim/internal/domain"
	"github.com/bluewave/stocksim/pkg/formulas"
)

// Default MACD periods
const (
	DefaultFastPeriod   = 12
	DefaultSlowPeriod   = 26
	DefaultSignalPeriod = 9
)

// MinBarsForMACD is the number of bars callers should supply for a
// meaningful MACD reading. Shorter series still compute, down to the hard
// minimum of 2 points.
const MinBarsForMACD = 30

// MACD holds the three MACD series. All series have the same length as the
// input price series.
type MACD struct {
	MACDLine   []float64 `json:"macd_line"`
	SignalLine []float64 `json:"signal_line"`
	Histogram  []float64 `json:"histogram"`
}

// Len returns the series length
func (m *MACD) Len() int {
	return len(m.MACDLine)
}

// Latest returns the last MACD line, signal line and histogram values
func (m *MACD) Latest() (macd, signal, hist float64) {
	n := m.Len()
	if n == 0 {
		return 0, 0, 0
	}
	return m.MACDLine[n-1], m.SignalLine[n-1], m.Histogram[n-1]
}

// CalculateMACD calculates the MACD indicator from a close-price series.
//
// MACD Formula:
//
//	macd_line   = EMA(close, fast) - EMA(close, slow)
//	signal_line = EMA(macd_line, signal)
//	histogram   = macd_line - signal_line
//
// EMAs are seeded from the first value (no SMA warm-up), so results are
// byte-identical across runs and implementations for a fixed input.
//
// Args:
//
//	bars: Price series ordered by date ascending
//	fastPeriod, slowPeriod, signalPeriod: EMA periods (typically 12/26/9)
//
// Returns:
//
//	MACD series, or an error for fewer than 2 bars (EMA is degenerate)
func CalculateMACD(bars []domain.PriceBar, fastPeriod, slowPeriod, signalPeriod int) (*MACD, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("insufficient price data for MACD: have %d bars, need at least 2", len(bars))
	}

	closes := domain.Closes(bars)

	fastEMA := formulas.EMASeries(closes, fastPeriod)
	slowEMA := formulas.EMASeries(closes, slowPeriod)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := formulas.EMASeries(macdLine, signalPeriod)

	histogram := make([]float64, len(closes))
	for i := range closes {
		histogram[i] = macdLine[i] - signalLine[i]
	}

	return &MACD{
		MACDLine:   macdLine,
		SignalLine: signalLine,
		Histogram:  histogram,
	}, nil
}

// CalculateDefaultMACD calculates MACD with the standard 12/26/9 periods
func CalculateDefaultMACD(bars []domain.PriceBar) (*MACD, error) {
	return CalculateMACD(bars, DefaultFastPeriod, DefaultSlowPeriod, DefaultSignalPeriod)
}
