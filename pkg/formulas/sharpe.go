package formulas

import (
	"math"
)

// TradingDaysPerYear is the conventional number of trading days used for
// annualization.
const TradingDaysPerYear = 252

// CalculateSharpeRatio calculates the annualized Sharpe ratio from daily
// returns.
//
// Sharpe Formula:
//
//	daily_rf = (1 + annual_rf)^(1/252) - 1
//	excess_i = return_i - daily_rf
//	Sharpe   = (mean(excess) × 252) / (stddev(excess) × sqrt(252))
//
// Args:
//
//	dailyReturns: Array of daily returns (fractional, e.g. 0.01 for 1%)
//	riskFreeRate: Annual risk-free rate as decimal (e.g. 0.02 for 2%)
//
// Returns:
//
//	Annualized Sharpe ratio, or 0 when the return series is too short or
//	has zero variance
func CalculateSharpeRatio(dailyReturns []float64, riskFreeRate float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}

	// Daily risk-free rate from annual compounding
	dailyRF := math.Pow(1+riskFreeRate, 1.0/float64(TradingDaysPerYear)) - 1

	excess := make([]float64, len(dailyReturns))
	for i, r := range dailyReturns {
		excess[i] = r - dailyRF
	}

	stdDev := StdDev(excess)
	if stdDev == 0 {
		return 0
	}

	return (Mean(excess) * TradingDaysPerYear) / (stdDev * math.Sqrt(TradingDaysPerYear))
}
