package formulas

// EMASeries calculates the full Exponential Moving Average series.
//
// EMA Formula:
//
//	EMA_today = (Value_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (period + 1)
//
// The series is seeded from the first value with no SMA warm-up, matching
// pandas ewm(span=period, adjust=False). Deterministic MACD across
// implementations depends on this seeding, so do not swap in an SMA-seeded
// variant.
//
// Args:
//
//	values: Input series (typically closing prices)
//	period: EMA period
//
// Returns:
//
//	Series of the same length as the input, or nil for empty input
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 || period < 1 {
		return nil
	}

	multiplier := 2.0 / (float64(period) + 1.0)

	ema := make([]float64, len(values))
	ema[0] = values[0]
	for i := 1; i < len(values); i++ {
		ema[i] = values[i]*multiplier + ema[i-1]*(1-multiplier)
	}

	return ema
}
