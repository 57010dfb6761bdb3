package signals

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/domain"
	"github.com/bluewave/stocksim/internal/modules/indicators"
	"github.com/bluewave/stocksim/pkg/formulas"
)

// trendWindow is the number of recent bars the trend-strength blend looks at
const trendWindow = 10

// Classifier maps indicator series to trading signals
type Classifier struct {
	log zerolog.Logger
}

// NewClassifier creates a new signal classifier
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{
		log: log.With().Str("component", "classifier").Logger(),
	}
}

// TrendStrength calculates a trend-strength score in [-1, 1] from recent
// price action and MACD behavior.
//
// Over the last min(10, n) bars:
//
//	hist_strength = mean(histogram) / stddev(histogram)   (0 if stddev is 0)
//	price_trend   = mean(pct_change(close)) × 100 × 10
//	macd_trend    = mean(macd_line - signal_line)
//	strength      = tanh(hist_strength)×0.4 + tanh(price_trend)×0.3 + tanh(macd_trend)×0.3
//
// Fewer than 3 bars yields 0. A non-finite intermediate result never
// propagates: it is replaced with ±0.1 by the sign of the last histogram
// value so one bad series cannot zero out a whole analysis run.
func (c *Classifier) TrendStrength(bars []domain.PriceBar, macd *indicators.MACD) float64 {
	n := len(bars)
	if macd.Len() < n {
		n = macd.Len()
	}
	periods := trendWindow
	if n < periods {
		periods = n
	}
	if periods < 3 {
		return 0
	}

	recentHist := macd.Histogram[macd.Len()-periods:]
	recentMACD := macd.MACDLine[macd.Len()-periods:]
	recentSignal := macd.SignalLine[macd.Len()-periods:]
	recentClose := domain.Closes(bars[len(bars)-periods:])

	histStrength := 0.0
	if std := formulas.StdDev(recentHist); std != 0 {
		histStrength = formulas.Mean(recentHist) / std
	}

	priceTrend := formulas.Mean(formulas.CalculateReturns(recentClose)) * 100 * 10

	divergence := make([]float64, periods)
	for i := 0; i < periods; i++ {
		divergence[i] = recentMACD[i] - recentSignal[i]
	}
	macdTrend := formulas.Mean(divergence)

	strength := math.Tanh(histStrength)*0.4 +
		math.Tanh(priceTrend)*0.3 +
		math.Tanh(macdTrend)*0.3

	if math.IsNaN(strength) || math.IsInf(strength, 0) {
		// Substitute a small signed value so the result is not flat zero
		c.log.Error().Float64("hist_strength", histStrength).
			Float64("price_trend", priceTrend).
			Float64("macd_trend", macdTrend).
			Msg("Non-finite trend strength, using histogram-sign fallback")
		if last := macd.Histogram[macd.Len()-1]; last > 0 {
			return 0.1
		}
		return -0.1
	}

	return math.Max(math.Min(strength, 1), -1)
}

// Classify maps a trend-strength score to a signal using the given
// thresholds. Categories are evaluated in fixed priority order and the
// first match wins: Strong Buy, Buy, Strong Sell, Sell, then Neutral.
func Classify(strength float64, params RecommendationParameters) domain.SignalType {
	if strength >= params.StrongBuy.TrendStrength {
		return domain.SignalStrongBuy
	}
	if strength >= params.Buy.TrendStrength {
		return domain.SignalBuy
	}
	if strength <= params.StrongSell.TrendStrength {
		return domain.SignalStrongSell
	}
	if strength <= params.Sell.TrendStrength {
		return domain.SignalSell
	}
	return domain.SignalNeutral
}

// Evaluate computes the trend strength for a price/indicator series and
// classifies it. Series too short to classify come back Neutral with
// strength 0.
func (c *Classifier) Evaluate(bars []domain.PriceBar, macd *indicators.MACD, params RecommendationParameters) (domain.SignalType, float64) {
	if macd == nil || macd.Len() == 0 {
		return domain.SignalNeutral, 0
	}

	strength := c.TrendStrength(bars, macd)
	return Classify(strength, params), strength
}
