// Package signals turns MACD indicator series into discrete trading
// signals using per-user recommendation thresholds.
package signals

// CategoryThresholds holds the thresholds for one recommendation category.
// TrendStrength is the only field the classifier currently evaluates;
// MACDThreshold and HistogramChange are part of the stored parameter shape
// and kept for the settings surface.
type CategoryThresholds struct {
	TrendStrength   float64 `json:"trend_strength"`
	MACDThreshold   float64 `json:"macd_threshold"`
	HistogramChange float64 `json:"histogram_change"`
}

// RecommendationParameters holds per-category classification thresholds on
// the trend-strength scalar. StrongBuy and Buy thresholds are lower bounds;
// Sell and StrongSell are upper bounds.
type RecommendationParameters struct {
	StrongBuy  CategoryThresholds `json:"strong_buy"`
	Buy        CategoryThresholds `json:"buy"`
	Sell       CategoryThresholds `json:"sell"`
	StrongSell CategoryThresholds `json:"strong_sell"`
}

// Default trend-strength thresholds
const (
	DefaultStrongBuyThreshold  = 0.5
	DefaultBuyThreshold        = 0.0
	DefaultSellThreshold       = 0.0
	DefaultStrongSellThreshold = -0.5
)

// DefaultRecommendationParameters returns the documented default thresholds
func DefaultRecommendationParameters() RecommendationParameters {
	return RecommendationParameters{
		StrongBuy:  CategoryThresholds{TrendStrength: DefaultStrongBuyThreshold},
		Buy:        CategoryThresholds{TrendStrength: DefaultBuyThreshold},
		Sell:       CategoryThresholds{TrendStrength: DefaultSellThreshold},
		StrongSell: CategoryThresholds{TrendStrength: DefaultStrongSellThreshold},
	}
}
