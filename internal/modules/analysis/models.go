package analysis

import (
	"time"

	"github.com/bluewave/stocksim/internal/domain"
)

// Recommendation is the per-symbol output of a watchlist analysis run
type Recommendation struct {
	Symbol        string            `json:"symbol"`
	Signal        domain.SignalType `json:"signal"`
	TrendStrength float64           `json:"trend_strength"`
	LatestPrice   float64           `json:"latest_price"`
	LatestDate    time.Time         `json:"latest_date"`
	MACD          float64           `json:"macd"`
	MACDSignal    float64           `json:"macd_signal"`
	Histogram     float64           `json:"histogram"`
	RSI           *float64          `json:"rsi,omitempty"`
	SMA50         *float64          `json:"sma_50,omitempty"`
}

// Report bundles the recommendations with the symbols that could not be
// analyzed, so one bad ticker never sinks the whole run.
type Report struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Recommendations []Recommendation `json:"recommendations"`
	Skipped         []SkippedSymbol  `json:"skipped,omitempty"`
}

// SkippedSymbol records why a watchlist entry produced no recommendation
type SkippedSymbol struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}
