// Package simulation runs day-by-day portfolio backtests over historical
// prices and reduces the results into performance metrics.
package simulation

import (
	"fmt"
	"strings"
	"time"

	"github.com/bluewave/stocksim/internal/modules/ledger"
)

// InvestmentRules holds the per-signal sizing percentages. Buy percentages
// apply to available cash; sell percentages apply to the current position's
// market value.
type InvestmentRules struct {
	StrongBuyPercent  float64 `json:"strong_buy_percent"`
	BuyPercent        float64 `json:"buy_percent"`
	SellPercent       float64 `json:"sell_percent"`
	StrongSellPercent float64 `json:"strong_sell_percent"`
}

// Parameters configures one simulation run. Immutable for the duration of
// the run.
type Parameters struct {
	StartDate                time.Time       `json:"start_date"`
	InitialCapital           float64         `json:"initial_capital"`
	TransactionFeePercent    float64         `json:"transaction_fee_percent"`
	InvestmentRules          InvestmentRules `json:"investment_rules"`
	MaxSinglePositionPercent float64         `json:"max_single_position_percent"`
}

// Parameter defaults
const (
	DefaultInitialCapital    = 10000.0
	DefaultFeePercent        = 0.1
	DefaultStrongBuyPercent  = 20.0
	DefaultBuyPercent        = 10.0
	DefaultSellPercent       = 50.0
	DefaultStrongSellPercent = 100.0
	DefaultMaxPositionPct    = 20.0
)

// DefaultParameters returns the default parameter set for a start date
func DefaultParameters(startDate time.Time) Parameters {
	return Parameters{
		StartDate:             startDate,
		InitialCapital:        DefaultInitialCapital,
		TransactionFeePercent: DefaultFeePercent,
		InvestmentRules: InvestmentRules{
			StrongBuyPercent:  DefaultStrongBuyPercent,
			BuyPercent:        DefaultBuyPercent,
			SellPercent:       DefaultSellPercent,
			StrongSellPercent: DefaultStrongSellPercent,
		},
		MaxSinglePositionPercent: DefaultMaxPositionPct,
	}
}

// ValidationError aggregates every violated constraint, not just the first
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid parameters: " + strings.Join(e.Violations, ", ")
}

// Validate checks all parameter constraints and returns a ValidationError
// listing every violation, or nil when the parameters are usable.
func (p Parameters) Validate(now time.Time) error {
	var violations []string

	if p.InitialCapital <= 0 {
		violations = append(violations, "initial capital must be greater than 0")
	}

	if !p.StartDate.Before(now) {
		violations = append(violations, "start date must be in the past")
	}

	percentages := []struct {
		name  string
		value float64
	}{
		{"transaction fee", p.TransactionFeePercent},
		{"maximum position", p.MaxSinglePositionPercent},
		{"strong buy rule", p.InvestmentRules.StrongBuyPercent},
		{"buy rule", p.InvestmentRules.BuyPercent},
		{"sell rule", p.InvestmentRules.SellPercent},
		{"strong sell rule", p.InvestmentRules.StrongSellPercent},
	}
	for _, pct := range percentages {
		if pct.value < 0 || pct.value > 100 {
			violations = append(violations, fmt.Sprintf("%s must be between 0 and 100 percent", pct.name))
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// LedgerRules converts the parameters into the rules the ledger enforces
func (p Parameters) LedgerRules() ledger.Rules {
	return ledger.Rules{
		InitialCapital:           p.InitialCapital,
		TransactionFeePercent:    p.TransactionFeePercent,
		StrongBuyPercent:         p.InvestmentRules.StrongBuyPercent,
		BuyPercent:               p.InvestmentRules.BuyPercent,
		SellPercent:              p.InvestmentRules.SellPercent,
		StrongSellPercent:        p.InvestmentRules.StrongSellPercent,
		MaxSinglePositionPercent: p.MaxSinglePositionPercent,
	}
}
