package simulation

import (
	"fmt"
	"time"

	"github.com/bluewave/stocksim/internal/domain"
	"github.com/bluewave/stocksim/internal/modules/ledger"
	"github.com/bluewave/stocksim/pkg/formulas"
)

// RiskFreeRate is the annual risk-free rate used for Sharpe annualization
const RiskFreeRate = 0.02

// SeriesPoint is one dated value in a result time series
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// CompletedTrade is the portion of a sell matched against one buy lot under
// FIFO. Fees on both legs are pro-rated by shares.
type CompletedTrade struct {
	Symbol      string    `json:"symbol"`
	Shares      int64     `json:"shares"`
	BuyDate     time.Time `json:"buy_date"`
	SellDate    time.Time `json:"sell_date"`
	Profit      float64   `json:"profit"`
	HoldingDays int       `json:"holding_days"`
}

// Results is the read-only aggregate produced by a completed simulation run
type Results struct {
	InitialCapital      float64 `json:"initial_capital"`
	FinalPortfolioValue float64 `json:"final_portfolio_value"`
	TotalReturn         float64 `json:"total_return"`
	TotalReturnPercent  float64 `json:"total_return_percent"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	NumberOfTrades      int     `json:"number_of_trades"`
	WinRate             float64 `json:"win_rate"`
	AvgHoldingPeriod    float64 `json:"avg_holding_period"`
	SharpeRatio         float64 `json:"sharpe_ratio"`

	Transactions       []ledger.Transaction       `json:"transactions"`
	TransactionRecords []ledger.TransactionRecord `json:"transaction_records"`
	CompletedTrades    []CompletedTrade           `json:"completed_trades"`

	PortfolioValues []SeriesPoint `json:"portfolio_values"`
	CashValues      []SeriesPoint `json:"cash_values"`
	PositionsValues []SeriesPoint `json:"positions_values"`
	DailyReturns    []SeriesPoint `json:"daily_returns"`
}

// ComputeResults reduces an ordered snapshot sequence into summary metrics
// and charting series. The snapshot sequence must be non-empty; an empty
// sequence is a caller bug and comes back as an error rather than a
// fabricated result.
func ComputeResults(snapshots []ledger.PortfolioSnapshot, initialCapital float64) (*Results, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("cannot compute metrics: no snapshots")
	}

	portfolioValues := make([]SeriesPoint, len(snapshots))
	cashValues := make([]SeriesPoint, len(snapshots))
	positionsValues := make([]SeriesPoint, len(snapshots))
	values := make([]float64, len(snapshots))

	for i, s := range snapshots {
		values[i] = s.TotalValue()
		portfolioValues[i] = SeriesPoint{Date: s.Date, Value: s.TotalValue()}
		cashValues[i] = SeriesPoint{Date: s.Date, Value: s.Cash}
		positionsValues[i] = SeriesPoint{Date: s.Date, Value: s.TotalInvested()}
	}

	changes := formulas.PctChange(values)
	dailyReturns := make([]SeriesPoint, len(snapshots))
	for i, s := range snapshots {
		dailyReturns[i] = SeriesPoint{Date: s.Date, Value: changes[i]}
	}

	// Flatten transactions and records out of the snapshots, preserving
	// order; records dedup on signature defends against a snapshot sequence
	// assembled from overlapping runs
	var transactions []ledger.Transaction
	var records []ledger.TransactionRecord
	recordSignatures := make(map[string]struct{})

	for _, s := range snapshots {
		for _, t := range s.DailyTransactions {
			if t.Shares > 0 {
				transactions = append(transactions, t)
			}
		}
		for _, r := range s.TransactionRecords {
			if _, seen := recordSignatures[r.Signature()]; seen {
				continue
			}
			recordSignatures[r.Signature()] = struct{}{}
			records = append(records, r)
		}
	}

	totalReturn := values[len(values)-1] - initialCapital
	totalReturnPct := 0.0
	if initialCapital != 0 {
		totalReturnPct = totalReturn / initialCapital * 100
	}

	completed := matchCompletedTrades(transactions)

	winRate := 0.0
	avgHolding := 0.0
	if len(completed) > 0 {
		wins := 0
		holdingSum := 0
		for _, trade := range completed {
			if trade.Profit > 0 {
				wins++
			}
			holdingSum += trade.HoldingDays
		}
		winRate = float64(wins) / float64(len(completed)) * 100
		avgHolding = float64(holdingSum) / float64(len(completed))
	}

	return &Results{
		InitialCapital:      initialCapital,
		FinalPortfolioValue: values[len(values)-1],
		TotalReturn:         totalReturn,
		TotalReturnPercent:  totalReturnPct,
		MaxDrawdown:         formulas.CalculateMaxDrawdown(values),
		NumberOfTrades:      len(transactions),
		WinRate:             winRate,
		AvgHoldingPeriod:    avgHolding,
		SharpeRatio:         formulas.CalculateSharpeRatio(changes, RiskFreeRate),
		Transactions:        transactions,
		TransactionRecords:  records,
		CompletedTrades:     completed,
		PortfolioValues:     portfolioValues,
		CashValues:          cashValues,
		PositionsValues:     positionsValues,
		DailyReturns:        dailyReturns,
	}, nil
}

// buyLot is one open buy awaiting FIFO matching
type buyLot struct {
	date   time.Time
	price  float64
	shares int64
	fees   float64
	// original share count, for pro-rating the lot's fees
	originalShares int64
}

// matchCompletedTrades reconstructs realized trades from the transaction
// log using strict FIFO lot matching: each sell consumes the oldest open
// buy lots first, and every consumed portion becomes one completed trade.
func matchCompletedTrades(transactions []ledger.Transaction) []CompletedTrade {
	openLots := make(map[string][]*buyLot)
	var completed []CompletedTrade

	for _, t := range transactions {
		switch t.Type {
		case domain.TransactionBuy:
			openLots[t.Symbol] = append(openLots[t.Symbol], &buyLot{
				date:           t.Date,
				price:          t.Price,
				shares:         t.Shares,
				fees:           t.Fees,
				originalShares: t.Shares,
			})

		case domain.TransactionSell:
			lots := openLots[t.Symbol]
			if len(lots) == 0 {
				continue
			}

			remaining := t.Shares
			for len(lots) > 0 && remaining > 0 {
				lot := lots[0]

				matched := lot.shares
				if remaining < matched {
					matched = remaining
				}

				buyCost := float64(matched)*lot.price + lot.fees*float64(matched)/float64(lot.originalShares)
				sellProceeds := float64(matched)*t.Price - t.Fees*float64(matched)/float64(t.Shares)

				completed = append(completed, CompletedTrade{
					Symbol:      t.Symbol,
					Shares:      matched,
					BuyDate:     lot.date,
					SellDate:    t.Date,
					Profit:      sellProceeds - buyCost,
					HoldingDays: int(t.Date.Sub(lot.date).Hours() / 24),
				})

				remaining -= matched
				lot.shares -= matched
				if lot.shares <= 0 {
					lots = lots[1:]
				}
			}

			if len(lots) == 0 {
				delete(openLots, t.Symbol)
			} else {
				openLots[t.Symbol] = lots
			}
		}
	}

	return completed
}
