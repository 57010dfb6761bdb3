// Package ledger owns the simulated portfolio state: cash, positions, the
// transaction log and daily snapshots.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bluewave/stocksim/internal/domain"
)

// Position represents a held quantity of a symbol with cost basis and
// current mark. Shares are whole lots and always positive; a position whose
// shares reach 0 is removed from the ledger.
type Position struct {
	Symbol       string  `json:"symbol"`
	Shares       int64   `json:"shares"`
	AveragePrice float64 `json:"average_price"`
	LastPrice    float64 `json:"last_price"`
}

// MarketValue returns the current market value of the position
func (p Position) MarketValue() float64 {
	return float64(p.Shares) * p.LastPrice
}

// CostBasis returns the total cost of the position
func (p Position) CostBasis() float64 {
	return float64(p.Shares) * p.AveragePrice
}

// UnrealizedPL returns the unrealized profit/loss
func (p Position) UnrealizedPL() float64 {
	return p.MarketValue() - p.CostBasis()
}

// UnrealizedPLPercent returns the unrealized profit/loss percentage
func (p Position) UnrealizedPLPercent() float64 {
	basis := p.CostBasis()
	if basis == 0 {
		return 0
	}
	return p.UnrealizedPL() / basis * 100
}

// Transaction represents one executed buy or sell. Immutable once created.
type Transaction struct {
	Date   time.Time              `json:"date"`
	Symbol string                 `json:"symbol"`
	Type   domain.TransactionType `json:"transaction_type"`
	Signal domain.SignalType      `json:"signal_type"`
	Shares int64                  `json:"shares"`
	Price  float64                `json:"price"`
	Fees   float64                `json:"fees"`
}

// TotalAmount returns the cash impact of the transaction including fees:
// cost for buys, proceeds for sells.
func (t Transaction) TotalAmount() float64 {
	if t.Type == domain.TransactionBuy {
		return float64(t.Shares)*t.Price + t.Fees
	}
	return float64(t.Shares)*t.Price - t.Fees
}

// NetAmount returns the transaction amount excluding fees
func (t Transaction) NetAmount() float64 {
	return float64(t.Shares) * t.Price
}

// Signature returns the deduplication key for the transaction. Two
// transactions with the same date, symbol, direction and share count are
// considered the same signal processed twice.
func (t Transaction) Signature() string {
	return fmt.Sprintf("%s_%s_%s_%d", t.Date.Format("2006-01-02"), t.Symbol, t.Type, t.Shares)
}

// TransactionRecord is the display-oriented record derived from a
// transaction. It carries the running portfolio state after execution and a
// strictly increasing sequence number for stable chronological ordering,
// since multiple transactions can share a date.
type TransactionRecord struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	Symbol           string    `json:"symbol"`
	Type             string    `json:"type"`
	Signal           string    `json:"signal"`
	Shares           int64     `json:"shares"`
	Price            float64   `json:"price"`
	Fees             float64   `json:"fees"`
	Total            float64   `json:"total"`
	AvailableCapital float64   `json:"available_capital"`
	InvestmentValue  float64   `json:"investment_value"`
	PortfolioTotal   float64   `json:"portfolio_total"`
	SequenceNum      int       `json:"sequence_num"`
}

// NewTransactionRecord builds a record from a transaction and the running
// portfolio state after it was applied.
func NewTransactionRecord(t Transaction, cash, investmentValue float64, sequenceNum int) TransactionRecord {
	return TransactionRecord{
		ID:               uuid.NewString(),
		Date:             t.Date,
		Symbol:           t.Symbol,
		Type:             string(t.Type),
		Signal:           string(t.Signal),
		Shares:           t.Shares,
		Price:            t.Price,
		Fees:             t.Fees,
		Total:            t.TotalAmount(),
		AvailableCapital: cash,
		InvestmentValue:  investmentValue,
		PortfolioTotal:   cash + investmentValue,
		SequenceNum:      sequenceNum,
	}
}

// Signature returns the deduplication key for the record, matching the
// Transaction signature format.
func (r TransactionRecord) Signature() string {
	return fmt.Sprintf("%s_%s_%s_%d", r.Date.Format("2006-01-02"), r.Symbol, r.Type, r.Shares)
}

// Formatted returns the record with currency fields rendered for display
func (r TransactionRecord) Formatted() map[string]interface{} {
	return map[string]interface{}{
		"Date":              r.Date.Format("02/01/2006"),
		"Symbol":            r.Symbol,
		"Type":              r.Type,
		"Signal":            r.Signal,
		"Shares":            r.Shares,
		"Price":             fmt.Sprintf("£%.2f", r.Price),
		"Fees":              fmt.Sprintf("£%.2f", r.Fees),
		"Total":             fmt.Sprintf("£%.2f", r.Total),
		"Available Capital": fmt.Sprintf("£%.2f", r.AvailableCapital),
		"Investment Value":  fmt.Sprintf("£%.2f", r.InvestmentValue),
		"Portfolio Total":   fmt.Sprintf("£%.2f", r.PortfolioTotal),
		"Sequence":          r.SequenceNum,
	}
}

// PortfolioSnapshot is an immutable daily record of full portfolio state.
// Positions are deep copies, so later mutation of live ledger state never
// retroactively changes history.
type PortfolioSnapshot struct {
	Date               time.Time           `json:"date"`
	Cash               float64             `json:"cash"`
	Positions          map[string]Position `json:"positions"`
	DailyTransactions  []Transaction       `json:"daily_transactions"`
	TransactionRecords []TransactionRecord `json:"transaction_records"`
}

// TotalInvested returns the market value of all positions
func (s PortfolioSnapshot) TotalInvested() float64 {
	total := 0.0
	for _, p := range s.Positions {
		total += p.MarketValue()
	}
	return total
}

// TotalValue returns the total portfolio value including cash
func (s PortfolioSnapshot) TotalValue() float64 {
	return s.Cash + s.TotalInvested()
}

// TotalPL returns the total unrealized profit/loss across positions
func (s PortfolioSnapshot) TotalPL() float64 {
	total := 0.0
	for _, p := range s.Positions {
		total += p.UnrealizedPL()
	}
	return total
}
