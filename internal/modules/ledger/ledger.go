package ledger

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/bluewave/stocksim/internal/domain"
)

// Rules holds the trading rules the ledger enforces on every execution.
// All percentage fields are in [0, 100].
type Rules struct {
	InitialCapital           float64
	TransactionFeePercent    float64
	StrongBuyPercent         float64
	BuyPercent               float64
	SellPercent              float64
	StrongSellPercent        float64
	MaxSinglePositionPercent float64
}

// Ledger owns cash and per-symbol positions and executes signals against
// them. A ledger belongs to exactly one simulation run; there is no shared
// state across runs and no internal locking.
type Ledger struct {
	rules Rules
	log   zerolog.Logger

	cash      float64
	positions map[string]*Position

	transactions []Transaction
	records      []TransactionRecord
	snapshots    []PortfolioSnapshot

	// Signatures of committed transactions, for same-run deduplication
	executed map[string]struct{}

	// Strictly increasing sequence for record ordering
	sequence int

	// Index into records at the last snapshot, for slicing the day's tail
	recordMark int
}

// New creates a ledger with the full initial capital in cash
func New(rules Rules, log zerolog.Logger) *Ledger {
	return &Ledger{
		rules:     rules,
		log:       log.With().Str("component", "ledger").Logger(),
		cash:      rules.InitialCapital,
		positions: make(map[string]*Position),
		executed:  make(map[string]struct{}),
	}
}

// Cash returns the current cash balance
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Position returns a copy of the position for a symbol, if held
func (l *Ledger) Position(symbol string) (Position, bool) {
	p, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns a copy of all current positions
func (l *Ledger) Positions() map[string]Position {
	out := make(map[string]Position, len(l.positions))
	for sym, p := range l.positions {
		out[sym] = *p
	}
	return out
}

// Transactions returns the ordered transaction log
func (l *Ledger) Transactions() []Transaction {
	return l.transactions
}

// Records returns the ordered transaction records
func (l *Ledger) Records() []TransactionRecord {
	return l.records
}

// Snapshots returns the ordered daily snapshots
func (l *Ledger) Snapshots() []PortfolioSnapshot {
	return l.snapshots
}

// TotalInvested returns the market value of all positions at their last
// known prices
func (l *Ledger) TotalInvested() float64 {
	total := 0.0
	for _, p := range l.positions {
		total += p.MarketValue()
	}
	return total
}

// TotalPortfolioValue returns cash plus the market value of all positions
func (l *Ledger) TotalPortfolioValue() float64 {
	return l.cash + l.TotalInvested()
}

// UpdatePositionValues marks every held symbol present in the price map to
// the given price. This must run once per simulated day before any Execute
// call, so position caps and sell sizing use the current day's mark.
func (l *Ledger) UpdatePositionValues(prices map[string]float64) {
	for symbol, position := range l.positions {
		if price, ok := prices[symbol]; ok {
			position.LastPrice = price
		}
	}
}

// investmentAmount calculates the target amount for a signal.
//
// Buys take a percentage of available cash, capped so the resulting
// position does not exceed the single-position limit of total portfolio
// value. Sells take a percentage of the current position's market value.
func (l *Ledger) investmentAmount(signal domain.SignalType, currentPositionValue float64) float64 {
	switch signal {
	case domain.SignalStrongBuy, domain.SignalBuy:
		pct := l.rules.BuyPercent
		if signal == domain.SignalStrongBuy {
			pct = l.rules.StrongBuyPercent
		}
		baseAmount := l.cash * pct / 100

		maxAllowed := l.TotalPortfolioValue() * l.rules.MaxSinglePositionPercent / 100
		return math.Min(baseAmount, maxAllowed-currentPositionValue)

	case domain.SignalStrongSell, domain.SignalSell:
		pct := l.rules.SellPercent
		if signal == domain.SignalStrongSell {
			pct = l.rules.StrongSellPercent
		}
		return currentPositionValue * pct / 100
	}

	return 0
}

// maxShares calculates the whole shares purchasable with amount, with the
// transaction fee priced in
func (l *Ledger) maxShares(price, amount float64) int64 {
	feeMultiplier := 1 + l.rules.TransactionFeePercent/100
	return int64(amount / (price * feeMultiplier))
}

// Execute runs one signal against the ledger and returns the resulting
// transaction, or nil when no trade happens. Rejections (neutral signal,
// zero computed shares, nothing to sell, duplicate signature, insufficient
// cash) are logged and treated as no-ops; Execute never fails a simulation
// day.
func (l *Ledger) Execute(date time.Time, symbol string, signal domain.SignalType, price float64) *Transaction {
	if !signal.IsActionable() || price <= 0 {
		return nil
	}

	currentPositionValue := 0.0
	currentPosition, held := l.positions[symbol]
	if held {
		currentPositionValue = currentPosition.MarketValue()
	}

	amount := l.investmentAmount(signal, currentPositionValue)
	if amount <= 0 {
		return nil
	}

	var txType domain.TransactionType
	var shares int64

	if signal.IsBuy() {
		txType = domain.TransactionBuy
		shares = l.maxShares(price, amount)
		if shares <= 0 {
			return nil
		}
	} else {
		if !held || currentPosition.Shares <= 0 {
			return nil
		}
		txType = domain.TransactionSell
		want := int64(math.Round(amount / currentPositionValue * float64(currentPosition.Shares)))
		if want < 1 {
			want = 1
		}
		shares = want
		if shares > currentPosition.Shares {
			shares = currentPosition.Shares
		}
	}

	fee := float64(shares) * price * l.rules.TransactionFeePercent / 100

	tx := Transaction{
		Date:   date,
		Symbol: symbol,
		Type:   txType,
		Signal: signal,
		Shares: shares,
		Price:  price,
		Fees:   fee,
	}

	if _, done := l.executed[tx.Signature()]; done {
		l.log.Warn().Str("signature", tx.Signature()).Msg("Duplicate transaction detected and skipped")
		return nil
	}

	if txType == domain.TransactionBuy {
		// Cash can never go negative; fee rounding must not overdraw
		if tx.TotalAmount() > l.cash {
			l.log.Warn().
				Str("symbol", symbol).
				Float64("cost", tx.TotalAmount()).
				Float64("cash", l.cash).
				Msg("Buy rejected: cost exceeds available cash")
			return nil
		}
		l.applyBuy(tx)
	} else {
		l.applySell(tx)
	}

	l.executed[tx.Signature()] = struct{}{}
	l.transactions = append(l.transactions, tx)

	l.sequence++
	l.records = append(l.records, NewTransactionRecord(tx, l.cash, l.TotalInvested(), l.sequence))

	l.log.Debug().
		Str("symbol", symbol).
		Str("type", string(txType)).
		Int64("shares", shares).
		Float64("price", price).
		Float64("cash", l.cash).
		Msg("Transaction executed")

	return &tx
}

// applyBuy updates position and cash for a buy, keeping a weighted-average
// cost basis
func (l *Ledger) applyBuy(tx Transaction) {
	position, held := l.positions[tx.Symbol]
	if !held {
		l.positions[tx.Symbol] = &Position{
			Symbol:       tx.Symbol,
			Shares:       tx.Shares,
			AveragePrice: tx.Price,
			LastPrice:    tx.Price,
		}
	} else {
		totalCost := float64(position.Shares)*position.AveragePrice + float64(tx.Shares)*tx.Price
		totalShares := position.Shares + tx.Shares
		position.AveragePrice = totalCost / float64(totalShares)
		position.Shares = totalShares
		position.LastPrice = tx.Price
	}

	l.cash -= tx.TotalAmount()
}

// applySell updates position and cash for a sell. The cost basis is left
// untouched; a position emptied to zero shares is removed.
func (l *Ledger) applySell(tx Transaction) {
	position := l.positions[tx.Symbol]
	position.Shares -= tx.Shares
	position.LastPrice = tx.Price
	if position.Shares == 0 {
		delete(l.positions, tx.Symbol)
	}

	l.cash += tx.TotalAmount()
}

// ProcessSignals executes one day of signals: position values are marked
// first, then sells, then buys, so cash freed by sells is available to the
// same day's buys. A snapshot is taken at the end regardless of whether any
// transaction occurred.
func (l *Ledger) ProcessSignals(date time.Time, signals map[string]domain.SignalType, prices map[string]float64, order []string) []Transaction {
	l.UpdatePositionValues(prices)

	var daily []Transaction

	for _, symbol := range order {
		signal, ok := signals[symbol]
		if !ok || !signal.IsSell() {
			continue
		}
		if _, held := l.positions[symbol]; !held {
			continue
		}
		if tx := l.Execute(date, symbol, signal, prices[symbol]); tx != nil {
			daily = append(daily, *tx)
		}
	}

	for _, symbol := range order {
		signal, ok := signals[symbol]
		if !ok || !signal.IsBuy() {
			continue
		}
		if tx := l.Execute(date, symbol, signal, prices[symbol]); tx != nil {
			daily = append(daily, *tx)
		}
	}

	l.Snapshot(date, daily)

	return daily
}

// Snapshot deep-copies the current portfolio state into an immutable daily
// snapshot, attaching exactly the transaction records produced since the
// previous snapshot.
func (l *Ledger) Snapshot(date time.Time, daily []Transaction) PortfolioSnapshot {
	dayRecords := make([]TransactionRecord, len(l.records)-l.recordMark)
	copy(dayRecords, l.records[l.recordMark:])
	l.recordMark = len(l.records)

	snapshot := PortfolioSnapshot{
		Date:               date,
		Cash:               l.cash,
		Positions:          l.Positions(),
		DailyTransactions:  append([]Transaction(nil), daily...),
		TransactionRecords: dayRecords,
	}
	l.snapshots = append(l.snapshots, snapshot)

	return snapshot
}
