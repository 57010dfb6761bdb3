// Package domain holds types shared across modules. It stays free of
// infrastructure dependencies.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// PriceBar represents one day of OHLCV data for a symbol.
// Bars are immutable once fetched from the price provider.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Closes extracts the close-price series from a bar series, in order.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// SignalType represents a discrete trading signal
type SignalType string

const (
	SignalStrongBuy  SignalType = "Strong Buy"
	SignalBuy        SignalType = "Buy"
	SignalNeutral    SignalType = "Neutral"
	SignalSell       SignalType = "Sell"
	SignalStrongSell SignalType = "Strong Sell"
)

// IsBuy returns true for buy-direction signals
func (s SignalType) IsBuy() bool {
	return s == SignalStrongBuy || s == SignalBuy
}

// IsSell returns true for sell-direction signals
func (s SignalType) IsSell() bool {
	return s == SignalStrongSell || s == SignalSell
}

// IsActionable returns true for any non-neutral signal
func (s SignalType) IsActionable() bool {
	return s.IsBuy() || s.IsSell()
}

// TransactionType represents the direction of an executed transaction
type TransactionType string

const (
	TransactionBuy  TransactionType = "Buy"
	TransactionSell TransactionType = "Sell"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionBuy || t == TransactionSell
}

// TransactionTypeFromString creates a TransactionType from a string
// (case-insensitive)
func TransactionTypeFromString(value string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "buy":
		return TransactionBuy, nil
	case "sell":
		return TransactionSell, nil
	default:
		return "", fmt.Errorf("invalid transaction type: %q", value)
	}
}
