// Package domain contains the core domain types for the market context.
package domain

import (
	"github.com/shopspring/decimal"
)

// Venue represents a trading venue. Reference data, immutable after load.
type Venue struct {
	Code           string
	Name           string
	QuoteCurrency  string
	MakerFee       decimal.Decimal // signed, negative means rebate
	TakerFee       decimal.Decimal
	WithdrawalFees map[string]decimal.Decimal // currency -> flat fee in that currency
	IsActive       bool
}

// WithdrawalFee returns the flat withdrawal fee for a currency and whether
// the venue has a schedule entry for it.
func (v *Venue) WithdrawalFee(currency string) (decimal.Decimal, bool) {
	fee, ok := v.WithdrawalFees[currency]
	return fee, ok
}

// Pair represents a tradable currency pair. Reference data, immutable after load.
type Pair struct {
	Symbol         string // e.g. "BTC/JPY"
	BaseCurrency   string
	QuoteCurrency  string
	MinOrderSize   decimal.Decimal
	SizeIncrement  decimal.Decimal
	PriceIncrement decimal.Decimal
	IsActive       bool
}

// String returns the pair symbol.
func (p Pair) String() string {
	return p.Symbol
}
