package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickKey identifies the (venue, pair) slot a tick belongs to.
type TickKey struct {
	Venue string
	Pair  string
}

// Tick is a normalized best-bid/ask quote from one venue. Value type,
// never mutated after creation.
type Tick struct {
	Venue     string
	Pair      string
	Timestamp time.Time
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	BidSize   decimal.Decimal
	AskSize   decimal.Decimal
	Last      decimal.Decimal
	Volume24h decimal.Decimal
}

// Key returns the (venue, pair) slot for this tick.
func (t Tick) Key() TickKey {
	return TickKey{Venue: t.Venue, Pair: t.Pair}
}

// Age returns how old the tick is relative to now.
func (t Tick) Age(now time.Time) time.Duration {
	return now.Sub(t.Timestamp)
}

// Spread returns ask minus bid.
func (t Tick) Spread() decimal.Decimal {
	return t.Ask.Sub(t.Bid)
}

// HasLiquidity reports whether both sides carry a positive price.
func (t Tick) HasLiquidity() bool {
	return t.Bid.IsPositive() && t.Ask.IsPositive()
}
