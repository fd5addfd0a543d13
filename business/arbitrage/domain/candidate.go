package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candidate is a raw price discrepancy emitted by the detector, before fees.
// profit_pct here is the gross spread; the ranker turns candidates into
// opportunities.
type Candidate struct {
	Strategy  Strategy
	Timestamp time.Time

	BuyVenue  string
	SellVenue string
	Pair      string
	// BaseCurrency of the traded pair, used for withdrawal fee and
	// position cap lookups.
	BaseCurrency string

	BuyPrice     decimal.Decimal // ask on the buy venue, normalized
	SellPrice    decimal.Decimal // bid on the sell venue, normalized
	PriceDiffPct decimal.Decimal

	BuyAskSize  decimal.Decimal
	SellBidSize decimal.Decimal

	// RequiresTransfer is set for cross-venue strategies that move the
	// base asset between venues.
	RequiresTransfer bool

	// Details carries strategy-specific context into the persisted row.
	Details map[string]any
}
