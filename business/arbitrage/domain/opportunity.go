// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Strategy identifies how an opportunity was derived.
type Strategy string

const (
	StrategyDirect     Strategy = "direct"
	StrategyCrossRate  Strategy = "cross_rate"
	StrategyTriangular Strategy = "triangular"
)

// Status is the lifecycle state of a persisted opportunity.
type Status string

const (
	StatusDetected Status = "detected"
	StatusExecuted Status = "executed"
	StatusExpired  Status = "expired"
	StatusSkipped  Status = "skipped"
)

// Skip reasons recorded on skipped opportunities.
const (
	SkipBelowThreshold = "below_threshold"
	SkipBadPrice       = "bad_price"
	SkipNoFeeSchedule  = "no_fee_schedule"
)

// FeeBreakdown is the per-leg fee decomposition applied by the ranker.
// All values are fractions of position value (0.001 = 0.10%).
type FeeBreakdown struct {
	BuyFeePct      decimal.Decimal
	SellFeePct     decimal.Decimal
	TransferFeePct decimal.Decimal
	TotalPct       decimal.Decimal
}

// Opportunity is a fully fee-adjusted arbitrage opportunity. Immutable once
// emitted; the throttle and persistence sink only read it.
type Opportunity struct {
	ID                  uuid.UUID
	Timestamp           time.Time
	Strategy            Strategy
	BuyVenue            string
	SellVenue           string
	Pair                string
	BuyPrice            decimal.Decimal
	SellPrice           decimal.Decimal
	PriceDiffPct        decimal.Decimal
	Fees                FeeBreakdown
	EstimatedProfitPct  decimal.Decimal
	MaxProfitableVolume decimal.Decimal
	Status              Status
	SkipReason          string
	// ExecutionDetails carries strategy-specific context, e.g. the legs of
	// a triangular cycle or the FX rate used for normalization.
	ExecutionDetails map[string]any
}

// Fingerprint identifies the (buy venue, sell venue, pair) route for
// throttling purposes.
func (o *Opportunity) Fingerprint() string {
	return o.Pair + ":" + o.BuyVenue + "->" + o.SellVenue
}

// Detected reports whether the opportunity survived ranking.
func (o *Opportunity) Detected() bool {
	return o.Status == StatusDetected
}
