// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/market/domain"
)

// TickSource fetches the current quotes for one venue. REST feeds implement
// FetchTicks as a poll; streaming feeds buffer the latest message per symbol
// and serve it on demand.
type TickSource interface {
	// Venue returns the code of the venue this source feeds.
	Venue() string

	// FetchTicks returns the freshest quote per configured symbol.
	FetchTicks(ctx context.Context) ([]domain.Tick, error)
}

// RateSource supplies a currently-valid conversion rate between two
// settlement currencies, for cross-rate price normalization.
type RateSource interface {
	// Rate returns how many units of 'to' one unit of 'from' buys.
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// TickRecorder persists accepted ticks. Implementations must not block the
// ingest path; failures are the recorder's problem, not the poller's.
type TickRecorder interface {
	RecordTick(ctx context.Context, tick domain.Tick) error
}

// TickCache mirrors the latest tick per (venue, pair) into a hot store for
// read-only consumers such as dashboards.
type TickCache interface {
	SetTick(ctx context.Context, tick domain.Tick) error
}

// VenueHealth is notified as venues degrade and recover.
type VenueHealth interface {
	MarkDegraded(venue string, reason error)
	MarkHealthy(venue string)
}
