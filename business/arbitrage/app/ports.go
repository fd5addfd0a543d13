// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
)

// RateSource supplies settlement-currency conversion rates for cross-rate
// price normalization.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// OpportunityWriter is the synchronous persistence boundary for opportunity
// rows.
type OpportunityWriter interface {
	InsertOpportunity(ctx context.Context, opp *domain.Opportunity) error
}

// Notifier receives opportunities that survived ranking. Implementations own
// throttling and delivery; detection never blocks on them.
type Notifier interface {
	Notify(ctx context.Context, opp *domain.Opportunity)
}
