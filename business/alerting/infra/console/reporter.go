// Package console logs alerts instead of delivering them, for development
// runs without a webhook endpoint.
package console

import (
	"context"

	arbDomain "github.com/ksaito/crossarb/business/arbitrage/domain"
	"github.com/ksaito/crossarb/internal/logger"
)

// Reporter writes alerts to the structured log. It never fails, so every
// decision commits throttle state.
type Reporter struct {
	log logger.LoggerInterface
}

// New creates a console Reporter.
func New(log logger.LoggerInterface) *Reporter {
	return &Reporter{log: log}
}

// Send logs the opportunity.
func (r *Reporter) Send(ctx context.Context, opp *arbDomain.Opportunity) error {
	r.log.Info(ctx, "ARBITRAGE OPPORTUNITY",
		"strategy", string(opp.Strategy),
		"pair", opp.Pair,
		"buy_venue", opp.BuyVenue,
		"sell_venue", opp.SellVenue,
		"buy_price", opp.BuyPrice.String(),
		"sell_price", opp.SellPrice.String(),
		"profit_pct", opp.EstimatedProfitPct.String(),
		"volume", opp.MaxProfitableVolume.String(),
	)
	return nil
}
