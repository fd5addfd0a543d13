package app

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
)

// RankerConfig holds ranking configuration.
type RankerConfig struct {
	// MinProfitThreshold is a fraction; 0.003 means 0.3%.
	MinProfitThreshold decimal.Decimal
	// MaxPositionSizes caps position size per base currency.
	MaxPositionSizes map[string]decimal.Decimal
}

// Ranker turns raw candidates into fee-adjusted opportunities. Candidates
// below the profit threshold are kept as skipped rows for audit, never
// discarded.
type Ranker struct {
	cfg  RankerConfig
	fees *domain.FeeModel
}

// NewRanker creates a Ranker.
func NewRanker(cfg RankerConfig, fees *domain.FeeModel) *Ranker {
	return &Ranker{cfg: cfg, fees: fees}
}

// Rank fee-adjusts every candidate and orders the result by descending
// estimated profit, ties broken by descending volume. All candidates come
// back as opportunities; callers filter on Status.
func (r *Ranker) Rank(candidates []domain.Candidate) []*domain.Opportunity {
	opportunities := make([]*domain.Opportunity, 0, len(candidates))
	for _, c := range candidates {
		opportunities = append(opportunities, r.evaluate(c))
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		a, b := opportunities[i], opportunities[j]
		// Detected rows rank ahead of skipped ones.
		if a.Detected() != b.Detected() {
			return a.Detected()
		}
		if !a.EstimatedProfitPct.Equal(b.EstimatedProfitPct) {
			return a.EstimatedProfitPct.GreaterThan(b.EstimatedProfitPct)
		}
		return a.MaxProfitableVolume.GreaterThan(b.MaxProfitableVolume)
	})
	return opportunities
}

func (r *Ranker) evaluate(c domain.Candidate) *domain.Opportunity {
	opp := &domain.Opportunity{
		ID:               uuid.New(),
		Timestamp:        c.Timestamp,
		Strategy:         c.Strategy,
		BuyVenue:         c.BuyVenue,
		SellVenue:        c.SellVenue,
		Pair:             c.Pair,
		BuyPrice:         c.BuyPrice,
		SellPrice:        c.SellPrice,
		PriceDiffPct:     c.PriceDiffPct,
		ExecutionDetails: c.Details,
	}
	if opp.Timestamp.IsZero() {
		opp.Timestamp = time.Now()
	}

	// Non-positive prices would have produced garbage upstream; anything
	// that slipped through is skipped, never propagated.
	if !c.BuyPrice.IsPositive() || !c.SellPrice.IsPositive() {
		opp.Status = domain.StatusSkipped
		opp.SkipReason = domain.SkipBadPrice
		return opp
	}

	volume := decimal.Min(c.BuyAskSize, c.SellBidSize)
	if limit, ok := r.cfg.MaxPositionSizes[c.BaseCurrency]; ok && volume.GreaterThan(limit) {
		volume = limit
	}
	if volume.IsNegative() {
		volume = decimal.Zero
	}
	opp.MaxProfitableVolume = volume

	fees, err := r.fees.Compute(c, volume)
	if err != nil {
		opp.Status = domain.StatusSkipped
		opp.SkipReason = domain.SkipNoFeeSchedule
		return opp
	}
	opp.Fees = fees
	opp.EstimatedProfitPct = c.PriceDiffPct.Sub(fees.TotalPct)

	if opp.EstimatedProfitPct.LessThan(r.cfg.MinProfitThreshold) {
		opp.Status = domain.StatusSkipped
		opp.SkipReason = domain.SkipBelowThreshold
		return opp
	}

	opp.Status = domain.StatusDetected
	return opp
}
