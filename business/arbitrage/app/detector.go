package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
	marketDomain "github.com/ksaito/crossarb/business/market/domain"
	"github.com/ksaito/crossarb/internal/logger"
)

// DetectorConfig holds detection configuration.
type DetectorConfig struct {
	EnableCrossRate  bool
	EnableTriangular bool
}

// Detector scans one snapshot for raw price discrepancies. It is stateless
// apart from the precomputed triangular cycles; every pass works on the
// immutable snapshot it is handed.
type Detector struct {
	cfg       DetectorConfig
	venues    []*marketDomain.Venue
	pairs     []*marketDomain.Pair
	pairIdx   map[string]*marketDomain.Pair
	triangles []domain.Triangle
	rates     RateSource
	log       logger.LoggerInterface
}

// NewDetector creates a Detector. The triangular cycle set is enumerated
// once from the static pair list.
func NewDetector(
	cfg DetectorConfig,
	venues []*marketDomain.Venue,
	pairs []*marketDomain.Pair,
	rates RateSource,
	log logger.LoggerInterface,
) *Detector {
	pairIdx := make(map[string]*marketDomain.Pair, len(pairs))
	refs := make([]domain.PairRef, 0, len(pairs))
	for _, p := range pairs {
		pairIdx[p.Symbol] = p
		refs = append(refs, domain.PairRef{Symbol: p.Symbol, Base: p.BaseCurrency, Quote: p.QuoteCurrency})
	}

	var triangles []domain.Triangle
	if cfg.EnableTriangular {
		triangles = domain.FindTriangles(refs)
	}

	return &Detector{
		cfg:       cfg,
		venues:    venues,
		pairs:     pairs,
		pairIdx:   pairIdx,
		triangles: triangles,
		rates:     rates,
		log:       log,
	}
}

// Triangles exposes the enumerated cycle set.
func (d *Detector) Triangles() []domain.Triangle {
	return d.triangles
}

// Detect produces raw candidates from one snapshot. Candidates are gross
// spreads; fee adjustment is the ranker's job.
func (d *Detector) Detect(ctx context.Context, snap marketDomain.Snapshot) []domain.Candidate {
	now := snap.TakenAt()

	candidates := d.detectDirect(now, snap)
	if d.cfg.EnableCrossRate {
		candidates = append(candidates, d.detectCrossRate(ctx, now, snap)...)
	}
	if d.cfg.EnableTriangular {
		candidates = append(candidates, d.detectTriangular(now, snap)...)
	}
	return candidates
}

// detectDirect compares the same pair across every ordered venue
// combination. A venue without a fresh tick is simply absent from the
// snapshot and never blocks the pass.
func (d *Detector) detectDirect(now time.Time, snap marketDomain.Snapshot) []domain.Candidate {
	var candidates []domain.Candidate

	for _, pair := range d.pairs {
		venues := snap.VenuesForPair(pair.Symbol)
		if len(venues) < 2 {
			continue
		}

		for _, buyVenue := range venues {
			buyTick, _ := snap.Get(buyVenue, pair.Symbol)
			if !buyTick.Ask.IsPositive() {
				continue
			}
			for _, sellVenue := range venues {
				if sellVenue == buyVenue {
					continue
				}
				sellTick, _ := snap.Get(sellVenue, pair.Symbol)
				if !sellTick.Bid.IsPositive() {
					continue
				}

				profit := sellTick.Bid.Sub(buyTick.Ask)
				if !profit.IsPositive() {
					continue
				}

				candidates = append(candidates, domain.Candidate{
					Strategy:         domain.StrategyDirect,
					Timestamp:        now,
					BuyVenue:         buyVenue,
					SellVenue:        sellVenue,
					Pair:             pair.Symbol,
					BaseCurrency:     pair.BaseCurrency,
					BuyPrice:         buyTick.Ask,
					SellPrice:        sellTick.Bid,
					PriceDiffPct:     profit.Div(buyTick.Ask),
					BuyAskSize:       buyTick.AskSize,
					SellBidSize:      sellTick.BidSize,
					RequiresTransfer: true,
				})
			}
		}
	}
	return candidates
}

// detectCrossRate compares pairs sharing a base currency but quoted in
// different settlement currencies across venues. The sell side is normalized
// into the buy side's settlement currency before the direct profit formula.
func (d *Detector) detectCrossRate(ctx context.Context, now time.Time, snap marketDomain.Snapshot) []domain.Candidate {
	type leg struct {
		venue string
		pair  *marketDomain.Pair
		tick  marketDomain.Tick
	}

	byBase := make(map[string][]leg)
	for _, pair := range d.pairs {
		for _, venue := range snap.VenuesForPair(pair.Symbol) {
			tick, _ := snap.Get(venue, pair.Symbol)
			byBase[pair.BaseCurrency] = append(byBase[pair.BaseCurrency], leg{venue: venue, pair: pair, tick: tick})
		}
	}

	var candidates []domain.Candidate
	for base, legs := range byBase {
		if len(legs) < 2 {
			continue
		}

		for _, buy := range legs {
			if !buy.tick.Ask.IsPositive() {
				continue
			}
			for _, sell := range legs {
				if buy.venue == sell.venue {
					continue
				}
				// Same settlement currency is the direct strategy's territory.
				if buy.pair.QuoteCurrency == sell.pair.QuoteCurrency {
					continue
				}
				if !sell.tick.Bid.IsPositive() {
					continue
				}

				rate, err := d.rates.Rate(ctx, sell.pair.QuoteCurrency, buy.pair.QuoteCurrency)
				if err != nil {
					d.log.Debug(ctx, "cross-rate normalization unavailable",
						"from", sell.pair.QuoteCurrency, "to", buy.pair.QuoteCurrency, "error", err)
					continue
				}
				if !rate.IsPositive() {
					continue
				}

				sellBid := sell.tick.Bid.Mul(rate)
				profit := sellBid.Sub(buy.tick.Ask)
				if !profit.IsPositive() {
					continue
				}

				candidates = append(candidates, domain.Candidate{
					Strategy:         domain.StrategyCrossRate,
					Timestamp:        now,
					BuyVenue:         buy.venue,
					SellVenue:        sell.venue,
					Pair:             buy.pair.Symbol,
					BaseCurrency:     base,
					BuyPrice:         buy.tick.Ask,
					SellPrice:        sellBid,
					PriceDiffPct:     profit.Div(buy.tick.Ask),
					BuyAskSize:       buy.tick.AskSize,
					SellBidSize:      sell.tick.BidSize,
					RequiresTransfer: true,
					Details: map[string]any{
						"sell_pair": sell.pair.Symbol,
						"fx_rate":   rate.String(),
					},
				})
			}
		}
	}
	return candidates
}

// detectTriangular evaluates each precomputed 3-leg cycle within each venue.
// The achievable return is the product of the leg conversion rates minus 1;
// sub-zero products are not candidates.
func (d *Detector) detectTriangular(now time.Time, snap marketDomain.Snapshot) []domain.Candidate {
	var candidates []domain.Candidate

	for _, venue := range d.venues {
		for _, tri := range d.triangles {
			product := decimal.NewFromInt(1)
			legRates := make([]string, 0, 3)
			valid := true

			var firstTick, lastTick marketDomain.Tick
			for i, l := range tri.Legs {
				tick, ok := snap.Get(venue.Code, l.PairSymbol)
				if !ok {
					valid = false
					break
				}

				var rate decimal.Decimal
				if l.SellBase {
					rate = tick.Bid
				} else {
					if !tick.Ask.IsPositive() {
						valid = false
						break
					}
					rate = decimal.NewFromInt(1).Div(tick.Ask)
				}
				if !rate.IsPositive() {
					valid = false
					break
				}

				product = product.Mul(rate)
				legRates = append(legRates, rate.String())
				if i == 0 {
					firstTick = tick
				}
				lastTick = tick
			}
			if !valid {
				continue
			}

			returnPct := product.Sub(decimal.NewFromInt(1))
			if !returnPct.IsPositive() {
				continue
			}

			firstPair := d.pairIdx[tri.Legs[0].PairSymbol]
			candidates = append(candidates, domain.Candidate{
				Strategy:     domain.StrategyTriangular,
				Timestamp:    now,
				BuyVenue:     venue.Code,
				SellVenue:    venue.Code,
				Pair:         firstPair.Symbol,
				BaseCurrency: firstPair.BaseCurrency,
				BuyPrice:     firstTick.Ask,
				SellPrice:    lastTick.Bid,
				PriceDiffPct: returnPct,
				BuyAskSize:   firstTick.AskSize,
				SellBidSize:  lastTick.BidSize,
				// The cycle settles within one venue, nothing moves on-chain.
				RequiresTransfer: false,
				Details: map[string]any{
					"cycle":     tri.String(),
					"leg_rates": legRates,
				},
			})
		}
	}
	return candidates
}

// EvaluateTriangle computes the cycle return for one venue from a snapshot,
// exposed for replay tooling and tests.
func (d *Detector) EvaluateTriangle(venue string, tri domain.Triangle, snap marketDomain.Snapshot) (decimal.Decimal, bool) {
	product := decimal.NewFromInt(1)
	for _, l := range tri.Legs {
		tick, ok := snap.Get(venue, l.PairSymbol)
		if !ok {
			return decimal.Zero, false
		}
		var rate decimal.Decimal
		if l.SellBase {
			rate = tick.Bid
		} else {
			if !tick.Ask.IsPositive() {
				return decimal.Zero, false
			}
			rate = decimal.NewFromInt(1).Div(tick.Ask)
		}
		if !rate.IsPositive() {
			return decimal.Zero, false
		}
		product = product.Mul(rate)
	}
	return product.Sub(decimal.NewFromInt(1)), true
}
