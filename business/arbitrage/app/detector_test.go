package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
	marketDomain "github.com/ksaito/crossarb/business/market/domain"
	"github.com/ksaito/crossarb/internal/logger"
)

type staticRates struct {
	rates map[string]string // "FROM->TO" -> rate
}

func (s *staticRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	raw, ok := s.rates[from+"->"+to]
	if !ok {
		return decimal.Zero, errors.New("no rate for " + from + "->" + to)
	}
	return decimal.RequireFromString(raw), nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func makeTick(venue, pair string, bid, ask, bidSize, askSize string) marketDomain.Tick {
	return marketDomain.Tick{
		Venue:     venue,
		Pair:      pair,
		Timestamp: time.Now(),
		Bid:       decimal.RequireFromString(bid),
		Ask:       decimal.RequireFromString(ask),
		BidSize:   decimal.RequireFromString(bidSize),
		AskSize:   decimal.RequireFromString(askSize),
	}
}

func btcJpyPair() *marketDomain.Pair {
	return &marketDomain.Pair{Symbol: "BTC/JPY", BaseCurrency: "BTC", QuoteCurrency: "JPY", IsActive: true}
}

func testVenues(codes ...string) []*marketDomain.Venue {
	venues := make([]*marketDomain.Venue, 0, len(codes))
	for _, code := range codes {
		venues = append(venues, &marketDomain.Venue{Code: code, QuoteCurrency: "JPY", IsActive: true})
	}
	return venues
}

func TestDetector_Direct(t *testing.T) {
	detector := NewDetector(
		DetectorConfig{},
		testVenues("X", "Y"),
		[]*marketDomain.Pair{btcJpyPair()},
		&staticRates{},
		testLogger(),
	)

	now := time.Now()
	snap := marketDomain.NewSnapshot(now,
		makeTick("X", "BTC/JPY", "5000000", "5001000", "0.5", "0.5"),
		makeTick("Y", "BTC/JPY", "5010000", "5011000", "0.3", "0.3"),
	)

	candidates := detector.Detect(context.Background(), snap)
	if len(candidates) != 1 {
		t.Fatalf("Detect = %d candidates, want 1 (only buy X / sell Y is profitable)", len(candidates))
	}

	c := candidates[0]
	if c.BuyVenue != "X" || c.SellVenue != "Y" {
		t.Errorf("route = %s -> %s, want X -> Y", c.BuyVenue, c.SellVenue)
	}
	if c.Strategy != domain.StrategyDirect {
		t.Errorf("strategy = %s, want direct", c.Strategy)
	}

	wantProfit := decimal.RequireFromString("9000")
	if !c.SellPrice.Sub(c.BuyPrice).Equal(wantProfit) {
		t.Errorf("profit = %s, want %s", c.SellPrice.Sub(c.BuyPrice), wantProfit)
	}

	// 9000 / 5001000 ~= 0.1800%
	wantPct := wantProfit.Div(decimal.RequireFromString("5001000"))
	if !c.PriceDiffPct.Equal(wantPct) {
		t.Errorf("price_diff_pct = %s, want %s", c.PriceDiffPct, wantPct)
	}
	if !c.RequiresTransfer {
		t.Error("direct cross-venue candidates move the base asset")
	}
}

func TestDetector_DirectEdgeCases(t *testing.T) {
	detector := NewDetector(
		DetectorConfig{},
		testVenues("X", "Y"),
		[]*marketDomain.Pair{btcJpyPair()},
		&staticRates{},
		testLogger(),
	)
	now := time.Now()

	tests := []struct {
		name  string
		ticks []marketDomain.Tick
		want  int
	}{
		{
			name: "single_venue_yields_nothing",
			ticks: []marketDomain.Tick{
				makeTick("X", "BTC/JPY", "5000000", "5001000", "1", "1"),
			},
			want: 0,
		},
		{
			name:  "empty_snapshot",
			ticks: nil,
			want:  0,
		},
		{
			name: "zero_ask_excluded_not_propagated",
			ticks: []marketDomain.Tick{
				makeTick("X", "BTC/JPY", "5000000", "0", "1", "1"),
				makeTick("Y", "BTC/JPY", "5010000", "5011000", "1", "1"),
			},
			// X cannot be a buy side with an empty ask; Y buy / X sell
			// is unprofitable.
			want: 0,
		},
		{
			name: "no_positive_spread",
			ticks: []marketDomain.Tick{
				makeTick("X", "BTC/JPY", "5000000", "5001000", "1", "1"),
				makeTick("Y", "BTC/JPY", "5000500", "5001500", "1", "1"),
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := marketDomain.NewSnapshot(now, tt.ticks...)
			got := detector.Detect(context.Background(), snap)
			if len(got) != tt.want {
				t.Errorf("Detect = %d candidates, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDetector_CrossRate(t *testing.T) {
	pairs := []*marketDomain.Pair{
		{Symbol: "BTC/JPY", BaseCurrency: "BTC", QuoteCurrency: "JPY", IsActive: true},
		{Symbol: "BTC/USDT", BaseCurrency: "BTC", QuoteCurrency: "USDT", IsActive: true},
	}
	rates := &staticRates{rates: map[string]string{
		"USDT->JPY": "155",
		"JPY->USDT": "0.0064516129",
	}}

	detector := NewDetector(
		DetectorConfig{EnableCrossRate: true},
		testVenues("X", "Y"),
		pairs,
		rates,
		testLogger(),
	)

	now := time.Now()
	snap := marketDomain.NewSnapshot(now,
		makeTick("X", "BTC/JPY", "5000000", "5001000", "0.5", "0.5"),
		// 32500 USDT * 155 = 5,037,500 JPY bid equivalent
		makeTick("Y", "BTC/USDT", "32500", "32600", "0.2", "0.2"),
	)

	candidates := detector.Detect(context.Background(), snap)

	var cross []domain.Candidate
	for _, c := range candidates {
		if c.Strategy == domain.StrategyCrossRate {
			cross = append(cross, c)
		}
	}
	if len(cross) == 0 {
		t.Fatal("expected a cross-rate candidate")
	}

	c := cross[0]
	if c.BuyVenue != "X" || c.SellVenue != "Y" {
		t.Fatalf("route = %s -> %s, want X -> Y", c.BuyVenue, c.SellVenue)
	}
	wantSell := decimal.RequireFromString("5037500")
	if !c.SellPrice.Equal(wantSell) {
		t.Errorf("normalized sell price = %s, want %s", c.SellPrice, wantSell)
	}
	if c.Details["sell_pair"] != "BTC/USDT" {
		t.Errorf("details sell_pair = %v, want BTC/USDT", c.Details["sell_pair"])
	}
}

func TestDetector_TriangularClosure(t *testing.T) {
	pairs := []*marketDomain.Pair{
		{Symbol: "A/B", BaseCurrency: "A", QuoteCurrency: "B", IsActive: true},
		{Symbol: "B/C", BaseCurrency: "B", QuoteCurrency: "C", IsActive: true},
		{Symbol: "C/A", BaseCurrency: "C", QuoteCurrency: "A", IsActive: true},
	}

	detector := NewDetector(
		DetectorConfig{EnableTriangular: true},
		[]*marketDomain.Venue{{Code: "X", IsActive: true}},
		pairs,
		&staticRates{},
		testLogger(),
	)

	now := time.Now()
	// Conversion rates 1.01, 1.01, 0.98 around the sell-side cycle.
	snap := marketDomain.NewSnapshot(now,
		makeTick("X", "A/B", "1.01", "1.02", "1", "1"),
		makeTick("X", "B/C", "1.01", "1.02", "1", "1"),
		makeTick("X", "C/A", "0.98", "0.99", "1", "1"),
	)

	var sellCycle domain.Triangle
	found := false
	for _, tri := range detector.Triangles() {
		if tri.Legs[0].SellBase && tri.Legs[1].SellBase && tri.Legs[2].SellBase {
			sellCycle = tri
			found = true
		}
	}
	if !found {
		t.Fatal("expected an all-sell cycle in the enumerated triangles")
	}

	ret, ok := detector.EvaluateTriangle("X", sellCycle, snap)
	if !ok {
		t.Fatal("EvaluateTriangle should succeed with all legs present")
	}

	// 1.01 * 1.01 * 0.98 - 1 ~= 0 (slightly negative)
	want := decimal.RequireFromString("1.01").
		Mul(decimal.RequireFromString("1.01")).
		Mul(decimal.RequireFromString("0.98")).
		Sub(decimal.NewFromInt(1))
	if !ret.Equal(want) {
		t.Errorf("cycle return = %s, want %s", ret, want)
	}
	if ret.IsPositive() {
		t.Errorf("cycle return %s should be non-positive", ret)
	}

	// Sub-zero cycles are not candidates.
	candidates := detector.Detect(context.Background(), snap)
	for _, c := range candidates {
		if c.Strategy == domain.StrategyTriangular {
			t.Errorf("negative cycle emitted as candidate: %+v", c)
		}
	}
}

func TestDetector_TriangularProfitable(t *testing.T) {
	pairs := []*marketDomain.Pair{
		{Symbol: "A/B", BaseCurrency: "A", QuoteCurrency: "B", IsActive: true},
		{Symbol: "B/C", BaseCurrency: "B", QuoteCurrency: "C", IsActive: true},
		{Symbol: "C/A", BaseCurrency: "C", QuoteCurrency: "A", IsActive: true},
	}

	detector := NewDetector(
		DetectorConfig{EnableTriangular: true},
		[]*marketDomain.Venue{{Code: "X", IsActive: true}},
		pairs,
		&staticRates{},
		testLogger(),
	)

	now := time.Now()
	// 1.02 * 1.02 * 0.99 - 1 ~= +3.0%
	snap := marketDomain.NewSnapshot(now,
		makeTick("X", "A/B", "1.02", "1.03", "1", "1"),
		makeTick("X", "B/C", "1.02", "1.03", "1", "1"),
		makeTick("X", "C/A", "0.99", "1.00", "1", "1"),
	)

	candidates := detector.Detect(context.Background(), snap)
	var triangular []domain.Candidate
	for _, c := range candidates {
		if c.Strategy == domain.StrategyTriangular {
			triangular = append(triangular, c)
		}
	}
	if len(triangular) == 0 {
		t.Fatal("expected a triangular candidate for a positive cycle")
	}

	c := triangular[0]
	if c.BuyVenue != "X" || c.SellVenue != "X" {
		t.Errorf("triangular candidate spans venues: %s -> %s", c.BuyVenue, c.SellVenue)
	}
	if c.RequiresTransfer {
		t.Error("single-venue cycles do not move assets between venues")
	}
	if c.Details["cycle"] == "" {
		t.Error("triangular candidate should carry its cycle in details")
	}
	if !c.PriceDiffPct.IsPositive() {
		t.Errorf("cycle return = %s, want positive", c.PriceDiffPct)
	}
}
