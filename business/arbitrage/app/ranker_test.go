package app

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
)

func testFeeModel() *domain.FeeModel {
	return domain.NewFeeModel(map[string]domain.VenueFees{
		"X": {
			TakerFee:       decimal.RequireFromString("0.001"),
			WithdrawalFees: map[string]decimal.Decimal{"BTC": decimal.Zero},
		},
		"Y": {
			TakerFee:       decimal.RequireFromString("0.001"),
			WithdrawalFees: map[string]decimal.Decimal{"BTC": decimal.Zero},
		},
	}, map[string]int{"BTC": 30})
}

func directCandidate(buyAsk, sellBid string) domain.Candidate {
	buy := decimal.RequireFromString(buyAsk)
	sell := decimal.RequireFromString(sellBid)
	return domain.Candidate{
		Strategy:         domain.StrategyDirect,
		Timestamp:        time.Now(),
		BuyVenue:         "X",
		SellVenue:        "Y",
		Pair:             "BTC/JPY",
		BaseCurrency:     "BTC",
		BuyPrice:         buy,
		SellPrice:        sell,
		PriceDiffPct:     sell.Sub(buy).Div(buy),
		BuyAskSize:       decimal.RequireFromString("0.5"),
		SellBidSize:      decimal.RequireFromString("0.5"),
		RequiresTransfer: true,
	}
}

func TestRanker_BelowThresholdKeptAsSkipped(t *testing.T) {
	ranker := NewRanker(RankerConfig{
		MinProfitThreshold: decimal.RequireFromString("0.003"),
	}, testFeeModel())

	// Gross spread ~0.18%, fees 0.20%, net negative.
	opps := ranker.Rank([]domain.Candidate{directCandidate("5001000", "5010000")})
	if len(opps) != 1 {
		t.Fatalf("Rank = %d opportunities, want 1", len(opps))
	}

	opp := opps[0]
	if opp.Status != domain.StatusSkipped {
		t.Errorf("status = %s, want skipped", opp.Status)
	}
	if opp.SkipReason != domain.SkipBelowThreshold {
		t.Errorf("skip_reason = %s, want %s", opp.SkipReason, domain.SkipBelowThreshold)
	}

	wantTotal := decimal.RequireFromString("0.002")
	if !opp.Fees.TotalPct.Equal(wantTotal) {
		t.Errorf("total fees = %s, want %s", opp.Fees.TotalPct, wantTotal)
	}
	if !opp.EstimatedProfitPct.IsNegative() {
		t.Errorf("estimated profit = %s, want negative", opp.EstimatedProfitPct)
	}
}

func TestRanker_AboveThresholdDetected(t *testing.T) {
	ranker := NewRanker(RankerConfig{
		MinProfitThreshold: decimal.RequireFromString("0.003"),
	}, testFeeModel())

	// Gross spread 1%, fees 0.2%, net 0.8%.
	opps := ranker.Rank([]domain.Candidate{directCandidate("5000000", "5050000")})
	opp := opps[0]

	if opp.Status != domain.StatusDetected {
		t.Fatalf("status = %s, want detected", opp.Status)
	}
	if opp.SkipReason != "" {
		t.Errorf("skip_reason = %s, want empty", opp.SkipReason)
	}
	wantNet := decimal.RequireFromString("0.01").Sub(decimal.RequireFromString("0.002"))
	if !opp.EstimatedProfitPct.Equal(wantNet) {
		t.Errorf("estimated profit = %s, want %s", opp.EstimatedProfitPct, wantNet)
	}
	if opp.ID == uuid.Nil {
		t.Error("opportunity should carry a generated id")
	}
}

func TestRanker_VolumeCappedPerBaseCurrency(t *testing.T) {
	ranker := NewRanker(RankerConfig{
		MinProfitThreshold: decimal.RequireFromString("0.003"),
		MaxPositionSizes: map[string]decimal.Decimal{
			"BTC": decimal.RequireFromString("0.1"),
		},
	}, testFeeModel())

	c := directCandidate("5000000", "5050000")
	c.BuyAskSize = decimal.RequireFromString("2.0")
	c.SellBidSize = decimal.RequireFromString("1.5")

	opp := ranker.Rank([]domain.Candidate{c})[0]
	want := decimal.RequireFromString("0.1")
	if !opp.MaxProfitableVolume.Equal(want) {
		t.Errorf("max profitable volume = %s, want %s (position cap)", opp.MaxProfitableVolume, want)
	}
}

func TestRanker_VolumeIsThinnerSide(t *testing.T) {
	ranker := NewRanker(RankerConfig{
		MinProfitThreshold: decimal.RequireFromString("0.003"),
	}, testFeeModel())

	c := directCandidate("5000000", "5050000")
	c.BuyAskSize = decimal.RequireFromString("0.8")
	c.SellBidSize = decimal.RequireFromString("0.3")

	opp := ranker.Rank([]domain.Candidate{c})[0]
	if !opp.MaxProfitableVolume.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("max profitable volume = %s, want 0.3", opp.MaxProfitableVolume)
	}
}

func TestRanker_BadPriceSkipped(t *testing.T) {
	ranker := NewRanker(RankerConfig{
		MinProfitThreshold: decimal.RequireFromString("0.003"),
	}, testFeeModel())

	c := directCandidate("5000000", "5050000")
	c.BuyPrice = decimal.Zero

	opp := ranker.Rank([]domain.Candidate{c})[0]
	if opp.Status != domain.StatusSkipped || opp.SkipReason != domain.SkipBadPrice {
		t.Errorf("got status=%s reason=%s, want skipped/%s", opp.Status, opp.SkipReason, domain.SkipBadPrice)
	}
}

func TestRanker_UnknownVenueSkipped(t *testing.T) {
	ranker := NewRanker(RankerConfig{
		MinProfitThreshold: decimal.RequireFromString("0.003"),
	}, testFeeModel())

	c := directCandidate("5000000", "5050000")
	c.BuyVenue = "Z"

	opp := ranker.Rank([]domain.Candidate{c})[0]
	if opp.Status != domain.StatusSkipped || opp.SkipReason != domain.SkipNoFeeSchedule {
		t.Errorf("got status=%s reason=%s, want skipped/%s", opp.Status, opp.SkipReason, domain.SkipNoFeeSchedule)
	}
}

func TestRanker_Ordering(t *testing.T) {
	ranker := NewRanker(RankerConfig{
		MinProfitThreshold: decimal.RequireFromString("0.003"),
	}, testFeeModel())

	small := directCandidate("5000000", "5025000")  // 0.5% gross
	big := directCandidate("5000000", "5100000")    // 2.0% gross
	losing := directCandidate("5001000", "5010000") // below threshold

	opps := ranker.Rank([]domain.Candidate{losing, small, big})
	if len(opps) != 3 {
		t.Fatalf("Rank = %d opportunities, want 3", len(opps))
	}

	if !opps[0].EstimatedProfitPct.GreaterThan(opps[1].EstimatedProfitPct) {
		t.Errorf("opportunities not ordered by profit: %s then %s",
			opps[0].EstimatedProfitPct, opps[1].EstimatedProfitPct)
	}
	if opps[2].Status != domain.StatusSkipped {
		t.Errorf("skipped row should rank last, got status %s", opps[2].Status)
	}
}
