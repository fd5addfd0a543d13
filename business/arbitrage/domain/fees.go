package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VenueFees is the fee schedule for one venue.
type VenueFees struct {
	MakerFee       decimal.Decimal
	TakerFee       decimal.Decimal
	WithdrawalFees map[string]decimal.Decimal // currency -> flat fee in that currency
}

// FeeModel is a pure lookup of trading and transfer costs. Both legs are
// assumed to execute as taker orders, the conservative case.
type FeeModel struct {
	venues          map[string]VenueFees
	transferMinutes map[string]int
}

// NewFeeModel builds a FeeModel from per-venue schedules.
func NewFeeModel(venues map[string]VenueFees, transferMinutes map[string]int) *FeeModel {
	return &FeeModel{venues: venues, transferMinutes: transferMinutes}
}

// Compute decomposes the fees for a candidate at the given position size
// (in base currency units). The withdrawal fee is flat in base units, so its
// percentage contribution shrinks as position size grows.
func (m *FeeModel) Compute(c Candidate, positionSize decimal.Decimal) (FeeBreakdown, error) {
	buyVenue, ok := m.venues[c.BuyVenue]
	if !ok {
		return FeeBreakdown{}, fmt.Errorf("no fee schedule for venue %s", c.BuyVenue)
	}
	sellVenue, ok := m.venues[c.SellVenue]
	if !ok {
		return FeeBreakdown{}, fmt.Errorf("no fee schedule for venue %s", c.SellVenue)
	}

	breakdown := FeeBreakdown{
		BuyFeePct:  buyVenue.TakerFee,
		SellFeePct: sellVenue.TakerFee,
	}
	if c.Strategy == StrategyTriangular {
		// A cycle executes three taker trades; the entry leg is the buy
		// side, the two closing conversions land on the sell side.
		breakdown.SellFeePct = sellVenue.TakerFee.Mul(decimal.NewFromInt(2))
	}

	if c.RequiresTransfer {
		withdrawalFee, ok := buyVenue.WithdrawalFees[c.BaseCurrency]
		if !ok {
			return FeeBreakdown{}, fmt.Errorf("no withdrawal fee for %s on venue %s", c.BaseCurrency, c.BuyVenue)
		}
		if positionSize.IsPositive() {
			breakdown.TransferFeePct = withdrawalFee.Div(positionSize)
		} else {
			// A zero-size position cannot amortize a flat fee.
			breakdown.TransferFeePct = withdrawalFee
		}
	}

	breakdown.TotalPct = breakdown.BuyFeePct.
		Add(breakdown.SellFeePct).
		Add(breakdown.TransferFeePct)
	return breakdown, nil
}

// TransferMinutes returns the estimated on-chain transfer time for a
// currency, or 0 when unknown.
func (m *FeeModel) TransferMinutes(currency string) int {
	return m.transferMinutes[currency]
}

// HasVenue reports whether a fee schedule exists for the venue.
func (m *FeeModel) HasVenue(code string) bool {
	_, ok := m.venues[code]
	return ok
}
