package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testFeeModel() *FeeModel {
	return NewFeeModel(map[string]VenueFees{
		"alpha": {
			TakerFee:       decimal.RequireFromString("0.001"),
			WithdrawalFees: map[string]decimal.Decimal{"BTC": decimal.RequireFromString("0.0004")},
		},
		"beta": {
			TakerFee:       decimal.RequireFromString("0.001"),
			WithdrawalFees: map[string]decimal.Decimal{"BTC": decimal.RequireFromString("0.0006")},
		},
	}, map[string]int{"BTC": 30, "ETH": 15})
}

func TestFeeModel_Compute(t *testing.T) {
	model := testFeeModel()

	tests := []struct {
		name         string
		candidate    Candidate
		positionSize string
		wantTotal    string
		wantErr      bool
	}{
		{
			name: "taker_both_legs_no_transfer",
			candidate: Candidate{
				BuyVenue: "alpha", SellVenue: "beta", BaseCurrency: "BTC",
				RequiresTransfer: false,
			},
			positionSize: "0.1",
			wantTotal:    "0.002", // 0.1% + 0.1%
		},
		{
			name: "transfer_fee_amortized_over_position",
			candidate: Candidate{
				BuyVenue: "alpha", SellVenue: "beta", BaseCurrency: "BTC",
				RequiresTransfer: true,
			},
			positionSize: "0.1",
			// 0.001 + 0.001 + 0.0004/0.1
			wantTotal: "0.006",
		},
		{
			name: "larger_position_shrinks_transfer_pct",
			candidate: Candidate{
				BuyVenue: "alpha", SellVenue: "beta", BaseCurrency: "BTC",
				RequiresTransfer: true,
			},
			positionSize: "1",
			wantTotal:    "0.0024",
		},
		{
			name: "triangular_charges_all_three_legs",
			candidate: Candidate{
				Strategy: StrategyTriangular,
				BuyVenue: "alpha", SellVenue: "alpha", BaseCurrency: "BTC",
				RequiresTransfer: false,
			},
			positionSize: "0.1",
			wantTotal:    "0.003", // 0.1% per leg of the cycle
		},
		{
			name: "unknown_buy_venue",
			candidate: Candidate{
				BuyVenue: "ghost", SellVenue: "beta", BaseCurrency: "BTC",
			},
			positionSize: "1",
			wantErr:      true,
		},
		{
			name: "missing_withdrawal_fee",
			candidate: Candidate{
				BuyVenue: "alpha", SellVenue: "beta", BaseCurrency: "DOGE",
				RequiresTransfer: true,
			},
			positionSize: "1",
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.Compute(tt.candidate, decimal.RequireFromString(tt.positionSize))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if !got.TotalPct.Equal(decimal.RequireFromString(tt.wantTotal)) {
				t.Errorf("TotalPct = %s, want %s", got.TotalPct, tt.wantTotal)
			}
		})
	}
}

func TestFeeModel_ZeroPositionDoesNotDivide(t *testing.T) {
	model := testFeeModel()

	got, err := model.Compute(Candidate{
		BuyVenue: "alpha", SellVenue: "beta", BaseCurrency: "BTC",
		RequiresTransfer: true,
	}, decimal.Zero)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// Flat fee passes through unamortized rather than dividing by zero.
	if !got.TransferFeePct.Equal(decimal.RequireFromString("0.0004")) {
		t.Errorf("TransferFeePct = %s, want 0.0004", got.TransferFeePct)
	}
}

func TestFeeModel_TransferMinutes(t *testing.T) {
	model := testFeeModel()
	if got := model.TransferMinutes("BTC"); got != 30 {
		t.Errorf("TransferMinutes(BTC) = %d, want 30", got)
	}
	if got := model.TransferMinutes("DOGE"); got != 0 {
		t.Errorf("TransferMinutes(DOGE) = %d, want 0", got)
	}
}
