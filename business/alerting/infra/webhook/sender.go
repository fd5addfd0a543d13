// Package webhook delivers alerts to an HTTP webhook endpoint.
package webhook

import (
	"context"
	"time"

	arbDomain "github.com/ksaito/crossarb/business/arbitrage/domain"
	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/httpclient"
)

// payload is the webhook message body.
type payload struct {
	ID                  string         `json:"id"`
	Timestamp           time.Time      `json:"timestamp"`
	Strategy            string         `json:"strategy"`
	Pair                string         `json:"pair"`
	BuyVenue            string         `json:"buy_venue"`
	SellVenue           string         `json:"sell_venue"`
	BuyPrice            string         `json:"buy_price"`
	SellPrice           string         `json:"sell_price"`
	PriceDiffPct        string         `json:"price_diff_pct"`
	EstimatedProfitPct  string         `json:"estimated_profit_pct"`
	MaxProfitableVolume string         `json:"max_profitable_volume"`
	TotalFeesPct        string         `json:"total_fees_pct"`
	Details             map[string]any `json:"details,omitempty"`
}

// Sender posts alert payloads to a configured webhook URL.
type Sender struct {
	url  string
	http httpclient.Client
}

// New creates a webhook Sender.
func New(url string, timeout time.Duration) (*Sender, error) {
	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("webhook"),
		httpclient.WithRequestTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}
	return &Sender{url: url, http: hc}, nil
}

// Send posts one opportunity. Non-2xx responses are delivery failures.
func (s *Sender) Send(ctx context.Context, opp *arbDomain.Opportunity) error {
	body := payload{
		ID:                  opp.ID.String(),
		Timestamp:           opp.Timestamp,
		Strategy:            string(opp.Strategy),
		Pair:                opp.Pair,
		BuyVenue:            opp.BuyVenue,
		SellVenue:           opp.SellVenue,
		BuyPrice:            opp.BuyPrice.String(),
		SellPrice:           opp.SellPrice.String(),
		PriceDiffPct:        opp.PriceDiffPct.String(),
		EstimatedProfitPct:  opp.EstimatedProfitPct.String(),
		MaxProfitableVolume: opp.MaxProfitableVolume.String(),
		TotalFeesPct:        opp.Fees.TotalPct.String(),
		Details:             opp.ExecutionDetails,
	}

	if err := s.http.PostJSON(ctx, s.url, body); err != nil {
		return apperror.Wrap(err, apperror.CodeDeliveryFailed, opp.Fingerprint())
	}
	return nil
}
