// Package fx supplies settlement-currency conversion rates for cross-rate
// price normalization.
package fx

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/httpclient"
	"github.com/ksaito/crossarb/internal/logger"
)

// ratesResponse is the upstream payload: rates are quoted against USD.
type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Config holds the FX service configuration.
type Config struct {
	URL             string
	RefreshInterval time.Duration
	// StaleAfter bounds how long a previously fetched rate may be served.
	// Beyond it the fallback rate takes over.
	StaleAfter     time.Duration
	FallbackUSDJPY decimal.Decimal
}

// Service caches USD-based conversion rates and refreshes them in the
// background. Rates older than StaleAfter fall back to the configured static
// USD/JPY rate so cross-rate detection keeps running through an outage.
type Service struct {
	cfg  Config
	http httpclient.Client
	log  logger.LoggerInterface

	mu        sync.RWMutex
	rates     map[string]decimal.Decimal // currency -> units per USD
	fetchedAt time.Time
}

// New creates the FX service. It performs no network call until Run.
func New(cfg Config, log logger.LoggerInterface) (*Service, error) {
	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("fx"),
		httpclient.WithRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:   cfg,
		http:  hc,
		log:   log,
		rates: map[string]decimal.Decimal{"USD": decimal.NewFromInt(1)},
	}, nil
}

// Run refreshes rates on the configured cadence until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.log.Warn(ctx, "initial fx refresh failed, using fallback", "error", err)
	}

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.log.Warn(ctx, "fx refresh failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Rate returns how many units of 'to' one unit of 'from' buys. Unknown
// currencies yield CodeFXRateUnavailable; stale cached rates are replaced by
// the fallback where possible.
func (s *Service) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	s.mu.RLock()
	rates := s.rates
	fetchedAt := s.fetchedAt
	s.mu.RUnlock()

	stale := fetchedAt.IsZero() || time.Since(fetchedAt) > s.cfg.StaleAfter
	if stale {
		if rate, ok := s.fallbackRate(from, to); ok {
			return rate, nil
		}
		return decimal.Zero, apperror.New(apperror.CodeFXRateStale,
			apperror.WithContext(from+"/"+to))
	}

	fromRate, okFrom := rates[from]
	toRate, okTo := rates[to]
	if !okFrom || !okTo || fromRate.IsZero() {
		return decimal.Zero, apperror.New(apperror.CodeFXRateUnavailable,
			apperror.WithContext(from+"/"+to))
	}

	// rates are per-USD, so from->to = (to per USD) / (from per USD).
	return toRate.Div(fromRate), nil
}

// fallbackRate covers the USD/JPY leg with the static configured rate. USDT
// is treated at par with USD for fallback purposes.
func (s *Service) fallbackRate(from, to string) (decimal.Decimal, bool) {
	usdLike := func(c string) bool { return c == "USD" || c == "USDT" }

	switch {
	case usdLike(from) && to == "JPY":
		return s.cfg.FallbackUSDJPY, true
	case from == "JPY" && usdLike(to):
		if s.cfg.FallbackUSDJPY.IsZero() {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(1).Div(s.cfg.FallbackUSDJPY), true
	case usdLike(from) && usdLike(to):
		return decimal.NewFromInt(1), true
	}
	return decimal.Zero, false
}

func (s *Service) refresh(ctx context.Context) error {
	var resp ratesResponse
	if err := s.http.GetJSON(ctx, s.cfg.URL, &resp); err != nil {
		return apperror.Wrap(err, apperror.CodeFXRateUnavailable, "refresh")
	}
	if len(resp.Rates) == 0 {
		return apperror.New(apperror.CodeFXRateUnavailable,
			apperror.WithContext("empty rates payload"))
	}

	rates := make(map[string]decimal.Decimal, len(resp.Rates)+2)
	rates["USD"] = decimal.NewFromInt(1)
	for currency, rate := range resp.Rates {
		rates[strings.ToUpper(currency)] = decimal.NewFromFloat(rate)
	}
	// Stablecoin settlement is treated at par unless quoted explicitly.
	if _, ok := rates["USDT"]; !ok {
		rates["USDT"] = decimal.NewFromInt(1)
	}

	s.mu.Lock()
	s.rates = rates
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.log.Debug(ctx, "fx rates refreshed", "currencies", len(rates))
	return nil
}
