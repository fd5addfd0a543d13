package fx

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Config{
		StaleAfter:     15 * time.Minute,
		FallbackUSDJPY: decimal.RequireFromString("155"),
	}, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func seedRates(svc *Service, fetchedAt time.Time, rates map[string]string) {
	parsed := make(map[string]decimal.Decimal, len(rates))
	for currency, rate := range rates {
		parsed[currency] = decimal.RequireFromString(rate)
	}
	svc.mu.Lock()
	svc.rates = parsed
	svc.fetchedAt = fetchedAt
	svc.mu.Unlock()
}

func TestService_RateFreshCross(t *testing.T) {
	svc := newTestService(t)
	seedRates(svc, time.Now(), map[string]string{
		"USD": "1", "JPY": "150", "USDT": "1",
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to string
		want     string
	}{
		{"identity", "JPY", "JPY", "1"},
		{"usd_to_jpy", "USD", "JPY", "150"},
		{"usdt_to_jpy", "USDT", "JPY", "150"},
		{"case_insensitive", "usd", "jpy", "150"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Rate(ctx, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Rate(%s, %s): %v", tt.from, tt.to, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Rate(%s, %s) = %s, want %s", tt.from, tt.to, got, tt.want)
			}
		})
	}

	// Inverse is the reciprocal.
	inv, err := svc.Rate(ctx, "JPY", "USD")
	if err != nil {
		t.Fatalf("Rate(JPY, USD): %v", err)
	}
	want := decimal.NewFromInt(1).Div(decimal.RequireFromString("150"))
	if !inv.Equal(want) {
		t.Errorf("Rate(JPY, USD) = %s, want %s", inv, want)
	}
}

func TestService_StaleFallsBackToStaticRate(t *testing.T) {
	svc := newTestService(t)
	seedRates(svc, time.Now().Add(-time.Hour), map[string]string{
		"USD": "1", "JPY": "150",
	})
	ctx := context.Background()

	// The live 150 is stale; the static 155 takes over.
	got, err := svc.Rate(ctx, "USDT", "JPY")
	if err != nil {
		t.Fatalf("Rate(USDT, JPY): %v", err)
	}
	if !got.Equal(decimal.RequireFromString("155")) {
		t.Errorf("stale Rate(USDT, JPY) = %s, want fallback 155", got)
	}

	// No fallback exists for non-USD legs.
	_, err = svc.Rate(ctx, "EUR", "JPY")
	if err == nil {
		t.Fatal("stale Rate(EUR, JPY) should error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeFXRateStale {
		t.Errorf("error code = %s, want %s", code, apperror.CodeFXRateStale)
	}
}

func TestService_NeverFetchedUsesFallbackImmediately(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Rate(context.Background(), "USD", "JPY")
	if err != nil {
		t.Fatalf("Rate before first refresh: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("155")) {
		t.Errorf("Rate before first refresh = %s, want fallback 155", got)
	}
}

func TestService_UnknownCurrency(t *testing.T) {
	svc := newTestService(t)
	seedRates(svc, time.Now(), map[string]string{"USD": "1", "JPY": "150"})

	_, err := svc.Rate(context.Background(), "DOGE", "JPY")
	if err == nil {
		t.Fatal("Rate with unknown currency should error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeFXRateUnavailable {
		t.Errorf("error code = %s, want %s", code, apperror.CodeFXRateUnavailable)
	}
}
