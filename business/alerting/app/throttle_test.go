package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/alerting/domain"
	arbDomain "github.com/ksaito/crossarb/business/arbitrage/domain"
)

func testOpportunity(pair, buyVenue, sellVenue, profitPct string) *arbDomain.Opportunity {
	return &arbDomain.Opportunity{
		Pair:               pair,
		BuyVenue:           buyVenue,
		SellVenue:          sellVenue,
		Status:             arbDomain.StatusDetected,
		EstimatedProfitPct: decimal.RequireFromString(profitPct),
	}
}

func TestThrottle_CooldownPerFingerprint(t *testing.T) {
	throttle := NewThrottle(ThrottleConfig{
		Cooldown:  5 * time.Minute,
		HourlyCap: 20,
	})
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	opp := testOpportunity("BTC/JPY", "X", "Y", "0.005")

	d := throttle.Decide(base, opp)
	if !d.Send {
		t.Fatalf("first decision = %s, want send", d.Reason)
	}
	throttle.Commit(base, opp.Fingerprint())

	// Second identical opportunity inside the window is suppressed.
	d = throttle.Decide(base.Add(2*time.Minute), opp)
	if d.Send || d.Reason != domain.ReasonCooldown {
		t.Fatalf("decision inside cooldown = %+v, want cooldown suppression", d)
	}

	// A different route is unaffected.
	other := testOpportunity("BTC/JPY", "Y", "X", "0.005")
	if d := throttle.Decide(base.Add(2*time.Minute), other); !d.Send {
		t.Errorf("different fingerprint suppressed: %s", d.Reason)
	}

	// After the cooldown elapses the route may fire again.
	d = throttle.Decide(base.Add(5*time.Minute+time.Second), opp)
	if !d.Send {
		t.Errorf("decision after cooldown = %s, want send", d.Reason)
	}
}

func TestThrottle_HourlyCapSlidingWindow(t *testing.T) {
	throttle := NewThrottle(ThrottleConfig{
		Cooldown:  time.Minute,
		HourlyCap: 3,
	})
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// Three distinct routes exhaust the cap.
	for i, route := range []string{"Y", "Z", "W"} {
		opp := testOpportunity("BTC/JPY", "X", route, "0.005")
		now := base.Add(time.Duration(i) * time.Minute)
		if d := throttle.Decide(now, opp); !d.Send {
			t.Fatalf("send %d suppressed: %s", i+1, d.Reason)
		}
		throttle.Commit(now, opp.Fingerprint())
	}

	fourth := testOpportunity("ETH/JPY", "X", "Y", "0.005")
	d := throttle.Decide(base.Add(10*time.Minute), fourth)
	if d.Send || d.Reason != domain.ReasonHourlyCap {
		t.Fatalf("decision at cap = %+v, want hourly cap suppression", d)
	}

	// The window slides: once the first send ages past one hour a slot
	// frees up.
	d = throttle.Decide(base.Add(time.Hour+time.Second), fourth)
	if !d.Send {
		t.Errorf("decision after window slid = %s, want send", d.Reason)
	}
}

func TestThrottle_QuietHours(t *testing.T) {
	quiet, err := domain.ParseQuietHours("23:00", "07:00")
	if err != nil {
		t.Fatalf("ParseQuietHours: %v", err)
	}
	throttle := NewThrottle(ThrottleConfig{
		Cooldown:         5 * time.Minute,
		HourlyCap:        20,
		QuietHours:       quiet,
		QuietOverridePct: decimal.RequireFromString("0.01"),
	})

	night := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	day := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		profit   string
		wantSend bool
		want     string
	}{
		{"quiet_suppresses_modest_profit", night, "0.005", false, domain.ReasonQuietHours},
		{"quiet_overridden_by_high_profit", night, "0.015", true, domain.ReasonSend},
		{"quiet_override_is_strictly_greater", night, "0.01", false, domain.ReasonQuietHours},
		{"daytime_unaffected", day, "0.005", true, domain.ReasonSend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp := testOpportunity("BTC/JPY", "X", tt.name, tt.profit)
			d := throttle.Decide(tt.now, opp)
			if d.Send != tt.wantSend || d.Reason != tt.want {
				t.Errorf("Decide = %+v, want send=%v reason=%s", d, tt.wantSend, tt.want)
			}
		})
	}
}

func TestThrottle_DecideDoesNotConsumeBudget(t *testing.T) {
	throttle := NewThrottle(ThrottleConfig{
		Cooldown:  5 * time.Minute,
		HourlyCap: 1,
	})
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	opp := testOpportunity("BTC/JPY", "X", "Y", "0.005")

	// Repeated decisions without a commit never consume the cap or start
	// a cooldown. This is what keeps a failed delivery free of charge.
	for i := 0; i < 5; i++ {
		if d := throttle.Decide(base, opp); !d.Send {
			t.Fatalf("decision %d = %s, want send (no commits yet)", i+1, d.Reason)
		}
	}

	stats := throttle.Stats(base)
	if stats.SentLastHour != 0 {
		t.Errorf("SentLastHour = %d, want 0 before any commit", stats.SentLastHour)
	}

	throttle.Commit(base, opp.Fingerprint())
	if d := throttle.Decide(base.Add(time.Second), opp); d.Send {
		t.Error("decision after commit should hit the cooldown")
	}
}

func TestThrottle_Stats(t *testing.T) {
	throttle := NewThrottle(ThrottleConfig{
		Cooldown:  time.Minute,
		HourlyCap: 1,
	})
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	opp := testOpportunity("BTC/JPY", "X", "Y", "0.005")
	throttle.Decide(base, opp)
	throttle.Commit(base, opp.Fingerprint())

	// Suppressed by the cap.
	other := testOpportunity("ETH/JPY", "X", "Y", "0.005")
	throttle.Decide(base.Add(time.Second), other)

	stats := throttle.Stats(base.Add(time.Second))
	if stats.SentLastHour != 1 {
		t.Errorf("SentLastHour = %d, want 1", stats.SentLastHour)
	}
	if stats.TrackedRoutes != 1 {
		t.Errorf("TrackedRoutes = %d, want 1", stats.TrackedRoutes)
	}
	if stats.SuppressedTotal != 1 {
		t.Errorf("SuppressedTotal = %d, want 1", stats.SuppressedTotal)
	}
}
