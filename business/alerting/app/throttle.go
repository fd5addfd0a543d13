// Package app contains application services for the alerting context.
package app

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/alerting/domain"
	arbDomain "github.com/ksaito/crossarb/business/arbitrage/domain"
)

// ThrottleConfig holds the notification budget.
type ThrottleConfig struct {
	// Cooldown suppresses repeats of the same route fingerprint.
	Cooldown time.Duration
	// HourlyCap bounds total sends in the trailing hour.
	HourlyCap int
	// QuietHours suppresses sends unless profitability exceeds
	// QuietOverridePct.
	QuietHours       domain.QuietHours
	QuietOverridePct decimal.Decimal
}

// ThrottleStats is a point-in-time view of throttle state.
type ThrottleStats struct {
	SentLastHour    int
	TrackedRoutes   int
	SuppressedTotal uint64
}

// Throttle is the stateful gate deciding whether an alert may fire now.
// Decide never consumes budget; only Commit records a send. Callers Commit
// after delivery succeeds, so a failed delivery leaves cooldowns and the
// hourly window untouched.
type Throttle struct {
	cfg ThrottleConfig

	mu         sync.Mutex
	lastSent   map[string]time.Time // fingerprint -> last committed send
	sentTimes  []time.Time          // committed sends in the trailing hour
	suppressed uint64
}

// NewThrottle creates a Throttle.
func NewThrottle(cfg ThrottleConfig) *Throttle {
	return &Throttle{
		cfg:      cfg,
		lastSent: make(map[string]time.Time),
	}
}

// Decide returns whether the opportunity may be alerted at instant now. It
// consumes no budget; the only state it touches is the suppression tally.
func (t *Throttle) Decide(now time.Time, opp *arbDomain.Opportunity) domain.Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	if last, ok := t.lastSent[opp.Fingerprint()]; ok && now.Sub(last) < t.cfg.Cooldown {
		t.suppressed++
		return domain.Decision{Reason: domain.ReasonCooldown}
	}

	if t.countSentLocked(now) >= t.cfg.HourlyCap {
		t.suppressed++
		return domain.Decision{Reason: domain.ReasonHourlyCap}
	}

	if t.cfg.QuietHours.Contains(now) && !opp.EstimatedProfitPct.GreaterThan(t.cfg.QuietOverridePct) {
		t.suppressed++
		return domain.Decision{Reason: domain.ReasonQuietHours}
	}

	return domain.Decision{Send: true, Reason: domain.ReasonSend}
}

// Commit records a confirmed send for the fingerprint at instant now.
func (t *Throttle) Commit(now time.Time, fingerprint string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastSent[fingerprint] = now
	t.sentTimes = append(t.sentTimes, now)
	t.pruneLocked(now)
}

// Stats returns current counters.
func (t *Throttle) Stats(now time.Time) ThrottleStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return ThrottleStats{
		SentLastHour:    t.countSentLocked(now),
		TrackedRoutes:   len(t.lastSent),
		SuppressedTotal: t.suppressed,
	}
}

// countSentLocked counts committed sends inside the trailing hour. The
// window slides continuously: the moment the oldest counted send ages past
// one hour, capacity frees up.
func (t *Throttle) countSentLocked(now time.Time) int {
	cutoff := now.Add(-time.Hour)
	count := 0
	for _, ts := range t.sentTimes {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}

func (t *Throttle) pruneLocked(now time.Time) {
	cutoff := now.Add(-time.Hour)
	kept := t.sentTimes[:0]
	for _, ts := range t.sentTimes {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	t.sentTimes = kept
}
