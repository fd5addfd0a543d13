package app

import (
	"context"
	"time"

	"github.com/ksaito/crossarb/business/market/domain"
	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/circuitbreaker"
	"github.com/ksaito/crossarb/internal/logger"
	"github.com/ksaito/crossarb/internal/ratelimit"
)

const (
	pollInitialBackoff = 1 * time.Second
	pollMaxBackoff     = 30 * time.Second
	// Consecutive failures before the venue is marked degraded.
	pollDegradeAfter = 3
)

// Poller drives one venue's tick source on its own cadence. Each venue gets
// an independent Poller so a slow or failing venue never blocks the others.
type Poller struct {
	source   TickSource
	interval time.Duration
	limiter  *ratelimit.Limiter
	breaker  *circuitbreaker.Breaker[[]domain.Tick]
	health   VenueHealth
	ingest   func(context.Context, domain.Tick) error
	log      logger.LoggerInterface
}

// NewPoller creates a Poller for one venue.
func NewPoller(
	source TickSource,
	interval time.Duration,
	requestsPerMinute int,
	health VenueHealth,
	ingest func(context.Context, domain.Tick) error,
	log logger.LoggerInterface,
) *Poller {
	return &Poller{
		source:   source,
		interval: interval,
		limiter:  ratelimit.New(requestsPerMinute),
		breaker:  circuitbreaker.New[[]domain.Tick](circuitbreaker.DefaultConfig("poller-" + source.Venue())),
		health:   health,
		ingest:   ingest,
		log:      log,
	}
}

// Run polls until ctx is cancelled. It blocks; callers start one goroutine
// per venue.
func (p *Poller) Run(ctx context.Context) {
	venue := p.source.Venue()
	p.log.Info(ctx, "poller starting", "venue", venue, "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	backoff := pollInitialBackoff

	for {
		if err := p.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			if failures == pollDegradeAfter {
				p.health.MarkDegraded(venue, apperror.Wrap(err, apperror.CodeVenueDegraded, venue))
			}
			p.log.Warn(ctx, "poll failed", "venue", venue, "failures", failures, "error", err)

			// Back off on failure instead of hammering a sick venue.
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			if backoff > pollMaxBackoff {
				backoff = pollMaxBackoff
			}
			continue
		}

		if failures >= pollDegradeAfter {
			p.health.MarkHealthy(venue)
		}
		failures = 0
		backoff = pollInitialBackoff

		select {
		case <-ticker.C:
		case <-ctx.Done():
			p.log.Info(ctx, "poller stopping", "venue", venue)
			return
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	ticks, err := p.breaker.Execute(func() ([]domain.Tick, error) {
		return p.source.FetchTicks(ctx)
	})
	if err != nil {
		return err
	}

	for _, tick := range ticks {
		if err := p.ingest(ctx, tick); err != nil {
			p.log.Warn(ctx, "tick rejected", "venue", tick.Venue, "pair", tick.Pair, "error", err)
		}
	}
	return nil
}
