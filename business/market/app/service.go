package app

import (
	"context"
	"sync"
	"time"

	"github.com/ksaito/crossarb/business/market/domain"
	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/logger"
)

// MarketService owns the snapshot store and the venue/pair reference data.
// It is the single ingestion point for normalized ticks.
type MarketService struct {
	store  *domain.Store
	venues map[string]*domain.Venue
	pairs  map[string]*domain.Pair

	recorder TickRecorder
	cache    TickCache
	log      logger.LoggerInterface

	mu       sync.RWMutex
	degraded map[string]error
}

// NewMarketService creates a MarketService. cache may be nil when the hot
// cache is disabled.
func NewMarketService(
	venues []*domain.Venue,
	pairs []*domain.Pair,
	recorder TickRecorder,
	cache TickCache,
	log logger.LoggerInterface,
) *MarketService {
	venueIdx := make(map[string]*domain.Venue, len(venues))
	for _, v := range venues {
		venueIdx[v.Code] = v
	}
	pairIdx := make(map[string]*domain.Pair, len(pairs))
	for _, p := range pairs {
		pairIdx[p.Symbol] = p
	}

	return &MarketService{
		store:    domain.NewStore(),
		venues:   venueIdx,
		pairs:    pairIdx,
		recorder: recorder,
		cache:    cache,
		log:      log,
		degraded: make(map[string]error),
	}
}

// Ingest validates and stores a tick. Stale and unknown ticks are dropped
// silently; accepted ticks are forwarded to the recorder and hot cache.
func (s *MarketService) Ingest(ctx context.Context, tick domain.Tick) error {
	if _, ok := s.venues[tick.Venue]; !ok {
		return apperror.Validation(apperror.CodeUnknownVenue, "venue "+tick.Venue)
	}
	if _, ok := s.pairs[tick.Pair]; !ok {
		return apperror.Validation(apperror.CodeUnknownPair, "pair "+tick.Pair)
	}
	if !tick.HasLiquidity() {
		// Empty books are common on thin venues, skip without error.
		s.log.Debug(ctx, "tick without liquidity dropped",
			"venue", tick.Venue, "pair", tick.Pair)
		return nil
	}

	if !s.store.Ingest(tick) {
		return nil
	}

	if s.recorder != nil {
		if err := s.recorder.RecordTick(ctx, tick); err != nil {
			s.log.Warn(ctx, "tick persistence failed",
				"venue", tick.Venue, "pair", tick.Pair, "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.SetTick(ctx, tick); err != nil {
			s.log.Debug(ctx, "tick cache update failed",
				"venue", tick.Venue, "pair", tick.Pair, "error", err)
		}
	}
	return nil
}

// Snapshot returns an atomic view of ticks no older than maxAge.
func (s *MarketService) Snapshot(maxAge time.Duration) domain.Snapshot {
	return s.store.Snapshot(time.Now(), maxAge)
}

// StoreVersion increments on every accepted ingest.
func (s *MarketService) StoreVersion() uint64 {
	return s.store.Version()
}

// Venue returns the reference record for a venue code.
func (s *MarketService) Venue(code string) (*domain.Venue, bool) {
	v, ok := s.venues[code]
	return v, ok
}

// Venues returns all configured venues.
func (s *MarketService) Venues() []*domain.Venue {
	out := make([]*domain.Venue, 0, len(s.venues))
	for _, v := range s.venues {
		out = append(out, v)
	}
	return out
}

// Pair returns the reference record for a pair symbol.
func (s *MarketService) Pair(symbol string) (*domain.Pair, bool) {
	p, ok := s.pairs[symbol]
	return p, ok
}

// ActivePairs returns all active configured pairs.
func (s *MarketService) ActivePairs() []*domain.Pair {
	out := make([]*domain.Pair, 0, len(s.pairs))
	for _, p := range s.pairs {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

// MarkDegraded records a venue as degraded. Degraded venues keep their last
// ticks in the store; staleness alone excludes them from detection.
func (s *MarketService) MarkDegraded(venue string, reason error) {
	s.mu.Lock()
	_, already := s.degraded[venue]
	s.degraded[venue] = reason
	s.mu.Unlock()

	if !already {
		s.log.Warn(context.Background(), "venue degraded", "venue", venue, "error", reason)
	}
}

// MarkHealthy clears a venue's degraded state after a successful fetch.
func (s *MarketService) MarkHealthy(venue string) {
	s.mu.Lock()
	_, was := s.degraded[venue]
	delete(s.degraded, venue)
	s.mu.Unlock()

	if was {
		s.log.Info(context.Background(), "venue recovered", "venue", venue)
	}
}

// DegradedVenues returns the currently degraded venue codes.
func (s *MarketService) DegradedVenues() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.degraded))
	for code := range s.degraded {
		out = append(out, code)
	}
	return out
}

// Healthy reports whether no venue is currently degraded.
func (s *MarketService) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.degraded) == 0
}
