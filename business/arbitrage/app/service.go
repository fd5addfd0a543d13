package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
	marketApp "github.com/ksaito/crossarb/business/market/app"
	"github.com/ksaito/crossarb/internal/apm"
	"github.com/ksaito/crossarb/internal/logger"
)

// DetectionServiceConfig holds the orchestration settings for the loop.
type DetectionServiceConfig struct {
	Interval   time.Duration
	MaxTickAge time.Duration
}

// DetectionService runs the periodic detect-rank-persist-notify pass. Passes
// never overlap: a pass still in flight causes the tick to be skipped rather
// than queued.
type DetectionService struct {
	cfg      DetectionServiceConfig
	market   *marketApp.MarketService
	detector *Detector
	ranker   *Ranker
	sink     *BufferedSink
	notifier Notifier
	tracer   apm.Tracer
	log      logger.LoggerInterface

	// passMu enforces single-flight detection when a pass is triggered
	// from more than one source.
	passMu sync.Mutex

	mu       sync.RWMutex
	lastPass time.Time
	passes   uint64
}

// NewDetectionService creates the orchestrator.
func NewDetectionService(
	cfg DetectionServiceConfig,
	market *marketApp.MarketService,
	detector *Detector,
	ranker *Ranker,
	sink *BufferedSink,
	notifier Notifier,
	tracer apm.Tracer,
	log logger.LoggerInterface,
) *DetectionService {
	return &DetectionService{
		cfg:      cfg,
		market:   market,
		detector: detector,
		ranker:   ranker,
		sink:     sink,
		notifier: notifier,
		tracer:   tracer,
		log:      log,
	}
}

// Run executes detection passes on the configured cadence until ctx is
// cancelled. The pass in flight always completes before Run returns.
func (s *DetectionService) Run(ctx context.Context) {
	s.log.Info(ctx, "detection loop starting",
		"interval", s.cfg.Interval.String(), "max_tick_age", s.cfg.MaxTickAge.String())

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunPass(ctx)
		case <-ctx.Done():
			s.log.Info(ctx, "detection loop stopping")
			return
		}
	}
}

// RunPass executes one detection pass. Returns the emitted opportunities, or
// nil when another pass is already in flight.
func (s *DetectionService) RunPass(ctx context.Context) []*domain.Opportunity {
	if !s.passMu.TryLock() {
		s.log.Warn(ctx, "detection pass still running, skipping tick")
		return nil
	}
	defer s.passMu.Unlock()

	ctx, span := s.tracer.StartSpanFromContext(ctx, "detection.pass")
	defer span.End()

	snap := s.market.Snapshot(s.cfg.MaxTickAge)
	candidates := s.detector.Detect(ctx, snap)
	opportunities := s.ranker.Rank(candidates)

	detected := 0
	for _, opp := range opportunities {
		// Every row is persisted, skipped ones included, for audit.
		_ = s.sink.Submit(ctx, opp)
		if opp.Detected() {
			detected++
			s.notifier.Notify(ctx, opp)
		}
	}

	span.SetAttributes(
		attribute.Int("snapshot.entries", snap.Len()),
		attribute.Int("candidates", len(candidates)),
		attribute.Int("detected", detected),
	)

	s.mu.Lock()
	s.lastPass = snap.TakenAt()
	s.passes++
	s.mu.Unlock()

	if detected > 0 {
		s.log.Info(ctx, "detection pass complete",
			"candidates", len(candidates), "detected", detected)
	} else {
		s.log.Debug(ctx, "detection pass complete",
			"candidates", len(candidates), "detected", 0)
	}
	return opportunities
}

// LastPass returns when the most recent pass took its snapshot.
func (s *DetectionService) LastPass() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPass
}

// Passes returns how many passes have completed.
func (s *DetectionService) Passes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.passes
}
