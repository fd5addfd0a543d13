package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/logger"
)

// BufferedSink persists opportunity rows without ever blocking detection.
// Writes are retried with exponential backoff; a full buffer drops the row
// and reports the drop.
type BufferedSink struct {
	writer  OpportunityWriter
	queue   chan *domain.Opportunity
	log     logger.LoggerInterface
	backoff time.Duration
	retries int

	dropped atomic.Uint64
	wg      sync.WaitGroup
}

// NewBufferedSink creates a sink with the given queue bound.
func NewBufferedSink(writer OpportunityWriter, size int, backoff time.Duration, retries int, log logger.LoggerInterface) *BufferedSink {
	return &BufferedSink{
		writer:  writer,
		queue:   make(chan *domain.Opportunity, size),
		log:     log,
		backoff: backoff,
		retries: retries,
	}
}

// Start launches the drain worker.
func (s *BufferedSink) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drain(ctx)
	}()
}

// Wait blocks until the drain worker has exited.
func (s *BufferedSink) Wait() {
	s.wg.Wait()
}

// Submit enqueues an opportunity for persistence. It never blocks.
func (s *BufferedSink) Submit(ctx context.Context, opp *domain.Opportunity) error {
	select {
	case s.queue <- opp:
		return nil
	default:
		dropped := s.dropped.Add(1)
		s.log.Error(ctx, "opportunity buffer full, dropping",
			"id", opp.ID.String(), "pair", opp.Pair, "dropped_total", dropped)
		return apperror.New(apperror.CodeStoreQueueFull, apperror.WithContext(opp.Pair))
	}
}

// Dropped returns the total number of rows dropped due to a full buffer.
func (s *BufferedSink) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *BufferedSink) drain(ctx context.Context) {
	for {
		select {
		case opp := <-s.queue:
			s.writeWithRetry(ctx, opp)
		case <-ctx.Done():
			for {
				select {
				case opp := <-s.queue:
					flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					err := s.writer.InsertOpportunity(flushCtx, opp)
					cancel()
					if err != nil {
						s.log.Warn(ctx, "opportunity flush failed on shutdown", "error", err)
					}
				default:
					return
				}
			}
		}
	}
}

func (s *BufferedSink) writeWithRetry(ctx context.Context, opp *domain.Opportunity) {
	backoff := s.backoff
	for attempt := 0; ; attempt++ {
		err := s.writer.InsertOpportunity(ctx, opp)
		if err == nil {
			return
		}
		if attempt >= s.retries || ctx.Err() != nil {
			s.log.Error(ctx, "opportunity persistence gave up",
				"id", opp.ID.String(), "attempts", attempt+1, "error", err)
			return
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff *= 2
	}
}
