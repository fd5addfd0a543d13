package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ksaito/crossarb/business/market/domain"
	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/logger"
)

// TickSink is the synchronous write boundary the buffered recorder drains to.
type TickSink interface {
	InsertTick(ctx context.Context, tick domain.Tick) error
}

// BufferedRecorder decouples tick ingestion from durable writes. RecordTick
// enqueues without blocking; a background worker drains the queue with
// bounded retries. When the buffer is full the tick is dropped and the drop
// is counted and reported, because ingestion must never stall on storage.
type BufferedRecorder struct {
	sink    TickSink
	queue   chan domain.Tick
	log     logger.LoggerInterface
	backoff time.Duration
	retries int

	dropped atomic.Uint64
	wg      sync.WaitGroup
}

// NewBufferedRecorder creates a recorder with the given queue bound.
func NewBufferedRecorder(sink TickSink, size int, backoff time.Duration, retries int, log logger.LoggerInterface) *BufferedRecorder {
	return &BufferedRecorder{
		sink:    sink,
		queue:   make(chan domain.Tick, size),
		log:     log,
		backoff: backoff,
		retries: retries,
	}
}

// Start launches the drain worker.
func (r *BufferedRecorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.drain(ctx)
	}()
}

// Wait blocks until the drain worker has exited.
func (r *BufferedRecorder) Wait() {
	r.wg.Wait()
}

// RecordTick enqueues a tick for persistence. It never blocks.
func (r *BufferedRecorder) RecordTick(ctx context.Context, tick domain.Tick) error {
	select {
	case r.queue <- tick:
		return nil
	default:
		dropped := r.dropped.Add(1)
		r.log.Error(ctx, "tick persistence buffer full, dropping",
			"venue", tick.Venue, "pair", tick.Pair, "dropped_total", dropped)
		return apperror.New(apperror.CodeStoreQueueFull,
			apperror.WithContext(tick.Venue+"/"+tick.Pair))
	}
}

// Dropped returns the total number of ticks dropped due to a full buffer.
func (r *BufferedRecorder) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *BufferedRecorder) drain(ctx context.Context) {
	for {
		select {
		case tick := <-r.queue:
			r.writeWithRetry(ctx, tick)
		case <-ctx.Done():
			// Flush what is already queued before exiting.
			for {
				select {
				case tick := <-r.queue:
					flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					err := r.sink.InsertTick(flushCtx, tick)
					cancel()
					if err != nil {
						r.log.Warn(ctx, "tick flush failed on shutdown", "error", err)
					}
				default:
					return
				}
			}
		}
	}
}

func (r *BufferedRecorder) writeWithRetry(ctx context.Context, tick domain.Tick) {
	backoff := r.backoff
	for attempt := 0; ; attempt++ {
		err := r.sink.InsertTick(ctx, tick)
		if err == nil {
			return
		}
		if attempt >= r.retries || ctx.Err() != nil {
			r.log.Error(ctx, "tick persistence gave up",
				"venue", tick.Venue, "pair", tick.Pair, "attempts", attempt+1, "error", err)
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
