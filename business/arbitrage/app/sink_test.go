package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
	"github.com/ksaito/crossarb/internal/apperror"
)

func sinkOpportunity() *domain.Opportunity {
	return &domain.Opportunity{
		ID:     uuid.New(),
		Pair:   "BTC/JPY",
		Status: domain.StatusDetected,
	}
}

func TestBufferedSink_FullBufferDropsWithoutBlocking(t *testing.T) {
	writer := &memoryWriter{}
	// Worker deliberately not started so the queue stays full.
	sink := NewBufferedSink(writer, 2, time.Millisecond, 1, testLogger())
	ctx := context.Background()

	if err := sink.Submit(ctx, sinkOpportunity()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := sink.Submit(ctx, sinkOpportunity()); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- sink.Submit(ctx, sinkOpportunity())
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("submit into a full buffer should report the drop")
		}
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) || appErr.Code != apperror.CodeStoreQueueFull {
			t.Errorf("drop error = %v, want code %s", err, apperror.CodeStoreQueueFull)
		}
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full buffer")
	}

	if got := sink.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}

func TestBufferedSink_FlushesQueueOnShutdown(t *testing.T) {
	writer := &memoryWriter{}
	sink := NewBufferedSink(writer, 8, time.Millisecond, 1, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < 5; i++ {
		if err := sink.Submit(ctx, sinkOpportunity()); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	// Cancellation must not abandon queued rows; Wait returns only after
	// the flush completes.
	sink.Start(ctx)
	cancel()
	sink.Wait()

	if got := len(writer.opps); got != 5 {
		t.Errorf("persisted = %d rows after shutdown flush, want 5", got)
	}
}
