package domain

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func makeTick(venue, pair string, ts time.Time, bid, ask string) Tick {
	return Tick{
		Venue:     venue,
		Pair:      pair,
		Timestamp: ts,
		Bid:       decimal.RequireFromString(bid),
		Ask:       decimal.RequireFromString(ask),
		BidSize:   decimal.RequireFromString("1"),
		AskSize:   decimal.RequireFromString("1"),
	}
}

func TestStore_IngestIdempotent(t *testing.T) {
	store := NewStore()
	now := time.Now()
	tick := makeTick("alpha", "BTC/JPY", now, "5000000", "5001000")

	if !store.Ingest(tick) {
		t.Fatal("first ingest should be accepted")
	}
	versionAfterFirst := store.Version()

	if store.Ingest(tick) {
		t.Error("re-ingesting the identical tick should be a no-op")
	}
	if store.Version() != versionAfterFirst {
		t.Errorf("version changed on duplicate ingest: %d -> %d", versionAfterFirst, store.Version())
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestStore_MonotonicFreshness(t *testing.T) {
	store := NewStore()
	base := time.Now()

	t1 := makeTick("alpha", "BTC/JPY", base.Add(10*time.Second), "100", "101")
	t2 := makeTick("alpha", "BTC/JPY", base.Add(5*time.Second), "200", "201")

	if !store.Ingest(t1) {
		t.Fatal("t1 should be accepted")
	}
	if store.Ingest(t2) {
		t.Error("older t2 should be rejected")
	}

	snap := store.Snapshot(base.Add(10*time.Second), time.Minute)
	got, ok := snap.Get("alpha", "BTC/JPY")
	if !ok {
		t.Fatal("expected entry for alpha/BTC/JPY")
	}
	if !got.Bid.Equal(t1.Bid) {
		t.Errorf("stored tick bid = %s, want %s (T1 must win)", got.Bid, t1.Bid)
	}
}

func TestStore_SnapshotFreshnessBoundary(t *testing.T) {
	now := time.Now()
	maxAge := 30 * time.Second

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", 1 * time.Second, true},
		{"exactly_at_boundary", maxAge, true},
		{"one_unit_beyond", maxAge + time.Nanosecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			store.Ingest(makeTick("alpha", "BTC/JPY", now.Add(-tt.age), "100", "101"))

			snap := store.Snapshot(now, maxAge)
			_, ok := snap.Get("alpha", "BTC/JPY")
			if ok != tt.want {
				t.Errorf("included = %v, want %v for age %s", ok, tt.want, tt.age)
			}
		})
	}
}

func TestStore_SnapshotUnaffectedByLaterIngests(t *testing.T) {
	store := NewStore()
	now := time.Now()

	store.Ingest(makeTick("alpha", "BTC/JPY", now, "100", "101"))
	snap := store.Snapshot(now, time.Minute)

	store.Ingest(makeTick("alpha", "BTC/JPY", now.Add(time.Second), "999", "1000"))
	store.Ingest(makeTick("beta", "BTC/JPY", now.Add(time.Second), "500", "501"))

	got, ok := snap.Get("alpha", "BTC/JPY")
	if !ok {
		t.Fatal("snapshot lost its entry")
	}
	if !got.Bid.Equal(decimal.RequireFromString("100")) {
		t.Errorf("snapshot mutated by later ingest: bid = %s", got.Bid)
	}
	if snap.Len() != 1 {
		t.Errorf("snapshot grew after later ingest: Len() = %d", snap.Len())
	}
}

func TestStore_ConcurrentIngestAndSnapshot(t *testing.T) {
	store := NewStore()
	start := time.Now()

	var wg sync.WaitGroup
	venues := []string{"alpha", "beta", "gamma", "delta"}
	for _, venue := range venues {
		wg.Add(1)
		go func(venue string) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				store.Ingest(makeTick(venue, "BTC/JPY", start.Add(time.Duration(i)*time.Millisecond), "100", "101"))
			}
		}(venue)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			snap := store.Snapshot(time.Now(), time.Minute)
			// Every entry a reader observes must be fully formed.
			for _, venue := range venues {
				if tick, ok := snap.Get(venue, "BTC/JPY"); ok {
					if tick.Bid.IsZero() || tick.Ask.IsZero() {
						t.Error("observed a torn tick")
						return
					}
				}
			}
		}
	}()

	wg.Wait()

	if store.Len() != len(venues) {
		t.Errorf("Len() = %d, want %d", store.Len(), len(venues))
	}
}

func TestSnapshot_VenuesForPair(t *testing.T) {
	now := time.Now()
	snap := NewSnapshot(now,
		makeTick("alpha", "BTC/JPY", now, "100", "101"),
		makeTick("beta", "BTC/JPY", now, "102", "103"),
		makeTick("alpha", "ETH/JPY", now, "10", "11"),
	)

	venues := snap.VenuesForPair("BTC/JPY")
	if len(venues) != 2 {
		t.Errorf("VenuesForPair(BTC/JPY) = %v, want 2 venues", venues)
	}
	if got := snap.VenuesForPair("XRP/JPY"); len(got) != 0 {
		t.Errorf("VenuesForPair(XRP/JPY) = %v, want none", got)
	}
}
