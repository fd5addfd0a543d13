package domain

import (
	"sync"
	"time"
)

// Store holds the single freshest tick per (venue, pair). Many concurrent
// writers (one per venue poller) and readers are supported; readers never
// observe a torn update across keys because Snapshot copies under the lock.
type Store struct {
	mu      sync.RWMutex
	ticks   map[TickKey]Tick
	version uint64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{ticks: make(map[TickKey]Tick)}
}

// Ingest accepts a tick. It is a no-op when an existing entry for the same
// (venue, pair) carries a timestamp at or after the incoming tick's, which
// makes ingestion idempotent under duplicate or out-of-order delivery.
// It reports whether the entry was replaced.
func (s *Store) Ingest(tick Tick) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.ticks[tick.Key()]; ok && !existing.Timestamp.Before(tick.Timestamp) {
		return false
	}
	s.ticks[tick.Key()] = tick
	s.version++
	return true
}

// Len returns the number of (venue, pair) entries currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ticks)
}

// Version increments on every accepted ingest.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns an immutable point-in-time view containing only entries
// whose age is at most maxAge (inclusive at the boundary). Ingests after the
// snapshot is taken do not affect it.
func (s *Store) Snapshot(now time.Time, maxAge time.Duration) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticks := make(map[TickKey]Tick, len(s.ticks))
	for key, tick := range s.ticks {
		if tick.Age(now) <= maxAge {
			ticks[key] = tick
		}
	}
	return Snapshot{ticks: ticks, takenAt: now, version: s.version}
}

// Snapshot is a point-in-time consistent view of the freshest ticks. It is
// never mutated after construction and is safe for concurrent reads.
type Snapshot struct {
	ticks   map[TickKey]Tick
	takenAt time.Time
	version uint64
}

// NewSnapshot builds a snapshot directly from ticks. Intended for tests and
// replay tooling; live code goes through Store.Snapshot.
func NewSnapshot(now time.Time, ticks ...Tick) Snapshot {
	m := make(map[TickKey]Tick, len(ticks))
	for _, t := range ticks {
		m[t.Key()] = t
	}
	return Snapshot{ticks: m, takenAt: now}
}

// Get returns the tick for (venue, pair) and whether it is present.
func (s Snapshot) Get(venue, pair string) (Tick, bool) {
	tick, ok := s.ticks[TickKey{Venue: venue, Pair: pair}]
	return tick, ok
}

// VenuesForPair returns the venue codes holding a fresh tick for the pair.
func (s Snapshot) VenuesForPair(pair string) []string {
	venues := make([]string, 0, 4)
	for key := range s.ticks {
		if key.Pair == pair {
			venues = append(venues, key.Venue)
		}
	}
	return venues
}

// PairsForVenue returns the pair symbols the venue holds fresh ticks for.
func (s Snapshot) PairsForVenue(venue string) []string {
	pairs := make([]string, 0, 8)
	for key := range s.ticks {
		if key.Venue == venue {
			pairs = append(pairs, key.Pair)
		}
	}
	return pairs
}

// Len returns the number of entries in the snapshot.
func (s Snapshot) Len() int {
	return len(s.ticks)
}

// TakenAt returns the instant the snapshot was captured.
func (s Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Version returns the store version the snapshot was taken at.
func (s Snapshot) Version() uint64 {
	return s.version
}
