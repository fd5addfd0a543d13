// Package postgres persists market reference data and price ticks.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ksaito/crossarb/business/market/domain"
)

// TickStore writes venues, pairs and price ticks to PostgreSQL. Venue and
// pair rows are synced once at startup; their generated ids are cached for
// tick inserts.
type TickStore struct {
	pool *pgxpool.Pool

	mu       sync.RWMutex
	venueIDs map[string]int32 // venue code -> exchanges.id
	pairIDs  map[string]int32 // pair symbol -> currency_pairs.id
}

// NewTickStore creates a TickStore backed by the given connection pool.
func NewTickStore(pool *pgxpool.Pool) *TickStore {
	return &TickStore{
		pool:     pool,
		venueIDs: make(map[string]int32),
		pairIDs:  make(map[string]int32),
	}
}

// SyncReference upserts the configured venues and pairs and caches their ids.
// Must run before the first InsertTick.
func (s *TickStore) SyncReference(ctx context.Context, venues []*domain.Venue, pairs []*domain.Pair) error {
	const upsertVenue = `
		INSERT INTO exchanges (code, name, maker_fee, taker_fee, withdrawal_fees, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			name            = EXCLUDED.name,
			maker_fee       = EXCLUDED.maker_fee,
			taker_fee       = EXCLUDED.taker_fee,
			withdrawal_fees = EXCLUDED.withdrawal_fees,
			is_active       = EXCLUDED.is_active
		RETURNING id`

	const upsertPair = `
		INSERT INTO currency_pairs (symbol, base_currency, quote_currency, min_order_size, size_increment, price_increment, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			base_currency   = EXCLUDED.base_currency,
			quote_currency  = EXCLUDED.quote_currency,
			min_order_size  = EXCLUDED.min_order_size,
			size_increment  = EXCLUDED.size_increment,
			price_increment = EXCLUDED.price_increment,
			is_active       = EXCLUDED.is_active
		RETURNING id`

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, venue := range venues {
		fees, err := json.Marshal(venue.WithdrawalFees)
		if err != nil {
			return fmt.Errorf("postgres: marshal withdrawal fees for %s: %w", venue.Code, err)
		}
		var id int32
		err = s.pool.QueryRow(ctx, upsertVenue,
			venue.Code, venue.Name, venue.MakerFee, venue.TakerFee, fees, venue.IsActive,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("postgres: upsert exchange %s: %w", venue.Code, err)
		}
		s.venueIDs[venue.Code] = id
	}

	for _, pair := range pairs {
		var id int32
		err := s.pool.QueryRow(ctx, upsertPair,
			pair.Symbol, pair.BaseCurrency, pair.QuoteCurrency,
			pair.MinOrderSize, pair.SizeIncrement, pair.PriceIncrement, pair.IsActive,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("postgres: upsert pair %s: %w", pair.Symbol, err)
		}
		s.pairIDs[pair.Symbol] = id
	}

	return nil
}

// VenueID returns the cached exchanges.id for a venue code.
func (s *TickStore) VenueID(code string) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.venueIDs[code]
	return id, ok
}

// PairID returns the cached currency_pairs.id for a pair symbol.
func (s *TickStore) PairID(symbol string) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pairIDs[symbol]
	return id, ok
}

// InsertTick appends one tick. Duplicate (exchange, pair, timestamp) inserts
// are no-ops, matching the snapshot store's idempotent ingest.
func (s *TickStore) InsertTick(ctx context.Context, tick domain.Tick) error {
	venueID, ok := s.VenueID(tick.Venue)
	if !ok {
		return fmt.Errorf("postgres: unknown venue %s", tick.Venue)
	}
	pairID, ok := s.PairID(tick.Pair)
	if !ok {
		return fmt.Errorf("postgres: unknown pair %s", tick.Pair)
	}

	const query = `
		INSERT INTO price_ticks (
			exchange_id, pair_id, timestamp,
			bid, ask, bid_size, ask_size, last_price, volume_24h
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (exchange_id, pair_id, timestamp) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		venueID, pairID, tick.Timestamp,
		tick.Bid, tick.Ask, tick.BidSize, tick.AskSize, tick.Last, tick.Volume24h,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert tick %s/%s: %w", tick.Venue, tick.Pair, err)
	}
	return nil
}

// PruneTicks deletes ticks older than the retention horizon and returns the
// number of rows removed.
func (s *TickStore) PruneTicks(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM price_ticks WHERE timestamp < $1`

	tag, err := s.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune ticks: %w", err)
	}
	return tag.RowsAffected(), nil
}
