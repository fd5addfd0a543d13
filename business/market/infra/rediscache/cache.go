// Package rediscache mirrors the latest tick per (venue, pair) into Redis
// for read-only consumers.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ksaito/crossarb/business/market/domain"
)

const keyPrefix = "crossarb:tick:"

// cachedTick is the wire form stored in Redis.
type cachedTick struct {
	Venue     string `json:"venue"`
	Pair      string `json:"pair"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	BidSize   string `json:"bid_size"`
	AskSize   string `json:"ask_size"`
	Last      string `json:"last"`
	Volume24h string `json:"volume_24h"`
}

// Cache stores the latest tick per (venue, pair) under a TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Cache.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func tickKey(venue, pair string) string {
	return keyPrefix + venue + ":" + pair
}

// SetTick writes the latest tick for its (venue, pair) slot.
func (c *Cache) SetTick(ctx context.Context, tick domain.Tick) error {
	payload, err := json.Marshal(cachedTick{
		Venue:     tick.Venue,
		Pair:      tick.Pair,
		Timestamp: tick.Timestamp.UnixMilli(),
		Bid:       tick.Bid.String(),
		Ask:       tick.Ask.String(),
		BidSize:   tick.BidSize.String(),
		AskSize:   tick.AskSize.String(),
		Last:      tick.Last.String(),
		Volume24h: tick.Volume24h.String(),
	})
	if err != nil {
		return fmt.Errorf("rediscache: marshal tick: %w", err)
	}
	return c.rdb.Set(ctx, tickKey(tick.Venue, tick.Pair), payload, c.ttl).Err()
}

// GetTick reads the cached tick for (venue, pair). A missing key returns
// (zero tick, false, nil).
func (c *Cache) GetTick(ctx context.Context, venue, pair string) (domain.Tick, bool, error) {
	data, err := c.rdb.Get(ctx, tickKey(venue, pair)).Bytes()
	if err == redis.Nil {
		return domain.Tick{}, false, nil
	}
	if err != nil {
		return domain.Tick{}, false, fmt.Errorf("rediscache: get tick: %w", err)
	}

	var cached cachedTick
	if err := json.Unmarshal(data, &cached); err != nil {
		return domain.Tick{}, false, fmt.Errorf("rediscache: unmarshal tick: %w", err)
	}

	tick := domain.Tick{
		Venue:     cached.Venue,
		Pair:      cached.Pair,
		Timestamp: time.UnixMilli(cached.Timestamp),
		Bid:       mustDecimal(cached.Bid),
		Ask:       mustDecimal(cached.Ask),
		BidSize:   mustDecimal(cached.BidSize),
		AskSize:   mustDecimal(cached.AskSize),
		Last:      mustDecimal(cached.Last),
		Volume24h: mustDecimal(cached.Volume24h),
	}
	return tick, true, nil
}
