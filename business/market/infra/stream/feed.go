// Package stream consumes venue WebSocket ticker channels and buffers the
// latest quote per symbol.
package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/market/domain"
	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/logger"
	"github.com/ksaito/crossarb/internal/wsconn"
)

// subscribeRequest is the client-side subscription envelope.
type subscribeRequest struct {
	Op      string   `json:"op"`
	Channel string   `json:"channel"`
	Symbols []string `json:"symbols"`
}

// tickerEvent is a ticker channel update.
type tickerEvent struct {
	Channel   string `json:"channel"`
	Symbol    string `json:"symbol"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	BidSize   string `json:"bid_size"`
	AskSize   string `json:"ask_size"`
	Last      string `json:"last"`
	Volume24h string `json:"volume_24h"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Config describes one venue's streaming feed.
type Config struct {
	VenueCode    string
	WebSocketURL string
	// Symbols maps the venue's wire symbol to the canonical pair symbol.
	Symbols map[string]string
}

// Feed buffers the latest tick per symbol from a venue WebSocket stream.
// FetchTicks serves the buffered quotes, so the poller loop treats streaming
// and REST venues identically.
type Feed struct {
	cfg  Config
	conn *wsconn.Client
	log  logger.LoggerInterface

	mu     sync.RWMutex
	latest map[string]domain.Tick // keyed by canonical pair symbol
}

// New creates a streaming feed. Connect must be called before FetchTicks
// returns anything.
func New(cfg Config, log logger.LoggerInterface) *Feed {
	f := &Feed{
		cfg:    cfg,
		log:    log,
		latest: make(map[string]domain.Tick, len(cfg.Symbols)),
	}

	wsCfg := wsconn.DefaultConfig(cfg.WebSocketURL)
	wsCfg.OnConnect = f.subscribe
	f.conn = wsconn.New(wsCfg)
	return f
}

// Venue returns the venue code this feed serves.
func (f *Feed) Venue() string {
	return f.cfg.VenueCode
}

// Connect dials the stream and starts consuming updates.
func (f *Feed) Connect(ctx context.Context) error {
	if err := f.conn.Connect(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeWebSocketConnectionError, f.cfg.VenueCode)
	}
	go f.consume(ctx)
	return nil
}

// Close shuts the stream down.
func (f *Feed) Close() error {
	return f.conn.Close()
}

// FetchTicks returns the latest buffered tick per subscribed symbol.
func (f *Feed) FetchTicks(ctx context.Context) ([]domain.Tick, error) {
	if f.conn.State() != wsconn.StateConnected {
		return nil, apperror.New(apperror.CodeWebSocketReconnecting,
			apperror.WithContext(f.cfg.VenueCode))
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	ticks := make([]domain.Tick, 0, len(f.latest))
	for _, tick := range f.latest {
		ticks = append(ticks, tick)
	}
	return ticks, nil
}

func (f *Feed) subscribe(ctx context.Context, send func(context.Context, []byte) error) error {
	symbols := make([]string, 0, len(f.cfg.Symbols))
	for wireSymbol := range f.cfg.Symbols {
		symbols = append(symbols, wireSymbol)
	}

	req := subscribeRequest{Op: "subscribe", Channel: "ticker", Symbols: symbols}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return send(ctx, payload)
}

func (f *Feed) consume(ctx context.Context) {
	for {
		select {
		case data, ok := <-f.conn.Messages():
			if !ok {
				f.log.Warn(ctx, "stream closed", "venue", f.cfg.VenueCode)
				return
			}
			f.handleMessage(ctx, data)
		case <-ctx.Done():
			return
		}
	}
}

func (f *Feed) handleMessage(ctx context.Context, data []byte) {
	var event tickerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		f.log.Debug(ctx, "unparseable stream message", "venue", f.cfg.VenueCode, "error", err)
		return
	}
	if event.Channel != "ticker" {
		return
	}

	pairSymbol, ok := f.cfg.Symbols[event.Symbol]
	if !ok {
		return
	}

	bid, errBid := decimal.NewFromString(event.Bid)
	ask, errAsk := decimal.NewFromString(event.Ask)
	if errBid != nil || errAsk != nil {
		f.log.Debug(ctx, "invalid ticker event", "venue", f.cfg.VenueCode, "symbol", event.Symbol)
		return
	}

	ts := time.Now()
	if event.Timestamp > 0 {
		ts = time.UnixMilli(event.Timestamp)
	}

	tick := domain.Tick{
		Venue:     f.cfg.VenueCode,
		Pair:      pairSymbol,
		Timestamp: ts,
		Bid:       bid,
		Ask:       ask,
		BidSize:   parseOrZero(event.BidSize),
		AskSize:   parseOrZero(event.AskSize),
		Last:      parseOrZero(event.Last),
		Volume24h: parseOrZero(event.Volume24h),
	}

	f.mu.Lock()
	// Keep only forward-moving updates; the snapshot store enforces the
	// same rule, this just avoids churn on out-of-order frames.
	if existing, ok := f.latest[pairSymbol]; !ok || existing.Timestamp.Before(tick.Timestamp) {
		f.latest[pairSymbol] = tick
	}
	f.mu.Unlock()
}

func parseOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
