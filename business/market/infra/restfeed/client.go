// Package restfeed polls venue REST ticker endpoints and normalizes the
// payloads into ticks.
package restfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ksaito/crossarb/business/market/domain"
	"github.com/ksaito/crossarb/internal/apperror"
	"github.com/ksaito/crossarb/internal/httpclient"
	"github.com/ksaito/crossarb/internal/logger"
)

// tickerResponse is the common public-ticker payload shape. Venues that
// deviate get their own mapping in symbolPath/parse overrides.
type tickerResponse struct {
	Symbol    string `json:"symbol"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	BidSize   string `json:"bid_size"`
	AskSize   string `json:"ask_size"`
	Last      string `json:"last"`
	Volume24h string `json:"volume_24h"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Config describes one venue's REST feed.
type Config struct {
	VenueCode string
	BaseURL   string
	// Symbols maps the venue's wire symbol to the canonical pair symbol,
	// e.g. "btc_jpy" -> "BTC/JPY".
	Symbols map[string]string
	Timeout time.Duration
}

// fetchConcurrency bounds in-flight ticker requests per venue.
const fetchConcurrency = 4

// Client fetches tickers for one venue over its public REST API.
type Client struct {
	cfg  Config
	http httpclient.Client
	log  logger.LoggerInterface
}

// New creates a REST feed client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithProviderName(cfg.VenueCode),
		httpclient.WithRequestTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, http: hc, log: log}, nil
}

// Venue returns the venue code this client feeds.
func (c *Client) Venue() string {
	return c.cfg.VenueCode
}

// FetchTicks fetches the ticker for every configured symbol concurrently.
// A single bad symbol does not fail the whole fetch; it is logged and
// skipped.
func (c *Client) FetchTicks(ctx context.Context) ([]domain.Tick, error) {
	var (
		mu      sync.Mutex
		ticks   = make([]domain.Tick, 0, len(c.cfg.Symbols))
		lastErr error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for wireSymbol, pairSymbol := range c.cfg.Symbols {
		g.Go(func() error {
			var resp tickerResponse
			if err := c.http.GetJSON(ctx, "/ticker/"+wireSymbol, &resp); err != nil {
				c.log.Warn(ctx, "ticker fetch failed",
					"venue", c.cfg.VenueCode, "symbol", wireSymbol, "error", err)
				mu.Lock()
				lastErr = apperror.Wrap(err, apperror.CodeTickerFetchFailed,
					fmt.Sprintf("%s %s", c.cfg.VenueCode, wireSymbol))
				mu.Unlock()
				return nil
			}

			tick, err := c.parse(resp, pairSymbol)
			if err != nil {
				c.log.Warn(ctx, "ticker parse failed",
					"venue", c.cfg.VenueCode, "symbol", wireSymbol, "error", err)
				mu.Lock()
				lastErr = err
				mu.Unlock()
				return nil
			}

			mu.Lock()
			ticks = append(ticks, tick)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(ticks) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return ticks, nil
}

func (c *Client) parse(resp tickerResponse, pairSymbol string) (domain.Tick, error) {
	bid, err := decimal.NewFromString(resp.Bid)
	if err != nil {
		return domain.Tick{}, apperror.Wrap(err, apperror.CodeInvalidTicker, "bid")
	}
	ask, err := decimal.NewFromString(resp.Ask)
	if err != nil {
		return domain.Tick{}, apperror.Wrap(err, apperror.CodeInvalidTicker, "ask")
	}

	// Size, last and volume are optional on some venues.
	bidSize := parseOrZero(resp.BidSize)
	askSize := parseOrZero(resp.AskSize)
	last := parseOrZero(resp.Last)
	volume := parseOrZero(resp.Volume24h)

	ts := time.Now()
	if resp.Timestamp > 0 {
		ts = time.UnixMilli(resp.Timestamp)
	}

	return domain.Tick{
		Venue:     c.cfg.VenueCode,
		Pair:      pairSymbol,
		Timestamp: ts,
		Bid:       bid,
		Ask:       ask,
		BidSize:   bidSize,
		AskSize:   askSize,
		Last:      last,
		Volume24h: volume,
	}, nil
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
