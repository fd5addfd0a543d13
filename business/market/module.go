// Package market implements the market-data bounded context: venue feeds,
// the snapshot store and tick persistence.
package market

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ksaito/crossarb/business/market/app"
	marketDI "github.com/ksaito/crossarb/business/market/di"
	"github.com/ksaito/crossarb/business/market/domain"
	"github.com/ksaito/crossarb/business/market/infra/fx"
	marketpg "github.com/ksaito/crossarb/business/market/infra/postgres"
	"github.com/ksaito/crossarb/business/market/infra/rediscache"
	"github.com/ksaito/crossarb/business/market/infra/restfeed"
	"github.com/ksaito/crossarb/business/market/infra/stream"
	"github.com/ksaito/crossarb/internal/config"
	"github.com/ksaito/crossarb/internal/di"
	"github.com/ksaito/crossarb/internal/logger"
	"github.com/ksaito/crossarb/internal/monolith"
	"github.com/ksaito/crossarb/internal/postgres"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Durable tick store - public, the maintenance sweep prunes through it
	di.RegisterToken(c, marketDI.TickStore, func(sr di.ServiceRegistry) *marketpg.TickStore {
		db := sr.Get("db").(*postgres.Client)
		return marketpg.NewTickStore(db.Pool())
	})

	// Buffered recorder - private, decouples ingest from durable writes
	di.RegisterToken(c, marketDI.TickRecorder, func(sr di.ServiceRegistry) *app.BufferedRecorder {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		store := marketDI.GetTickStore(sr)
		return app.NewBufferedRecorder(
			store,
			cfg.Storage.BufferSize,
			cfg.Storage.RetryBackoff,
			cfg.Storage.MaxRetries,
			log,
		)
	})

	// FX rate source - public, the detector normalizes cross-rate prices with it
	di.RegisterToken(c, marketDI.RateSource, func(sr di.ServiceRegistry) app.RateSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := fx.New(fx.Config{
			URL:             cfg.FX.URL,
			RefreshInterval: cfg.FX.RefreshInterval,
			StaleAfter:      cfg.FX.StaleAfter,
			FallbackUSDJPY:  cfg.FX.FallbackUSDJPYDecimal(),
		}, log)
		if err != nil {
			panic("failed to create fx service: " + err.Error())
		}
		return svc
	})

	// Per-venue tick sources - private
	di.RegisterToken(c, marketDI.TickSources, func(sr di.ServiceRegistry) []app.TickSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		sources := make([]app.TickSource, 0, len(cfg.Venues))
		for _, venue := range cfg.Venues {
			switch venue.Kind {
			case "ws":
				sources = append(sources, stream.New(stream.Config{
					VenueCode:    venue.Code,
					WebSocketURL: venue.WebSocketURL,
					Symbols:      venue.Symbols,
				}, log))
			default:
				client, err := restfeed.New(restfeed.Config{
					VenueCode: venue.Code,
					BaseURL:   venue.BaseURL,
					Symbols:   venue.Symbols,
				}, log)
				if err != nil {
					panic("failed to create rest feed for " + venue.Code + ": " + err.Error())
				}
				sources = append(sources, client)
			}
		}
		return sources
	})

	// MarketService (public - exposed to other modules)
	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.MarketService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		recorder := marketDI.GetTickRecorder(sr)

		var cache app.TickCache
		if cfg.Redis.Enabled {
			rdb := sr.Get("redis").(*redis.Client)
			cache = rediscache.New(rdb, cfg.Redis.TickTTL)
		}

		return app.NewMarketService(
			venuesFromConfig(cfg),
			pairsFromConfig(cfg),
			recorder,
			cache,
			log,
		)
	})

	return nil
}

// Startup syncs reference data, starts the FX refresher, the persistence
// worker and one poller per venue.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	store := marketDI.GetTickStore(mono.Services())
	svc := marketDI.GetMarketService(mono.Services())
	if err := store.SyncReference(ctx, svc.Venues(), svc.ActivePairs()); err != nil {
		return err
	}

	if rs, ok := marketDI.GetRateSource(mono.Services()).(*fx.Service); ok {
		go rs.Run(ctx)
	}

	recorder := marketDI.GetTickRecorder(mono.Services())
	recorder.Start(ctx)

	for i, source := range marketDI.GetTickSources(mono.Services()) {
		venueCfg := cfg.Venues[i]

		if feed, ok := source.(*stream.Feed); ok {
			if err := feed.Connect(ctx); err != nil {
				// The wsconn reconnect loop takes over; the venue just
				// starts out degraded.
				log.Warn(ctx, "stream connect failed, reconnecting in background",
					"venue", venueCfg.Code, "error", err)
			}
		}

		poller := app.NewPoller(
			source,
			venueCfg.PollInterval,
			venueCfg.RequestsPerMinute,
			svc,
			svc.Ingest,
			log,
		)
		go poller.Run(ctx)
	}

	log.Info(ctx, "market module started", "venues", len(cfg.Venues), "pairs", len(cfg.Pairs))
	return nil
}

func venuesFromConfig(cfg *config.Config) []*domain.Venue {
	venues := make([]*domain.Venue, 0, len(cfg.Venues))
	for _, v := range cfg.Venues {
		venues = append(venues, &domain.Venue{
			Code:           v.Code,
			Name:           v.Name,
			QuoteCurrency:  v.QuoteCurrency,
			MakerFee:       v.MakerFeeDecimal(),
			TakerFee:       v.TakerFeeDecimal(),
			WithdrawalFees: v.WithdrawalFeesDecimal(),
			IsActive:       true,
		})
	}
	return venues
}

func pairsFromConfig(cfg *config.Config) []*domain.Pair {
	pairs := make([]*domain.Pair, 0, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		pairs = append(pairs, &domain.Pair{
			Symbol:         p.Symbol,
			BaseCurrency:   p.BaseCurrency,
			QuoteCurrency:  p.QuoteCurrency,
			MinOrderSize:   decimal.NewFromFloat(p.MinOrderSize),
			SizeIncrement:  decimal.NewFromFloat(p.SizeIncrement),
			PriceIncrement: decimal.NewFromFloat(p.PriceIncrement),
			IsActive:       true,
		})
	}
	return pairs
}
