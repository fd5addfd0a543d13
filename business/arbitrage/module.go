// Package arbitrage implements the detection bounded context: the detector,
// the profitability ranker and opportunity persistence.
package arbitrage

import (
	"context"

	alertingDI "github.com/ksaito/crossarb/business/alerting/di"
	"github.com/ksaito/crossarb/business/arbitrage/app"
	arbDI "github.com/ksaito/crossarb/business/arbitrage/di"
	"github.com/ksaito/crossarb/business/arbitrage/domain"
	arbpg "github.com/ksaito/crossarb/business/arbitrage/infra/postgres"
	marketDI "github.com/ksaito/crossarb/business/market/di"
	"github.com/ksaito/crossarb/internal/apm"
	"github.com/ksaito/crossarb/internal/config"
	"github.com/ksaito/crossarb/internal/di"
	"github.com/ksaito/crossarb/internal/logger"
	"github.com/ksaito/crossarb/internal/monolith"
	"github.com/ksaito/crossarb/internal/postgres"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Opportunity store - public, the maintenance sweep expires through it
	di.RegisterToken(c, arbDI.OpportunityStore, func(sr di.ServiceRegistry) *arbpg.OpportunityStore {
		db := sr.Get("db").(*postgres.Client)
		ids := marketDI.GetTickStore(sr)
		return arbpg.NewOpportunityStore(db.Pool(), ids)
	})

	// Detector - private
	di.RegisterToken(c, arbDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		market := marketDI.GetMarketService(sr)
		rates := marketDI.GetRateSource(sr)

		return app.NewDetector(
			app.DetectorConfig{
				EnableCrossRate:  cfg.Detector.EnableCrossRate,
				EnableTriangular: cfg.Detector.EnableTriangular,
			},
			market.Venues(),
			market.ActivePairs(),
			rates,
			log,
		)
	})

	// Ranker - private
	di.RegisterToken(c, arbDI.Ranker, func(sr di.ServiceRegistry) *app.Ranker {
		cfg := sr.Get("config").(*config.Config)
		market := marketDI.GetMarketService(sr)

		fees := make(map[string]domain.VenueFees)
		for _, venue := range market.Venues() {
			fees[venue.Code] = domain.VenueFees{
				MakerFee:       venue.MakerFee,
				TakerFee:       venue.TakerFee,
				WithdrawalFees: venue.WithdrawalFees,
			}
		}

		return app.NewRanker(
			app.RankerConfig{
				MinProfitThreshold: cfg.Detector.MinProfitThresholdDecimal(),
				MaxPositionSizes:   cfg.Detector.MaxPositionSizesDecimal(),
			},
			domain.NewFeeModel(fees, cfg.Detector.TransferMinutes),
		)
	})

	// Buffered persistence sink - private
	di.RegisterToken(c, arbDI.Sink, func(sr di.ServiceRegistry) *app.BufferedSink {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		store := arbDI.GetOpportunityStore(sr)
		return app.NewBufferedSink(
			store,
			cfg.Storage.BufferSize,
			cfg.Storage.RetryBackoff,
			cfg.Storage.MaxRetries,
			log,
		)
	})

	// DetectionService (public - exposed to other modules)
	di.RegisterToken(c, arbDI.DetectionService, func(sr di.ServiceRegistry) *app.DetectionService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewDetectionService(
			app.DetectionServiceConfig{
				Interval:   cfg.Detector.Interval,
				MaxTickAge: cfg.Detector.MaxTickAge,
			},
			marketDI.GetMarketService(sr),
			arbDI.GetDetector(sr),
			arbDI.GetRanker(sr),
			arbDI.GetSink(sr),
			alertingDI.GetAlertService(sr),
			apm.NewTracer("arbitrage"),
			log,
		)
	})

	return nil
}

// Startup launches the persistence worker and the detection loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	sink := arbDI.GetSink(mono.Services())
	sink.Start(ctx)

	svc := arbDI.GetDetectionService(mono.Services())
	go svc.Run(ctx)

	log.Info(ctx, "arbitrage module started")
	return nil
}
