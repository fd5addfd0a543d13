// Package main is the entry point for the cross-venue arbitrage monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/ksaito/crossarb/business/alerting"
	"github.com/ksaito/crossarb/business/arbitrage"
	arbitrageDI "github.com/ksaito/crossarb/business/arbitrage/di"
	"github.com/ksaito/crossarb/business/market"
	marketDI "github.com/ksaito/crossarb/business/market/di"
	"github.com/ksaito/crossarb/internal/apm"
	"github.com/ksaito/crossarb/internal/config"
	"github.com/ksaito/crossarb/internal/health"
	"github.com/ksaito/crossarb/internal/logger"
	"github.com/ksaito/crossarb/internal/metrics"
	"github.com/ksaito/crossarb/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const tickRetention = 7 * 24 * time.Hour

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("crossarb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}
	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)

	log.Info(ctx, "starting cross-venue arbitrage monitor",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin")

		if _, err := metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		); err != nil {
			log.Warn(ctx, "failed to initialize metrics", "error", err)
		} else {
			port := cfg.Telemetry.PrometheusPort
			if port == 0 {
				port = 9090
			}
			go func() {
				if err := metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port))); err != nil {
					log.Warn(ctx, "prometheus server stopped", "error", err)
				}
			}()
			log.Info(ctx, "prometheus metrics server started", "port", port)
		}
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Create monolith (application container)
	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&market.Module{},    // Must be first - provides snapshot store and feeds
		&alerting.Module{},  // Provides the throttled notifier
		&arbitrage.Module{}, // Depends on market and alerting
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	// Health server with live checks over the pipeline
	healthServer := health.NewServer(cfg.App.HealthPort, version)
	marketSvc := marketDI.GetMarketService(mono.Services())
	detection := arbitrageDI.GetDetectionService(mono.Services())

	healthServer.RegisterCheck("venues", func(ctx context.Context) (bool, string) {
		if degraded := marketSvc.DegradedVenues(); len(degraded) > 0 {
			return false, fmt.Sprintf("degraded venues: %v", degraded)
		}
		return true, "all venues healthy"
	})
	healthServer.RegisterCheck("detection", func(ctx context.Context) (bool, string) {
		last := detection.LastPass()
		if last.IsZero() {
			return true, "no pass yet"
		}
		if time.Since(last) > 3*cfg.Detector.Interval {
			return false, "detection loop stalled since " + last.Format(time.RFC3339)
		}
		return true, "last pass " + last.Format(time.RFC3339)
	})

	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.App.HealthPort)
	}
	defer healthServer.Stop(context.Background())

	// Scheduled maintenance: expire stale detected rows, prune old ticks
	sweeper := cron.New()
	oppStore := arbitrageDI.GetOpportunityStore(mono.Services())
	tickStore := marketDI.GetTickStore(mono.Services())
	_, err = sweeper.AddFunc(cfg.Detector.ExpirySweepSpec, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		expired, err := oppStore.ExpireOlderThan(sweepCtx, time.Now().Add(-cfg.Detector.ExpireAfter))
		if err != nil {
			log.Warn(sweepCtx, "opportunity expiry sweep failed", "error", err)
		} else if expired > 0 {
			log.Info(sweepCtx, "expired stale opportunities", "count", expired)
		}

		pruned, err := tickStore.PruneTicks(sweepCtx, time.Now().Add(-tickRetention))
		if err != nil {
			log.Warn(sweepCtx, "tick prune failed", "error", err)
		} else if pruned > 0 {
			log.Info(sweepCtx, "pruned old ticks", "count", pruned)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance sweep: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	log.Info(ctx, "all modules started, monitoring for arbitrage")

	<-ctx.Done()
	log.Info(ctx, "shutting down, flushing buffered writes")

	// The drain workers flush their queues once ctx is cancelled; exiting
	// before they finish would silently lose queued rows.
	marketDI.GetTickRecorder(mono.Services()).Wait()
	arbitrageDI.GetSink(mono.Services()).Wait()

	log.Info(ctx, "shutdown complete")
	return nil
}
