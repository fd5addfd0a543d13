// Package alerting implements the notification bounded context: the
// throttle and alert delivery.
package alerting

import (
	"context"

	"github.com/ksaito/crossarb/business/alerting/app"
	alertingDI "github.com/ksaito/crossarb/business/alerting/di"
	"github.com/ksaito/crossarb/business/alerting/domain"
	"github.com/ksaito/crossarb/business/alerting/infra/console"
	"github.com/ksaito/crossarb/business/alerting/infra/webhook"
	"github.com/ksaito/crossarb/internal/config"
	"github.com/ksaito/crossarb/internal/di"
	"github.com/ksaito/crossarb/internal/logger"
	"github.com/ksaito/crossarb/internal/monolith"
)

// Module implements the alerting bounded context.
type Module struct{}

// RegisterServices registers all alerting services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Throttle - private
	di.RegisterToken(c, alertingDI.Throttle, func(sr di.ServiceRegistry) *app.Throttle {
		cfg := sr.Get("config").(*config.Config)

		quiet, err := domain.ParseQuietHours(cfg.Throttle.QuietHoursStart, cfg.Throttle.QuietHoursEnd)
		if err != nil {
			// Config.Validate already rejected malformed values.
			panic("invalid quiet hours: " + err.Error())
		}

		return app.NewThrottle(app.ThrottleConfig{
			Cooldown:         cfg.Throttle.Cooldown,
			HourlyCap:        cfg.Throttle.HourlyCap,
			QuietHours:       quiet,
			QuietOverridePct: cfg.Throttle.QuietOverrideDecimal(),
		})
	})

	// Sender - private; webhook when configured, console otherwise
	di.RegisterToken(c, alertingDI.Sender, func(sr di.ServiceRegistry) app.Sender {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Alerting.WebhookURL == "" {
			return console.New(log)
		}
		sender, err := webhook.New(cfg.Alerting.WebhookURL, cfg.Alerting.RequestTimeout)
		if err != nil {
			panic("failed to create webhook sender: " + err.Error())
		}
		return sender
	})

	// AlertService (public - exposed to other modules)
	di.RegisterToken(c, alertingDI.AlertService, func(sr di.ServiceRegistry) *app.AlertService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewAlertService(
			alertingDI.GetThrottle(sr),
			alertingDI.GetSender(sr),
			log,
		)
	})

	return nil
}

// Startup initializes the alerting module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "alerting module started")
	return nil
}
