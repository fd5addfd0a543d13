// Package di contains dependency injection tokens for the alerting context.
package di

import (
	"github.com/ksaito/crossarb/business/alerting/app"
	"github.com/ksaito/crossarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	AlertService = di.NewToken[*app.AlertService]("alerting.AlertService")
)

// Private dependency tokens - internal to alerting module
var (
	Throttle = di.NewToken[*app.Throttle]("alerting:throttle")
	Sender   = di.NewToken[app.Sender]("alerting:sender")
)

// Helper functions for type-safe access
func GetAlertService(c di.ServiceRegistry) *app.AlertService {
	return di.GetToken(c, AlertService)
}

func GetThrottle(c di.ServiceRegistry) *app.Throttle {
	return di.GetToken(c, Throttle)
}

func GetSender(c di.ServiceRegistry) app.Sender {
	return di.GetToken(c, Sender)
}
