// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/ksaito/crossarb/business/market/app"
	marketpg "github.com/ksaito/crossarb/business/market/infra/postgres"
	"github.com/ksaito/crossarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	MarketService = di.NewToken[*app.MarketService]("market.MarketService")
	RateSource    = di.NewToken[app.RateSource]("market.RateSource")
	TickStore     = di.NewToken[*marketpg.TickStore]("market.TickStore")
)

// Private dependency tokens - internal to market module
var (
	TickRecorder = di.NewToken[*app.BufferedRecorder]("market:tickRecorder")
	TickSources  = di.NewToken[[]app.TickSource]("market:tickSources")
)

// Helper functions for type-safe access
func GetMarketService(c di.ServiceRegistry) *app.MarketService {
	return di.GetToken(c, MarketService)
}

func GetRateSource(c di.ServiceRegistry) app.RateSource {
	return di.GetToken(c, RateSource)
}

func GetTickStore(c di.ServiceRegistry) *marketpg.TickStore {
	return di.GetToken(c, TickStore)
}

func GetTickRecorder(c di.ServiceRegistry) *app.BufferedRecorder {
	return di.GetToken(c, TickRecorder)
}

func GetTickSources(c di.ServiceRegistry) []app.TickSource {
	return di.GetToken(c, TickSources)
}
