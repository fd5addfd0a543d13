// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/ksaito/crossarb/business/arbitrage/app"
	arbpg "github.com/ksaito/crossarb/business/arbitrage/infra/postgres"
	"github.com/ksaito/crossarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	DetectionService = di.NewToken[*app.DetectionService]("arbitrage.DetectionService")
	OpportunityStore = di.NewToken[*arbpg.OpportunityStore]("arbitrage.OpportunityStore")
)

// Private dependency tokens - internal to arbitrage module
var (
	Detector = di.NewToken[*app.Detector]("arbitrage:detector")
	Ranker   = di.NewToken[*app.Ranker]("arbitrage:ranker")
	Sink     = di.NewToken[*app.BufferedSink]("arbitrage:sink")
)

// Helper functions for type-safe access
func GetDetectionService(c di.ServiceRegistry) *app.DetectionService {
	return di.GetToken(c, DetectionService)
}

func GetOpportunityStore(c di.ServiceRegistry) *arbpg.OpportunityStore {
	return di.GetToken(c, OpportunityStore)
}

func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetRanker(c di.ServiceRegistry) *app.Ranker {
	return di.GetToken(c, Ranker)
}

func GetSink(c di.ServiceRegistry) *app.BufferedSink {
	return di.GetToken(c, Sink)
}
