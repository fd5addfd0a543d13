package app

import (
	"context"

	arbDomain "github.com/ksaito/crossarb/business/arbitrage/domain"
)

// Sender delivers one alert. A non-nil error means the alert did not reach
// its destination and the throttle budget must not be consumed.
type Sender interface {
	Send(ctx context.Context, opp *arbDomain.Opportunity) error
}
