package app

import (
	"context"
	"time"

	arbDomain "github.com/ksaito/crossarb/business/arbitrage/domain"
	"github.com/ksaito/crossarb/internal/logger"
)

// AlertService gates opportunities through the throttle and hands survivors
// to the delivery sender. Throttle state commits only after a successful
// send.
type AlertService struct {
	throttle *Throttle
	sender   Sender
	log      logger.LoggerInterface
	now      func() time.Time
}

// NewAlertService creates an AlertService.
func NewAlertService(throttle *Throttle, sender Sender, log logger.LoggerInterface) *AlertService {
	return &AlertService{
		throttle: throttle,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

// Notify decides, delivers and commits for one opportunity. Delivery
// failures are logged and leave the budget untouched.
func (s *AlertService) Notify(ctx context.Context, opp *arbDomain.Opportunity) {
	now := s.now()

	decision := s.throttle.Decide(now, opp)
	if !decision.Send {
		s.log.Debug(ctx, "alert suppressed",
			"fingerprint", opp.Fingerprint(),
			"reason", decision.Reason,
			"profit_pct", opp.EstimatedProfitPct.String())
		return
	}

	if err := s.sender.Send(ctx, opp); err != nil {
		s.log.Error(ctx, "alert delivery failed",
			"fingerprint", opp.Fingerprint(), "error", err)
		return
	}

	s.throttle.Commit(now, opp.Fingerprint())
	s.log.Info(ctx, "alert sent",
		"fingerprint", opp.Fingerprint(),
		"strategy", string(opp.Strategy),
		"profit_pct", opp.EstimatedProfitPct.String())
}

// Stats exposes throttle counters for health reporting.
func (s *AlertService) Stats() ThrottleStats {
	return s.throttle.Stats(s.now())
}
