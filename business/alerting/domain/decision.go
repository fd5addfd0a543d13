package domain

// Suppression reasons reported by the throttle.
const (
	ReasonSend       = "send"
	ReasonCooldown   = "cooldown"
	ReasonHourlyCap  = "hourly_cap"
	ReasonQuietHours = "quiet_hours"
)

// Decision is the throttle's verdict for one opportunity. State is committed
// separately, only after the caller confirms the alert was delivered.
type Decision struct {
	Send   bool
	Reason string
}
