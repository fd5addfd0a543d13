// Package domain contains the core domain types for the alerting context.
package domain

import (
	"fmt"
	"time"
)

// QuietHours is a local time-of-day range during which alerts are suppressed
// unless profitability exceeds the override threshold. The range may cross
// midnight, e.g. 23:00-07:00.
type QuietHours struct {
	enabled      bool
	startMinutes int // minutes since midnight
	endMinutes   int
}

// ParseQuietHours parses "HH:MM" start and end strings. Empty strings
// disable quiet hours.
func ParseQuietHours(start, end string) (QuietHours, error) {
	if start == "" && end == "" {
		return QuietHours{}, nil
	}
	if (start == "") != (end == "") {
		return QuietHours{}, fmt.Errorf("quiet hours require both start and end")
	}

	startT, err := time.Parse("15:04", start)
	if err != nil {
		return QuietHours{}, fmt.Errorf("invalid quiet hours start %q: %w", start, err)
	}
	endT, err := time.Parse("15:04", end)
	if err != nil {
		return QuietHours{}, fmt.Errorf("invalid quiet hours end %q: %w", end, err)
	}

	return QuietHours{
		enabled:      true,
		startMinutes: startT.Hour()*60 + startT.Minute(),
		endMinutes:   endT.Hour()*60 + endT.Minute(),
	}, nil
}

// Enabled reports whether a quiet-hours range is configured.
func (q QuietHours) Enabled() bool {
	return q.enabled
}

// Contains reports whether t falls inside the quiet range. The start bound
// is inclusive, the end bound exclusive.
func (q QuietHours) Contains(t time.Time) bool {
	if !q.enabled {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	if q.startMinutes <= q.endMinutes {
		return minutes >= q.startMinutes && minutes < q.endMinutes
	}
	// Range crosses midnight.
	return minutes >= q.startMinutes || minutes < q.endMinutes
}
