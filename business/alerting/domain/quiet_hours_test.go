package domain

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 29, hour, minute, 0, 0, time.UTC)
}

func TestParseQuietHours(t *testing.T) {
	tests := []struct {
		name        string
		start, end  string
		wantErr     bool
		wantEnabled bool
	}{
		{"both_empty_disables", "", "", false, false},
		{"valid_range", "23:00", "07:00", false, true},
		{"start_without_end", "23:00", "", true, false},
		{"end_without_start", "", "07:00", true, false},
		{"garbage_start", "25:99", "07:00", true, false},
		{"garbage_end", "23:00", "7pm", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuietHours(tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuietHours(%q, %q) error = %v, wantErr %v", tt.start, tt.end, err, tt.wantErr)
			}
			if q.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", q.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestQuietHours_ContainsMidnightCrossing(t *testing.T) {
	q, err := ParseQuietHours("23:00", "07:00")
	if err != nil {
		t.Fatalf("ParseQuietHours: %v", err)
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"start_inclusive", at(23, 0), true},
		{"late_night", at(23, 59), true},
		{"midnight", at(0, 0), true},
		{"early_morning", at(3, 30), true},
		{"just_before_end", at(6, 59), true},
		{"end_exclusive", at(7, 0), false},
		{"midday", at(12, 0), false},
		{"just_before_start", at(22, 59), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.Contains(tt.at); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.at.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestQuietHours_ContainsSameDayRange(t *testing.T) {
	q, err := ParseQuietHours("01:00", "05:00")
	if err != nil {
		t.Fatalf("ParseQuietHours: %v", err)
	}

	if !q.Contains(at(3, 0)) {
		t.Error("03:00 should fall inside 01:00-05:00")
	}
	if q.Contains(at(23, 0)) {
		t.Error("23:00 should fall outside 01:00-05:00")
	}
}

func TestQuietHours_DisabledNeverContains(t *testing.T) {
	var q QuietHours
	if q.Contains(at(3, 0)) {
		t.Error("zero-value quiet hours should never match")
	}
}
