package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Venues: []VenueConfig{
			{
				Code: "venue_a", Kind: "rest", BaseURL: "https://a.example.com",
				Symbols:           map[string]string{"btc_jpy": "BTC/JPY"},
				RequestsPerMinute: 60,
				WithdrawalFees:    map[string]float64{"BTC": 0.0006},
			},
			{
				Code: "venue_b", Kind: "ws", WebSocketURL: "wss://b.example.com/ws",
				Symbols:           map[string]string{"BTCJPY": "BTC/JPY"},
				RequestsPerMinute: 120,
				WithdrawalFees:    map[string]float64{"BTC": 0.0004},
			},
		},
		Pairs: []PairConfig{
			{Symbol: "BTC/JPY", BaseCurrency: "BTC", QuoteCurrency: "JPY"},
		},
		Detector: DetectorConfig{
			MaxTickAge:         30 * time.Second,
			MinProfitThreshold: 0.003,
		},
		Throttle: ThrottleConfig{
			Cooldown:  5 * time.Minute,
			HourlyCap: 20,
		},
		FX:      FXConfig{FallbackUSDJPY: 155.0},
		Storage: StorageConfig{BufferSize: 1024},
	}
}

func TestConfig_ValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "single_venue",
			mutate:  func(c *Config) { c.Venues = c.Venues[:1] },
			wantErr: "at least two venues",
		},
		{
			name: "duplicate_venue_code",
			mutate: func(c *Config) {
				c.Venues[1].Code = c.Venues[0].Code
			},
			wantErr: "duplicate venue code",
		},
		{
			name:    "rest_without_base_url",
			mutate:  func(c *Config) { c.Venues[0].BaseURL = "" },
			wantErr: "base_url is required",
		},
		{
			name:    "ws_without_url",
			mutate:  func(c *Config) { c.Venues[1].WebSocketURL = "" },
			wantErr: "websocket_url is required",
		},
		{
			name:    "unknown_kind",
			mutate:  func(c *Config) { c.Venues[0].Kind = "ftp" },
			wantErr: "unknown kind",
		},
		{
			name:    "no_symbols",
			mutate:  func(c *Config) { c.Venues[0].Symbols = nil },
			wantErr: "symbols cannot be empty",
		},
		{
			name:    "zero_request_budget",
			mutate:  func(c *Config) { c.Venues[0].RequestsPerMinute = 0 },
			wantErr: "requests_per_minute",
		},
		{
			name:    "no_pairs",
			mutate:  func(c *Config) { c.Pairs = nil },
			wantErr: "pairs cannot be empty",
		},
		{
			name: "missing_withdrawal_fee",
			mutate: func(c *Config) {
				delete(c.Venues[1].WithdrawalFees, "BTC")
			},
			wantErr: "missing withdrawal fee",
		},
		{
			name:    "quiet_hours_start_only",
			mutate:  func(c *Config) { c.Throttle.QuietHoursStart = "23:00" },
			wantErr: "both start and end",
		},
		{
			name: "quiet_hours_garbage",
			mutate: func(c *Config) {
				c.Throttle.QuietHoursStart = "25:99"
				c.Throttle.QuietHoursEnd = "07:00"
			},
			wantErr: "invalid quiet hours",
		},
		{
			name:    "zero_hourly_cap",
			mutate:  func(c *Config) { c.Throttle.HourlyCap = 0 },
			wantErr: "hourly_cap",
		},
		{
			name:    "zero_fallback_rate",
			mutate:  func(c *Config) { c.FX.FallbackUSDJPY = 0 },
			wantErr: "fallback_usd_jpy",
		},
		{
			name:    "zero_buffer",
			mutate:  func(c *Config) { c.Storage.BufferSize = 0 },
			wantErr: "buffer_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
