// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Venues    []VenueConfig   `mapstructure:"venues"`
	Pairs     []PairConfig    `mapstructure:"pairs"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Throttle  ThrottleConfig  `mapstructure:"throttle"`
	FX        FXConfig        `mapstructure:"fx"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
}

// VenueConfig describes one trading venue feed.
type VenueConfig struct {
	Code          string `mapstructure:"code"`
	Name          string `mapstructure:"name"`
	Kind          string `mapstructure:"kind"` // "rest" or "ws"
	BaseURL       string `mapstructure:"base_url"`
	WebSocketURL  string `mapstructure:"websocket_url"`
	QuoteCurrency string `mapstructure:"quote_currency"`
	// Symbols maps the venue's wire symbol to the canonical pair symbol,
	// e.g. "btc_jpy" -> "BTC/JPY".
	Symbols           map[string]string  `mapstructure:"symbols"`
	PollInterval      time.Duration      `mapstructure:"poll_interval"`
	RequestsPerMinute int                `mapstructure:"requests_per_minute"`
	MakerFee          float64            `mapstructure:"maker_fee"`
	TakerFee          float64            `mapstructure:"taker_fee"`
	WithdrawalFees    map[string]float64 `mapstructure:"withdrawal_fees"`
}

// MakerFeeDecimal returns the maker fee as decimal.Decimal.
func (c *VenueConfig) MakerFeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MakerFee)
}

// TakerFeeDecimal returns the taker fee as decimal.Decimal.
func (c *VenueConfig) TakerFeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TakerFee)
}

// WithdrawalFeesDecimal returns the per-currency withdrawal fees as decimals.
func (c *VenueConfig) WithdrawalFeesDecimal() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(c.WithdrawalFees))
	for currency, fee := range c.WithdrawalFees {
		result[currency] = decimal.NewFromFloat(fee)
	}
	return result
}

// PairConfig describes one tradable currency pair.
type PairConfig struct {
	Symbol         string  `mapstructure:"symbol"`
	BaseCurrency   string  `mapstructure:"base_currency"`
	QuoteCurrency  string  `mapstructure:"quote_currency"`
	MinOrderSize   float64 `mapstructure:"min_order_size"`
	SizeIncrement  float64 `mapstructure:"size_increment"`
	PriceIncrement float64 `mapstructure:"price_increment"`
}

// DetectorConfig holds arbitrage detection configuration.
type DetectorConfig struct {
	Interval           time.Duration      `mapstructure:"interval"`
	MaxTickAge         time.Duration      `mapstructure:"max_tick_age"`
	MinProfitThreshold float64            `mapstructure:"min_profit_threshold"`
	EnableCrossRate    bool               `mapstructure:"enable_cross_rate"`
	EnableTriangular   bool               `mapstructure:"enable_triangular"`
	MaxPositionSizes   map[string]float64 `mapstructure:"max_position_sizes"`
	TransferMinutes    map[string]int     `mapstructure:"transfer_minutes"`
	ExpireAfter        time.Duration      `mapstructure:"expire_after"`
	ExpirySweepSpec    string             `mapstructure:"expiry_sweep_spec"`
}

// MinProfitThresholdDecimal returns the minimum profit threshold as a decimal.
func (c *DetectorConfig) MinProfitThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitThreshold)
}

// MaxPositionSizesDecimal returns the per-currency position caps as decimals.
func (c *DetectorConfig) MaxPositionSizesDecimal() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(c.MaxPositionSizes))
	for currency, size := range c.MaxPositionSizes {
		result[currency] = decimal.NewFromFloat(size)
	}
	return result
}

// ThrottleConfig holds notification throttle configuration.
type ThrottleConfig struct {
	Cooldown         time.Duration `mapstructure:"cooldown"`
	HourlyCap        int           `mapstructure:"hourly_cap"`
	QuietHoursStart  string        `mapstructure:"quiet_hours_start"` // "HH:MM", empty disables
	QuietHoursEnd    string        `mapstructure:"quiet_hours_end"`
	QuietOverridePct float64       `mapstructure:"quiet_override_pct"`
}

// QuietOverrideDecimal returns the quiet-hours override threshold as a decimal.
func (c *ThrottleConfig) QuietOverrideDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.QuietOverridePct)
}

// FXConfig holds the foreign-exchange rate source configuration.
type FXConfig struct {
	URL             string        `mapstructure:"url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	StaleAfter      time.Duration `mapstructure:"stale_after"`
	FallbackUSDJPY  float64       `mapstructure:"fallback_usd_jpy"`
}

// FallbackUSDJPYDecimal returns the fallback USD/JPY rate as a decimal.
func (c *FXConfig) FallbackUSDJPYDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FallbackUSDJPY)
}

// AlertingConfig holds alert delivery configuration.
type AlertingConfig struct {
	WebhookURL     string        `mapstructure:"webhook_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig holds durable storage configuration.
type StorageConfig struct {
	DSN           string        `mapstructure:"dsn"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Database      string        `mapstructure:"database"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	SSLMode       string        `mapstructure:"ssl_mode"`
	MaxConns      int           `mapstructure:"max_conns"`
	BufferSize    int           `mapstructure:"buffer_size"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RunMigrations bool          `mapstructure:"run_migrations"`
}

// RedisConfig holds the hot tick cache configuration.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TickTTL  time.Duration `mapstructure:"tick_ttl"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ZipkinURL      string `mapstructure:"zipkin_url"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("CROSSARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "CROSSARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "CROSSARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "CROSSARB_LOG_LEVEL", "LOG_LEVEL")

	// Detector
	v.BindEnv("detector.interval", "CROSSARB_DETECTOR_INTERVAL")
	v.BindEnv("detector.min_profit_threshold", "CROSSARB_MIN_PROFIT_THRESHOLD")

	// Throttle
	v.BindEnv("throttle.hourly_cap", "CROSSARB_HOURLY_CAP")

	// FX
	v.BindEnv("fx.url", "CROSSARB_FX_URL", "FX_URL")

	// Alerting
	v.BindEnv("alerting.webhook_url", "CROSSARB_WEBHOOK_URL", "WEBHOOK_URL")

	// Storage
	v.BindEnv("storage.dsn", "CROSSARB_DATABASE_DSN", "DATABASE_URL")
	v.BindEnv("storage.host", "CROSSARB_DB_HOST", "DB_HOST")
	v.BindEnv("storage.password", "CROSSARB_DB_PASSWORD", "DB_PASSWORD")

	// Redis
	v.BindEnv("redis.addr", "CROSSARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "CROSSARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "CROSSARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "CROSSARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "CROSSARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "crossarb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8080)

	// Detector defaults
	v.SetDefault("detector.interval", "10s")
	v.SetDefault("detector.max_tick_age", "30s")
	v.SetDefault("detector.min_profit_threshold", 0.003)
	v.SetDefault("detector.enable_cross_rate", true)
	v.SetDefault("detector.enable_triangular", true)
	v.SetDefault("detector.max_position_sizes", map[string]float64{
		"BTC": 0.1,
		"ETH": 1.0,
		"XRP": 10000,
	})
	v.SetDefault("detector.transfer_minutes", map[string]int{
		"BTC": 30,
		"ETH": 15,
		"XRP": 5,
	})
	v.SetDefault("detector.expire_after", "15m")
	v.SetDefault("detector.expiry_sweep_spec", "*/5 * * * *")

	// Throttle defaults
	v.SetDefault("throttle.cooldown", "5m")
	v.SetDefault("throttle.hourly_cap", 20)
	v.SetDefault("throttle.quiet_override_pct", 0.01)

	// FX defaults
	v.SetDefault("fx.refresh_interval", "5m")
	v.SetDefault("fx.stale_after", "15m")
	v.SetDefault("fx.fallback_usd_jpy", 155.0)

	// Alerting defaults
	v.SetDefault("alerting.request_timeout", "10s")

	// Storage defaults
	v.SetDefault("storage.host", "localhost")
	v.SetDefault("storage.port", 5432)
	v.SetDefault("storage.database", "crossarb")
	v.SetDefault("storage.user", "crossarb")
	v.SetDefault("storage.ssl_mode", "disable")
	v.SetDefault("storage.max_conns", 10)
	v.SetDefault("storage.buffer_size", 1024)
	v.SetDefault("storage.retry_backoff", "500ms")
	v.SetDefault("storage.max_retries", 5)
	v.SetDefault("storage.run_migrations", true)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.tick_ttl", "60s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "crossarb")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration. Missing fee schedules or broken pair
// definitions are fatal: detection must not run with incomplete reference data.
func (c *Config) Validate() error {
	if len(c.Venues) < 2 {
		return fmt.Errorf("at least two venues are required, got %d", len(c.Venues))
	}
	seenVenues := make(map[string]bool, len(c.Venues))
	for i, venue := range c.Venues {
		if venue.Code == "" {
			return fmt.Errorf("venues[%d].code is required", i)
		}
		if seenVenues[venue.Code] {
			return fmt.Errorf("duplicate venue code %q", venue.Code)
		}
		seenVenues[venue.Code] = true

		switch venue.Kind {
		case "rest":
			if venue.BaseURL == "" {
				return fmt.Errorf("venue %s: base_url is required for rest feeds", venue.Code)
			}
		case "ws":
			if venue.WebSocketURL == "" {
				return fmt.Errorf("venue %s: websocket_url is required for ws feeds", venue.Code)
			}
		default:
			return fmt.Errorf("venue %s: unknown kind %q", venue.Code, venue.Kind)
		}
		if venue.TakerFee < 0 {
			return fmt.Errorf("venue %s: taker_fee must not be negative", venue.Code)
		}
		if len(venue.Symbols) == 0 {
			return fmt.Errorf("venue %s: symbols cannot be empty", venue.Code)
		}
		if venue.RequestsPerMinute <= 0 {
			return fmt.Errorf("venue %s: requests_per_minute must be positive", venue.Code)
		}
	}

	if len(c.Pairs) == 0 {
		return fmt.Errorf("pairs cannot be empty")
	}
	seenPairs := make(map[string]bool, len(c.Pairs))
	for i, pair := range c.Pairs {
		if pair.Symbol == "" || pair.BaseCurrency == "" || pair.QuoteCurrency == "" {
			return fmt.Errorf("pairs[%d]: symbol, base_currency and quote_currency are required", i)
		}
		if seenPairs[pair.Symbol] {
			return fmt.Errorf("duplicate pair symbol %q", pair.Symbol)
		}
		seenPairs[pair.Symbol] = true
	}

	// Every moved base currency needs a withdrawal fee on every venue.
	for _, pair := range c.Pairs {
		for _, venue := range c.Venues {
			if _, ok := venue.WithdrawalFees[pair.BaseCurrency]; !ok {
				return fmt.Errorf("venue %s: missing withdrawal fee for %s", venue.Code, pair.BaseCurrency)
			}
		}
	}

	if c.Detector.MaxTickAge <= 0 {
		return fmt.Errorf("detector.max_tick_age must be positive")
	}
	if c.Detector.MinProfitThreshold < 0 {
		return fmt.Errorf("detector.min_profit_threshold must not be negative")
	}

	if c.Throttle.Cooldown <= 0 {
		return fmt.Errorf("throttle.cooldown must be positive")
	}
	if c.Throttle.HourlyCap <= 0 {
		return fmt.Errorf("throttle.hourly_cap must be positive")
	}
	if (c.Throttle.QuietHoursStart == "") != (c.Throttle.QuietHoursEnd == "") {
		return fmt.Errorf("throttle quiet hours require both start and end")
	}
	for _, hhmm := range []string{c.Throttle.QuietHoursStart, c.Throttle.QuietHoursEnd} {
		if hhmm == "" {
			continue
		}
		if _, err := time.Parse("15:04", hhmm); err != nil {
			return fmt.Errorf("invalid quiet hours time %q: %w", hhmm, err)
		}
	}

	if c.FX.FallbackUSDJPY <= 0 {
		return fmt.Errorf("fx.fallback_usd_jpy must be positive")
	}

	if c.Storage.BufferSize <= 0 {
		return fmt.Errorf("storage.buffer_size must be positive")
	}

	return nil
}
