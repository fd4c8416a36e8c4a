// Package config loads the YAML configuration file and applies environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tempest trader.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Venue    Venue          `yaml:"venue"`
	Weather  Weather        `yaml:"weather"`
	Logging  Logging        `yaml:"logging"`
	Trading  Trading        `yaml:"trading"`
	Risk     Risk           `yaml:"risk"`
	Breaker  Breaker        `yaml:"circuit_breaker"`
	Entities []EntityConfig `yaml:"entities"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration for the status API.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Venue holds credentials and endpoints for the exchange API.
type Venue struct {
	APIKey          string `yaml:"api_key"`
	APISecret       string `yaml:"api_secret"`
	BaseURL         string `yaml:"base_url"`
	DemoURL         string `yaml:"demo_url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	MaxRetries      int    `yaml:"max_retries"`
}

// Weather configures the forecast provider and its cache.
type Weather struct {
	BaseURL      string `yaml:"base_url"`
	SoftTTLMins  int    `yaml:"soft_ttl_minutes"`
	HardTTLMins  int    `yaml:"hard_ttl_minutes"`
	PrefetchSize int    `yaml:"prefetch_workers"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Trading defines execution parameters.
type Trading struct {
	Mode          string `yaml:"mode"` // shadow, demo, live
	OrderQuantity int    `yaml:"order_quantity"`
	IntervalMins  int    `yaml:"interval_minutes"`
}

// Risk defines exposure and sizing limits as fractions of bankroll.
type Risk struct {
	Bankroll              float64 `yaml:"bankroll"`
	MaxCityExposurePct    float64 `yaml:"max_city_exposure_pct"`
	MaxClusterExposurePct float64 `yaml:"max_cluster_exposure_pct"`
	MaxTradeRiskPct       float64 `yaml:"max_trade_risk_pct"`
	MaxPositionSize       int     `yaml:"max_position_size"`
	MaxAggregatePct       float64 `yaml:"max_aggregate_pct"`
}

// Breaker defines the circuit breaker trip thresholds.
type Breaker struct {
	MaxDailyLoss        float64 `yaml:"max_daily_loss"`
	MaxRejectsWindow    int     `yaml:"max_rejects_window"`
	RejectWindowMinutes int     `yaml:"reject_window_minutes"`
}

// EntityConfig describes one city market.
type EntityConfig struct {
	Code    string `yaml:"code"`
	City    string `yaml:"city"`
	Cluster string `yaml:"cluster"`
	Series  string `yaml:"series"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Storage: Storage{DataDir: "data", SQLitePath: "data/tempest.db"},
		Server:  Server{Host: "127.0.0.1", Port: 8090},
		Venue:   Venue{RateLimitPerMin: 60, MaxRetries: 3},
		Weather: Weather{SoftTTLMins: 30, HardTTLMins: 180, PrefetchSize: 5},
		Logging: Logging{Level: "info", Format: "json"},
		Trading: Trading{Mode: "shadow", OrderQuantity: 10, IntervalMins: 15},
		Risk: Risk{
			MaxCityExposurePct:    0.05,
			MaxClusterExposurePct: 0.10,
			MaxTradeRiskPct:       0.02,
			MaxPositionSize:       100,
			MaxAggregatePct:       0.25,
		},
		Breaker: Breaker{
			MaxDailyLoss:        250,
			MaxRejectsWindow:    5,
			RejectWindowMinutes: 15,
		},
	}
}

// Validate rejects configurations that must not start. Live mode without
// venue credentials is a fatal configuration error, never a silent fallback.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Trading.Mode) {
	case "shadow", "demo", "live":
	default:
		return fmt.Errorf("config: unknown trading mode %q", c.Trading.Mode)
	}
	if strings.ToLower(c.Trading.Mode) == "live" && (c.Venue.APIKey == "" || c.Venue.APISecret == "") {
		return fmt.Errorf("config: live mode requires venue api_key and api_secret")
	}
	if c.Risk.Bankroll <= 0 {
		return fmt.Errorf("config: risk.bankroll must be positive")
	}
	if len(c.Entities) == 0 {
		return fmt.Errorf("config: at least one entity is required")
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEMPEST_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("TEMPEST_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("TEMPEST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TEMPEST_MODE"); v != "" {
		cfg.Trading.Mode = v
	}

	// Canonical venue credential names take highest priority.
	if v := os.Getenv("VENUE_API_KEY"); v != "" {
		cfg.Venue.APIKey = v
	}
	if v := os.Getenv("VENUE_API_SECRET"); v != "" {
		cfg.Venue.APISecret = v
	}
	if v := os.Getenv("VENUE_BASE_URL"); v != "" {
		cfg.Venue.BaseURL = v
	}
}
