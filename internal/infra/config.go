package infra

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Defaults for optional trading settings.
var (
	defaultRake = decimal.RequireFromString("0.15")
)

const (
	defaultDelaySec             = 30
	defaultPollIntervalMS       = 1000
	defaultSettlementTimeoutSec = 120
)

// Config holds every application setting. Secrets are overridden from the
// environment after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		Coinbase struct {
			RestURL string `yaml:"rest_url"`
			WSURL   string `yaml:"ws_url"`
			Key     string `yaml:"key"`
			Secret  string `yaml:"secret"`
		} `yaml:"coinbase"`
	} `yaml:"api"`

	Trading struct {
		Ticker    string          `yaml:"ticker"`
		Principal decimal.Decimal `yaml:"principal"`
		// Rake is a pointer so an explicit "0" survives defaulting; only a
		// missing key gets the 0.15 default.
		Rake                 *decimal.Decimal `yaml:"rake"`
		DelaySec             int              `yaml:"delay_sec"`
		PollIntervalMS       int              `yaml:"poll_interval_ms"`
		SettlementTimeoutSec int              `yaml:"settlement_timeout_sec"`
		Paper                bool             `yaml:"paper"`
		PaperBalances        struct {
			USD  decimal.Decimal `yaml:"usd"`
			Base decimal.Decimal `yaml:"base"`
		} `yaml:"paper_balances"`
	} `yaml:"trading"`

	Alerts []struct {
		Ticker      string          `yaml:"ticker"`
		TargetPrice decimal.Decimal `yaml:"target_price"`
		Persistent  bool            `yaml:"persistent"`
	} `yaml:"alerts"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.Coinbase.RestURL == "" {
		cfg.API.Coinbase.RestURL = "https://api.coinbase.com"
	}
	if cfg.Trading.Rake == nil {
		rake := defaultRake
		cfg.Trading.Rake = &rake
	}
	if cfg.Trading.DelaySec == 0 {
		cfg.Trading.DelaySec = defaultDelaySec
	}
	if cfg.Trading.PollIntervalMS == 0 {
		cfg.Trading.PollIntervalMS = defaultPollIntervalMS
	}
	if cfg.Trading.SettlementTimeoutSec == 0 {
		cfg.Trading.SettlementTimeoutSec = defaultSettlementTimeoutSec
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.API.Coinbase.RestURL == "" || !hasPrefix(c.API.Coinbase.RestURL, "https://") {
		return fmt.Errorf("invalid Coinbase REST URL: %s", c.API.Coinbase.RestURL)
	}
	if c.API.Coinbase.WSURL != "" && !hasPrefix(c.API.Coinbase.WSURL, "ws://") && !hasPrefix(c.API.Coinbase.WSURL, "wss://") {
		return fmt.Errorf("invalid Coinbase WS URL: %s", c.API.Coinbase.WSURL)
	}

	if c.Trading.Ticker == "" {
		return fmt.Errorf("trading ticker is required")
	}
	if c.Trading.Principal.IsNegative() {
		return fmt.Errorf("principal must be >= 0, got %s", c.Trading.Principal)
	}
	if c.Trading.Rake.IsNegative() {
		return fmt.Errorf("rake must be >= 0, got %s", c.Trading.Rake)
	}
	if c.Trading.DelaySec <= 0 {
		return fmt.Errorf("delay must be positive, got %d", c.Trading.DelaySec)
	}
	if c.Trading.PollIntervalMS <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d", c.Trading.PollIntervalMS)
	}
	if c.Trading.SettlementTimeoutSec <= 0 {
		return fmt.Errorf("settlement timeout must be positive, got %d", c.Trading.SettlementTimeoutSec)
	}
	if c.Trading.Paper {
		if c.Trading.PaperBalances.USD.IsNegative() || c.Trading.PaperBalances.Base.IsNegative() {
			return fmt.Errorf("paper balances must be >= 0")
		}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv replaces secrets with environment values when present.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("COINBASE_API_KEY"); key != "" {
		cfg.API.Coinbase.Key = key
	}
	if secret := os.Getenv("COINBASE_API_SECRET"); secret != "" {
		cfg.API.Coinbase.Secret = secret
	}
}
