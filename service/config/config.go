package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ImSeekingAlpha/Quant-trading-journey/service/api"
)

const (
	Prefix = "QU"

	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
)

// Config is read from QU_ prefixed environment variables. Keys without the
// prefix are accepted too, which keeps ALPHAVANTAGE_API_KEY and DATABASE_URL
// working as plain names.
type Config struct {
	Addr               string        `envconfig:"ADDR" default:":8080"`
	DataDir            string        `envconfig:"DATA_DIR" default:"data"`
	Provider           string        `envconfig:"PROVIDER" default:"yahoo"`
	RiskFreeTicker     string        `envconfig:"RF_TICKER" default:"^IRX"`
	PeriodsPerYear     int           `envconfig:"PERIODS_PER_YEAR" default:"252"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	RequestsPerSecond  float64       `envconfig:"REQUESTS_PER_SECOND" default:"2"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	MaxParallel        int           `envconfig:"MAX_PARALLEL" default:"4"`
	AlphaVantageApiKey string        `envconfig:"ALPHAVANTAGE_API_KEY"`
	DatabaseUrl        string        `envconfig:"DATABASE_URL"`
}

// Load reads the given .env files (".env" when none are given) and then the
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading environment file: %w", err)
		}
		log.Debug().Err(err).Msg(".env not loaded")
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderYahoo:
	case ProviderAlphaVantage:
		if c.AlphaVantageApiKey == "" {
			return fmt.Errorf("provider %s requires ALPHAVANTAGE_API_KEY", c.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q, expected %s or %s", c.Provider, ProviderYahoo, ProviderAlphaVantage)
	}

	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive, got %d", c.PeriodsPerYear)
	}
	if c.MaxParallel <= 0 {
		return fmt.Errorf("max parallel must be positive, got %d", c.MaxParallel)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func (c *Config) ClientOptions() api.ClientOptions {
	options := api.DefaultClientOptions()
	options.Timeout = c.RequestTimeout
	options.RequestsPerSecond = c.RequestsPerSecond
	return options
}
