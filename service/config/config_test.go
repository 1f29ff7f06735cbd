package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
)

func Test_Config_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	ex.AssertAreEqual(t, "addr", ":8080", cfg.Addr)
	ex.AssertAreEqual(t, "data dir", "data", cfg.DataDir)
	ex.AssertAreEqual(t, "provider", ProviderYahoo, cfg.Provider)
	ex.AssertAreEqual(t, "risk free ticker", "^IRX", cfg.RiskFreeTicker)
	ex.AssertAreEqual(t, "periods per year", 252, cfg.PeriodsPerYear)
	ex.AssertAreEqual(t, "request timeout", 30*time.Second, cfg.RequestTimeout)
	ex.AssertAreEqual(t, "max parallel", 4, cfg.MaxParallel)
	ex.AssertAreEqual(t, "level", zerolog.InfoLevel, cfg.Level())
}

func Test_Config_ReadsPrefixedAndPlainKeys(t *testing.T) {
	t.Setenv("QU_PROVIDER", "AlphaVantage")
	t.Setenv("QU_MAX_PARALLEL", "8")
	t.Setenv("ALPHAVANTAGE_API_KEY", "plain-key")
	t.Setenv("QU_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	ex.AssertAreEqual(t, "provider", ProviderAlphaVantage, cfg.Provider)
	ex.AssertAreEqual(t, "max parallel", 8, cfg.MaxParallel)
	ex.AssertAreEqual(t, "api key", "plain-key", cfg.AlphaVantageApiKey)
	ex.AssertAreEqual(t, "level", zerolog.DebugLevel, cfg.Level())

	options := cfg.ClientOptions()
	ex.AssertAreEqual(t, "timeout", 30*time.Second, options.Timeout)
	ex.AssertAreEqual(t, "rps", 2.0, options.RequestsPerSecond)
}

func Test_Config_LoadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("QU_DATA_DIR=/tmp/snapshots\nQU_RF_TICKER=^TNX\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("QU_DATA_DIR")
		os.Unsetenv("QU_RF_TICKER")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "data dir", "/tmp/snapshots", cfg.DataDir)
	ex.AssertAreEqual(t, "risk free ticker", "^TNX", cfg.RiskFreeTicker)
}

func Test_Config_Validate(t *testing.T) {
	t.Run("alpha vantage needs a key", func(t *testing.T) {
		cfg := Config{Provider: ProviderAlphaVantage, PeriodsPerYear: 252, MaxParallel: 1, LogLevel: "info"}
		assert.Error(t, cfg.Validate())
	})
	t.Run("unknown provider", func(t *testing.T) {
		cfg := Config{Provider: "bloomberg", PeriodsPerYear: 252, MaxParallel: 1, LogLevel: "info"}
		assert.Error(t, cfg.Validate())
	})
	t.Run("periods per year", func(t *testing.T) {
		cfg := Config{Provider: ProviderYahoo, PeriodsPerYear: 0, MaxParallel: 1, LogLevel: "info"}
		assert.Error(t, cfg.Validate())
	})
	t.Run("log level", func(t *testing.T) {
		cfg := Config{Provider: ProviderYahoo, PeriodsPerYear: 252, MaxParallel: 1, LogLevel: "loud"}
		assert.Error(t, cfg.Validate())
	})
}
