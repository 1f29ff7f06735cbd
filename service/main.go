package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ImSeekingAlpha/Quant-trading-journey/service/config"
)

var (
	cfg      *config.Config
	envFiles []string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Historical price retrieval, gap diagnostics and performance metrics",
	Long: `quant downloads historical closing prices from yahoo or alpha vantage,
reports missing data per ticker and computes CAGR and Sharpe ratios.

Run "quant serve" for the http api or use the fetch, gaps and perf commands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

		var err error
		if cfg, err = config.Load(envFiles...); err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		zerolog.SetGlobalLevel(cfg.Level())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "Environment files to load (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Overrides QU_LOG_LEVEL (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
