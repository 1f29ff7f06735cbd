package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guregu/null/v6"
	"github.com/spf13/cobra"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	"github.com/ImSeekingAlpha/Quant-trading-journey/service/api"
	c "github.com/ImSeekingAlpha/Quant-trading-journey/service/core"
	sm "github.com/ImSeekingAlpha/Quant-trading-journey/service/models"
)

var (
	perfFlags    priceFlags
	perfRiskFree float64
	perfPPY      int
	perfFormat   string
)

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Compute CAGR and Sharpe ratio from prices",
	Long: `Turn closing prices into simple returns and report the compound annual
growth rate and annualized Sharpe ratio per ticker. Without --rf the risk free
rate is downloaded (QU_RF_TICKER, ^IRX by default).

Examples:
  quant perf -t AAPL,MSFT --period 5y
  quant perf --snapshot SPY_2015to2020_1wk.gob --rf 0.02
  quant perf -t SPY --interval 1mo --ppy 12`,
	RunE: runPerf,
}

func init() {
	rootCmd.AddCommand(perfCmd)
	perfFlags.register(perfCmd)
	perfCmd.Flags().Float64Var(&perfRiskFree, "rf", 0, "Constant annual risk free rate, e.g. 0.02")
	perfCmd.Flags().IntVar(&perfPPY, "ppy", 0, "Periods per year, derived from --interval or the snapshot name when unset")
	perfCmd.Flags().StringVar(&perfFormat, "format", "table", "Output format (table|json)")
}

func runPerf(cmd *cobra.Command, args []string) error {
	sc, err := c.NewServiceContext(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	prices, err := perfFlags.prices(cmd.Context(), sc)
	if err != nil {
		return err
	}

	ppy, err := periodsPerYear(perfPPY, perfFlags.snapshot, perfFlags.interval)
	if err != nil {
		return err
	}

	var riskFree c.RiskFree
	if cmd.Flags().Changed("rf") {
		riskFree.Rate = null.FloatFrom(perfRiskFree)
	}
	options := sc.SharpeOptions(riskFree, ppy)

	returns := c.PctChange(prices)
	cagr, err := c.CAGR(returns, options.PeriodsPerYear)
	if err != nil {
		return err
	}
	sharpe, err := c.Sharpe(cmd.Context(), returns, options)
	if err != nil {
		return err
	}

	res := sm.PerformanceResponse{PeriodsPerYear: options.PeriodsPerYear, CAGR: cagr, Sharpe: sharpe}
	if ex.AreEqual(perfFormat, "json") {
		return writeJSON(os.Stdout, res)
	}

	if unit := sm.ConvertFrequencyToString(options.PeriodsPerYear); unit != "" {
		fmt.Printf("annualized over %d %s per year\n\n", options.PeriodsPerYear, unit)
	} else {
		fmt.Printf("annualized over %d periods per year\n\n", options.PeriodsPerYear)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ticker\tcagr\tsharpe")
	for i := range cagr {
		fmt.Fprintf(w, "%s\t%s\t%s\n", cagr[i].Ticker, formatFloat(cagr[i].Value, 4), formatFloat(sharpe[i].Value, 3))
	}
	return w.Flush()
}

// periodsPerYear picks the annualization factor: an explicit value wins, a
// snapshot uses the interval in its name and downloads use --interval.
func periodsPerYear(ppy int, snapshot, interval string) (int, error) {
	if ppy > 0 {
		return ppy, nil
	}
	if snapshot != "" {
		ti, ok := c.SnapshotInterval(snapshot)
		if !ok {
			return 0, fmt.Errorf("cannot derive periods per year from snapshot %s, pass --ppy", snapshot)
		}
		return ti.PeriodsPerYear(), nil
	}

	ti, err := api.ParseTimeInterval(interval)
	if err != nil {
		return 0, err
	}
	return ti.PeriodsPerYear(), nil
}
