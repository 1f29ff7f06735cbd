package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	c "github.com/ImSeekingAlpha/Quant-trading-journey/service/core"
)

var (
	gapsFlags  priceFlags
	gapsFormat string
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Report missing values per ticker",
	Long: `Classify the missing values of every ticker into leading, internal and
trailing gaps, suggest a repair and flag the ticker good, repairable or drop.

Examples:
  quant gaps --snapshot AAPL_MSFT_5y_1d.gob
  quant gaps -t AAPL,MSFT,TSLA --period 10y --format json`,
	RunE: runGaps,
}

func init() {
	rootCmd.AddCommand(gapsCmd)
	gapsFlags.register(gapsCmd)
	gapsCmd.Flags().StringVar(&gapsFormat, "format", "table", "Output format (table|json)")
}

func runGaps(cmd *cobra.Command, args []string) error {
	sc, err := c.NewServiceContext(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	table, err := gapsFlags.prices(cmd.Context(), sc)
	if err != nil {
		return err
	}

	report := c.AnalyzeGaps(table)
	if ex.AreEqual(gapsFormat, "json") {
		return writeJSON(os.Stdout, report)
	}
	if len(report) == 0 {
		fmt.Println("no missing values found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ticker\tfirst\tlast\tleading\tinternal\ttrailing\ttotal\tlen\tratio\tmax gap\tquality\tsuggestion")
	for _, row := range report {
		first, last := "-", "-"
		if row.FirstValid.Valid {
			first, last = ex.FmtShort(row.FirstValid.Time), ex.FmtShort(row.LastValid.Time)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%.4f\t%d\t%s\t%s\n",
			row.Ticker, first, last, row.Leading, row.Internal, row.Trailing,
			row.TotalMissing, row.Length, row.NaNRatio, row.MaxInternalGap, row.Quality, row.SuggestedAction)
	}
	return w.Flush()
}
