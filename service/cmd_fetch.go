package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guregu/null/v6"
	"github.com/spf13/cobra"

	ex "github.com/ImSeekingAlpha/Quant-trading-journey/data/extensions"
	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	c "github.com/ImSeekingAlpha/Quant-trading-journey/service/core"
)

// priceFlags are shared by every command that downloads or loads prices.
type priceFlags struct {
	tickers  []string
	start    string
	end      string
	period   string
	interval string
	raw      bool
	snapshot string
}

func (f *priceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.tickers, "tickers", "t", nil, "Comma separated tickers")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "End date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.period, "period", "", "Relative window: 1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max")
	cmd.Flags().StringVar(&f.interval, "interval", "1d", "Bar size: 1m 5m 15m 30m 60m 1d 1wk 1mo")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "Use raw closes instead of adjusted closes")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Load a saved snapshot instead of downloading")
}

func (f *priceFlags) request() (m.PriceRequest, error) {
	req := m.PriceRequest{
		Tickers:  f.tickers,
		Period:   f.period,
		Interval: f.interval,
		Adjust:   !f.raw,
	}
	var err error
	if req.Start, err = parseDateFlag("start", f.start); err != nil {
		return req, err
	}
	if req.End, err = parseDateFlag("end", f.end); err != nil {
		return req, err
	}
	return req, nil
}

// prices loads the snapshot when one is named, otherwise downloads.
func (f *priceFlags) prices(ctx context.Context, sc *c.ServiceContext) (*m.Table, error) {
	if f.snapshot != "" {
		return sc.Retriever.Load(ctx, f.snapshot)
	}
	if len(f.tickers) == 0 {
		return nil, fmt.Errorf("either --tickers or --snapshot is required")
	}

	req, err := f.request()
	if err != nil {
		return nil, err
	}
	res, err := sc.Retriever.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

func parseDateFlag(name, s string) (null.Time, error) {
	if s == "" {
		return null.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return null.Time{}, fmt.Errorf("invalid --%s %q, expected YYYY-MM-DD", name, s)
	}
	return null.TimeFrom(t), nil
}

var (
	fetchFlags   priceFlags
	fetchPersist bool
	fetchName    string
	fetchFormat  string
	fetchRows    int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download historical closes",
	Long: `Download closing prices for one or more tickers. Without --start, --end or
--period the full history is requested.

Examples:
  quant fetch -t AAPL,MSFT --period 5y
  quant fetch -t SPY --start 2015-01-01 --end 2020-12-31 --interval 1wk --persist
  quant fetch -t BTC-USD --format json`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchFlags.register(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchPersist, "persist", false, "Save the table as a snapshot")
	fetchCmd.Flags().StringVar(&fetchName, "name", "", "Snapshot name, derived from the request when empty")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "table", "Output format (table|json)")
	fetchCmd.Flags().IntVar(&fetchRows, "rows", 10, "Rows to print from the end of the table, 0 for all")
}

func runFetch(cmd *cobra.Command, args []string) error {
	sc, err := c.NewServiceContext(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	req, err := fetchFlags.request()
	if err != nil {
		return err
	}
	req.Persist = fetchPersist
	req.SnapshotName = fetchName

	res, err := sc.Retriever.Fetch(cmd.Context(), req)
	if err != nil {
		return err
	}

	if ex.AreEqual(fetchFormat, "json") {
		return writeJSON(os.Stdout, res.Table)
	}
	writeTable(os.Stdout, res.Table, fetchRows)
	if res.SavedTo != "" {
		fmt.Printf("\nsaved to %s\n", res.SavedTo)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeTable prints the last rows of the table, missing cells as NaN.
func writeTable(out io.Writer, table *m.Table, rows int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "date\t%s\n", strings.Join(table.Columns, "\t"))

	from := 0
	if rows > 0 && table.Len() > rows {
		from = table.Len() - rows
	}
	for i := from; i < table.Len(); i++ {
		cells := make([]string, len(table.Columns))
		for j := range table.Columns {
			cells[j] = formatFloat(table.Values[j][i], 4)
		}
		fmt.Fprintf(w, "%s\t%s\n", ex.FmtShort(table.Index[i]), strings.Join(cells, "\t"))
	}
	w.Flush()
}

func formatFloat(v null.Float, places int) string {
	if !v.Valid {
		return "NaN"
	}
	return fmt.Sprintf("%.*f", places, v.Float64)
}
