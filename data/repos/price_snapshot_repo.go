package repos

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"

	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
	"github.com/ImSeekingAlpha/Quant-trading-journey/data/queries"
)

type PriceSnapshot struct {
	Id        int32     `db:"id"`
	Name      string    `db:"name"`
	Tickers   []string  `db:"tickers"`
	RowCount  int32     `db:"row_count"`
	CreatedAt time.Time `db:"created_at"`
}

type priceSnapshotValue struct {
	Ticker    string     `db:"ticker"`
	Timestamp time.Time  `db:"timestamp"`
	Value     null.Float `db:"value"`
}

// SaveTable stores the table under name, replacing any snapshot with the same name.
// Every cell is written, missing ones as NULL, so the index survives a round trip.
func (pg *Postgres) SaveTable(ctx context.Context, name string, table *m.Table) (location string, err error) {
	tx, err := pg.GetTransaction(ctx)
	if err != nil {
		return "", fmt.Errorf("error starting snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	args := pgx.NamedArgs{"name": name}
	if _, err = tx.Exec(ctx, queries.Get(queries.QueryHelper.Delete.PriceSnapshotByName), args); err != nil {
		return "", fmt.Errorf("error removing previous snapshot %s: %w", name, err)
	}

	var id int32
	args = pgx.NamedArgs{
		"name":      name,
		"tickers":   table.Columns,
		"row_count": table.Len(),
	}
	if err = tx.QueryRow(ctx, queries.Get(queries.QueryHelper.Insert.PriceSnapshot), args).Scan(&id); err != nil {
		return "", fmt.Errorf("error inserting snapshot %s: %w", name, err)
	}

	entries := make([][]any, 0, table.Len()*len(table.Columns))
	for j, ticker := range table.Columns {
		for i, ts := range table.Index {
			var value any
			if v := table.Values[j][i]; v.Valid {
				value = v.Float64
			}
			entries = append(entries, []any{id, ticker, ts, value})
		}
	}

	columns := []string{"snapshot_id", "ticker", "timestamp", "value"}
	if _, err = pg.BulkInsert(ctx, "price_snapshot_value", columns, entries, tx); err != nil {
		return "", fmt.Errorf("error inserting snapshot values for %s: %w", name, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("error committing snapshot %s: %w", name, err)
	}

	return "price_snapshot/" + name, nil
}

// LoadTable rebuilds a table saved with SaveTable.
func (pg *Postgres) LoadTable(ctx context.Context, name string) (*m.Table, error) {
	snapshot, err := QuerySingle[PriceSnapshot](ctx, pg, queries.Get(queries.QueryHelper.Select.PriceSnapshotByName), pgx.NamedArgs{"name": name})
	if err != nil {
		return nil, fmt.Errorf("unable to query snapshot (%s): %w", name, err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot %s does not exist", name)
	}

	values, err := Query[priceSnapshotValue](ctx, pg, queries.Get(queries.QueryHelper.Select.PriceSnapshotValues), pgx.NamedArgs{"snapshot_id": snapshot.Id})
	if err != nil {
		return nil, fmt.Errorf("unable to query snapshot values (%s): %w", name, err)
	}

	return buildTable(snapshot.Tickers, values), nil
}

// buildTable expects values ordered by timestamp.
func buildTable(tickers []string, values []*priceSnapshotValue) *m.Table {
	index := make([]time.Time, 0)
	position := make(map[time.Time]int)
	for _, v := range values {
		ts := v.Timestamp.UTC()
		if _, ok := position[ts]; !ok {
			position[ts] = len(index)
			index = append(index, ts)
		}
	}

	table := m.NewTable(index, tickers)
	for _, v := range values {
		j := slices.Index(tickers, v.Ticker)
		if j < 0 {
			continue
		}
		table.Values[j][position[v.Timestamp.UTC()]] = v.Value
	}
	return table
}
