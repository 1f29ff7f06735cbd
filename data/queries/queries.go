package queries

import (
	"embed"
	"fmt"
)

//go:embed delete/*.sql insert/*.sql schema/*.sql select/*.sql
var Files embed.FS

// ^^^ the go:embed directive is used to embed the files in the queries package
// meaning on compile time it will convert the files to binary data and embed it in the queries package

type DeleteQueries struct {
	PriceSnapshotByName string
}

type InsertQueries struct {
	PriceSnapshot string
}

type SchemaQueries struct {
	PriceSnapshot string
}

type SelectQueries struct {
	PriceSnapshotByName string
	PriceSnapshotValues string
}

type QueryHelperStruct struct {
	Delete DeleteQueries
	Insert InsertQueries
	Schema SchemaQueries
	Select SelectQueries
}

var QueryHelper = QueryHelperStruct{
	Delete: DeleteQueries{
		PriceSnapshotByName: "delete/price_snapshot_by_name.sql",
	},
	Insert: InsertQueries{
		PriceSnapshot: "insert/price_snapshot.sql",
	},
	Schema: SchemaQueries{
		PriceSnapshot: "schema/price_snapshot.sql",
	},
	Select: SelectQueries{
		PriceSnapshotByName: "select/price_snapshot_by_name.sql",
		PriceSnapshotValues: "select/price_snapshot_values.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
