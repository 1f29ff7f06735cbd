package queries

import (
	"io/fs"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_QueryHelper_EveryPathResolvesToQuery(t *testing.T) {
	paths := queryPaths(reflect.ValueOf(QueryHelper))
	require.NotEmpty(t, paths, "no query paths in QueryHelper found")

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			assert.NotEmpty(t, strings.TrimSpace(Get(path)), "query file %q is empty", path)
		})
	}
}

// every embedded .sql file must be reachable through QueryHelper, 1:1
func Test_QueryHelper_MatchesEmbeddedFiles(t *testing.T) {
	paths := queryPaths(reflect.ValueOf(QueryHelper))

	var embedded []string
	err := fs.WalkDir(Files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			embedded = append(embedded, path)
		}
		return nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, embedded, paths)
}

func Test_Get_PanicsOnUnknownPath(t *testing.T) {
	assert.Panics(t, func() { Get("select/does_not_exist.sql") })
}

// queryPaths walks v (a struct) and returns every non empty string field.
func queryPaths(v reflect.Value) []string {
	var paths []string
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.String {
			if s := field.String(); s != "" {
				paths = append(paths, s)
			}
			continue
		}
		paths = append(paths, queryPaths(field)...)
	}
	return paths
}
