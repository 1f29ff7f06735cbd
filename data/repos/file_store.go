package repos

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	m "github.com/ImSeekingAlpha/Quant-trading-journey/data/models"
)

// FileStore keeps table snapshots as gob files in Dir.
type FileStore struct {
	Dir string
}

// snapshot is the on disk form of a table. Valid[j][i] is false where the
// cell is missing, Values holds zero there.
type snapshot struct {
	Index   []time.Time
	Columns []string
	Values  [][]float64
	Valid   [][]bool
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// SaveTable writes the table to Dir/name and returns the written path. The
// name must be a plain file name, snapshots are never written outside Dir.
func (fs *FileStore) SaveTable(ctx context.Context, name string, table *m.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateSnapshotName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(fs.Dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating snapshot directory %s: %w", fs.Dir, err)
	}

	path := fs.path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating snapshot %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(toSnapshot(table)); err != nil {
		return "", fmt.Errorf("error encoding snapshot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("error closing snapshot %s: %w", path, err)
	}
	return path, nil
}

// LoadTable reads a snapshot. Absolute names are used as is, anything else
// is resolved against Dir.
func (fs *FileStore) LoadTable(ctx context.Context, name string) (*m.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := fs.path(name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening snapshot %s: %w", path, err)
	}
	defer f.Close()

	var s snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("error decoding snapshot %s: %w", path, err)
	}

	table := fromSnapshot(s)
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return table, nil
}

// ValidateSnapshotName accepts a single local file name: not empty, not
// absolute, no path separators and no parent references.
func ValidateSnapshotName(name string) error {
	switch {
	case name == "", name == ".":
		return fmt.Errorf("%w: name is empty", m.ErrInvalidSnapshotName)
	case filepath.IsAbs(name), strings.ContainsAny(name, `/\`), strings.Contains(name, ".."), !filepath.IsLocal(name):
		return fmt.Errorf("%w: %q must be a file name inside the snapshot directory", m.ErrInvalidSnapshotName, name)
	}
	return nil
}

func (fs *FileStore) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(fs.Dir, name)
}

func toSnapshot(t *m.Table) snapshot {
	s := snapshot{
		Index:   t.Index,
		Columns: t.Columns,
		Values:  make([][]float64, len(t.Values)),
		Valid:   make([][]bool, len(t.Values)),
	}
	for j, col := range t.Values {
		s.Values[j] = make([]float64, len(col))
		s.Valid[j] = make([]bool, len(col))
		for i, v := range col {
			s.Values[j][i] = v.Float64
			s.Valid[j][i] = v.Valid
		}
	}
	return s
}

func fromSnapshot(s snapshot) *m.Table {
	t := &m.Table{
		Index:   s.Index,
		Columns: s.Columns,
		Values:  make([][]null.Float, len(s.Values)),
	}
	for j := range s.Values {
		t.Values[j] = make([]null.Float, len(s.Values[j]))
		for i, v := range s.Values[j] {
			t.Values[j][i] = null.NewFloat(v, i < len(s.Valid[j]) && s.Valid[j][i])
		}
	}
	return t
}
