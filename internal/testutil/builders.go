package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaswdr/faker"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/types"
)

// FrameOption is a functional option for configuring test frames
type FrameOption func(*frameSpec)

type frameSpec struct {
	name    string
	rows    int
	columns []types.ColumnInfo
}

// WithName sets the frame name
func WithName(name string) FrameOption {
	return func(s *frameSpec) {
		s.name = name
	}
}

// WithRows sets how many rows the frame gets
func WithRows(n int) FrameOption {
	return func(s *frameSpec) {
		s.rows = n
	}
}

// WithNumeric adds float columns
func WithNumeric(names ...string) FrameOption {
	return withKind(types.KindFloat, names)
}

// WithCategorical adds text columns
func WithCategorical(names ...string) FrameOption {
	return withKind(types.KindText, names)
}

// WithTemporal adds date columns
func WithTemporal(names ...string) FrameOption {
	return withKind(types.KindDate, names)
}

func withKind(kind types.ValueKind, names []string) FrameOption {
	return func(s *frameSpec) {
		for _, n := range names {
			s.columns = append(s.columns, types.ColumnInfo{Name: n, Kind: kind})
		}
	}
}

// NewTestFrame builds a frame with the given columns filled with values matching each column's kind
func NewTestFrame(t testing.TB, opts ...FrameOption) *dataset.Frame {
	t.Helper()

	spec := &frameSpec{name: "test", rows: 3}
	for _, opt := range opts {
		opt(spec)
	}

	rows := make([][]string, spec.rows)
	for r := range rows {
		row := make([]string, len(spec.columns))
		for c, col := range spec.columns {
			row[c] = sampleValue(col.Kind, r)
		}

		rows[r] = row
	}

	frame, err := dataset.NewTypedFrame(spec.name, spec.columns, rows)
	if err != nil {
		t.Fatalf("failed to build test frame: %v", err)
	}

	return frame
}

func sampleValue(kind types.ValueKind, row int) string {
	switch kind {
	case types.KindFloat, types.KindInteger:
		return fmt.Sprintf("%d", (row+1)*10)
	case types.KindDate:
		return fmt.Sprintf("2024-01-%02d", row%28+1)
	case types.KindTimestamp:
		return fmt.Sprintf("2024-01-%02d 12:00:00", row%28+1)
	case types.KindBoolean:
		if row%2 == 0 {
			return "true"
		}

		return "false"
	default:
		return fmt.Sprintf("item%d", row%3)
	}
}

// WriteCSV writes content to name inside a fresh temp directory and returns the path
func WriteCSV(t testing.TB, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}

	return path
}

// SchemaGenerator draws random schemas whose column names never contain one another
type SchemaGenerator struct {
	fake faker.Faker
}

// NewSchemaGenerator returns a generator seeded for reproducible runs
func NewSchemaGenerator(seed int64) *SchemaGenerator {
	return &SchemaGenerator{fake: faker.NewWithSeed(rand.NewSource(seed))}
}

// Intn returns a random int in [min, max]
func (g *SchemaGenerator) Intn(min, max int) int {
	return g.fake.IntBetween(min, max)
}

// Columns returns between min and max random column descriptors. Names are
// prefixed with a unique index so no name is a substring of another.
func (g *SchemaGenerator) Columns(min, max int) []types.ColumnInfo {
	kinds := []types.ValueKind{
		types.KindInteger, types.KindFloat, types.KindText,
		types.KindBoolean, types.KindDate, types.KindTimestamp,
	}

	n := g.fake.IntBetween(min, max)
	cols := make([]types.ColumnInfo, n)

	for i := range cols {
		cols[i] = types.ColumnInfo{
			Name: fmt.Sprintf("c%02d_%s", i, g.fake.Lorem().Word()),
			Kind: kinds[g.fake.IntBetween(0, len(kinds)-1)],
		}
	}

	return cols
}

// Question returns a random sentence of filler words
func (g *SchemaGenerator) Question() string {
	return g.fake.Lorem().Sentence(g.fake.IntBetween(2, 8))
}
