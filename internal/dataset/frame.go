// Package dataset provides the in-memory tabular view the inference pipeline
// profiles and validates against.
package dataset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kyleking/chart-intent/internal/types"
)

// Dataset is the live tabular data a chart is drawn from
type Dataset interface {
	// Columns returns column descriptors in declared order
	Columns() []types.ColumnInfo
	// ColumnNames returns column names in declared order
	ColumnNames() []string
	// Values returns the raw cell values of a column
	Values(name string) ([]string, bool)
	// Len returns the number of rows
	Len() int
}

type column struct {
	info   types.ColumnInfo
	values []string
}

// Frame is a column-oriented, in-memory Dataset
type Frame struct {
	name    string
	columns []column
	rows    int
}

// NewFrame builds a frame from a header and row-major records, inferring each column's kind
func NewFrame(name string, headers []string, rows [][]string) (*Frame, error) {
	infos := make([]types.ColumnInfo, len(headers))
	for i, h := range headers {
		infos[i] = types.ColumnInfo{Name: h}
	}

	return NewTypedFrame(name, infos, rows)
}

// NewTypedFrame builds a frame whose column kinds are already known. Columns
// with an empty Kind are inferred from their values.
func NewTypedFrame(name string, infos []types.ColumnInfo, rows [][]string) (*Frame, error) {
	seen := make(map[string]bool, len(infos))
	columns := make([]column, len(infos))

	for i, info := range infos {
		info.Name = strings.TrimSpace(info.Name)
		if info.Name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}

		if seen[info.Name] {
			return nil, fmt.Errorf("duplicate column name %q", info.Name)
		}

		seen[info.Name] = true
		columns[i] = column{info: info, values: make([]string, 0, len(rows))}
	}

	for r, row := range rows {
		if len(row) != len(infos) {
			return nil, fmt.Errorf("row %d has %d fields, want %d", r+1, len(row), len(infos))
		}

		for i, v := range row {
			columns[i].values = append(columns[i].values, v)
		}
	}

	for i := range columns {
		if columns[i].info.Kind == "" {
			columns[i].info.Kind = InferKind(columns[i].values)
		}
	}

	return &Frame{name: name, columns: columns, rows: len(rows)}, nil
}

// Name returns the frame's source name
func (f *Frame) Name() string {
	return f.name
}

func (f *Frame) Columns() []types.ColumnInfo {
	out := make([]types.ColumnInfo, len(f.columns))
	for i, c := range f.columns {
		out[i] = c.info
	}

	return out
}

func (f *Frame) ColumnNames() []string {
	out := make([]string, len(f.columns))
	for i, c := range f.columns {
		out[i] = c.info.Name
	}

	return out
}

func (f *Frame) Values(name string) ([]string, bool) {
	for _, c := range f.columns {
		if c.info.Name == name {
			return c.values, true
		}
	}

	return nil, false
}

func (f *Frame) Len() int {
	return f.rows
}

// Drop removes the named columns, returning how many were present
func (f *Frame) Drop(names ...string) int {
	before := len(f.columns)
	f.columns = slices.DeleteFunc(f.columns, func(c column) bool {
		return slices.Contains(names, c.info.Name)
	})

	return before - len(f.columns)
}

// Summary describes a dataset the way analysis providers are told about it
type Summary struct {
	Rows          int               `json:"rows"`
	Columns       int               `json:"columns"`
	ColumnKinds   map[string]string `json:"column_kinds"`
	MissingValues map[string]int    `json:"missing_values"`
}

// Summarize counts rows, columns and empty cells per column
func Summarize(ds Dataset) Summary {
	cols := ds.Columns()
	s := Summary{
		Rows:          ds.Len(),
		Columns:       len(cols),
		ColumnKinds:   make(map[string]string, len(cols)),
		MissingValues: make(map[string]int, len(cols)),
	}

	for _, c := range cols {
		s.ColumnKinds[c.Name] = string(c.Kind)

		values, _ := ds.Values(c.Name)
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				s.MissingValues[c.Name]++
			}
		}
	}

	return s
}
