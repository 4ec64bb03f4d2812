// Package profile classifies dataset columns into the numeric, categorical and
// temporal groups the chart inference works from.
package profile

import (
	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/lexicon"
	"github.com/kyleking/chart-intent/internal/types"
)

// Profiler builds DatasetSchemas using a lexicon's temporal-name tokens
type Profiler struct {
	lex *lexicon.Lexicon
}

// New returns a profiler. A nil lexicon uses lexicon.Default().
func New(lex *lexicon.Lexicon) *Profiler {
	if lex == nil {
		lex = lexicon.Default()
	}

	return &Profiler{lex: lex}
}

// Profile assigns every column to exactly one group. Temporal wins over
// numeric, numeric over categorical; a date/time kind or a temporal-looking
// name both make a column temporal.
func (p *Profiler) Profile(columns []types.ColumnInfo) types.DatasetSchema {
	schema := types.DatasetSchema{
		Columns:     make([]string, 0, len(columns)),
		Numeric:     []string{},
		Categorical: []string{},
		Temporal:    []string{},
	}

	for _, c := range columns {
		schema.Columns = append(schema.Columns, c.Name)

		switch {
		case c.Kind.Temporal() || p.lex.IsTemporalName(c.Name):
			schema.Temporal = append(schema.Temporal, c.Name)
		case c.Kind.Numeric():
			schema.Numeric = append(schema.Numeric, c.Name)
		default:
			schema.Categorical = append(schema.Categorical, c.Name)
		}
	}

	return schema
}

// ProfileDataset profiles the live columns of ds
func (p *Profiler) ProfileDataset(ds dataset.Dataset) types.DatasetSchema {
	return p.Profile(ds.Columns())
}
