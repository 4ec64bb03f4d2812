package intent

import (
	"slices"
	"strings"

	"github.com/kyleking/chart-intent/internal/lexicon"
	"github.com/kyleking/chart-intent/internal/types"
)

// DefaultMaxColumns is the largest number of columns a chart is built from
const DefaultMaxColumns = 3

// ColumnSelector picks the columns a chart should be drawn from
type ColumnSelector struct {
	maxColumns int
}

// NewColumnSelector returns a selector capped at maxColumns. Values outside
// 1..DefaultMaxColumns become DefaultMaxColumns.
func NewColumnSelector(maxColumns int) *ColumnSelector {
	maxColumns = clampColumns(maxColumns)

	return &ColumnSelector{maxColumns: maxColumns}
}

// Select returns a duplicate-free list of at most maxColumns columns. Columns
// named in the question take precedence over type-driven defaults. The result
// is empty only when the schema has no columns.
func (s *ColumnSelector) Select(question string, chartType types.ChartType, schema types.DatasetSchema) []string {
	selected := Mentioned(question, schema.Columns)

	if len(selected) > 0 {
		if len(selected) < s.maxColumns {
			selected = completeAxes(selected, chartType, schema)
		}
	} else {
		selected = Defaults(chartType, schema)
	}

	if len(selected) == 0 && len(schema.Columns) > 0 {
		selected = []string{schema.Columns[0]}
	}

	selected = dedupe(selected)
	if len(selected) > s.maxColumns {
		selected = selected[:s.maxColumns]
	}

	return selected
}

// Mentioned returns, in declared order, the columns whose name occurs in the
// question. Matching is a plain case-insensitive substring test, so short
// names such as "a" or "id" also match inside unrelated words.
func Mentioned(question string, columns []string) []string {
	q := lexicon.Normalize(question)

	var out []string

	for _, c := range columns {
		if strings.TrimSpace(c) == "" {
			continue
		}

		if strings.Contains(q, lexicon.Normalize(c)) {
			out = append(out, c)
		}
	}

	return out
}

// Defaults returns the type-driven column choice for chartType, or nil when the
// schema lacks the columns that chart type needs
func Defaults(chartType types.ChartType, schema types.DatasetSchema) []string {
	switch chartType {
	case types.ChartBar, types.ChartPie:
		if len(schema.Categorical) > 0 && len(schema.Numeric) > 0 {
			return []string{schema.Categorical[0], schema.Numeric[0]}
		}
	case types.ChartLine:
		if len(schema.Temporal) > 0 && len(schema.Numeric) > 0 {
			return []string{schema.Temporal[0], schema.Numeric[0]}
		}
	case types.ChartScatter:
		if len(schema.Numeric) >= 2 {
			return slices.Clone(schema.Numeric[:2])
		}
	case types.ChartHistogram, types.ChartBox:
		if len(schema.Numeric) > 0 {
			return []string{schema.Numeric[0]}
		}
	case types.ChartHeatmap:
		return slices.Clone(schema.Numeric)
	}

	return nil
}

// completeAxes fills in the missing axis of a line or bar/pie chart when the
// question only named the measured column, e.g. "show sales trend" becomes
// [date, sales]. Mentioned columns keep their relative order.
//
// This is the one exception to mentions replacing the type-driven defaults
// outright: without it a measure-only question would chart a lone column.
// Only the axis column is borrowed; the rest of Defaults stays skipped.
func completeAxes(selected []string, chartType types.ChartType, schema types.DatasetSchema) []string {
	var axis []string

	switch chartType {
	case types.ChartLine:
		axis = schema.Temporal
	case types.ChartBar, types.ChartPie:
		axis = schema.Categorical
	default:
		return selected
	}

	if len(axis) == 0 {
		return selected
	}

	for _, c := range selected {
		if slices.Contains(axis, c) {
			return selected
		}
	}

	return append([]string{axis[0]}, selected...)
}

func clampColumns(n int) int {
	if n <= 0 || n > DefaultMaxColumns {
		return DefaultMaxColumns
	}

	return n
}

func dedupe(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))

	for _, c := range columns {
		if seen[c] {
			continue
		}

		seen[c] = true
		out = append(out, c)
	}

	return out
}
