package intent

import (
	"fmt"
	"slices"

	"github.com/kyleking/chart-intent/internal/types"
)

// Candidate is an unvalidated chart decision
type Candidate struct {
	ChartType   types.ChartType
	Columns     []string
	Title       string
	Description string
}

// Validator turns a candidate into a ChartSpec against the live column set
type Validator struct {
	maxColumns int
}

// NewValidator returns a validator capping specs at maxColumns, clamped like NewColumnSelector
func NewValidator(maxColumns int) *Validator {
	return &Validator{maxColumns: clampColumns(maxColumns)}
}

// Validate keeps the candidate columns present in live, in candidate order.
// It returns nil when no column survives; that is the "no chart" outcome and
// not an error. Missing titles and descriptions are synthesized from the chart
// type and question.
func (v *Validator) Validate(c Candidate, live []string, question string) *types.ChartSpec {
	columns := make([]string, 0, len(c.Columns))

	for _, col := range c.Columns {
		if slices.Contains(live, col) && !slices.Contains(columns, col) {
			columns = append(columns, col)
		}
	}

	if len(columns) == 0 || !c.ChartType.Valid() {
		return nil
	}

	if len(columns) > v.maxColumns {
		columns = columns[:v.maxColumns]
	}

	spec := &types.ChartSpec{
		ChartType:   c.ChartType,
		Columns:     columns,
		Title:       c.Title,
		Description: c.Description,
	}

	if spec.Title == "" {
		spec.Title = DefaultTitle(c.ChartType)
	}

	if spec.Description == "" {
		spec.Description = DefaultDescription(c.ChartType, question)
	}

	return spec
}

// DefaultTitle names a chart after its type
func DefaultTitle(ct types.ChartType) string {
	return fmt.Sprintf("%s Chart Analysis", ct.Title())
}

// DefaultDescription explains which question produced the chart
func DefaultDescription(ct types.ChartType, question string) string {
	return fmt.Sprintf("%s chart generated automatically for the question %q", ct, question)
}
