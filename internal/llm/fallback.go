package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kyleking/chart-intent/internal/types"
)

// FallbackService answers without a model. It describes the dataset and
// never asks for a chart, leaving the chart decision to local classification.
type FallbackService struct{}

// NewFallbackService creates a new fallback service
func NewFallbackService() *FallbackService {
	return &FallbackService{}
}

// Configure is a no-op for the fallback service
func (f *FallbackService) Configure(config Config) error {
	return nil
}

// Analyze returns a rule-based description of the dataset
func (f *FallbackService) Analyze(ctx context.Context, question string, data DataContext) (*types.Analysis, error) {
	return &types.Analysis{
		Text:          f.describe(data),
		Visualization: &types.VisualizationHint{Needed: false},
		Structured:    false,
	}, nil
}

func (f *FallbackService) describe(data DataContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "The dataset has %d rows and %d columns.", data.Rows, len(data.Columns))

	if len(data.Numeric) > 0 {
		fmt.Fprintf(&sb, " Numeric columns: %s.", strings.Join(data.Numeric, ", "))
	}

	if len(data.Categorical) > 0 {
		fmt.Fprintf(&sb, " Categorical columns: %s.", strings.Join(data.Categorical, ", "))
	}

	if len(data.Temporal) > 0 {
		fmt.Fprintf(&sb, " Temporal columns: %s.", strings.Join(data.Temporal, ", "))
	}

	if missing := f.missingColumns(data); len(missing) > 0 {
		fmt.Fprintf(&sb, " Columns with missing values: %s.", strings.Join(missing, ", "))
	}

	return sb.String()
}

func (f *FallbackService) missingColumns(data DataContext) []string {
	var cols []string

	for name, n := range data.MissingValues {
		if n > 0 {
			cols = append(cols, fmt.Sprintf("%s (%d)", name, n))
		}
	}

	sort.Strings(cols)

	return cols
}
