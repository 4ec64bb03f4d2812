package intent

import (
	"fmt"

	"github.com/kyleking/chart-intent/internal/types"
)

const maxRecommendations = 5

// Recommend suggests charts worth looking at for a schema without any
// question: a bar of the first categorical against the first numeric column,
// a scatter of the first two numeric columns, and a histogram for each of the
// first two numeric columns
func Recommend(schema types.DatasetSchema) []types.ChartSpec {
	var recs []types.ChartSpec

	if len(schema.Categorical) > 0 && len(schema.Numeric) > 0 {
		cat, num := schema.Categorical[0], schema.Numeric[0]
		recs = append(recs, types.ChartSpec{
			ChartType:   types.ChartBar,
			Columns:     []string{cat, num},
			Title:       fmt.Sprintf("%s vs %s", cat, num),
			Description: fmt.Sprintf("Compare %s across %s", num, cat),
		})
	}

	if len(schema.Numeric) >= 2 {
		x, y := schema.Numeric[0], schema.Numeric[1]
		recs = append(recs, types.ChartSpec{
			ChartType:   types.ChartScatter,
			Columns:     []string{x, y},
			Title:       fmt.Sprintf("%s vs %s", x, y),
			Description: fmt.Sprintf("Correlation between %s and %s", x, y),
		})
	}

	for i, col := range schema.Numeric {
		if i == 2 {
			break
		}

		recs = append(recs, types.ChartSpec{
			ChartType:   types.ChartHistogram,
			Columns:     []string{col},
			Title:       fmt.Sprintf("%s distribution", col),
			Description: fmt.Sprintf("Distribution of %s values", col),
		})
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}

	return recs
}
