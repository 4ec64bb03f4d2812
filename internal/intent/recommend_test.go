package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/types"
)

func TestRecommend(t *testing.T) {
	recs := Recommend(salesSchema())

	require.Len(t, recs, 4)

	assert.Equal(t, types.ChartBar, recs[0].ChartType)
	assert.Equal(t, []string{"category", "sales"}, recs[0].Columns)

	assert.Equal(t, types.ChartScatter, recs[1].ChartType)
	assert.Equal(t, []string{"sales", "orders"}, recs[1].Columns)

	assert.Equal(t, types.ChartHistogram, recs[2].ChartType)
	assert.Equal(t, []string{"sales"}, recs[2].Columns)
	assert.Equal(t, "sales distribution", recs[2].Title)

	assert.Equal(t, []string{"orders"}, recs[3].Columns)
}

func TestRecommendSparseSchemas(t *testing.T) {
	assert.Empty(t, Recommend(types.DatasetSchema{}))
	assert.Empty(t, Recommend(types.DatasetSchema{Categorical: []string{"name"}}))

	recs := Recommend(types.DatasetSchema{Numeric: []string{"x"}})
	require.Len(t, recs, 1)
	assert.Equal(t, types.ChartHistogram, recs[0].ChartType)
}

func TestRecommendColumnsBelongToSchema(t *testing.T) {
	schema := salesSchema()

	for _, rec := range Recommend(schema) {
		assert.True(t, rec.ChartType.Valid())
		assert.LessOrEqual(t, len(rec.Columns), DefaultMaxColumns)

		for _, c := range rec.Columns {
			assert.True(t, schema.Has(c), c)
		}
	}
}
