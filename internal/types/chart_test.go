package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChartType(t *testing.T) {
	for _, ct := range ChartTypes {
		parsed, err := ParseChartType(string(ct))
		require.NoError(t, err)
		assert.Equal(t, ct, parsed)
	}

	parsed, err := ParseChartType("  Bar ")
	require.NoError(t, err)
	assert.Equal(t, ChartBar, parsed)

	_, err = ParseChartType("sankey")
	assert.Error(t, err)

	_, err = ParseChartType("")
	assert.Error(t, err)
}

func TestChartTypeStrings(t *testing.T) {
	assert.Equal(t, "undetermined", ChartUndetermined.String())
	assert.Equal(t, "Heatmap", ChartHeatmap.Title())
	assert.False(t, ChartUndetermined.Valid())
	assert.True(t, ChartPie.Valid())
}

func TestChartTypeUnmarshalJSON(t *testing.T) {
	var spec ChartSpec
	require.NoError(t, json.Unmarshal([]byte(`{"chart_type":"LINE","columns":["date"]}`), &spec))
	assert.Equal(t, ChartLine, spec.ChartType)

	assert.Error(t, json.Unmarshal([]byte(`{"chart_type":"radar"}`), &spec))
}

func TestVisualizationHintActionable(t *testing.T) {
	tests := []struct {
		name string
		hint *VisualizationHint
		want bool
	}{
		{"nil", nil, false},
		{"not needed", &VisualizationHint{ChartType: "bar", Columns: []string{"a"}}, false},
		{"missing columns", &VisualizationHint{Needed: true, ChartType: "bar"}, false},
		{"missing type", &VisualizationHint{Needed: true, Columns: []string{"a"}}, false},
		{"unknown type", &VisualizationHint{Needed: true, ChartType: "radar", Columns: []string{"a"}}, false},
		{"complete", &VisualizationHint{Needed: true, ChartType: "pie", Columns: []string{"a"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hint.Actionable())
		})
	}
}

func TestDatasetSchemaLookups(t *testing.T) {
	schema := DatasetSchema{
		Columns:     []string{"date", "region", "sales"},
		Numeric:     []string{"sales"},
		Categorical: []string{"region"},
		Temporal:    []string{"date"},
	}

	assert.True(t, schema.Has("region"))
	assert.False(t, schema.Has("Region"))
	assert.True(t, schema.IsNumeric("sales"))
	assert.True(t, schema.IsCategorical("region"))
	assert.True(t, schema.IsTemporal("date"))
	assert.False(t, schema.IsNumeric("date"))
	assert.True(t, KindFloat.Numeric())
	assert.True(t, KindTimestamp.Temporal())
	assert.False(t, KindText.Numeric())
}
