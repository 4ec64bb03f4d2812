package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/intent"
	"github.com/kyleking/chart-intent/internal/logging"
	"github.com/kyleking/chart-intent/internal/storage"
	"github.com/kyleking/chart-intent/internal/testutil"
	"github.com/kyleking/chart-intent/internal/types"
)

func newTestServer(t *testing.T, store storage.Repository) *Server {
	t.Helper()

	return New(Deps{
		Engine: intent.New(intent.WithLogger(logging.Discard())),
		Store:  store,
		Logger: logging.Discard(),
	})
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, res)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestHandleInferChart(t *testing.T) {
	store := storage.NewTestDB(t)
	s := newTestServer(t, store)
	path := testutil.WriteCSV(t, "sales.csv", testutil.SalesCSV)

	res, err := s.handleInferChart(context.Background(), callTool("infer_chart", map[string]any{
		"file":     path,
		"question": "show the trend of sales over time",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var got inferResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))

	require.NotNil(t, got.Chart)
	assert.Equal(t, types.ChartLine, got.Chart.ChartType)
	assert.Equal(t, []string{"date", "sales"}, got.Chart.Columns)
	assert.Contains(t, got.Response, "📊")

	records, err := store.ListInferences(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, got.ID, records[0].ID)
	assert.Equal(t, "sales.csv", records[0].Dataset)
}

func TestHandleInferChartErrors(t *testing.T) {
	s := newTestServer(t, nil)
	path := testutil.WriteCSV(t, "sales.csv", testutil.SalesCSV)

	res, err := s.handleInferChart(context.Background(), callTool("infer_chart", map[string]any{"file": path}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleInferChart(context.Background(), callTool("infer_chart", map[string]any{
		"file":     "does-not-exist",
		"question": "anything",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleProfileDataset(t *testing.T) {
	s := newTestServer(t, nil)
	path := testutil.WriteCSV(t, "people.csv", testutil.PeopleCSV)

	res, err := s.handleProfileDataset(context.Background(), callTool("profile_dataset", map[string]any{"file": path}))
	require.NoError(t, err)

	var got profileResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))

	assert.Equal(t, "people.csv", got.Name)
	assert.Equal(t, 3, got.Summary.Rows)
	assert.Equal(t, []string{"age", "income"}, got.Schema.Numeric)
	assert.Equal(t, []string{"gender", "city"}, got.Schema.Categorical)
	assert.Empty(t, got.Schema.Temporal)
}

func TestHandleRecommendCharts(t *testing.T) {
	store := storage.NewTestDB(t)
	s := newTestServer(t, store)

	_, err := store.ImportCSV(context.Background(), "people", testutil.WriteCSV(t, "people.csv", testutil.PeopleCSV))
	require.NoError(t, err)

	res, err := s.handleRecommendCharts(context.Background(), callTool("recommend_charts", map[string]any{"file": "people"}))
	require.NoError(t, err)

	var got []types.ChartSpec
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))

	require.NotEmpty(t, got)
	assert.Equal(t, types.ChartBar, got[0].ChartType)
	assert.Equal(t, []string{"gender", "age"}, got[0].Columns)
}
