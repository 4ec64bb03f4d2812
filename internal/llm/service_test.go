package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/cache"
	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/errors"
	"github.com/kyleking/chart-intent/internal/types"
)

func newTestFileCache(t *testing.T) *cache.FileCache {
	t.Helper()

	c, err := cache.NewFileCache(t.TempDir(), 10, time.Hour, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestCachedService(t *testing.T) {
	stub := &stubService{text: "from model"}
	svc := NewCachedService(stub, newTestFileCache(t), 0)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, "which category?", testDataContext())
	require.NoError(t, err)

	second, err := svc.Analyze(ctx, " which category? ", testDataContext())
	require.NoError(t, err)

	assert.Equal(t, int32(1), stub.calls.Load())
	assert.Equal(t, first, second)

	other := testDataContext()
	other.Rows = 5

	_, err = svc.Analyze(ctx, "which category?", other)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestCachedServiceSkipsUnstructured(t *testing.T) {
	svc := NewCachedService(NewFallbackService(), newTestFileCache(t), 0)
	c := svc.cache

	_, err := svc.Analyze(context.Background(), "q", testDataContext())
	require.NoError(t, err)

	stats, err := c.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
}

func TestCachedServicePropagatesErrors(t *testing.T) {
	svc := NewCachedService(&stubService{failures: 1}, newTestFileCache(t), 0)

	_, err := svc.Analyze(context.Background(), "q", testDataContext())
	assert.Error(t, err)
}

func TestAsProvider(t *testing.T) {
	frame, err := dataset.NewFrame("sales.csv",
		[]string{"category", "sales"},
		[][]string{{"tools", "10"}, {"toys", ""}})
	require.NoError(t, err)

	schema := types.DatasetSchema{
		Columns:     []string{"category", "sales"},
		Numeric:     []string{"sales"},
		Categorical: []string{"category"},
	}

	var seen DataContext
	svc := serviceFunc(func(_ context.Context, _ string, data DataContext) (*types.Analysis, error) {
		seen = data
		return &types.Analysis{Text: "ok"}, nil
	})

	a, err := AsProvider(svc, "sales.csv").Analyze(context.Background(), "q", frame, schema)
	require.NoError(t, err)
	assert.Equal(t, "ok", a.Text)

	assert.Equal(t, "sales.csv", seen.Name)
	assert.Equal(t, 2, seen.Rows)
	assert.Equal(t, []string{"sales"}, seen.Numeric)
	assert.Equal(t, 1, seen.MissingValues["sales"])
	assert.Equal(t, "text", seen.ColumnKinds["category"])
}

type serviceFunc func(ctx context.Context, question string, data DataContext) (*types.Analysis, error)

func (f serviceFunc) Analyze(ctx context.Context, question string, data DataContext) (*types.Analysis, error) {
	return f(ctx, question, data)
}

func (f serviceFunc) Configure(Config) error { return nil }

func TestClientConfigReadsProviderEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	cfg := config.DefaultConfig().LLM
	cfg.Provider = ProviderAnthropic

	assert.Equal(t, "from-env", ClientConfig(cfg).APIKey)

	cfg.APIKey = "explicit"
	assert.Equal(t, "explicit", ClientConfig(cfg).APIKey)
}

func TestNewServiceFromConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := config.DefaultConfig().LLM

	_, err := NewServiceFromConfig(cfg, time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

	cfg.APIKey = "k"
	m, err := NewServiceFromConfig(cfg, time.Second)
	require.NoError(t, err)
	assert.True(t, m.IsProviderRegistered(ProviderOpenAI))
	assert.Equal(t, time.Second, m.config.Timeout)

	cfg.Enabled = false
	_, err = NewServiceFromConfig(cfg, time.Second)
	assert.Error(t, err)
}

func TestAsProviderUsesDatasetName(t *testing.T) {
	frame, err := dataset.NewFrame("orders.csv", []string{"a"}, [][]string{{"1"}})
	require.NoError(t, err)

	var seen string
	svc := serviceFunc(func(_ context.Context, _ string, data DataContext) (*types.Analysis, error) {
		seen = data.Name
		return &types.Analysis{}, nil
	})

	_, err = AsProvider(svc, "").Analyze(context.Background(), "q", frame, types.DatasetSchema{Columns: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", seen)
}
