package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/config"
)

func newTestCache(t *testing.T, maxSizeMB int) *FileCache {
	t.Helper()

	c, err := NewFileCache(t.TempDir(), maxSizeMB, time.Hour, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestFileCache_BasicOperations(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "q:sales", []byte("cached analysis"), time.Hour))

	got, err := c.Get(ctx, "q:sales")
	require.NoError(t, err)
	assert.Equal(t, "cached analysis", string(got))

	require.NoError(t, c.Delete(ctx, "q:sales"))

	_, err = c.Get(ctx, "q:sales")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFileCache_TTL(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("x"), 50*time.Millisecond))

	_, err := c.Get(ctx, "short")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFileCache_SizeLimit(t *testing.T) {
	c := newTestCache(t, 1)
	ctx := context.Background()

	large := make([]byte, 512*1024)
	for i := range 3 {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("large%d", i), large, time.Hour))
	}

	size, err := c.Size(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, size, int64(1024*1024))

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(2), stats.TotalEntries)
}

func TestFileCache_RejectsOversizedEntry(t *testing.T) {
	c := newTestCache(t, 1)

	err := c.Set(context.Background(), "huge", make([]byte, 2*1024*1024), time.Hour)
	assert.Error(t, err)
}

func TestFileCache_Stats(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("key-%d", i), []byte(fmt.Sprintf("data-%d", i)), time.Hour))
	}

	for i := range 3 {
		_, err := c.Get(ctx, fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	for i := 10; i < 12; i++ {
		_, err := c.Get(ctx, fmt.Sprintf("key-%d", i))
		require.ErrorIs(t, err, ErrMiss)
	}

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.TotalEntries)
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.InDelta(t, 0.6, stats.HitRate, 1e-9)

	require.NoError(t, c.Clear(ctx))

	stats, err = c.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
	assert.Zero(t, stats.Hits)
}

func TestFileCache_Cleanup(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short1", []byte("data1"), 30*time.Millisecond))
	require.NoError(t, c.Set(ctx, "short2", []byte("data2"), 30*time.Millisecond))
	require.NoError(t, c.Set(ctx, "long", []byte("data3"), time.Hour))

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, c.Cleanup(ctx))

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalEntries)

	_, err = c.Get(ctx, "long")
	assert.NoError(t, err)
}

func TestFileCache_CanceledContext(t *testing.T) {
	c := newTestCache(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), 0), context.Canceled)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONHelpers(t *testing.T) {
	c := newTestCache(t, 10)
	ctx := context.Background()

	type payload struct {
		ChartType string   `json:"chart_type"`
		Columns   []string `json:"columns"`
	}

	in := payload{ChartType: "bar", Columns: []string{"category", "sales"}}
	require.NoError(t, SetJSON(ctx, c, "spec", in, 0))

	var out payload
	require.NoError(t, GetJSON(ctx, c, "spec", &out))
	assert.Equal(t, in, out)

	assert.ErrorIs(t, GetJSON(ctx, c, "missing", &out), ErrMiss)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.CacheConfig{
		Directory:   t.TempDir(),
		MaxSizeMB:   5,
		TTLHours:    1,
		CleanupFreq: "1h",
	}

	c, err := NewFromConfig(cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, time.Hour, c.defaultTTL)

	cfg.CleanupFreq = "soon"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}

func BenchmarkFileCache_Get(b *testing.B) {
	c, err := NewFileCache(b.TempDir(), 100, time.Hour, 0)
	require.NoError(b, err)
	defer c.Close()

	ctx := context.Background()
	data := make([]byte, 1024)

	const numEntries = 100
	for i := range numEntries {
		require.NoError(b, c.Set(ctx, fmt.Sprintf("bench-key-%d", i), data, time.Hour))
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := c.Get(ctx, fmt.Sprintf("bench-key-%d", i%numEntries)); err != nil {
			b.Fatalf("Failed to get cache entry: %v", err)
		}
	}
}
