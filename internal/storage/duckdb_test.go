package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/errors"
	"github.com/kyleking/chart-intent/internal/intent"
	"github.com/kyleking/chart-intent/internal/testutil"
	"github.com/kyleking/chart-intent/internal/types"
)

func sampleRecord(id string, created time.Time) InferenceRecord {
	return InferenceRecord{
		ID:          id,
		Question:    "compare sales by category",
		Dataset:     "sales",
		Source:      string(intent.SourcePhrase),
		Candidate:   "bar",
		ChartType:   "bar",
		Columns:     []string{"category", "sales"},
		Title:       "Bar Chart: compare sales by category",
		Description: "Bar chart of sales by category",
		DurationMS:  3,
		CreatedAt:   created,
	}
}

func TestDuckDBRepository_Initialize(t *testing.T) {
	repo := NewTestDB(t)

	for _, table := range []string{"inferences", "datasets"} {
		var count int
		err := repo.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		require.NoError(t, err, table)
		assert.Zero(t, count, table)
	}

	var applied int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, NewMigrationManager(repo.db).LatestVersion(), applied)

	// Running the migrations again is a no-op
	require.NoError(t, repo.Initialize(context.Background()))
}

func TestDuckDBRepository_RecordAndGet(t *testing.T) {
	repo := NewTestDB(t)
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord("r1", created)

	require.NoError(t, repo.RecordInference(ctx, rec))

	got, err := repo.GetInference(ctx, "r1")
	require.NoError(t, err)

	assert.Equal(t, rec.Question, got.Question)
	assert.Equal(t, rec.Columns, got.Columns)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, "phrase", got.Source)
	assert.True(t, got.HasChart())
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestDuckDBRepository_RecordWithoutChart(t *testing.T) {
	repo := NewTestDB(t)
	ctx := context.Background()

	rec := InferenceRecord{
		ID:            "none",
		Question:      "what is this?",
		Source:        string(intent.SourceDefault),
		ProviderError: "rate limited",
	}
	require.NoError(t, repo.RecordInference(ctx, rec))

	got, err := repo.GetInference(ctx, "none")
	require.NoError(t, err)

	assert.False(t, got.HasChart())
	assert.Empty(t, got.Columns)
	assert.Equal(t, "rate limited", got.ProviderError)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestDuckDBRepository_RecordRequiresID(t *testing.T) {
	repo := NewTestDB(t)

	assert.Error(t, repo.RecordInference(context.Background(), InferenceRecord{Question: "q"}))
}

func TestDuckDBRepository_GetInferenceNotFound(t *testing.T) {
	repo := NewTestDB(t)

	_, err := repo.GetInference(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestDuckDBRepository_ListInferences(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var records []InferenceRecord
	for i := range 5 {
		records = append(records, sampleRecord(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Hour)))
	}

	repo := NewTestDBWithRecords(t, records)
	ctx := context.Background()

	got, err := repo.ListInferences(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r4", got[0].ID)
	assert.Equal(t, "r3", got[1].ID)

	got, err = repo.ListInferences(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "r0", got[1].ID)

	got, err = repo.ListInferences(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestDuckDBRepository_StatsAndClear(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	scatter := sampleRecord("s", now)
	scatter.ChartType = "scatter"
	scatter.Source = string(intent.SourceKeyword)

	empty := InferenceRecord{ID: "e", Question: "q", Source: string(intent.SourceDefault), ProviderError: "boom", CreatedAt: now}

	repo := NewTestDBWithRecords(t, []InferenceRecord{sampleRecord("b", now.Add(-time.Minute)), scatter, empty})
	ctx := context.Background()

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalInferences)
	assert.Equal(t, 2, stats.ChartsProduced)
	assert.Equal(t, 1, stats.NoChart)
	assert.Equal(t, 1, stats.ProviderFailures)
	assert.Equal(t, map[string]int{"bar": 1, "scatter": 1}, stats.ChartTypeBreakdown)
	assert.Equal(t, map[string]int{"phrase": 1, "keyword": 1, "default": 1}, stats.SourceBreakdown)
	assert.True(t, stats.LastInferenceTime.Equal(now))
	assert.Greater(t, stats.DatabaseSizeMB, 0.0)
	assert.Equal(t, NewMigrationManager(repo.db).LatestVersion(), stats.SchemaVersion)
	assert.Zero(t, stats.PendingMigrations)

	require.NoError(t, repo.Clear(ctx))

	stats, err = repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalInferences)
	assert.True(t, stats.LastInferenceTime.IsZero())
}

func TestDuckDBRepository_MigrationsAndRollback(t *testing.T) {
	repo := NewTestDB(t)
	ctx := context.Background()

	status, err := repo.Migrations(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)

	for _, m := range status {
		assert.True(t, m.Applied, m.Description)
	}

	require.NoError(t, repo.RollbackTo(ctx, 1))

	status, err = repo.Migrations(ctx)
	require.NoError(t, err)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied)

	_, err = repo.ListTables(ctx)
	require.Error(t, err, "datasets table is dropped with migration 2")

	require.Error(t, repo.RollbackTo(ctx, -1))

	// Initialize brings the schema back up to date
	require.NoError(t, repo.Initialize(ctx))

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SchemaVersion)
	assert.Zero(t, stats.PendingMigrations)
}

func TestDuckDBRepository_ImportCSV(t *testing.T) {
	repo := NewTestDB(t)
	ctx := context.Background()
	path := testutil.WriteCSV(t, "sales.csv", testutil.SalesCSV)

	info, err := repo.ImportCSV(ctx, "sales", path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.RowCount)
	assert.Equal(t, "sales", info.Name)

	// Re-importing replaces the table rather than appending
	_, err = repo.ImportCSV(ctx, "sales", path)
	require.NoError(t, err)

	tables, err := repo.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, int64(4), tables[0].RowCount)

	frame, err := repo.LoadFrame(ctx, "sales", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Len())
	assert.Equal(t, []string{"date", "category", "sales", "orders"}, frame.ColumnNames())

	kinds := map[string]types.ValueKind{}
	for _, c := range frame.Columns() {
		kinds[c.Name] = c.Kind
	}

	assert.Equal(t, types.KindDate, kinds["date"])
	assert.Equal(t, types.KindText, kinds["category"])
	assert.True(t, kinds["sales"].Numeric())
	assert.True(t, kinds["orders"].Numeric())

	values, ok := frame.Values("category")
	require.True(t, ok)
	assert.Equal(t, []string{"tools", "toys", "tools", "garden"}, values)

	limited, err := repo.LoadFrame(ctx, "sales", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, limited.Len())
}

func TestDuckDBRepository_ImportCSVErrors(t *testing.T) {
	repo := NewTestDB(t)
	ctx := context.Background()

	_, err := repo.ImportCSV(ctx, `bad"name`, testutil.WriteCSV(t, "a.csv", testutil.SalesCSV))
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = repo.ImportCSV(ctx, "missing", filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, errors.IsType(err, errors.ErrTypeDataset))

	_, err = repo.LoadFrame(ctx, "never_imported", 0)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestTableNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/sales.csv", "sales"},
		{"/tmp/Q1 Report-2024.tsv", "q1_report_2024"},
		{"2024.csv", "t_2024"},
		{"weird", "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, TableNameFromPath(tt.path))
		})
	}
}

func TestRecordFromResult(t *testing.T) {
	res := &intent.Result{
		ID:        "id",
		Question:  "q",
		Source:    intent.SourceKeyword,
		Candidate: types.ChartLine,
		Spec: &types.ChartSpec{
			ChartType: types.ChartLine,
			Columns:   []string{"date", "sales"},
			Title:     "t",
		},
		Duration: 1500 * time.Microsecond,
	}

	rec := RecordFromResult(res, "sales")
	assert.Equal(t, "line", rec.ChartType)
	assert.Equal(t, "keyword", rec.Source)
	assert.Equal(t, "sales", rec.Dataset)
	assert.Equal(t, int64(1), rec.DurationMS)

	res.Spec = nil
	assert.False(t, RecordFromResult(res, "sales").HasChart())
}

func TestDuckDBRepository_ConcurrentWrites(t *testing.T) {
	repo := NewTestDB(t)
	ctx := context.Background()

	testutil.RunConcurrent(t, 8, func(workerID int) {
		rec := sampleRecord(fmt.Sprintf("w%d", workerID), time.Now().UTC())
		if err := repo.RecordInference(ctx, rec); err != nil {
			t.Errorf("worker %d: %v", workerID, err)
		}
	})

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalInferences)
}

func TestNewDuckDBRepositoryFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.Path = filepath.Join(t.TempDir(), "nested", "history.db")

	repo, err := NewDuckDBRepositoryFromConfig(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	assert.Equal(t, 30*time.Second, repo.queryTimeout)
	require.NoError(t, repo.Initialize(context.Background()))

	cfg.QueryTimeout = "soon"
	_, err = NewDuckDBRepositoryFromConfig(&cfg)
	assert.Error(t, err)
}

func TestLoadDataset(t *testing.T) {
	repo := NewTestDB(t)
	ctx := context.Background()
	path := testutil.WriteCSV(t, "people.csv", testutil.PeopleCSV)

	frame, err := LoadDataset(ctx, nil, path, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, frame.Len())

	_, err = repo.ImportCSV(ctx, "people", path)
	require.NoError(t, err)

	frame, err = LoadDataset(ctx, repo, "people", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Len())

	_, err = LoadDataset(ctx, nil, "people", 0)
	assert.True(t, errors.IsType(err, errors.ErrTypeDataset))

	_, err = LoadDataset(ctx, repo, "", 0)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}
