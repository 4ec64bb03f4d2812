package storage

import (
	"context"
	"time"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/intent"
)

// Repository defines the interface for database operations
type Repository interface {
	Initialize(ctx context.Context) error
	RecordInference(ctx context.Context, rec InferenceRecord) error
	GetInference(ctx context.Context, id string) (*InferenceRecord, error)
	ListInferences(ctx context.Context, limit, offset int) ([]InferenceRecord, error)
	GetStats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error

	// Imported datasets
	ImportCSV(ctx context.Context, table, path string) (*TableInfo, error)
	LoadFrame(ctx context.Context, table string, limit int) (*dataset.Frame, error)
	ListTables(ctx context.Context) ([]TableInfo, error)

	// Schema migrations
	Migrations(ctx context.Context) ([]MigrationStatus, error)
	RollbackTo(ctx context.Context, version int) error
}

// InferenceRecord is one inference as stored in the history table
type InferenceRecord struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Dataset       string    `json:"dataset"`
	Source        string    `json:"source"`
	Candidate     string    `json:"candidate"`
	ChartType     string    `json:"chart_type,omitempty"`
	Columns       []string  `json:"columns"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	ProviderError string    `json:"provider_error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasChart reports whether the inference produced a chart
func (r InferenceRecord) HasChart() bool {
	return r.ChartType != ""
}

// RecordFromResult flattens an inference result for storage
func RecordFromResult(res *intent.Result, datasetName string) InferenceRecord {
	rec := InferenceRecord{
		ID:            res.ID,
		Question:      res.Question,
		Dataset:       datasetName,
		Source:        string(res.Source),
		Candidate:     string(res.Candidate),
		Columns:       []string{},
		ProviderError: res.ProviderError,
		DurationMS:    res.Duration.Milliseconds(),
		CreatedAt:     time.Now().UTC(),
	}

	if res.Spec != nil {
		rec.ChartType = string(res.Spec.ChartType)
		rec.Columns = res.Spec.Columns
		rec.Title = res.Spec.Title
		rec.Description = res.Spec.Description
	}

	return rec
}

// TableInfo describes a dataset imported into the database
type TableInfo struct {
	Name       string    `json:"name"`
	SourcePath string    `json:"source_path"`
	RowCount   int64     `json:"row_count"`
	ImportedAt time.Time `json:"imported_at"`
}

// Stats represents database statistics
type Stats struct {
	TotalInferences    int            `json:"total_inferences"`
	ChartsProduced     int            `json:"charts_produced"`
	NoChart            int            `json:"no_chart"`
	ProviderFailures   int            `json:"provider_failures"`
	ImportedDatasets   int            `json:"imported_datasets"`
	LastInferenceTime  time.Time      `json:"last_inference_time"`
	DatabaseSizeMB     float64        `json:"database_size_mb"`
	SchemaVersion      int            `json:"schema_version"`
	PendingMigrations  int            `json:"pending_migrations"`
	SourceBreakdown    map[string]int `json:"source_breakdown"`
	ChartTypeBreakdown map[string]int `json:"chart_type_breakdown"`
}
