package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/kyleking/chart-intent/internal/dataset"
	apperrors "github.com/kyleking/chart-intent/internal/errors"
	"github.com/kyleking/chart-intent/internal/types"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DuckDBRepository implements the Repository interface using DuckDB
type DuckDBRepository struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// NewDuckDBRepository creates a new DuckDB repository instance with connection pooling
func NewDuckDBRepository(dbPath string) (*DuckDBRepository, error) {
	return NewDuckDBRepositoryWithOptions(dbPath, 0, 10)
}

// NewDuckDBRepositoryWithOptions creates a repository whose operations are
// bounded by queryTimeout (zero for none) and whose pool holds maxConns connections
func NewDuckDBRepositoryWithOptions(dbPath string, queryTimeout time.Duration, maxConns int) (*DuckDBRepository, error) {
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 10
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(max(1, maxConns/2))
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DuckDBRepository{
		db:           db,
		path:         dbPath,
		queryTimeout: queryTimeout,
	}, nil
}

func (r *DuckDBRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, r.queryTimeout)
}

// Initialize creates the database schema using migrations
func (r *DuckDBRepository) Initialize(ctx context.Context) error {
	return NewMigrationManager(r.db).MigrateUp(ctx)
}

// RecordInference stores one inference in the history table
func (r *DuckDBRepository) RecordInference(ctx context.Context, rec InferenceRecord) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if rec.ID == "" {
		return fmt.Errorf("inference record has no id")
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	columns := rec.Columns
	if columns == nil {
		columns = []string{}
	}

	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
	INSERT INTO inferences (
		id, question, dataset, source, candidate, chart_type, columns,
		title, description, provider_error, duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Question, rec.Dataset, rec.Source, rec.Candidate,
		nullIfEmpty(rec.ChartType), string(columnsJSON),
		rec.Title, rec.Description, rec.ProviderError, rec.DurationMS, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record inference: %w", err)
	}

	return nil
}

const inferenceColumns = `id, question, dataset, source, candidate, chart_type, columns,
	title, description, provider_error, duration_ms, created_at`

// GetInference returns a single inference by id
func (r *DuckDBRepository) GetInference(ctx context.Context, id string) (*InferenceRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, "SELECT "+inferenceColumns+" FROM inferences WHERE id = ?", id)

	rec, err := scanInference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrapf(ErrNotFound, apperrors.ErrTypeNotFound, "inference %s", id).
			WithSuggestion("Run 'chart-intent history' to list stored inferences")
	}

	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListInferences returns stored inferences, newest first
func (r *DuckDBRepository) ListInferences(ctx context.Context, limit, offset int) ([]InferenceRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+inferenceColumns+" FROM inferences ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		limit, max(0, offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list inferences: %w", err)
	}
	defer rows.Close()

	var records []InferenceRecord

	for rows.Next() {
		rec, err := scanInference(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, *rec)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInference(row rowScanner) (*InferenceRecord, error) {
	var (
		rec                                 InferenceRecord
		datasetName, candidate, chartType   sql.NullString
		columns, title, description, failed sql.NullString
		durationMS                          sql.NullInt64
	)

	err := row.Scan(&rec.ID, &rec.Question, &datasetName, &rec.Source, &candidate, &chartType, &columns,
		&title, &description, &failed, &durationMS, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan inference: %w", err)
	}

	rec.Dataset = datasetName.String
	rec.Candidate = candidate.String
	rec.ChartType = chartType.String
	rec.Title = title.String
	rec.Description = description.String
	rec.ProviderError = failed.String
	rec.DurationMS = durationMS.Int64
	rec.Columns = []string{}

	if columns.Valid && columns.String != "" {
		if err := json.Unmarshal([]byte(columns.String), &rec.Columns); err != nil {
			return nil, fmt.Errorf("failed to decode columns of inference %s: %w", rec.ID, err)
		}
	}

	return &rec, nil
}

// GetStats returns database statistics
func (r *DuckDBRepository) GetStats(ctx context.Context) (*Stats, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	stats := &Stats{
		SourceBreakdown:    make(map[string]int),
		ChartTypeBreakdown: make(map[string]int),
	}

	err := r.db.QueryRowContext(ctx, `
	SELECT
		COUNT(*),
		COUNT(chart_type),
		COUNT(*) FILTER (WHERE provider_error IS NOT NULL AND provider_error <> '')
	FROM inferences`).Scan(&stats.TotalInferences, &stats.ChartsProduced, &stats.ProviderFailures)
	if err != nil {
		return nil, fmt.Errorf("failed to count inferences: %w", err)
	}

	stats.NoChart = stats.TotalInferences - stats.ChartsProduced

	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(created_at) FROM inferences").Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to get last inference time: %w", err)
	}

	if last.Valid {
		stats.LastInferenceTime = last.Time
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM datasets").Scan(&stats.ImportedDatasets); err != nil {
		return nil, fmt.Errorf("failed to count datasets: %w", err)
	}

	if err := r.breakdown(ctx, "source", stats.SourceBreakdown); err != nil {
		return nil, err
	}

	if err := r.breakdown(ctx, "chart_type", stats.ChartTypeBreakdown); err != nil {
		return nil, err
	}

	migrations, err := NewMigrationManager(r.db).GetMigrationStatus(ctx)
	if err != nil {
		return nil, err
	}

	for _, m := range migrations {
		if m.Applied {
			stats.SchemaVersion = max(stats.SchemaVersion, m.Version)
		} else {
			stats.PendingMigrations++
		}
	}

	if r.path != "" {
		if info, err := os.Stat(r.path); err == nil {
			stats.DatabaseSizeMB = float64(info.Size()) / (1024 * 1024)
		}
	}

	return stats, nil
}

// breakdown counts inferences per value of column; column is a trusted constant
func (r *DuckDBRepository) breakdown(ctx context.Context, column string, into map[string]int) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %[1]s, COUNT(*) FROM inferences WHERE %[1]s IS NOT NULL GROUP BY %[1]s", column))
	if err != nil {
		return fmt.Errorf("failed to get %s breakdown: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)

		if err := rows.Scan(&key, &count); err != nil {
			return err
		}

		into[key] = count
	}

	return rows.Err()
}

// Clear removes the inference history. Imported datasets are kept.
func (r *DuckDBRepository) Clear(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM inferences"); err != nil {
		return fmt.Errorf("failed to clear inferences: %w", err)
	}

	return nil
}

// Migrations reports every known schema migration and whether it is applied
func (r *DuckDBRepository) Migrations(ctx context.Context) ([]MigrationStatus, error) {
	return NewMigrationManager(r.db).GetMigrationStatus(ctx)
}

// RollbackTo undoes applied migrations above version, newest first. Version 0
// drops the whole schema; the next Initialize reapplies it.
func (r *DuckDBRepository) RollbackTo(ctx context.Context, version int) error {
	if version < 0 {
		return fmt.Errorf("schema version must not be negative: %d", version)
	}

	return NewMigrationManager(r.db).MigrateDown(ctx, version)
}

// TableNameFromPath derives a table name from a file name
func TableNameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var sb strings.Builder

	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	name := sb.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "t_" + name
	}

	return name
}

func quoteIdentifier(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", apperrors.Newf(apperrors.ErrTypeValidation, "invalid table name %q", name).
			WithSuggestion("Use letters, digits and underscores only")
	}

	return `"` + name + `"`, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ImportCSV loads a delimited file into table, replacing any previous import
func (r *DuckDBRepository) ImportCSV(ctx context.Context, table, path string) (*TableInfo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	quoted, err := quoteIdentifier(table)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewDatasetError(err, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	createSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s, header = true)",
		quoted, quoteLiteral(abs))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return nil, apperrors.NewDatasetError(err, path)
	}

	info := &TableInfo{Name: table, SourcePath: abs, ImportedAt: time.Now().UTC()}
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoted).Scan(&info.RowCount); err != nil {
		return nil, fmt.Errorf("failed to count imported rows: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO datasets (name, source_path, row_count, imported_at) VALUES (?, ?, ?, ?)",
		info.Name, info.SourcePath, info.RowCount, info.ImportedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record dataset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	return info, nil
}

// LoadFrame reads up to limit rows of table into memory, typing columns from
// the table's declared SQL types. A non-positive limit reads every row.
func (r *DuckDBRepository) LoadFrame(ctx context.Context, table string, limit int) (*dataset.Frame, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	quoted, err := quoteIdentifier(table)
	if err != nil {
		return nil, err
	}

	infos, err := r.describe(ctx, table)
	if err != nil {
		return nil, err
	}

	if len(infos) == 0 {
		return nil, apperrors.Newf(apperrors.ErrTypeNotFound, "table %q does not exist", table).
			WithSuggestion("Run 'chart-intent import' first or check 'chart-intent tables'")
	}

	selects := make([]string, len(infos))
	for i, info := range infos {
		selects[i] = fmt.Sprintf(`CAST("%s" AS VARCHAR)`, strings.ReplaceAll(info.Name, `"`, `""`))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), quoted)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	var records [][]string

	cells := make([]sql.NullString, len(infos))
	dest := make([]any, len(infos))

	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make([]string, len(cells))
		for i, c := range cells {
			record[i] = c.String
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dataset.NewTypedFrame(table, infos, records)
}

func (r *DuckDBRepository) describe(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT column_name, data_type
	FROM information_schema.columns
	WHERE table_name = ?
	ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer rows.Close()

	var infos []types.ColumnInfo

	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		infos = append(infos, types.ColumnInfo{Name: name, Kind: dataset.KindFromSQL(dataType)})
	}

	return infos, rows.Err()
}

// ListTables returns the imported datasets in name order
func (r *DuckDBRepository) ListTables(ctx context.Context) ([]TableInfo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		"SELECT name, source_path, row_count, imported_at FROM datasets ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var tables []TableInfo

	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.Name, &t.SourcePath, &t.RowCount, &t.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}

		tables = append(tables, t)
	}

	return tables, rows.Err()
}

// Close closes the database connection
func (r *DuckDBRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}

	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}
