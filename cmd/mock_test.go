package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/storage"
)

// MockRepository implements storage.Repository for testing
type MockRepository struct {
	records    []storage.InferenceRecord
	tables     []storage.TableInfo
	stats      *storage.Stats
	migrations []storage.MigrationStatus
	cleared    bool
	closed     bool
}

func (m *MockRepository) Initialize(_ context.Context) error {
	return nil
}

func (m *MockRepository) RecordInference(_ context.Context, rec storage.InferenceRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *MockRepository) GetInference(_ context.Context, id string) (*storage.InferenceRecord, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return &rec, nil
		}
	}

	return nil, fmt.Errorf("inference %s: %w", id, storage.ErrNotFound)
}

func (m *MockRepository) ListInferences(_ context.Context, limit, offset int) ([]storage.InferenceRecord, error) {
	start := offset
	if start >= len(m.records) {
		return []storage.InferenceRecord{}, nil
	}

	end := min(start+limit, len(m.records))

	return m.records[start:end], nil
}

func (m *MockRepository) GetStats(_ context.Context) (*storage.Stats, error) {
	if m.stats != nil {
		return m.stats, nil
	}

	return &storage.Stats{TotalInferences: len(m.records)}, nil
}

func (m *MockRepository) Clear(_ context.Context) error {
	m.cleared = true
	m.records = nil
	m.stats = nil

	return nil
}

func (m *MockRepository) Close() error {
	m.closed = true
	return nil
}

func (m *MockRepository) ImportCSV(_ context.Context, table, path string) (*storage.TableInfo, error) {
	frame, err := dataset.ReadCSVFile(path, dataset.CSVOptions{})
	if err != nil {
		return nil, err
	}

	info := storage.TableInfo{Name: table, SourcePath: path, RowCount: int64(frame.Len())}
	m.tables = append(m.tables, info)

	return &info, nil
}

func (m *MockRepository) LoadFrame(_ context.Context, table string, _ int) (*dataset.Frame, error) {
	for _, t := range m.tables {
		if t.Name == table {
			return dataset.ReadCSVFile(t.SourcePath, dataset.CSVOptions{})
		}
	}

	return nil, fmt.Errorf("table %s: %w", table, storage.ErrNotFound)
}

func (m *MockRepository) ListTables(_ context.Context) ([]storage.TableInfo, error) {
	return m.tables, nil
}

func (m *MockRepository) Migrations(_ context.Context) ([]storage.MigrationStatus, error) {
	return m.migrations, nil
}

func (m *MockRepository) RollbackTo(_ context.Context, version int) error {
	if version < 0 {
		return fmt.Errorf("schema version must not be negative: %d", version)
	}

	for i := range m.migrations {
		if m.migrations[i].Version > version {
			m.migrations[i].Applied = false
		}
	}

	return nil
}

// captureStdout runs fn with os.Stdout redirected and returns what it printed
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.String()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = oldStdout

	return <-done, fnErr
}
