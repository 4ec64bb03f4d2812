package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/testutil"
)

func TestRunImport(t *testing.T) {
	ctx := context.Background()

	t.Run("table name from file", func(t *testing.T) {
		repo := &MockRepository{}
		path := testutil.WriteCSV(t, "Sales 2024.csv", testutil.SalesCSV)

		output, err := captureStdout(t, func() error {
			return runImportWithStorage(ctx, path, "", repo)
		})
		require.NoError(t, err)

		require.Len(t, repo.tables, 1)
		assert.Equal(t, "sales_2024", repo.tables[0].Name)
		assert.Contains(t, output, `Imported 4 rows`)
		assert.Contains(t, output, `into table "sales_2024"`)
	})

	t.Run("explicit table name", func(t *testing.T) {
		repo := &MockRepository{}
		path := testutil.WriteCSV(t, "people.csv", testutil.PeopleCSV)

		output, err := captureStdout(t, func() error {
			return runImportWithStorage(ctx, path, "staff", repo)
		})
		require.NoError(t, err)

		assert.Equal(t, "staff", repo.tables[0].Name)
		assert.Contains(t, output, `Imported 3 rows`)
	})

	t.Run("missing file", func(t *testing.T) {
		repo := &MockRepository{}

		err := runImportWithStorage(ctx, filepath.Join(t.TempDir(), "nope.csv"), "", repo)
		require.Error(t, err)
		assert.Empty(t, repo.tables)
	})
}

func TestRunTables(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		output, err := captureStdout(t, func() error {
			return runTablesWithStorage(ctx, &MockRepository{})
		})
		require.NoError(t, err)
		assert.Contains(t, output, "No datasets imported yet.")
	})

	t.Run("lists imported tables", func(t *testing.T) {
		repo := &MockRepository{}
		_, err := repo.ImportCSV(ctx, "people", testutil.WriteCSV(t, "people.csv", testutil.PeopleCSV))
		require.NoError(t, err)

		output, err := captureStdout(t, func() error {
			return runTablesWithStorage(ctx, repo)
		})
		require.NoError(t, err)
		assert.Contains(t, output, "people")
		assert.Contains(t, output, "people.csv")
	})
}
