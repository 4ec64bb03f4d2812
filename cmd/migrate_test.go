package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/storage"
)

func migratedRepo() *MockRepository {
	applied := time.Now().Add(-time.Hour)

	return &MockRepository{migrations: []storage.MigrationStatus{
		{Version: 1, Description: "Inference history", Applied: true, AppliedAt: applied},
		{Version: 2, Description: "Imported dataset catalog", Applied: true, AppliedAt: applied},
	}}
}

func TestRunMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("lists migrations", func(t *testing.T) {
		repo := migratedRepo()

		output, err := captureStdout(t, func() error {
			return runMigrateWithStorage(ctx, -1, repo)
		})
		require.NoError(t, err)

		assert.Contains(t, output, "Inference history")
		assert.Contains(t, output, "Imported dataset catalog")
		assert.NotContains(t, output, "pending")
	})

	t.Run("rolls back above target", func(t *testing.T) {
		repo := migratedRepo()

		output, err := captureStdout(t, func() error {
			return runMigrateWithStorage(ctx, 1, repo)
		})
		require.NoError(t, err)

		assert.True(t, repo.migrations[0].Applied)
		assert.False(t, repo.migrations[1].Applied)
		assert.Contains(t, output, "pending")
	})
}

func TestRunMigrateDuckDB(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewTestDB(t)

	_, err := captureStdout(t, func() error {
		return runMigrateWithStorage(ctx, 0, repo)
	})
	require.NoError(t, err)

	status, err := repo.Migrations(ctx)
	require.NoError(t, err)

	for _, m := range status {
		assert.False(t, m.Applied, m.Description)
	}
}
