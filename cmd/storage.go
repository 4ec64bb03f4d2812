package cmd

import (
	"context"
	"fmt"

	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/storage"
)

// initializeStorage opens the history database and applies pending migrations
func initializeStorage(ctx context.Context, cfg *config.Config) (storage.Repository, error) {
	repo, err := storage.NewDuckDBRepositoryFromConfig(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	if err := repo.Initialize(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}
