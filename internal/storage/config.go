package storage

import (
	"fmt"
	"time"

	"github.com/kyleking/chart-intent/internal/config"
)

// NewDuckDBRepositoryFromConfig creates a new DuckDB repository with settings from config
func NewDuckDBRepositoryFromConfig(cfg *config.DatabaseConfig) (*DuckDBRepository, error) {
	var queryTimeout time.Duration

	if cfg.QueryTimeout != "" {
		d, err := time.ParseDuration(cfg.QueryTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid query_timeout: %w", err)
		}

		queryTimeout = d
	}

	path := cfg.Path
	if path != "" {
		path = config.ExpandPath(path)
	}

	return NewDuckDBRepositoryWithOptions(path, queryTimeout, cfg.MaxConnections)
}
