package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/types"
)

// MockProvider is a testify mock of an external analysis provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Analyze(ctx context.Context, question string, ds dataset.Dataset, schema types.DatasetSchema) (*types.Analysis, error) {
	args := m.Called(ctx, question, ds, schema)

	analysis, _ := args.Get(0).(*types.Analysis)

	return analysis, args.Error(1)
}

// BlockingProvider waits for its context to end and returns the context error
type BlockingProvider struct{}

func (BlockingProvider) Analyze(ctx context.Context, _ string, _ dataset.Dataset, _ types.DatasetSchema) (*types.Analysis, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// StaticProvider always returns the same analysis
type StaticProvider struct {
	Analysis *types.Analysis
}

func (p StaticProvider) Analyze(_ context.Context, _ string, _ dataset.Dataset, _ types.DatasetSchema) (*types.Analysis, error) {
	return p.Analysis, nil
}
