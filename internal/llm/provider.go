package llm

import (
	"context"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/types"
)

// Provider adapts a Service to the inference engine's provider interface
type Provider struct {
	svc  Service
	name string
}

// AsProvider wraps svc. A non-empty name identifies the dataset in prompts;
// otherwise the dataset's own name is used when it has one.
func AsProvider(svc Service, name string) *Provider {
	return &Provider{svc: svc, name: name}
}

// Analyze describes ds to the service and returns its analysis
func (p *Provider) Analyze(ctx context.Context, question string, ds dataset.Dataset, schema types.DatasetSchema) (*types.Analysis, error) {
	name := p.name
	if named, ok := ds.(interface{ Name() string }); ok && name == "" {
		name = named.Name()
	}

	return p.svc.Analyze(ctx, question, NewDataContext(name, ds, schema))
}
