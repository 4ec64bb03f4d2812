package llm

import (
	"context"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/types"
)

// Service defines the interface for LLM operations
type Service interface {
	Analyze(ctx context.Context, question string, data DataContext) (*types.Analysis, error)
	Configure(config Config) error
}

// Config represents LLM service configuration
type Config struct {
	Provider    string            `json:"provider"` // openai, anthropic, ollama, local
	Model       string            `json:"model"`
	APIKey      string            `json:"api_key,omitempty"`
	BaseURL     string            `json:"base_url,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

// DataContext is what the model is told about the dataset
type DataContext struct {
	Name          string            `json:"name,omitempty"`
	Rows          int               `json:"rows"`
	Columns       []string          `json:"columns"`
	ColumnKinds   map[string]string `json:"column_kinds"`
	Numeric       []string          `json:"numeric_columns"`
	Categorical   []string          `json:"categorical_columns"`
	Temporal      []string          `json:"temporal_columns"`
	MissingValues map[string]int    `json:"missing_values"`
}

// NewDataContext summarizes ds and its profiled schema for a prompt
func NewDataContext(name string, ds dataset.Dataset, schema types.DatasetSchema) DataContext {
	summary := dataset.Summarize(ds)

	return DataContext{
		Name:          name,
		Rows:          summary.Rows,
		Columns:       schema.Columns,
		ColumnKinds:   summary.ColumnKinds,
		Numeric:       schema.Numeric,
		Categorical:   schema.Categorical,
		Temporal:      schema.Temporal,
		MissingValues: summary.MissingValues,
	}
}

// Provider constants for different LLM providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderLocal     = "local"
	ProviderOllama    = "ollama"
)

// Model constants for common models
const (
	ModelGPT4oMini = "gpt-4o-mini"
	ModelClaude    = "claude-3-5-haiku-latest"
	ModelLlama     = "llama3.1"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)
