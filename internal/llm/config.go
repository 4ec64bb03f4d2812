package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/errors"
)

// providerEnv lists the conventional variables each provider's SDK reads,
// consulted when the application configuration leaves them empty
var providerEnv = map[string]struct{ apiKey, baseURL string }{
	ProviderOpenAI:    {"OPENAI_API_KEY", "OPENAI_BASE_URL"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL"},
	ProviderOllama:    {"", "OLLAMA_BASE_URL"},
	ProviderLocal:     {"", "OLLAMA_BASE_URL"},
}

// ClientConfig converts the application LLM settings into a client
// configuration, filling credentials from the provider's own environment
// variables when unset
func ClientConfig(cfg config.LLMConfig) Config {
	c := Config{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	if names, ok := providerEnv[cfg.Provider]; ok {
		if c.APIKey == "" && names.apiKey != "" {
			c.APIKey = os.Getenv(names.apiKey)
		}

		if c.BaseURL == "" && names.baseURL != "" {
			c.BaseURL = os.Getenv(names.baseURL)
		}
	}

	return c
}

// NewServiceFromConfig builds a manager around the configured provider. A
// provider that cannot be configured, such as one missing its API key, is a
// configuration error.
func NewServiceFromConfig(cfg config.LLMConfig, timeout time.Duration) (*Manager, error) {
	if !cfg.Enabled {
		return nil, errors.New(errors.ErrTypeConfig, "LLM analysis is disabled")
	}

	client := NewClient(Config{})
	if err := client.Configure(ClientConfig(cfg)); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig, fmt.Sprintf("failed to configure %s provider", cfg.Provider)).
			WithSuggestion("Set " + config.EnvPrefix + "LLM_API_KEY or run with --no-llm")
	}

	managerConfig := DefaultManagerConfig()
	managerConfig.DefaultProvider = cfg.Provider
	managerConfig.RetryAttempts = cfg.RetryAttempts
	managerConfig.Timeout = timeout

	manager := NewManager(managerConfig)
	if err := manager.RegisterProvider(cfg.Provider, client); err != nil {
		return nil, err
	}

	return manager, nil
}
