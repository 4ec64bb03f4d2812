package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kyleking/chart-intent/internal/logging"
	"github.com/kyleking/chart-intent/internal/types"
)

// Manager handles multiple LLM providers with fallback strategies
type Manager struct {
	providers map[string]Service
	fallback  Service
	config    ManagerConfig
	logger    *logging.Logger
}

// ManagerConfig configures the LLM manager behavior
type ManagerConfig struct {
	DefaultProvider   string        `json:"default_provider"`
	FallbackProviders []string      `json:"fallback_providers"`
	RetryAttempts     int           `json:"retry_attempts"`
	RetryDelay        time.Duration `json:"retry_delay"`
	Timeout           time.Duration `json:"timeout"`
	EnableFallback    bool          `json:"enable_fallback"`
}

// NewManager creates a new LLM manager with the given configuration
func NewManager(config ManagerConfig) *Manager {
	return &Manager{
		providers: make(map[string]Service),
		fallback:  NewFallbackService(),
		config:    config,
		logger:    logging.GetLogger(),
	}
}

// SetLogger replaces the logger used to report provider failures
func (m *Manager) SetLogger(l *logging.Logger) {
	if l != nil {
		m.logger = l
	}
}

// RegisterProvider registers a new LLM provider
func (m *Manager) RegisterProvider(name string, service Service) error {
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	if service == nil {
		return errors.New("service cannot be nil")
	}

	m.providers[name] = service

	return nil
}

// Configure configures a specific provider
func (m *Manager) Configure(config Config) error {
	if !m.IsProviderRegistered(config.Provider) {
		return fmt.Errorf("provider %s not registered", config.Provider)
	}

	return m.providers[config.Provider].Configure(config)
}

// Analyze runs the question through the default provider, then each fallback
// provider, and finally the rule-based fallback when enabled
func (m *Manager) Analyze(ctx context.Context, question string, data DataContext) (*types.Analysis, error) {
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}

	var lastErr error

	for _, name := range m.providerOrder() {
		provider, exists := m.providers[name]
		if !exists {
			continue
		}

		analysis, err := m.tryProviderAnalyze(ctx, provider, question, data)
		if err == nil {
			return analysis, nil
		}

		lastErr = err
		m.logger.WithField("provider", name).WithError(err).Warn("LLM provider failed")

		if ctx.Err() != nil {
			break
		}
	}

	if m.config.EnableFallback {
		m.logger.Debug("using rule-based fallback for analysis")
		return m.fallback.Analyze(ctx, question, data)
	}

	if lastErr == nil {
		return nil, errors.New("no LLM provider registered and fallback is disabled")
	}

	return nil, fmt.Errorf("all LLM providers failed and fallback is disabled: %w", lastErr)
}

func (m *Manager) providerOrder() []string {
	order := make([]string, 0, len(m.config.FallbackProviders)+1)
	if m.config.DefaultProvider != "" {
		order = append(order, m.config.DefaultProvider)
	}

	for _, name := range m.config.FallbackProviders {
		if name != m.config.DefaultProvider {
			order = append(order, name)
		}
	}

	return order
}

// tryProviderAnalyze attempts to use a provider with retries
func (m *Manager) tryProviderAnalyze(ctx context.Context, provider Service, question string, data DataContext) (*types.Analysis, error) {
	var lastErr error

	for attempt := 0; attempt <= m.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.config.RetryDelay):
			}
		}

		analysis, err := provider.Analyze(ctx, question, data)
		if err == nil {
			return analysis, nil
		}

		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("provider failed after %d attempts: %w", m.config.RetryAttempts+1, lastErr)
}

// GetAvailableProviders returns the registered provider names in sorted order
func (m *Manager) GetAvailableProviders() []string {
	providers := make([]string, 0, len(m.providers))
	for name := range m.providers {
		providers = append(providers, name)
	}

	sort.Strings(providers)

	return providers
}

// IsProviderRegistered checks if a provider is registered
func (m *Manager) IsProviderRegistered(name string) bool {
	_, exists := m.providers[name]
	return exists
}

// DefaultManagerConfig returns the default configuration. Retries are off so
// a failing provider costs the caller a single round trip.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		DefaultProvider:   ProviderOpenAI,
		FallbackProviders: nil,
		RetryAttempts:     0,
		RetryDelay:        time.Second,
		Timeout:           30 * time.Second,
		EnableFallback:    true,
	}
}
