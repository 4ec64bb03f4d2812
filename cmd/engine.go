package cmd

import (
	"time"

	"github.com/kyleking/chart-intent/internal/cache"
	"github.com/kyleking/chart-intent/internal/config"
	"github.com/kyleking/chart-intent/internal/intent"
	"github.com/kyleking/chart-intent/internal/lexicon"
	"github.com/kyleking/chart-intent/internal/llm"
	"github.com/kyleking/chart-intent/internal/logging"
)

// buildEngine assembles the inference engine from configuration. The LLM
// provider is optional: when it cannot be set up the engine runs on local
// rules alone. The returned cleanup closes the provider's cache.
func buildEngine(cfg *config.Config) (*intent.Engine, func(), error) {
	lex, err := lexicon.LoadOrDefault(config.ExpandPath(cfg.Inference.LexiconFile))
	if err != nil {
		return nil, nil, err
	}

	opts := []intent.Option{
		intent.WithLexicon(lex),
		intent.WithMaxColumns(cfg.Inference.MaxColumns),
		intent.WithLogger(logging.GetLogger()),
	}

	cleanup := func() {}

	if cfg.LLM.Enabled {
		svc, closeCache, err := newAnalysisService(cfg)
		if err != nil {
			logging.GetLogger().WithError(err).Warn("LLM provider unavailable, using local rules only")
		} else {
			cleanup = closeCache
			opts = append(opts,
				intent.WithProvider(llm.AsProvider(svc, "")),
				intent.WithProviderTimeout(cfg.LLMTimeout()))
		}
	}

	return intent.New(opts...), cleanup, nil
}

// newAnalysisService builds the provider manager, wrapped in the response
// cache when caching is enabled
func newAnalysisService(cfg *config.Config) (llm.Service, func(), error) {
	manager, err := llm.NewServiceFromConfig(cfg.LLM, cfg.LLMTimeout())
	if err != nil {
		return nil, nil, err
	}

	manager.SetLogger(logging.GetLogger().WithField("component", "llm"))

	if !cfg.Cache.Enabled {
		return manager, func() {}, nil
	}

	c, err := cache.NewFromConfig(cfg.Cache)
	if err != nil {
		logging.GetLogger().WithError(err).Warn("analysis cache unavailable")
		return manager, func() {}, nil
	}

	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour

	return llm.NewCachedService(manager, c, ttl), func() { _ = c.Close() }, nil
}
