package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/adapters/bedrock"
	"github.com/kekzl/mailcow-ai-filter/internal/adapters/cache"
	"github.com/kekzl/mailcow-ai-filter/internal/adapters/gemini"
	"github.com/kekzl/mailcow-ai-filter/internal/adapters/ollama"
	"github.com/kekzl/mailcow-ai-filter/internal/adapters/openai"
	"github.com/kekzl/mailcow-ai-filter/internal/config"
	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// EmbeddingFactory creates embedding clients
type EmbeddingFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEmbeddingFactory creates a new embedding factory
func NewEmbeddingFactory(cfg *config.Config, logger *zap.Logger) *EmbeddingFactory {
	return &EmbeddingFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEmbeddingClient creates a new embedding client based on the
// configuration, wrapped with the configured vector cache when caching is
// enabled.
func (f *EmbeddingFactory) CreateEmbeddingClient(vectorCache core.EmbeddingCache) (core.EmbeddingClient, error) {
	client, err := f.createProviderClient()
	if err != nil {
		return nil, err
	}

	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, err
	}
	if !cacheCfg.Enabled || vectorCache == nil {
		return client, nil
	}
	return cache.NewCachedEmbeddingClient(client, vectorCache, cacheCfg.TTL, f.logger), nil
}

func (f *EmbeddingFactory) createProviderClient() (core.EmbeddingClient, error) {
	embeddingConfig := f.cfg.GetEmbedding()

	switch embeddingConfig.Provider {
	case "ollama":
		return ollama.NewFactory(f.cfg, f.logger).CreateEmbeddingClient()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger).CreateEmbeddingClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger).CreateEmbeddingClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger).CreateEmbeddingClient()
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", embeddingConfig.Provider)
	}
}
