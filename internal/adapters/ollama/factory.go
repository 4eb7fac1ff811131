package ollama

import (
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/config"
	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// Factory creates new instances of Ollama clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Ollama clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new Ollama LLM client
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	ollamaCfg := f.cfg.GetOllama()

	return NewOllamaClient(
		ollamaCfg.BaseURL,
		ollamaCfg.Model,
		ollamaCfg.MaxTokens,
		ollamaCfg.Temperature,
		ollamaCfg.TopP,
		f.logger,
	), nil
}

// CreateEmbeddingClient creates a new Ollama embedding client
func (f *Factory) CreateEmbeddingClient() (core.EmbeddingClient, error) {
	ollamaCfg := f.cfg.GetOllama()

	return NewOllamaEmbeddingClient(
		ollamaCfg.BaseURL,
		ollamaCfg.EmbeddingModel,
		f.logger,
	), nil
}
