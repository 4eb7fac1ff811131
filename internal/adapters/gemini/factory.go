package gemini

import (
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/config"
	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// Factory creates new instances of Gemini clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Gemini clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new Gemini LLM client
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	geminiCfg := f.cfg.GetGemini()

	return NewGeminiClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger,
	)
}

// CreateEmbeddingClient creates a new Gemini embedding client
func (f *Factory) CreateEmbeddingClient() (core.EmbeddingClient, error) {
	geminiCfg := f.cfg.GetGemini()

	return NewGeminiEmbeddingClient(geminiCfg.APIKey, geminiCfg.EmbeddingModel, f.logger)
}
