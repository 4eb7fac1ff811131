package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/config"
	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// Factory creates Bedrock clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new Bedrock LLM client
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	bedrockCfg := f.cfg.GetBedrock()

	client, err := f.runtimeClient(bedrockCfg.Region)
	if err != nil {
		return nil, err
	}

	return NewBedrockClient(
		client,
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		f.logger,
	), nil
}

// CreateEmbeddingClient creates a new Bedrock embedding client
func (f *Factory) CreateEmbeddingClient() (core.EmbeddingClient, error) {
	bedrockCfg := f.cfg.GetBedrock()

	client, err := f.runtimeClient(bedrockCfg.Region)
	if err != nil {
		return nil, err
	}

	return NewBedrockEmbeddingClient(client, bedrockCfg.EmbeddingModelID, f.logger), nil
}

func (f *Factory) runtimeClient(region string) (*bedrockruntime.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}
