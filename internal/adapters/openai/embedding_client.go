package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIEmbeddingClient is an implementation of the EmbeddingClient
// interface using the OpenAI embeddings API.
type OpenAIEmbeddingClient struct {
	client    *openai.Client
	modelName string
	logger    *zap.Logger
}

// NewOpenAIEmbeddingClient creates a new OpenAI embedding client
func NewOpenAIEmbeddingClient(client *openai.Client, modelName string, logger *zap.Logger) *OpenAIEmbeddingClient {
	return &OpenAIEmbeddingClient{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}
}

// Embed maps each text to a vector in a single batched API call
func (c *OpenAIEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.modelName),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings with OpenAI: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	// The API does not guarantee response order, so place by index.
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("OpenAI returned out-of-range embedding index %d", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("OpenAI returned no embedding for text %d", i)
		}
	}

	c.logger.Debug("Embedded texts",
		zap.Int("count", len(vectors)),
		zap.String("model", c.modelName))
	return vectors, nil
}

// ModelName returns the name of the underlying embedding model
func (c *OpenAIEmbeddingClient) ModelName() string {
	return c.modelName
}

// Ping verifies the OpenAI API is reachable with the configured credentials
func (c *OpenAIEmbeddingClient) Ping(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("OpenAI API unreachable: %w", err)
	}
	return nil
}
