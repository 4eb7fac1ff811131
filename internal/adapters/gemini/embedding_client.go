package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiEmbeddingClient is an implementation of the EmbeddingClient
// interface using the Gemini embedding API.
type GeminiEmbeddingClient struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	modelName string
	logger    *zap.Logger
}

// NewGeminiEmbeddingClient creates a new Gemini embedding client
func NewGeminiEmbeddingClient(apiKey, modelName string, logger *zap.Logger) (*GeminiEmbeddingClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEmbeddingClient{
		client:    client,
		model:     client.EmbeddingModel(modelName),
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiEmbeddingClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Embed maps each text to a vector using one batched API call
func (c *GeminiEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := c.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := c.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings with Gemini: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("Gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("Gemini returned no embedding for text %d", i)
		}
		vectors[i] = embedding.Values
	}

	c.logger.Debug("Embedded texts",
		zap.Int("count", len(vectors)),
		zap.String("model", c.modelName))
	return vectors, nil
}

// ModelName returns the name of the underlying embedding model
func (c *GeminiEmbeddingClient) ModelName() string {
	return c.modelName
}

// Ping verifies the Gemini API is reachable with the configured credentials
func (c *GeminiEmbeddingClient) Ping(ctx context.Context) error {
	if _, err := c.model.EmbedContent(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("Gemini API unreachable: %w", err)
	}
	return nil
}
