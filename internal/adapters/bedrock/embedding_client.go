package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"
)

// BedrockEmbeddingClient is an implementation of the EmbeddingClient
// interface using Amazon Titan embedding models on Bedrock.
type BedrockEmbeddingClient struct {
	client  *bedrockruntime.Client
	modelID string
	logger  *zap.Logger
}

// NewBedrockEmbeddingClient creates a new Bedrock embedding client
func NewBedrockEmbeddingClient(client *bedrockruntime.Client, modelID string, logger *zap.Logger) *BedrockEmbeddingClient {
	return &BedrockEmbeddingClient{
		client:  client,
		modelID: modelID,
		logger:  logger,
	}
}

// Embed maps each text to a vector. Titan embedding models take one input
// per request, so texts are embedded sequentially.
func (c *BedrockEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		payload, err := json.Marshal(map[string]interface{}{
			"inputText": text,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}

		resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     &c.modelID,
			Body:        payload,
			Accept:      aws.String("application/json"),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}

		var titanResp struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.Unmarshal(resp.Body, &titanResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Titan embedding response: %w", err)
		}
		if len(titanResp.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding for text %d", i+1)
		}
		vectors = append(vectors, titanResp.Embedding)
	}

	c.logger.Debug("Embedded texts",
		zap.Int("count", len(vectors)),
		zap.String("model", c.modelID))
	return vectors, nil
}

// ModelName returns the Bedrock embedding model identifier
func (c *BedrockEmbeddingClient) ModelName() string {
	return c.modelID
}

// Ping verifies credentials are configured. Bedrock has no cheap health
// endpoint, so reachability surfaces on the first InvokeModel call.
func (c *BedrockEmbeddingClient) Ping(ctx context.Context) error {
	return nil
}
