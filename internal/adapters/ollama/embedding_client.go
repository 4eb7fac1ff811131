package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaEmbeddingClient is an implementation of the EmbeddingClient
// interface using a local Ollama server's HTTP API.
type OllamaEmbeddingClient struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *zap.Logger
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllamaEmbeddingClient creates a new Ollama embedding client
func NewOllamaEmbeddingClient(baseURL, modelName string, logger *zap.Logger) *OllamaEmbeddingClient {
	return &OllamaEmbeddingClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		modelName:  modelName,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     logger,
	}
}

// Embed maps each text to a vector. The Ollama embeddings endpoint takes one
// prompt per request, so texts are embedded sequentially.
func (c *OllamaEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		body, err := postJSON(ctx, c.httpClient, c.baseURL+"/api/embeddings", embeddingRequest{
			Model:  c.modelName,
			Prompt: text,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}

		var resp embeddingResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse embedding response: %w", err)
		}
		if len(resp.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding for text %d", i+1)
		}
		vectors = append(vectors, resp.Embedding)
	}

	c.logger.Debug("Embedded texts",
		zap.Int("count", len(vectors)),
		zap.String("model", c.modelName))
	return vectors, nil
}

// ModelName returns the name of the underlying embedding model
func (c *OllamaEmbeddingClient) ModelName() string {
	return c.modelName
}

// Ping verifies the Ollama server is reachable
func (c *OllamaEmbeddingClient) Ping(ctx context.Context) error {
	return ping(ctx, c.httpClient, c.baseURL)
}
