package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaClient is an implementation of the LLMClient interface using a
// local Ollama server's HTTP API.
type OllamaClient struct {
	baseURL     string
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	httpClient  *http.Client
	logger      *zap.Logger
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a new Ollama LLM client
func NewOllamaClient(
	baseURL string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OllamaClient {
	return &OllamaClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		logger:      logger,
	}
}

// Complete sends a prompt to the Ollama generate endpoint and returns the
// raw response text.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  c.modelName,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"num_predict": c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		},
	}

	body, err := c.post(ctx, "/api/generate", reqBody)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse Ollama response: %w", err)
	}
	return resp.Response, nil
}

// ModelName returns the name of the underlying model
func (c *OllamaClient) ModelName() string {
	return c.modelName
}

// Ping verifies the Ollama server is reachable
func (c *OllamaClient) Ping(ctx context.Context) error {
	return ping(ctx, c.httpClient, c.baseURL)
}

func (c *OllamaClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return postJSON(ctx, c.httpClient, c.baseURL+path, payload)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Ollama at %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func ping(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama server unreachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama server returned status %d", resp.StatusCode)
	}
	return nil
}
