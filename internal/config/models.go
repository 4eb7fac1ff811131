package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// EmbeddingConfig represents the configuration for the embedding provider
type EmbeddingConfig struct {
	Provider string
}

// AnalysisConfig represents the tuning knobs for the category-discovery pipeline
type AnalysisConfig struct {
	MinClusterSize     int
	MinSamples         int
	MinSummaries       int
	MinCategorySize    int
	MaxRepresentatives int
	EpsQuantile        float64
	AutoStopThreshold  float64
	LabelTimeout       time.Duration
	MaxLabelWorkers    int
	MaxEmails          int
	MaxDirectSample    int
	BodyPreviewSize    int
}

// OllamaConfig represents the configuration for a local Ollama server
type OllamaConfig struct {
	BaseURL        string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey         string
	ModelName      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey         string
	ModelName      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region           string
	ModelID          string
	EmbeddingModelID string
	MaxTokens        int
	Temperature      float32
	TopP             float32
}

// CacheConfig represents the configuration for the embedding vector cache
type CacheConfig struct {
	Type        string
	Enabled     bool
	TTL         time.Duration
	CleanupFreq time.Duration
	SQLitePath  string
	MySQLDSN    string
}

// MailboxConfig represents the configuration for the mailbox source
type MailboxConfig struct {
	Path   string
	Folder string
}

// OutputConfig represents the configuration for generated artifacts
type OutputConfig struct {
	Path           string
	ExistingFilter string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetEmbedding returns the embedding provider configuration
func (c *Config) GetEmbedding() EmbeddingConfig {
	return EmbeddingConfig{
		Provider: c.GetString("embedding.provider"),
	}
}

// GetAnalysis returns the analysis configuration
func (c *Config) GetAnalysis() (AnalysisConfig, error) {
	labelTimeout, err := c.GetDuration("analysis.label_timeout")
	if err != nil {
		return AnalysisConfig{}, err
	}

	return AnalysisConfig{
		MinClusterSize:     c.GetInt("analysis.min_cluster_size"),
		MinSamples:         c.GetInt("analysis.min_samples"),
		MinSummaries:       c.GetInt("analysis.min_summaries"),
		MinCategorySize:    c.GetInt("analysis.min_category_size"),
		MaxRepresentatives: c.GetInt("analysis.max_representatives"),
		EpsQuantile:        c.GetFloat64("analysis.eps_quantile"),
		AutoStopThreshold:  c.GetFloat64("analysis.auto_stop_threshold"),
		LabelTimeout:       labelTimeout,
		MaxLabelWorkers:    c.GetInt("analysis.max_label_workers"),
		MaxEmails:          c.GetInt("analysis.max_emails"),
		MaxDirectSample:    c.GetInt("analysis.max_direct_sample"),
		BodyPreviewSize:    c.GetInt("analysis.body_preview_size"),
	}, nil
}

// GetOllama returns the Ollama configuration
func (c *Config) GetOllama() OllamaConfig {
	return OllamaConfig{
		BaseURL:        c.GetString("ollama.base_url"),
		Model:          c.GetString("ollama.model"),
		EmbeddingModel: c.GetString("ollama.embedding_model"),
		MaxTokens:      c.GetInt("ollama.max_tokens"),
		Temperature:    float32(c.GetFloat64("ollama.temperature")),
		TopP:           float32(c.GetFloat64("ollama.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         c.GetString("openai.api_key"),
		ModelName:      c.GetString("openai.model_name"),
		EmbeddingModel: c.GetString("openai.embedding_model"),
		MaxTokens:      c.GetInt("openai.max_tokens"),
		Temperature:    float32(c.GetFloat64("openai.temperature")),
		TopP:           float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:         c.GetString("gemini.api_key"),
		ModelName:      c.GetString("gemini.model_name"),
		EmbeddingModel: c.GetString("gemini.embedding_model"),
		MaxTokens:      c.GetInt("gemini.max_tokens"),
		Temperature:    float32(c.GetFloat64("gemini.temperature")),
		TopP:           float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetCache returns the embedding cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanupFreq, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Type:        c.GetString("cache.type"),
		Enabled:     c.GetBool("cache.enabled"),
		TTL:         ttl,
		CleanupFreq: cleanupFreq,
		SQLitePath:  c.GetString("cache.sqlite_path"),
		MySQLDSN:    c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetMailbox returns the mailbox configuration
func (c *Config) GetMailbox() MailboxConfig {
	return MailboxConfig{
		Path:   c.GetString("mailbox.path"),
		Folder: c.GetString("mailbox.folder"),
	}
}

// GetOutput returns the output configuration
func (c *Config) GetOutput() OutputConfig {
	return OutputConfig{
		Path:           c.GetString("output.path"),
		ExistingFilter: c.GetString("output.existing_filter"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:           c.GetString("bedrock.region"),
		ModelID:          c.GetString("bedrock.model_id"),
		EmbeddingModelID: c.GetString("bedrock.embedding_model_id"),
		MaxTokens:        c.GetInt("bedrock.max_tokens"),
		Temperature:      float32(c.GetFloat64("bedrock.temperature")),
		TopP:             float32(c.GetFloat64("bedrock.top_p")),
	}
}
