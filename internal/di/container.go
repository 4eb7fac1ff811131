package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/adapters/mailbox"
	"github.com/kekzl/mailcow-ai-filter/internal/adapters/sievefile"
	"github.com/kekzl/mailcow-ai-filter/internal/analyzer"
	"github.com/kekzl/mailcow-ai-filter/internal/cluster"
	"github.com/kekzl/mailcow-ai-filter/internal/config"
	"github.com/kekzl/mailcow-ai-filter/internal/core"
	"github.com/kekzl/mailcow-ai-filter/internal/factory"
	"github.com/kekzl/mailcow-ai-filter/internal/labeler"
	"github.com/kekzl/mailcow-ai-filter/internal/logging"
	"github.com/kekzl/mailcow-ai-filter/internal/sieve"
	"github.com/kekzl/mailcow-ai-filter/internal/utils"
)

// CLIFlags contains all command line flags for the analyzer CLI
type CLIFlags struct {
	// Provider flags
	LLMProvider       string
	EmbeddingProvider string

	// Ollama flags
	OllamaBaseURL        string
	OllamaModel          string
	OllamaEmbeddingModel string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Analysis flags
	MaxEmails       int
	MinClusterSize  int
	MinCategorySize int

	// Input and output flags
	MailboxPath    string
	Folder         string
	OutputPath     string
	ExistingFilter string
	CacheType      string

	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Provider flags
	flag.StringVar(&flags.LLMProvider, "llm-provider", "ollama", "LLM provider (ollama, openai, gemini, bedrock)")
	flag.StringVar(&flags.EmbeddingProvider, "embedding-provider", "ollama", "Embedding provider (ollama, openai, gemini, bedrock)")

	// Ollama flags
	flag.StringVar(&flags.OllamaBaseURL, "ollama-url", "http://localhost:11434", "Base URL of the Ollama server")
	flag.StringVar(&flags.OllamaModel, "ollama-model", "qwen3:14b", "Ollama model for category labeling")
	flag.StringVar(&flags.OllamaEmbeddingModel, "ollama-embedding-model", "nomic-embed-text", "Ollama embedding model")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Analysis flags
	flag.IntVar(&flags.MaxEmails, "max-emails", 500, "Maximum number of emails to sample")
	flag.IntVar(&flags.MinClusterSize, "min-cluster-size", 5, "Minimum emails per cluster")
	flag.IntVar(&flags.MinCategorySize, "min-category-size", 5, "Minimum emails per generated rule")

	// Input and output flags
	flag.StringVar(&flags.MailboxPath, "mailbox", "./mail", "Path to the mailbox directory")
	flag.StringVar(&flags.Folder, "folder", "INBOX", "Mailbox folder to analyze")
	flag.StringVar(&flags.OutputPath, "output", "./output/generated.sieve", "Path for the generated sieve script")
	flag.StringVar(&flags.ExistingFilter, "existing-filter", "", "Path to an existing sieve script for folder hints")
	flag.StringVar(&flags.CacheType, "cache", "memory", "Embedding cache backend (memory, sqlite, mysql)")

	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildContainer creates and configures a dependency injection container
// for the analyzer CLI.
func BuildContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() *CLIFlags { return flags },
		func(flags *CLIFlags) (*zap.Logger, error) {
			return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
		},
		func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
			if flags.ConfigFile != "" {
				cfg, err := config.New()
				if err != nil {
					return nil, err
				}
				logger.Info("Loaded configuration from file",
					zap.String("file", cfg.GetViper().ConfigFileUsed()))
				return cfg, nil
			}
			return createConfigFromFlags(flags), nil
		},
		utils.NewTextProcessor,
		factory.NewLLMFactory,
		factory.NewEmbeddingFactory,
		factory.NewCacheFactory,
		func(f *factory.LLMFactory) (core.LLMClient, error) {
			return f.CreateLLMClient()
		},
		func(f *factory.CacheFactory) (core.EmbeddingCache, error) {
			return f.CreateEmbeddingCache()
		},
		func(f *factory.EmbeddingFactory, vectorCache core.EmbeddingCache) (core.EmbeddingClient, error) {
			return f.CreateEmbeddingClient(vectorCache)
		},
		func(cfg *config.Config) (config.AnalysisConfig, error) {
			return cfg.GetAnalysis()
		},
		func(tp *utils.TextProcessor, analysisCfg config.AnalysisConfig) *core.SummaryExtractor {
			return core.NewSummaryExtractor(tp, analysisCfg.BodyPreviewSize)
		},
		func(analysisCfg config.AnalysisConfig, logger *zap.Logger) *cluster.Engine {
			return cluster.NewEngine(cluster.Params{
				MinClusterSize:     analysisCfg.MinClusterSize,
				MinSamples:         analysisCfg.MinSamples,
				MinSummaries:       analysisCfg.MinSummaries,
				MaxRepresentatives: analysisCfg.MaxRepresentatives,
				EpsQuantile:        analysisCfg.EpsQuantile,
			}, logger)
		},
		func(llm core.LLMClient, analysisCfg config.AnalysisConfig, logger *zap.Logger) *labeler.Labeler {
			return labeler.NewLabeler(llm, labeler.Options{
				MaxWorkers:      analysisCfg.MaxLabelWorkers,
				Timeout:         analysisCfg.LabelTimeout,
				MaxDirectSample: analysisCfg.MaxDirectSample,
			}, logger)
		},
		func(analysisCfg config.AnalysisConfig, logger *zap.Logger) *sieve.Generator {
			return sieve.NewGenerator(sieve.GeneratorConfig{
				MinCategorySize:   analysisCfg.MinCategorySize,
				AutoStopThreshold: analysisCfg.AutoStopThreshold,
			}, logger)
		},
		sieve.NewValidator,
		func(cfg *config.Config, logger *zap.Logger) core.MailboxReader {
			return mailbox.NewDirReader(cfg.GetMailbox().Path, logger)
		},
		func(cfg *config.Config, logger *zap.Logger) core.ExistingFilterReader {
			return sievefile.NewExistingReader(cfg.GetOutput().ExistingFilter, logger)
		},
		func(logger *zap.Logger) analyzer.FilterRepository {
			return sievefile.NewRepository(logger)
		},
		analyzer.NewService,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}
	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", flags.LLMProvider)
	v.Set("embedding.provider", flags.EmbeddingProvider)

	v.Set("ollama.base_url", flags.OllamaBaseURL)
	v.Set("ollama.model", flags.OllamaModel)
	v.Set("ollama.embedding_model", flags.OllamaEmbeddingModel)

	v.Set("openai.api_key", flags.OpenAIAPIKey)
	v.Set("openai.model_name", flags.OpenAIModelName)

	v.Set("gemini.api_key", flags.GeminiAPIKey)
	v.Set("gemini.model_name", flags.GeminiModelName)

	v.Set("bedrock.region", flags.BedrockRegion)
	v.Set("bedrock.model_id", flags.BedrockModelID)

	v.Set("analysis.max_emails", flags.MaxEmails)
	v.Set("analysis.min_cluster_size", flags.MinClusterSize)
	v.Set("analysis.min_category_size", flags.MinCategorySize)

	v.Set("mailbox.path", flags.MailboxPath)
	v.Set("mailbox.folder", flags.Folder)
	v.Set("output.path", flags.OutputPath)
	v.Set("output.existing_filter", flags.ExistingFilter)
	v.Set("cache.type", flags.CacheType)

	return config.NewFromViper(v)
}
