package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/analyzer"
	"github.com/kekzl/mailcow-ai-filter/internal/config"
	"github.com/kekzl/mailcow-ai-filter/internal/core"
	"github.com/kekzl/mailcow-ai-filter/internal/di"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	service *analyzer.Service,
	llmClient core.LLMClient,
	embeddingClient core.EmbeddingClient,
	vectorCache core.EmbeddingCache,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the run on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received signal, stopping", zap.String("signal", sig.String()))
		cancel()
	}()

	folder := cfg.GetMailbox().Folder
	outputPath := cfg.GetOutput().Path

	fmt.Printf("\n=== Mailbox Analysis ===\n")
	fmt.Printf("Folder: %s\n", folder)
	fmt.Printf("LLM provider: %s (%s)\n", cfg.GetString("llm.provider"), llmClient.ModelName())
	fmt.Printf("Embedding provider: %s (%s)\n", cfg.GetString("embedding.provider"), embeddingClient.ModelName())
	fmt.Printf("\n")

	result, err := service.Run(ctx, folder, outputPath)

	closeClients(logger, llmClient, embeddingClient, vectorCache)

	if err != nil {
		logger.Error("Analysis failed", zap.Error(err))
		return err
	}

	printResults(result)
	return nil
}

// printResults renders the run report and validation findings
func printResults(result *analyzer.Result) {
	report := result.Report

	fmt.Printf("=== Results ===\n")
	fmt.Printf("Mode: %s\n", report.Mode)
	fmt.Printf("Emails analyzed: %d\n", report.EmailsAnalyzed)
	if report.Mode == analyzer.ModeClustered {
		fmt.Printf("Clusters found: %d (noise: %d, dropped: %d)\n",
			report.ClustersFound, report.NoiseEmails, report.ClustersDropped)
	}
	fmt.Printf("Categories produced: %d\n", report.CategoriesProduced)
	fmt.Printf("Rules emitted: %d\n", report.RulesEmitted)
	fmt.Printf("Processing time: %v\n", report.Elapsed)
	fmt.Printf("Output: %s\n", result.OutputPath)

	if len(result.Issues) > 0 {
		fmt.Printf("\n=== Validation ===\n")
		for _, issue := range result.Issues {
			fmt.Printf("[%s] %s: %s\n", issue.Severity, issue.RuleName, issue.Message)
			if issue.Suggestion != "" {
				fmt.Printf("         %s\n", issue.Suggestion)
			}
		}
	}

	fmt.Printf("\nReview the generated rules before deploying them.\n")
}

// closeClients releases provider and cache resources that support it
func closeClients(logger *zap.Logger, llmClient core.LLMClient, embeddingClient core.EmbeddingClient, vectorCache core.EmbeddingCache) {
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if closer, ok := embeddingClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close embedding client", zap.Error(err))
		}
	}
	if vectorCache != nil {
		if err := vectorCache.Close(); err != nil {
			logger.Error("Failed to close embedding cache", zap.Error(err))
		}
	}
}
