package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/cluster"
	"github.com/kekzl/mailcow-ai-filter/internal/config"
	"github.com/kekzl/mailcow-ai-filter/internal/core"
	"github.com/kekzl/mailcow-ai-filter/internal/labeler"
	"github.com/kekzl/mailcow-ai-filter/internal/sieve"
)

// Run modes reported in the analysis summary
const (
	ModeClustered = "clustered"
	ModeDirect    = "direct"
)

// FilterRepository persists a generated filter and returns where it went
type FilterRepository interface {
	Save(ctx context.Context, filter *sieve.Filter, path string) (string, error)
}

// Service represents the end-to-end analysis pipeline: sample the mailbox,
// embed, cluster, label, assemble rules, validate and persist the script.
// Stages run strictly in order; only labeling is internally parallel.
type Service struct {
	mailbox   core.MailboxReader
	extractor *core.SummaryExtractor
	embedder  core.EmbeddingClient
	llm       core.LLMClient
	engine    *cluster.Engine
	labeler   *labeler.Labeler
	generator *sieve.Generator
	validator *sieve.Validator
	existing  core.ExistingFilterReader
	repo      FilterRepository
	cfg       config.AnalysisConfig
	logger    *zap.Logger
}

// NewService creates a new analysis pipeline service. The existing filter
// reader may be nil.
func NewService(
	mailbox core.MailboxReader,
	extractor *core.SummaryExtractor,
	embedder core.EmbeddingClient,
	llm core.LLMClient,
	engine *cluster.Engine,
	lbl *labeler.Labeler,
	generator *sieve.Generator,
	validator *sieve.Validator,
	existing core.ExistingFilterReader,
	repo FilterRepository,
	cfg config.AnalysisConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		mailbox:   mailbox,
		extractor: extractor,
		embedder:  embedder,
		llm:       llm,
		engine:    engine,
		labeler:   lbl,
		generator: generator,
		validator: validator,
		existing:  existing,
		repo:      repo,
		cfg:       cfg,
		logger:    logger,
	}
}

// Result bundles the persisted filter with the run report and any
// validation issues for the caller to display.
type Result struct {
	Filter     *sieve.Filter
	Issues     []sieve.Issue
	OutputPath string
	Report     core.AnalysisReport
}

// Run executes one full analysis over the given mailbox folder and writes
// the generated Sieve script to outputPath. Per-cluster and per-category
// failures are logged and counted; only unreachable providers or a failed
// mailbox read abort the run.
func (s *Service) Run(ctx context.Context, folder, outputPath string) (*Result, error) {
	started := time.Now()

	if err := s.llm.Ping(ctx); err != nil {
		return nil, &core.ProviderError{Provider: s.llm.ModelName(), Err: err}
	}
	if err := s.embedder.Ping(ctx); err != nil {
		return nil, &core.ProviderError{Provider: s.embedder.ModelName(), Err: err}
	}

	summaries, err := s.readSummaries(ctx, folder)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Sampled mailbox",
		zap.String("folder", folder),
		zap.Int("emails", len(summaries)))

	existingFolders := s.existingFolders(ctx)

	categories, report, err := s.discoverCategories(ctx, summaries, existingFolders)
	if err != nil {
		return nil, err
	}
	report.EmailsAnalyzed = len(summaries)
	report.CategoriesProduced = len(categories)

	filter, stats := s.generator.Generate(categories, time.Now().UTC())
	report.RulesEmitted = stats.RulesEmitted

	valid, issues := s.validator.Validate(filter)
	for _, issue := range issues {
		field := zap.String("rule", issue.RuleName)
		switch issue.Severity {
		case sieve.SeverityError:
			s.logger.Error("Validation issue", field, zap.String("message", issue.Message))
		default:
			s.logger.Warn("Validation issue", field, zap.String("message", issue.Message))
		}
	}
	if !valid {
		s.logger.Warn("Generated filter has validation errors; review before deploying")
	}

	savedPath, err := s.repo.Save(ctx, filter, outputPath)
	if err != nil {
		return nil, fmt.Errorf("saving filter: %w", err)
	}

	report.Elapsed = time.Since(started)
	s.logger.Info("Analysis complete",
		zap.String("mode", report.Mode),
		zap.Int("clusters", report.ClustersFound),
		zap.Int("categories", report.CategoriesProduced),
		zap.Int("rules", report.RulesEmitted),
		zap.String("output", savedPath),
		zap.Duration("elapsed", report.Elapsed))

	return &Result{
		Filter:     filter,
		Issues:     issues,
		OutputPath: savedPath,
		Report:     report,
	}, nil
}

func (s *Service) readSummaries(ctx context.Context, folder string) ([]core.EmailSummary, error) {
	messages, err := s.mailbox.ReadMessages(ctx, folder, s.cfg.MaxEmails, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("reading mailbox folder %q: %w", folder, err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("folder %q: %w", folder, core.ErrInsufficientData)
	}
	return s.extractor.ExtractAll(messages), nil
}

// discoverCategories runs the embed/cluster/label stages, falling back to a
// single direct request when the corpus is too small to cluster.
func (s *Service) discoverCategories(ctx context.Context, summaries []core.EmailSummary, existingFolders []string) ([]core.Category, core.AnalysisReport, error) {
	report := core.AnalysisReport{Mode: ModeClustered}

	texts := make([]string, len(summaries))
	for i, summary := range summaries {
		texts[i] = core.EmbeddingText(summary)
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, report, &core.ProviderError{Provider: s.embedder.ModelName(), Err: err}
	}
	if len(vectors) != len(summaries) {
		return nil, report, fmt.Errorf("embedding count mismatch: %d vectors for %d summaries", len(vectors), len(summaries))
	}

	clusters, err := s.engine.Cluster(vectors)
	if errors.Is(err, core.ErrInsufficientData) {
		s.logger.Info("Too few emails to cluster, switching to direct analysis",
			zap.Int("emails", len(summaries)))
		report.Mode = ModeDirect
		categories, directErr := s.labeler.AnalyzeDirect(ctx, summaries, existingFolders)
		if directErr != nil {
			var labelErr *core.LabelError
			if errors.As(directErr, &labelErr) {
				s.logger.Warn("Direct analysis produced no usable categories", zap.Error(directErr))
				return nil, report, nil
			}
			return nil, report, directErr
		}
		return categories, report, nil
	}
	if err != nil {
		return nil, report, fmt.Errorf("clustering embeddings: %w", err)
	}

	for _, c := range clusters {
		if c.IsNoise() {
			report.NoiseEmails = c.Size()
		} else {
			report.ClustersFound++
		}
	}

	categories, softErrs := s.labeler.LabelClusters(ctx, summaries, clusters, existingFolders)
	report.ClustersDropped = len(softErrs)
	return categories, report, nil
}

// existingFolders is advisory; a missing or failing reader just means the
// labeler gets no naming hints.
func (s *Service) existingFolders(ctx context.Context) []string {
	if s.existing == nil {
		return nil
	}
	folders, err := s.existing.ExistingFolders(ctx)
	if err != nil {
		s.logger.Warn("Could not read existing filter folders", zap.Error(err))
		return nil
	}
	return folders
}
