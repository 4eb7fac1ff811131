package labeler

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// Options holds the labeling stage tuning knobs
type Options struct {
	MaxWorkers      int
	Timeout         time.Duration
	MaxDirectSample int
}

// DefaultOptions returns the option set used when no configuration
// overrides are present.
func DefaultOptions() Options {
	return Options{
		MaxWorkers:      3,
		Timeout:         120 * time.Second,
		MaxDirectSample: 20,
	}
}

// Labeler turns clusters of similar emails into named categories by asking
// an LLM to describe each cluster's representatives.
type Labeler struct {
	llm    core.LLMClient
	opts   Options
	logger *zap.Logger
	titler cases.Caser
}

// NewLabeler creates a new category labeler
func NewLabeler(llm core.LLMClient, opts Options, logger *zap.Logger) *Labeler {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.MaxDirectSample <= 0 {
		opts.MaxDirectSample = 20
	}
	return &Labeler{
		llm:    llm,
		opts:   opts,
		logger: logger,
		titler: cases.Title(language.English, cases.NoLower),
	}
}

// LabelClusters labels every real cluster in parallel, up to MaxWorkers at
// a time with a per-call timeout. The noise cluster is skipped. A cluster
// whose response cannot be parsed or that times out is dropped and reported
// as a soft error; categories that suggest the same folder are merged. The
// returned categories are sorted by confidence, descending.
func (l *Labeler) LabelClusters(ctx context.Context, summaries []core.EmailSummary, clusters []core.Cluster, existingFolders []string) ([]core.Category, []error) {
	var (
		mu         sync.Mutex
		categories []core.Category
		softErrs   []error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.opts.MaxWorkers)

	for _, cluster := range clusters {
		if cluster.IsNoise() || cluster.Size() == 0 {
			continue
		}
		cluster := cluster

		group.Go(func() error {
			category, err := l.labelOne(groupCtx, summaries, cluster, existingFolders)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				softErrs = append(softErrs, err)
				l.logger.Warn("Dropping cluster after labeling failure",
					zap.Int("cluster_id", cluster.ID),
					zap.Error(err))
				return nil
			}
			categories = append(categories, category)
			return nil
		})
	}
	// Workers only report soft errors through the shared slice.
	_ = group.Wait()

	categories = mergeByFolder(categories)
	sortByConfidence(categories)
	return categories, softErrs
}

// labelOne sends one cluster's representatives to the model and converts the
// parsed response into a category carrying the full cluster's count.
func (l *Labeler) labelOne(ctx context.Context, summaries []core.EmailSummary, cluster core.Cluster, existingFolders []string) (core.Category, error) {
	repIndices := cluster.Representatives
	if len(repIndices) == 0 && len(cluster.Members) > 0 {
		repIndices = cluster.Members
		if len(repIndices) > 3 {
			repIndices = repIndices[:3]
		}
	}
	reps := pickSummaries(summaries, repIndices)

	callCtx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	response, err := l.llm.Complete(callCtx, buildClusterPrompt(reps, cluster.Size(), existingFolders))
	if err != nil {
		reason := core.LabelReasonParse
		if errors.Is(err, context.DeadlineExceeded) {
			reason = core.LabelReasonTimeout
		}
		return core.Category{}, &core.LabelError{ClusterID: cluster.ID, Reason: reason, Err: err}
	}

	payload, err := parseCategoryResponse(response)
	if err != nil {
		return core.Category{}, &core.LabelError{ClusterID: cluster.ID, Reason: core.LabelReasonParse, Err: err}
	}

	category := l.toCategory(payload)
	category.EmailCount = cluster.Size()
	if len(category.Patterns) == 0 {
		category.Patterns = detectedHints(summaries, cluster.Members)
		if len(category.Patterns) > 0 {
			l.logger.Info("Derived patterns from cluster data",
				zap.Int("cluster_id", cluster.ID),
				zap.Strings("patterns", category.Patterns))
		}
	}
	if len(category.ExampleSubjects) == 0 {
		for _, rep := range reps {
			category.ExampleSubjects = append(category.ExampleSubjects, rep.Subject)
		}
	}
	return category, nil
}

// AnalyzeDirect is the fallback for corpora too small to cluster: a single
// request over a bounded sample proposes multiple categories at once, with
// each category's count measured by matching its patterns against the full
// summary set.
func (l *Labeler) AnalyzeDirect(ctx context.Context, summaries []core.EmailSummary, existingFolders []string) ([]core.Category, error) {
	sample := summaries
	if len(sample) > l.opts.MaxDirectSample {
		sample = sample[:l.opts.MaxDirectSample]
	}

	callCtx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	response, err := l.llm.Complete(callCtx, buildDirectPrompt(sample, existingFolders))
	if err != nil {
		return nil, &core.ProviderError{Provider: l.llm.ModelName(), Err: err}
	}

	payloads, err := parseCategoriesResponse(response)
	if err != nil {
		return nil, &core.LabelError{ClusterID: core.NoiseClusterID, Reason: core.LabelReasonParse, Err: err}
	}

	categories := make([]core.Category, 0, len(payloads))
	for _, payload := range payloads {
		category := l.toCategory(payload)
		category.EmailCount = core.CountSupport(summaries, category)
		categories = append(categories, category)
	}

	categories = mergeByFolder(categories)
	sortByConfidence(categories)
	return categories, nil
}

// toCategory converts a validated payload into a domain category with a
// normalized title-cased name.
func (l *Labeler) toCategory(payload categoryPayload) core.Category {
	return core.Category{
		Name:            l.titler.String(strings.TrimSpace(payload.Name)),
		Description:     strings.TrimSpace(payload.Description),
		Patterns:        trimAll(payload.Patterns),
		SuggestedFolder: payload.SuggestedFolder,
		Confidence:      payload.Confidence,
		ExampleSubjects: trimAll(payload.ExampleSubjects),
	}
}

// mergeByFolder collapses categories that suggest the same folder into one:
// patterns are united, counts summed, confidence averaged.
func mergeByFolder(categories []core.Category) []core.Category {
	byFolder := make(map[string]int)
	confSums := make(map[string]float64)
	confCounts := make(map[string]int)
	var merged []core.Category

	for _, category := range categories {
		key := strings.ToLower(category.SuggestedFolder)
		confSums[key] += category.Confidence
		confCounts[key]++

		idx, seen := byFolder[key]
		if !seen {
			byFolder[key] = len(merged)
			merged = append(merged, category)
			continue
		}

		target := &merged[idx]
		target.Patterns = unionStrings(target.Patterns, category.Patterns)
		target.ExampleSubjects = unionStrings(target.ExampleSubjects, category.ExampleSubjects)
		target.EmailCount += category.EmailCount
	}

	for i := range merged {
		key := strings.ToLower(merged[i].SuggestedFolder)
		merged[i].Confidence = confSums[key] / float64(confCounts[key])
	}
	return merged
}

func sortByConfidence(categories []core.Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Confidence != categories[j].Confidence {
			return categories[i].Confidence > categories[j].Confidence
		}
		return categories[i].SuggestedFolder < categories[j].SuggestedFolder
	})
}

// detectedHints renders the cluster's statistically dominant signals in the
// shared hint grammar, as a fallback when the model names a category but
// suggests no patterns for it.
func detectedHints(summaries []core.EmailSummary, members []int) []string {
	detected := core.DetectPatterns(summaries, members)
	hints := make([]string, 0, len(detected))
	for _, pattern := range detected {
		hints = append(hints, pattern.FilterString())
	}
	return hints
}

func pickSummaries(summaries []core.EmailSummary, indices []int) []core.EmailSummary {
	picked := make([]core.EmailSummary, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(summaries) {
			picked = append(picked, summaries[idx])
		}
	}
	return picked
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := append([]string(nil), a...)
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
