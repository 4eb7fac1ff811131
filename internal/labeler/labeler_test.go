package labeler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// fakeLLM is a scripted LLMClient for tests. Responses are served round
// robin; a nil respond function simulates a hung model.
type fakeLLM struct {
	responses []string
	hang      bool
	calls     atomic.Int32
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	n := int(f.calls.Add(1)) - 1
	if f.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if len(f.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}
	return f.responses[n%len(f.responses)], nil
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) Ping(ctx context.Context) error { return nil }

func testSummaries() []core.EmailSummary {
	return []core.EmailSummary{
		{Sender: "order@amazon.de", Subject: "Your order has shipped"},
		{Sender: "noreply@amazon.de", Subject: "Bestellung bestellt"},
		{Sender: "news@nytimes.com", Subject: "Morning briefing"},
		{Sender: "deals@amazon.de", Subject: "Order confirmed"},
		{Sender: "editor@nytimes.com", Subject: "Evening briefing"},
		{Sender: "billing@amazon.de", Subject: "Your order invoice"},
	}
}

func categoryJSON(name, folder string, confidence float64, patterns ...string) string {
	patternJSON := ""
	for i, p := range patterns {
		if i > 0 {
			patternJSON += ", "
		}
		patternJSON += fmt.Sprintf("%q", p)
	}
	return fmt.Sprintf(`{"name": %q, "suggested_folder": %q, "confidence": %g, "patterns": [%s]}`,
		name, folder, confidence, patternJSON)
}

func TestLabelClustersSkipsNoise(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		categoryJSON("Orders", "Shopping", 0.9, "from:@amazon.de"),
	}}
	l := NewLabeler(llm, DefaultOptions(), zap.NewNop())

	clusters := []core.Cluster{
		{ID: 0, Members: []int{0, 1, 3, 5}, Representatives: []int{0, 1, 3}},
		{ID: core.NoiseClusterID, Members: []int{2, 4}},
	}

	categories, softErrs := l.LabelClusters(context.Background(), testSummaries(), clusters, nil)
	assert.Empty(t, softErrs)
	require.Len(t, categories, 1, "noise cluster must not be labeled")
	assert.Equal(t, "Orders", categories[0].Name)
	assert.Equal(t, 4, categories[0].EmailCount)
	assert.Equal(t, int32(1), llm.calls.Load())
}

func TestLabelClustersAllTimeoutsYieldZeroCategoriesNoError(t *testing.T) {
	llm := &fakeLLM{hang: true}
	opts := DefaultOptions()
	opts.Timeout = 20 * time.Millisecond
	l := NewLabeler(llm, opts, zap.NewNop())

	clusters := []core.Cluster{
		{ID: 0, Members: []int{0, 1}, Representatives: []int{0}},
		{ID: 1, Members: []int{2, 4}, Representatives: []int{2}},
	}

	categories, softErrs := l.LabelClusters(context.Background(), testSummaries(), clusters, nil)
	assert.Empty(t, categories)
	require.Len(t, softErrs, 2)

	for _, err := range softErrs {
		var labelErr *core.LabelError
		require.ErrorAs(t, err, &labelErr)
		assert.Equal(t, core.LabelReasonTimeout, labelErr.Reason)
	}
}

func TestLabelClustersDropsUnparseableCluster(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"no JSON here at all",
		categoryJSON("News", "Newsletters", 0.7, "from:@nytimes.com"),
	}}
	opts := DefaultOptions()
	opts.MaxWorkers = 1
	l := NewLabeler(llm, opts, zap.NewNop())

	clusters := []core.Cluster{
		{ID: 0, Members: []int{0, 1}, Representatives: []int{0}},
		{ID: 1, Members: []int{2, 4}, Representatives: []int{2}},
	}

	categories, softErrs := l.LabelClusters(context.Background(), testSummaries(), clusters, nil)
	require.Len(t, categories, 1)
	assert.Equal(t, "News", categories[0].Name)

	require.Len(t, softErrs, 1)
	var labelErr *core.LabelError
	require.ErrorAs(t, softErrs[0], &labelErr)
	assert.Equal(t, core.LabelReasonParse, labelErr.Reason)
	assert.Equal(t, 0, labelErr.ClusterID)
}

func TestLabelClustersDerivesPatternsWhenModelSuggestsNone(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"name": "Amazon", "suggested_folder": "Shopping", "confidence": 0.9}`,
	}}
	l := NewLabeler(llm, DefaultOptions(), zap.NewNop())

	clusters := []core.Cluster{
		{ID: 0, Members: []int{0, 1, 3, 5}, Representatives: []int{0, 1, 3}},
	}

	categories, softErrs := l.LabelClusters(context.Background(), testSummaries(), clusters, nil)
	assert.Empty(t, softErrs)
	require.Len(t, categories, 1)
	assert.Contains(t, categories[0].Patterns, "from:@amazon.de",
		"dominant sender domain backfills the missing patterns")
}

func TestLabelClustersMergesDuplicateFolders(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		categoryJSON("Amazon", "Shopping", 0.9, "from:@amazon.de"),
		categoryJSON("Orders", "Shopping", 0.7, "subject:order"),
	}}
	opts := DefaultOptions()
	opts.MaxWorkers = 1
	l := NewLabeler(llm, opts, zap.NewNop())

	clusters := []core.Cluster{
		{ID: 0, Members: []int{0, 1}, Representatives: []int{0}},
		{ID: 1, Members: []int{3, 5}, Representatives: []int{3}},
	}

	categories, softErrs := l.LabelClusters(context.Background(), testSummaries(), clusters, nil)
	assert.Empty(t, softErrs)
	require.Len(t, categories, 1, "same suggested folder merges into one category")

	merged := categories[0]
	assert.Equal(t, "Shopping", merged.SuggestedFolder)
	assert.ElementsMatch(t, []string{"from:@amazon.de", "subject:order"}, merged.Patterns)
	assert.InDelta(t, 0.8, merged.Confidence, 1e-9, "confidence is averaged")
	assert.Equal(t, 4, merged.EmailCount, "counts are summed")
}

func TestLabelClustersSortsByConfidence(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		categoryJSON("Low", "FolderA", 0.4, "subject:a"),
		categoryJSON("High", "FolderB", 0.9, "subject:b"),
	}}
	opts := DefaultOptions()
	opts.MaxWorkers = 1
	l := NewLabeler(llm, opts, zap.NewNop())

	clusters := []core.Cluster{
		{ID: 0, Members: []int{0, 1}, Representatives: []int{0}},
		{ID: 1, Members: []int{2, 4}, Representatives: []int{2}},
	}

	categories, _ := l.LabelClusters(context.Background(), testSummaries(), clusters, nil)
	require.Len(t, categories, 2)
	assert.Equal(t, "High", categories[0].Name)
	assert.Equal(t, "Low", categories[1].Name)
}

func TestAnalyzeDirectCountsSupport(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"categories": [` +
			categoryJSON("Amazon", "Shopping", 0.9, "from:@amazon.de") + "," +
			categoryJSON("News", "Newsletters", 0.6, "from:@nytimes.com") +
			`]}`,
	}}
	l := NewLabeler(llm, DefaultOptions(), zap.NewNop())

	categories, err := l.AnalyzeDirect(context.Background(), testSummaries(), nil)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	assert.Equal(t, "Amazon", categories[0].Name)
	assert.Equal(t, 4, categories[0].EmailCount, "support measured against all summaries")
	assert.Equal(t, "News", categories[1].Name)
	assert.Equal(t, 2, categories[1].EmailCount)
}

func TestAnalyzeDirectUnparseableResponse(t *testing.T) {
	llm := &fakeLLM{responses: []string{"sorry, no categories"}}
	l := NewLabeler(llm, DefaultOptions(), zap.NewNop())

	_, err := l.AnalyzeDirect(context.Background(), testSummaries(), nil)
	var labelErr *core.LabelError
	assert.ErrorAs(t, err, &labelErr)
}

func TestBuildClusterPromptContainsContract(t *testing.T) {
	prompt := buildClusterPrompt(testSummaries()[:2], 10, []string{"Shopping", "Newsletters"})

	assert.Contains(t, prompt, "order@amazon.de")
	assert.Contains(t, prompt, "from:@domain.com")
	assert.Contains(t, prompt, "subject:word1,word2")
	assert.Contains(t, prompt, "example.com")
	assert.Contains(t, prompt, "Parent/Child")
	assert.Contains(t, prompt, "Shopping")
	assert.Contains(t, prompt, "```json")
	assert.Contains(t, prompt, "10 similar emails")
}
