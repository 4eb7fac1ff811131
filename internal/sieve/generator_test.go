package sieve

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

func newTestGenerator() *Generator {
	return NewGenerator(GeneratorConfig{
		MinCategorySize:   5,
		AutoStopThreshold: 0.8,
	}, zap.NewNop())
}

func testCategory(name, folder string, confidence float64, count int, patterns ...string) core.Category {
	return core.Category{
		Name:            name,
		Description:     name + " emails",
		Patterns:        patterns,
		SuggestedFolder: folder,
		Confidence:      confidence,
		EmailCount:      count,
	}
}

func TestGenerateOrdersByConfidenceDescending(t *testing.T) {
	g := newTestGenerator()

	categories := []core.Category{
		testCategory("Low", "Misc", 0.5, 10, "from:@low.example.net"),
		testCategory("High", "Shopping", 0.95, 10, "from:@amazon.de"),
		testCategory("Mid", "News", 0.7, 10, "from:@nytimes.com"),
	}

	filter, stats := g.Generate(categories, time.Now())
	require.Equal(t, 3, stats.RulesEmitted)

	for i := 1; i < len(filter.Rules); i++ {
		assert.GreaterOrEqual(t, filter.Rules[i-1].Confidence, filter.Rules[i].Confidence)
	}
	assert.Equal(t, "High", filter.Rules[0].Name)
	assert.Equal(t, "Low", filter.Rules[2].Name)
}

func TestGenerateTieBreaksOnFolderPath(t *testing.T) {
	g := newTestGenerator()

	categories := []core.Category{
		testCategory("B", "Zebra", 0.7, 10, "from:@zebra.example.org"),
		testCategory("A", "Alpha", 0.7, 10, "from:@alpha.example.org"),
	}

	filter, _ := g.Generate(categories, time.Now())
	require.Len(t, filter.Rules, 2)
	assert.Equal(t, "Alpha", filter.Rules[0].TargetFolder())
	assert.Equal(t, "Zebra", filter.Rules[1].TargetFolder())
}

func TestGenerateAutoStopThreshold(t *testing.T) {
	g := newTestGenerator()

	categories := []core.Category{
		testCategory("Confident", "Shopping", 0.8, 10, "from:@amazon.de"),
		testCategory("Tentative", "News", 0.79, 10, "from:@nytimes.com"),
	}

	filter, _ := g.Generate(categories, time.Now())
	require.Len(t, filter.Rules, 2)

	assert.True(t, filter.Rules[0].HasStop(), "confidence at threshold gets stop")
	assert.False(t, filter.Rules[1].HasStop(), "confidence below threshold gets no stop")

	// Stop must come last when present.
	confident := filter.Rules[0]
	assert.Equal(t, ActionStop, confident.Actions[len(confident.Actions)-1].Type)
}

func TestGenerateDropsBelowMinimumSupport(t *testing.T) {
	g := newTestGenerator()

	categories := []core.Category{
		testCategory("Big", "Shopping", 0.9, 5, "from:@amazon.de"),
		testCategory("Tiny", "Misc", 0.9, 4, "from:@tiny.example.net"),
	}

	filter, stats := g.Generate(categories, time.Now())
	require.Len(t, filter.Rules, 1)
	assert.Equal(t, "Big", filter.Rules[0].Name)
	assert.Equal(t, 1, stats.DroppedLowCount)
}

func TestGenerateDropsUncompilableCategory(t *testing.T) {
	g := newTestGenerator()

	categories := []core.Category{
		testCategory("Good", "Shopping", 0.9, 10, "from:@amazon.de"),
		testCategory("Empty", "Misc", 0.9, 10),
	}

	filter, stats := g.Generate(categories, time.Now())
	require.Len(t, filter.Rules, 1)
	assert.Equal(t, 1, stats.DroppedNoConds)
}

func TestGenerateDisambiguatesNameCollisions(t *testing.T) {
	g := newTestGenerator()

	categories := []core.Category{
		testCategory("Newsletters", "News/Tech", 0.9, 10, "from:@techcrunch.com"),
		testCategory("Newsletters", "News/Science", 0.8, 10, "from:@nature.com"),
	}

	filter, _ := g.Generate(categories, time.Now())
	require.Len(t, filter.Rules, 2)
	assert.Equal(t, "Newsletters", filter.Rules[0].Name)
	assert.Equal(t, "Newsletters-2", filter.Rules[1].Name)
}

func TestGenerateMergesStructuralDuplicates(t *testing.T) {
	g := newTestGenerator()

	categories := []core.Category{
		testCategory("First", "Shopping", 0.9, 10, "from:@amazon.de"),
		testCategory("Second", "Shopping", 0.7, 10, "from:@amazon.de"),
	}

	filter, stats := g.Generate(categories, time.Now())
	require.Len(t, filter.Rules, 1)
	assert.Equal(t, "First", filter.Rules[0].Name)
	assert.Equal(t, 1, stats.MergedDuplicates)
	assert.InDelta(t, 0.9, filter.Rules[0].Confidence, 1e-9)

	// The confidences straddle the auto-stop threshold, so the duplicates
	// differ in their stop action; they must still collapse into the
	// earlier rule, which keeps its stop.
	assert.True(t, filter.Rules[0].HasStop())
	assert.Equal(t, 1, strings.Count(filter.Script(), `fileinto "Shopping";`))
}

func TestGenerateEmptyInput(t *testing.T) {
	g := newTestGenerator()

	filter, stats := g.Generate(nil, time.Now())
	assert.Empty(t, filter.Rules)
	assert.Equal(t, 0, stats.RulesEmitted)
	assert.NotEmpty(t, filter.Script())
}

func TestCompileConditionsSplitsKeywordLists(t *testing.T) {
	g := newTestGenerator()

	conds, err := g.CompileConditions(testCategory(
		"Orders", "Shopping", 0.9, 10,
		"from:@amazon.de", "subject:bestellt,order",
	))
	require.NoError(t, err)
	require.Len(t, conds, 3)

	for _, cond := range conds {
		assert.NotContains(t, cond.Value, ",")
	}
}

func TestCompileConditionsEmptyReturnsSentinel(t *testing.T) {
	g := newTestGenerator()

	_, err := g.CompileConditions(testCategory("Empty", "Misc", 0.9, 10))
	assert.ErrorIs(t, err, core.ErrCompileEmpty)
}

func TestGeneratedRuleRoundTripValidatesClean(t *testing.T) {
	g := newTestGenerator()
	v := NewValidator()

	categories := []core.Category{
		testCategory("Amazon Orders", "Shopping/Amazon", 0.85, 12,
			"from:@amazon.de", "subject:bestellt,order"),
	}

	filter, _ := g.Generate(categories, time.Now())
	require.Len(t, filter.Rules, 1)

	rule := filter.Rules[0]
	assert.Equal(t, CombAny, rule.Combinator)
	assert.True(t, rule.HasStop())
	assert.Equal(t, "Shopping/Amazon", rule.TargetFolder())

	valid, issues := v.Validate(filter)
	assert.True(t, valid)
	for _, issue := range issues {
		assert.NotEqual(t, SeverityError, issue.Severity, issue.Message)
	}

	script := filter.Script()
	assert.Contains(t, script, `address :domain :is "from" "amazon.de"`)
	assert.Contains(t, script, `header :contains "subject" "bestellt"`)
	assert.Contains(t, script, `header :contains "subject" "order"`)
	assert.Contains(t, script, "if anyof (")
	assert.Contains(t, script, `fileinto "Shopping/Amazon";`)
	assert.True(t, strings.Contains(script, "stop;"))
}
