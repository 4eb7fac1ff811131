package sieve

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
	"go.uber.org/zap"
)

// GeneratorConfig holds the assembly knobs for rule generation
type GeneratorConfig struct {
	// MinCategorySize drops categories backed by fewer emails, so one-off
	// noise never becomes a permanent filing rule
	MinCategorySize int

	// AutoStopThreshold is the confidence at or above which a rule halts
	// further evaluation for matching messages
	AutoStopThreshold float64
}

// GenerateStats reports what the generator dropped and emitted
type GenerateStats struct {
	CategoriesIn     int
	RulesEmitted     int
	DroppedLowCount  int
	DroppedNoConds   int
	MergedDuplicates int
}

// Generator converts validated categories into an ordered, deduplicated
// Sieve filter: the pattern-to-condition compiler and rule assembler.
type Generator struct {
	cfg    GeneratorConfig
	logger *zap.Logger
}

// NewGenerator creates a new rule generator
func NewGenerator(cfg GeneratorConfig, logger *zap.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		logger: logger,
	}
}

// CompileConditions compiles a category's informal pattern hints into typed
// conditions. Returns core.ErrCompileEmpty when nothing usable comes out.
func (g *Generator) CompileConditions(category core.Category) ([]Condition, error) {
	var conds []Condition
	for _, hint := range category.Patterns {
		compiled, err := FromPatternMulti(hint)
		if err != nil {
			g.logger.Debug("Skipping uncompilable pattern hint",
				zap.String("category", category.Name),
				zap.String("hint", hint),
				zap.Error(err))
			continue
		}
		conds = append(conds, compiled...)
	}

	if len(conds) == 0 {
		return nil, fmt.Errorf("category %q: %w", category.Name, core.ErrCompileEmpty)
	}
	return conds, nil
}

// Generate assembles one rule per surviving category and returns the ordered
// filter aggregate. Rules are emitted in descending source-category
// confidence, with ascending folder path breaking ties; this is the
// evaluation order of the generated script. Soft per-category failures are
// logged and counted, never returned as errors.
func (g *Generator) Generate(categories []core.Category, generatedAt time.Time) (*Filter, GenerateStats) {
	stats := GenerateStats{CategoriesIn: len(categories)}

	ordered := make([]core.Category, len(categories))
	copy(ordered, categories)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].SuggestedFolder < ordered[j].SuggestedFolder
	})

	usedNames := make(map[string]bool)
	seenStructures := make(map[string]bool)
	var rules []Rule

	for _, category := range ordered {
		if category.EmailCount < g.cfg.MinCategorySize {
			stats.DroppedLowCount++
			g.logger.Info("Dropping category below minimum support",
				zap.String("category", category.Name),
				zap.Int("email_count", category.EmailCount),
				zap.Int("min_category_size", g.cfg.MinCategorySize))
			continue
		}

		conds, err := g.CompileConditions(category)
		if err != nil {
			if errors.Is(err, core.ErrCompileEmpty) {
				stats.DroppedNoConds++
				g.logger.Warn("Dropping category with no compilable conditions",
					zap.String("category", category.Name))
				continue
			}
			stats.DroppedNoConds++
			continue
		}

		actions := []Action{FileInto(category.SuggestedFolder)}
		if category.Confidence >= g.cfg.AutoStopThreshold {
			actions = append(actions, Stop())
		}

		rule, err := NewRule(
			uniqueName(category.Name, usedNames),
			category.Description,
			conds,
			CombAny,
			actions,
			category.Confidence,
		)
		if err != nil {
			g.logger.Warn("Dropping invalid rule",
				zap.String("category", category.Name),
				zap.Error(err))
			continue
		}

		// Exact structural duplicates collapse into the earlier, more
		// confident rule
		key := rule.StructuralKey()
		if seenStructures[key] {
			stats.MergedDuplicates++
			g.logger.Info("Merging structurally duplicate rule",
				zap.String("rule", rule.Name))
			continue
		}
		seenStructures[key] = true

		rules = append(rules, rule)
	}

	stats.RulesEmitted = len(rules)

	filter := NewFilter(
		"AI-Generated Email Filters",
		fmt.Sprintf("Automatically generated filters for %d categories", len(rules)),
		rules,
		generatedAt,
	)
	return filter, stats
}

// uniqueName disambiguates colliding rule names with a numeric suffix
func uniqueName(name string, used map[string]bool) string {
	if name == "" {
		name = "Unnamed"
	}
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
	used[candidate] = true
	return candidate
}
