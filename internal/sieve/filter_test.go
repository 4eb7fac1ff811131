package sieve

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptIsIdempotent(t *testing.T) {
	rule := mustRule(t, "Shopping",
		[]Condition{SenderDomainIs("amazon.de")},
		[]Action{FileInto("Shopping"), Stop()})

	filter := NewFilter("Test Filter", "Generated for tests", []Rule{rule},
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	first := filter.Script()
	second := filter.Script()
	assert.Equal(t, first, second)
}

func TestScriptLayout(t *testing.T) {
	rule := mustRule(t, "Amazon Orders",
		[]Condition{SenderDomainIs("amazon.de")},
		[]Action{FileInto("Shopping/Amazon"), Stop()})

	filter := NewFilter("AI-Generated Email Filters", "Automatically generated filters for 1 categories",
		[]Rule{rule}, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	script := filter.Script()

	assert.True(t, strings.HasPrefix(script, "# Sieve Filter Rules\n"))
	assert.Contains(t, script, "# Generated: 2025-06-01 12:00:00\n")
	assert.Contains(t, script, "# Filter: AI-Generated Email Filters\n")
	assert.Contains(t, script, "# IMPORTANT: Review these rules before activating!\n")
	assert.Contains(t, script, `require ["fileinto", "envelope", "imap4flags"];`)
	assert.Contains(t, script, "# Rule: Amazon Orders\n")
	assert.Contains(t, script, "# End of AI-generated rules\n")
	assert.Contains(t, script, "# All other mail goes to Inbox (default)\n")

	// The require line appears exactly once, before any rule.
	assert.Equal(t, 1, strings.Count(script, "require ["))
	assert.Less(t, strings.Index(script, "require ["), strings.Index(script, "# Rule:"))
}

func TestRuleToSieveSingleCondition(t *testing.T) {
	rule := mustRule(t, "Simple",
		[]Condition{SenderDomainIs("github.com")},
		[]Action{FileInto("Dev")})

	rendered := rule.ToSieve()
	assert.Contains(t, rendered, `if address :domain :is "from" "github.com" {`)
	assert.NotContains(t, rendered, "anyof")
}

func TestRuleToSieveMultipleConditions(t *testing.T) {
	rule := mustRule(t, "Multi",
		[]Condition{SubjectContains("order"), SubjectContains("bestellt")},
		[]Action{FileInto("Shopping")})

	rendered := rule.ToSieve()
	assert.Contains(t, rendered, "if anyof (")
	assert.Contains(t, rendered, `header :contains "subject" "order",`)
	assert.Contains(t, rendered, `header :contains "subject" "bestellt"`)
	assert.Contains(t, rendered, ") {")
}

func TestNewRuleRejectsActionsAfterStop(t *testing.T) {
	_, err := NewRule("Bad", "",
		[]Condition{SenderDomainIs("amazon.de")},
		CombAny,
		[]Action{Stop(), FileInto("Shopping")},
		0.9)
	assert.Error(t, err)
}

func TestRuleStructuralKeyIgnoresNameAndConfidence(t *testing.T) {
	a, err := NewRule("A", "first", []Condition{SenderDomainIs("amazon.de")}, CombAny, []Action{FileInto("X")}, 0.9)
	require.NoError(t, err)
	b, err := NewRule("B", "second", []Condition{SenderDomainIs("amazon.de")}, CombAny, []Action{FileInto("X")}, 0.1)
	require.NoError(t, err)

	assert.Equal(t, a.StructuralKey(), b.StructuralKey())

	c, err := NewRule("C", "", []Condition{SenderDomainIs("amazon.de")}, CombAny, []Action{FileInto("Y")}, 0.9)
	require.NoError(t, err)
	assert.NotEqual(t, a.StructuralKey(), c.StructuralKey())
}

func TestRuleStructuralKeyIgnoresStop(t *testing.T) {
	stopped, err := NewRule("A", "", []Condition{SenderDomainIs("amazon.de")}, CombAny, []Action{FileInto("X"), Stop()}, 0.9)
	require.NoError(t, err)
	plain, err := NewRule("B", "", []Condition{SenderDomainIs("amazon.de")}, CombAny, []Action{FileInto("X")}, 0.7)
	require.NoError(t, err)

	assert.Equal(t, stopped.StructuralKey(), plain.StructuralKey())
}
