package sieve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, name string, conds []Condition, actions []Action) Rule {
	t.Helper()
	rule, err := NewRule(name, "", conds, CombAny, actions, 0.9)
	require.NoError(t, err)
	return rule
}

func filterWith(rules ...Rule) *Filter {
	return NewFilter("Test", "", rules, time.Unix(0, 0))
}

func TestValidateCleanFilter(t *testing.T) {
	v := NewValidator()

	rule := mustRule(t, "Shopping",
		[]Condition{SenderDomainIs("amazon.de")},
		[]Action{FileInto("Shopping"), Stop()})

	valid, issues := v.Validate(filterWith(rule))
	assert.True(t, valid)
	assert.Empty(t, issues)
}

func TestValidateEmptyFilterIsValidWithWarning(t *testing.T) {
	v := NewValidator()

	valid, issues := v.Validate(filterWith())
	assert.True(t, valid)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestValidatePlaceholderDomainIsError(t *testing.T) {
	v := NewValidator()

	rule := mustRule(t, "Bad",
		[]Condition{SenderDomainIs("example.com")},
		[]Action{FileInto("Misc")})

	valid, issues := v.Validate(filterWith(rule))
	assert.False(t, valid)
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "example.com")
}

func TestValidateGenericDomainIsWarning(t *testing.T) {
	v := NewValidator()

	rule := mustRule(t, "Broad",
		[]Condition{SenderDomainIs("mail.com")},
		[]Action{FileInto("Misc")})

	valid, issues := v.Validate(filterWith(rule))
	assert.True(t, valid)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestValidateFolderTargets(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name   string
		folder string
	}{
		{"empty", ""},
		{"leading slash", "/Shopping"},
		{"trailing slash", "Shopping/"},
		{"double slash", "Shopping//Amazon"},
		{"embedded quote", `Shop"ping`},
		{"backslash", `Shop\ping`},
		{"control char", "Shop\x01ping"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := Rule{
				Name:       "Bad",
				Conditions: []Condition{SenderDomainIs("amazon.de")},
				Combinator: CombAny,
				Actions:    []Action{{Type: ActionFileInto, Parameter: tc.folder}},
			}
			valid, _ := v.Validate(filterWith(rule))
			assert.False(t, valid)
		})
	}
}

func TestValidateCommaInConditionValueIsError(t *testing.T) {
	v := NewValidator()

	rule := mustRule(t, "Unsplit",
		[]Condition{SubjectContains("bestellt,order")},
		[]Action{FileInto("Shopping")})

	valid, issues := v.Validate(filterWith(rule))
	assert.False(t, valid)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Message, "Comma")
}

func TestValidateCapabilityOutsideFixedSet(t *testing.T) {
	v := NewValidator()

	rule := mustRule(t, "Body",
		[]Condition{{Field: FieldBody, Comparator: CompContains, Value: "unsubscribe"}},
		[]Action{FileInto("Newsletters")})

	valid, issues := v.Validate(filterWith(rule))
	assert.False(t, valid)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Message, `"body"`)
}

func TestValidateMissingConditionsAndActions(t *testing.T) {
	v := NewValidator()

	noConds := Rule{Name: "NoConds", Combinator: CombAny, Actions: []Action{FileInto("X")}}
	noActions := Rule{Name: "NoActions", Combinator: CombAny, Conditions: []Condition{SenderDomainIs("amazon.de")}}

	valid, issues := v.Validate(filterWith(noConds, noActions))
	assert.False(t, valid)
	assert.GreaterOrEqual(t, len(issues), 2)
}

func TestValidateDuplicateRulesWarning(t *testing.T) {
	v := NewValidator()

	a := mustRule(t, "First",
		[]Condition{SenderDomainIs("amazon.de")},
		[]Action{FileInto("Shopping")})
	b := mustRule(t, "Second",
		[]Condition{SenderDomainIs("amazon.de")},
		[]Action{FileInto("Shopping")})

	valid, issues := v.Validate(filterWith(a, b))
	assert.True(t, valid)

	found := false
	for _, issue := range issues {
		if issue.Severity == SeverityWarning && issue.RuleName == "Second" {
			found = true
		}
	}
	assert.True(t, found, "expected a duplicate warning for the second rule")
}

func TestValidateDomainOverlapWarning(t *testing.T) {
	v := NewValidator()

	a := mustRule(t, "Orders",
		[]Condition{SenderDomainIs("amazon.de")},
		[]Action{FileInto("Shopping/Orders")})
	b := mustRule(t, "Promos",
		[]Condition{SenderDomainIs("amazon.de"), SubjectContains("deal")},
		[]Action{FileInto("Promotions")})

	valid, issues := v.Validate(filterWith(a, b))
	assert.True(t, valid)

	found := false
	for _, issue := range issues {
		if issue.Severity == SeverityWarning && issue.RuleName == "Multiple Rules" {
			found = true
			assert.Contains(t, issue.Message, "amazon.de")
		}
	}
	assert.True(t, found, "expected a domain overlap warning")
}
