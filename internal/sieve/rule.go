package sieve

import (
	"fmt"
	"strings"
)

// Combinator specifies how a rule's conditions combine
type Combinator string

const (
	CombAny Combinator = "anyof"
	CombAll Combinator = "allof"
)

// Rule represents one compiled, orderable filter rule: conditions combined
// with a logical operator, plus the actions taken on a match. Immutable once
// created within a run.
type Rule struct {
	Name        string
	Description string
	Conditions  []Condition
	Combinator  Combinator
	Actions     []Action
	Confidence  float64
}

// NewRule creates a validated rule
func NewRule(name, description string, conditions []Condition, combinator Combinator, actions []Action, confidence float64) (Rule, error) {
	if len(conditions) == 0 {
		return Rule{}, fmt.Errorf("rule %q must have at least one condition", name)
	}
	if len(actions) == 0 {
		return Rule{}, fmt.Errorf("rule %q must have at least one action", name)
	}
	if combinator != CombAny && combinator != CombAll {
		return Rule{}, fmt.Errorf("rule %q has invalid combinator %q", name, combinator)
	}
	for i, action := range actions {
		if action.Type == ActionStop && i != len(actions)-1 {
			return Rule{}, fmt.Errorf("rule %q has actions after stop", name)
		}
	}

	return Rule{
		Name:        name,
		Description: description,
		Conditions:  conditions,
		Combinator:  combinator,
		Actions:     actions,
		Confidence:  confidence,
	}, nil
}

// HasStop reports whether the rule halts evaluation on match
func (r Rule) HasStop() bool {
	for _, action := range r.Actions {
		if action.Type == ActionStop {
			return true
		}
	}
	return false
}

// TargetFolder returns the fileinto target, or an empty string when the rule
// files nowhere
func (r Rule) TargetFolder() string {
	for _, action := range r.Actions {
		if action.Type == ActionFileInto {
			return action.Parameter
		}
	}
	return ""
}

// StructuralKey returns a canonical string identifying the rule by its
// conditions and effect actions. Stop is excluded: it only controls
// evaluation flow, and once a first rule matches, a second rule with the
// same conditions and target is a duplicate whether or not either stops.
// Two rules with equal keys are structural duplicates regardless of name
// or confidence.
func (r Rule) StructuralKey() string {
	var b strings.Builder
	b.WriteString(string(r.Combinator))
	for _, cond := range r.Conditions {
		b.WriteString("|c:")
		b.WriteString(cond.ToSieve())
	}
	for _, action := range r.Actions {
		if action.Type == ActionStop {
			continue
		}
		b.WriteString("|a:")
		b.WriteString(action.ToSieve())
	}
	return b.String()
}

// RequiredCapabilities returns all Sieve capabilities the rule needs
func (r Rule) RequiredCapabilities() []string {
	seen := make(map[string]bool)
	var caps []string
	for _, cond := range r.Conditions {
		for _, capability := range cond.RequiredCapabilities() {
			if !seen[capability] {
				seen[capability] = true
				caps = append(caps, capability)
			}
		}
	}
	for _, action := range r.Actions {
		for _, capability := range action.RequiredCapabilities() {
			if !seen[capability] {
				seen[capability] = true
				caps = append(caps, capability)
			}
		}
	}
	return caps
}

// ToSieve renders the rule as a commented Sieve block
func (r Rule) ToSieve() string {
	var lines []string

	if r.Name != "" {
		lines = append(lines, "# Rule: "+r.Name)
	}
	if r.Description != "" {
		lines = append(lines, "# Description: "+r.Description)
	}

	if len(r.Conditions) == 1 {
		lines = append(lines, fmt.Sprintf("if %s {", r.Conditions[0].ToSieve()))
	} else {
		lines = append(lines, fmt.Sprintf("if %s (", r.Combinator))
		for i, cond := range r.Conditions {
			comma := ","
			if i == len(r.Conditions)-1 {
				comma = ""
			}
			lines = append(lines, "  "+cond.ToSieve()+comma)
		}
		lines = append(lines, ") {")
	}

	for _, action := range r.Actions {
		lines = append(lines, "  "+action.ToSieve())
	}
	lines = append(lines, "}")

	return strings.Join(lines, "\n")
}
