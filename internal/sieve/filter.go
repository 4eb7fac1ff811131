package sieve

import (
	"strings"
	"time"
)

// RequiredCapabilitySet is the fixed set of Sieve capabilities a generated
// script may require. The validator rejects any rule needing more.
var RequiredCapabilitySet = []string{"fileinto", "envelope", "imap4flags"}

// Filter represents the full ordered rule set for one analysis run. It is
// rebuilt from scratch every run; each run's artifact supersedes the last.
type Filter struct {
	Name        string
	Description string
	GeneratedAt time.Time
	Rules       []Rule
}

// NewFilter creates a filter aggregate. GeneratedAt is fixed at creation so
// repeated serialization of the same filter is byte-identical.
func NewFilter(name, description string, rules []Rule, generatedAt time.Time) *Filter {
	return &Filter{
		Name:        name,
		Description: description,
		GeneratedAt: generatedAt,
		Rules:       rules,
	}
}

// Script renders the complete Sieve script (RFC 5228)
func (f *Filter) Script() string {
	var b strings.Builder

	b.WriteString("# Sieve Filter Rules\n")
	b.WriteString("# Generated: " + f.GeneratedAt.UTC().Format("2006-01-02 15:04:05") + "\n")
	b.WriteString("# Filter: " + f.Name + "\n")
	if f.Description != "" {
		b.WriteString("# Description: " + f.Description + "\n")
	}
	b.WriteString("#\n")
	b.WriteString("# IMPORTANT: Review these rules before activating!\n")
	b.WriteString("\n")

	b.WriteString(`require ["` + strings.Join(RequiredCapabilitySet, `", "`) + `"];`)
	b.WriteString("\n\n")

	for _, rule := range f.Rules {
		b.WriteString(rule.ToSieve())
		b.WriteString("\n\n")
	}

	b.WriteString("# End of AI-generated rules\n")
	b.WriteString("# All other mail goes to Inbox (default)\n")

	return b.String()
}
