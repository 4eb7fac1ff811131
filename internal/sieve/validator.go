package sieve

import (
	"fmt"
	"strings"
)

// Severity classifies a validation issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue represents one validation finding for a rule or the filter
type Issue struct {
	Severity   Severity
	RuleName   string
	Message    string
	Suggestion string
}

// Validator checks an assembled filter for structural and semantic defects.
// It only reports; it never repairs a rule.
type Validator struct{}

// NewValidator creates a new filter validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the whole filter and returns whether it is free of
// error-severity issues, plus the full issue list.
func (v *Validator) Validate(filter *Filter) (bool, []Issue) {
	var issues []Issue

	if len(filter.Rules) == 0 {
		issues = append(issues, Issue{
			Severity:   SeverityWarning,
			RuleName:   "Filter",
			Message:    "Filter has no rules",
			Suggestion: "A run that produced zero categories emits an empty but valid script",
		})
	}

	for _, rule := range filter.Rules {
		issues = append(issues, v.ValidateRule(rule)...)
	}

	issues = append(issues, v.checkDuplicates(filter.Rules)...)
	issues = append(issues, v.checkDomainOverlap(filter.Rules)...)

	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return false, issues
		}
	}
	return true, issues
}

// ValidateRule checks a single rule
func (v *Validator) ValidateRule(rule Rule) []Issue {
	var issues []Issue
	name := rule.Name
	if name == "" {
		name = "Unnamed"
	}

	if len(rule.Conditions) == 0 {
		issues = append(issues, Issue{
			Severity:   SeverityError,
			RuleName:   name,
			Message:    "Rule has no conditions",
			Suggestion: "Add at least one condition to match emails",
		})
	}
	if len(rule.Actions) == 0 {
		issues = append(issues, Issue{
			Severity:   SeverityError,
			RuleName:   name,
			Message:    "Rule has no actions",
			Suggestion: "Add at least one action (e.g. fileinto)",
		})
	}

	issues = append(issues, v.checkFolderTargets(name, rule)...)
	issues = append(issues, v.checkDomains(name, rule)...)
	issues = append(issues, v.checkCommaValues(name, rule)...)
	issues = append(issues, v.checkCapabilities(name, rule)...)

	return issues
}

// checkFolderTargets verifies every fileinto target is a usable folder path
func (v *Validator) checkFolderTargets(name string, rule Rule) []Issue {
	var issues []Issue
	for _, action := range rule.Actions {
		if action.Type != ActionFileInto {
			continue
		}
		folder := action.Parameter
		switch {
		case folder == "":
			issues = append(issues, Issue{
				Severity:   SeverityError,
				RuleName:   name,
				Message:    "fileinto target folder is empty",
				Suggestion: "Set a destination folder path",
			})
		case strings.ContainsAny(folder, "\"\\"):
			issues = append(issues, Issue{
				Severity:   SeverityError,
				RuleName:   name,
				Message:    fmt.Sprintf("fileinto target %q contains quote or backslash", folder),
				Suggestion: "Folder paths must not need Sieve string escaping",
			})
		case hasControlChars(folder):
			issues = append(issues, Issue{
				Severity:   SeverityError,
				RuleName:   name,
				Message:    fmt.Sprintf("fileinto target %q contains control characters", folder),
				Suggestion: "Remove non-printable characters from the folder path",
			})
		case strings.HasPrefix(folder, "/") || strings.HasSuffix(folder, "/") || strings.Contains(folder, "//"):
			issues = append(issues, Issue{
				Severity:   SeverityError,
				RuleName:   name,
				Message:    fmt.Sprintf("fileinto target %q has ambiguous hierarchy separators", folder),
				Suggestion: "Use the form Parent/Child with single interior slashes",
			})
		}
	}
	return issues
}

// checkDomains flags placeholder and overly generic sender domains
func (v *Validator) checkDomains(name string, rule Rule) []Issue {
	var issues []Issue
	for _, cond := range rule.Conditions {
		if cond.Comparator != CompDomainIs {
			continue
		}
		domain := strings.ToLower(cond.Value)
		if IsPlaceholderDomain(domain) {
			issues = append(issues, Issue{
				Severity:   SeverityError,
				RuleName:   name,
				Message:    fmt.Sprintf("Placeholder domain detected: %s", domain),
				Suggestion: fmt.Sprintf("Replace %q with a real domain from your emails", domain),
			})
		} else if IsGenericDomain(domain) {
			issues = append(issues, Issue{
				Severity:   SeverityWarning,
				RuleName:   name,
				Message:    fmt.Sprintf("Overly generic domain: %s", domain),
				Suggestion: fmt.Sprintf("Domain %q may match unintended emails", domain),
			})
		}
	}
	return issues
}

// checkCommaValues flags unsplit keyword lists, which indicate a compiler
// bug upstream
func (v *Validator) checkCommaValues(name string, rule Rule) []Issue {
	var issues []Issue
	for _, cond := range rule.Conditions {
		if strings.Contains(cond.Value, ",") {
			issues = append(issues, Issue{
				Severity:   SeverityError,
				RuleName:   name,
				Message:    fmt.Sprintf("Comma found in condition value: %q", cond.Value),
				Suggestion: "Split the value into one condition per keyword under anyof",
			})
		}
	}
	return issues
}

// checkCapabilities verifies the rule stays within the fixed capability set
func (v *Validator) checkCapabilities(name string, rule Rule) []Issue {
	allowed := make(map[string]bool, len(RequiredCapabilitySet))
	for _, capability := range RequiredCapabilitySet {
		allowed[capability] = true
	}

	var issues []Issue
	for _, capability := range rule.RequiredCapabilities() {
		if !allowed[capability] {
			issues = append(issues, Issue{
				Severity:   SeverityError,
				RuleName:   name,
				Message:    fmt.Sprintf("Rule requires capability %q outside the supported set", capability),
				Suggestion: fmt.Sprintf("Supported capabilities: %s", strings.Join(RequiredCapabilitySet, ", ")),
			})
		}
	}
	return issues
}

// checkDuplicates reports structurally identical rules that survived
// assembly. The generator merges these; any remaining pair is a defect.
func (v *Validator) checkDuplicates(rules []Rule) []Issue {
	seen := make(map[string]string)
	var issues []Issue
	for _, rule := range rules {
		key := rule.StructuralKey()
		if first, ok := seen[key]; ok {
			issues = append(issues, Issue{
				Severity:   SeverityWarning,
				RuleName:   rule.Name,
				Message:    fmt.Sprintf("Rule is structurally identical to %q", first),
				Suggestion: "Merge the duplicate rules into one",
			})
			continue
		}
		seen[key] = rule.Name
	}
	return issues
}

// checkDomainOverlap warns when one sender domain is filed into different
// folders by different rules; only the first matching rule with stop wins
func (v *Validator) checkDomainOverlap(rules []Rule) []Issue {
	domainFolders := make(map[string][]string)
	for _, rule := range rules {
		folder := rule.TargetFolder()
		if folder == "" {
			continue
		}
		for _, cond := range rule.Conditions {
			if cond.Comparator != CompDomainIs {
				continue
			}
			domain := strings.ToLower(cond.Value)
			if !containsString(domainFolders[domain], folder) {
				domainFolders[domain] = append(domainFolders[domain], folder)
			}
		}
	}

	var issues []Issue
	for domain, folders := range domainFolders {
		if len(folders) > 1 {
			issues = append(issues, Issue{
				Severity:   SeverityWarning,
				RuleName:   "Multiple Rules",
				Message:    fmt.Sprintf("Domain %q used in multiple folders: %s", domain, strings.Join(folders, ", ")),
				Suggestion: "Emails from this domain sort into the first matching folder only",
			})
		}
	}
	return issues
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
