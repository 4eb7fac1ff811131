package sieve

import (
	"fmt"
	"strings"
)

// Field identifies the message attribute a condition tests
type Field string

const (
	FieldSender  Field = "from"
	FieldSubject Field = "subject"
	FieldBody    Field = "body"
)

// Comparator identifies how a condition matches its value
type Comparator string

const (
	CompIs       Comparator = "is"
	CompContains Comparator = "contains"
	CompDomainIs Comparator = "domain_is"
)

// Condition represents one typed, immutable filter predicate
type Condition struct {
	Field      Field
	Comparator Comparator
	Value      string
}

// Placeholder domains LLMs are prone to inventing. Rules built on these can
// never match real mail.
var invalidDomains = map[string]bool{
	"example.com":  true,
	"example.org":  true,
	"test.com":     true,
	"unsorted.com": true,
	"random.com":   true,
	"dummy.com":    true,
}

// Domains too generic to be a useful sender signal
var genericDomains = map[string]bool{
	"email.com":    true,
	"mail.com":     true,
	"app.com":      true,
	"security.com": true,
	"bank.com":     true,
}

// NewCondition creates a validated condition
func NewCondition(field Field, comparator Comparator, value string) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("condition field cannot be empty")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("condition value cannot be empty")
	}
	return Condition{Field: field, Comparator: comparator, Value: value}, nil
}

// SenderDomainIs creates a condition matching the sender's domain exactly
func SenderDomainIs(domain string) Condition {
	return Condition{Field: FieldSender, Comparator: CompDomainIs, Value: strings.ToLower(domain)}
}

// SenderIs creates a condition matching a specific sender address
func SenderIs(address string) Condition {
	return Condition{Field: FieldSender, Comparator: CompIs, Value: strings.ToLower(address)}
}

// SubjectContains creates a condition matching a subject substring
func SubjectContains(keyword string) Condition {
	return Condition{Field: FieldSubject, Comparator: CompContains, Value: keyword}
}

// FromPattern compiles a single informal pattern hint into one condition.
// Recognized shapes:
//
//	from:@domain.com  -> sender domain is domain.com
//	from:a@domain.com -> sender address is a@domain.com
//	subject:keyword   -> subject contains keyword
//
// Anything else is preserved as a conservative subject-contains condition on
// the full hint text; a too-broad rule the user can tighten beats a silently
// dropped one.
func FromPattern(hint string) (Condition, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return Condition{}, fmt.Errorf("empty pattern hint")
	}

	switch {
	case strings.HasPrefix(hint, "from:"):
		value := strings.TrimSpace(strings.TrimPrefix(hint, "from:"))
		if value == "" {
			return Condition{}, fmt.Errorf("pattern %q has no value", hint)
		}
		if strings.HasPrefix(value, "@") {
			return SenderDomainIs(strings.TrimPrefix(value, "@")), nil
		}
		if strings.Contains(value, "@") {
			return SenderIs(value), nil
		}
		// A bare domain without the @ marker still reads as a domain hint
		return SenderDomainIs(value), nil

	case strings.HasPrefix(hint, "subject:"):
		value := strings.TrimSpace(strings.TrimPrefix(hint, "subject:"))
		if value == "" {
			return Condition{}, fmt.Errorf("pattern %q has no value", hint)
		}
		return SubjectContains(value), nil

	default:
		return SubjectContains(hint), nil
	}
}

// FromPatternMulti compiles a pattern hint into one or more conditions.
// Comma-separated subject keywords expand to one subject-contains condition
// per keyword, to be combined under the rule's ANY semantics.
func FromPatternMulti(hint string) ([]Condition, error) {
	cond, err := FromPattern(hint)
	if err != nil {
		return nil, err
	}

	if cond.Field != FieldSubject || !strings.Contains(cond.Value, ",") {
		return []Condition{cond}, nil
	}

	var conds []Condition
	for _, keyword := range strings.Split(cond.Value, ",") {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		conds = append(conds, SubjectContains(keyword))
	}
	if len(conds) == 0 {
		return nil, fmt.Errorf("pattern %q has no usable keywords", hint)
	}
	return conds, nil
}

// IsValidDomain reports whether a domain is neither a known placeholder nor
// an overly generic domain
func IsValidDomain(domain string) bool {
	domain = strings.ToLower(domain)
	return !invalidDomains[domain] && !genericDomains[domain]
}

// IsPlaceholderDomain reports whether the domain is a known LLM placeholder
func IsPlaceholderDomain(domain string) bool {
	return invalidDomains[strings.ToLower(domain)]
}

// IsGenericDomain reports whether the domain is too generic to be a useful
// sender signal
func IsGenericDomain(domain string) bool {
	return genericDomains[strings.ToLower(domain)]
}

// RequiredCapabilities returns the Sieve capabilities this condition needs
func (c Condition) RequiredCapabilities() []string {
	switch {
	case c.Field == FieldSender && c.Comparator == CompDomainIs:
		// address :domain is an envelope-part match
		return []string{"envelope"}
	case c.Field == FieldBody:
		return []string{"body"}
	default:
		return nil
	}
}

// ToSieve renders the condition in Sieve test syntax
func (c Condition) ToSieve() string {
	switch {
	case c.Field == FieldSender && c.Comparator == CompDomainIs:
		return fmt.Sprintf(`address :domain :is "from" %q`, c.Value)
	case c.Field == FieldSender && c.Comparator == CompIs:
		return fmt.Sprintf(`address :is "from" %q`, c.Value)
	case c.Field == FieldBody:
		return fmt.Sprintf(`body :text :contains %q`, c.Value)
	case c.Comparator == CompIs:
		return fmt.Sprintf(`header :is %q %q`, string(c.Field), c.Value)
	default:
		return fmt.Sprintf(`header :contains %q %q`, string(c.Field), c.Value)
	}
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Comparator, c.Value)
}
