package core

import (
	"sort"
	"strings"
)

const (
	domainPatternShare  = 0.5
	addressPatternShare = 0.5
	keywordPatternShare = 0.3
	minKeywordLength    = 4
	maxKeywordPatterns  = 5
)

// subjectStopwords are tokens too common to distinguish one category of mail
// from another. Covers English and German corpora.
var subjectStopwords = map[string]bool{
	"your": true, "from": true, "with": true, "this": true, "that": true,
	"have": true, "been": true, "will": true, "mail": true, "email": true,
	"ihre": true, "ihr": true, "eine": true, "einen": true, "für": true,
	"und": true, "der": true, "die": true, "das": true, "von": true,
	"re": true, "fwd": true, "fw": true, "aw": true, "wg": true,
}

// DetectPatterns inspects the summaries at the given indices and returns the
// statistically dominant sender and subject signals as patterns. Confidence
// is the share of members carrying the signal, SampleCount the absolute
// number. The labeler falls back to these when the model proposes a
// category without any patterns.
func DetectPatterns(summaries []EmailSummary, indices []int) []EmailPattern {
	total := len(indices)
	if total == 0 {
		return nil
	}

	domainCounts := make(map[string]int)
	addressCounts := make(map[string]int)
	keywordCounts := make(map[string]int)

	for _, idx := range indices {
		if idx < 0 || idx >= len(summaries) {
			continue
		}
		s := summaries[idx]
		if domain := s.SenderDomain(); domain != "" {
			domainCounts[domain]++
		}
		if addr := strings.ToLower(s.Sender); strings.Contains(addr, "@") {
			addressCounts[addr]++
		}
		for _, kw := range subjectKeywords(s.Subject) {
			keywordCounts[kw]++
		}
	}

	var patterns []EmailPattern

	// A dominant exact address subsumes its domain pattern.
	addr, addrCount := topEntry(addressCounts)
	if addrCount > 0 && share(addrCount, total) >= addressPatternShare {
		patterns = append(patterns, EmailPattern{
			Kind:        PatternSenderAddress,
			Value:       addr,
			Confidence:  share(addrCount, total),
			SampleCount: addrCount,
		})
	} else {
		domain, domainCount := topEntry(domainCounts)
		if domainCount > 0 && share(domainCount, total) >= domainPatternShare {
			patterns = append(patterns, EmailPattern{
				Kind:        PatternSenderDomain,
				Value:       domain,
				Confidence:  share(domainCount, total),
				SampleCount: domainCount,
			})
		}
	}

	for _, kw := range topKeywords(keywordCounts, total) {
		patterns = append(patterns, EmailPattern{
			Kind:        PatternSubjectKeyword,
			Value:       kw,
			Confidence:  share(keywordCounts[kw], total),
			SampleCount: keywordCounts[kw],
		})
	}

	return patterns
}

// MatchesPattern reports whether a summary carries the signal named by a
// pattern hint in the shared grammar ("from:@domain", "from:addr",
// "subject:keyword"). Comma-separated subject keywords match when any one
// keyword is present. Unknown hint shapes match nothing.
func MatchesPattern(s EmailSummary, hint string) bool {
	hint = strings.TrimSpace(hint)
	switch {
	case strings.HasPrefix(hint, "from:@"):
		return s.SenderDomain() == strings.ToLower(strings.TrimPrefix(hint, "from:@"))
	case strings.HasPrefix(hint, "from:"):
		value := strings.ToLower(strings.TrimPrefix(hint, "from:"))
		if strings.Contains(value, "@") {
			return strings.ToLower(s.Sender) == value
		}
		return s.SenderDomain() == value
	case strings.HasPrefix(hint, "subject:"):
		subject := strings.ToLower(s.Subject)
		for _, kw := range strings.Split(strings.TrimPrefix(hint, "subject:"), ",") {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(subject, kw) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CountSupport returns how many of the summaries match at least one of the
// category's pattern hints.
func CountSupport(summaries []EmailSummary, category Category) int {
	count := 0
	for _, s := range summaries {
		for _, hint := range category.Patterns {
			if MatchesPattern(s, hint) {
				count++
				break
			}
		}
	}
	return count
}

func subjectKeywords(subject string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, token := range strings.FieldsFunc(strings.ToLower(subject), func(r rune) bool {
		return !isWordRune(r)
	}) {
		if len([]rune(token)) < minKeywordLength || subjectStopwords[token] || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

func isWordRune(r rune) bool {
	return r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r > 127
}

func topEntry(counts map[string]int) (string, int) {
	best, bestCount := "", 0
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best, bestCount = value, count
		}
	}
	return best, bestCount
}

func topKeywords(counts map[string]int, total int) []string {
	var keywords []string
	for kw, count := range counts {
		if share(count, total) >= keywordPatternShare {
			keywords = append(keywords, kw)
		}
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > maxKeywordPatterns {
		keywords = keywords[:maxKeywordPatterns]
	}
	return keywords
}

func share(count, total int) float64 {
	return float64(count) / float64(total)
}
