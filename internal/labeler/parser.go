package labeler

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// categoryPayload mirrors the JSON object the model is asked to produce.
// Raw and untrusted until validated.
type categoryPayload struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Patterns        []string `json:"patterns"`
	SuggestedFolder string   `json:"suggested_folder"`
	Confidence      float64  `json:"confidence"`
	ExampleSubjects []string `json:"example_subjects"`
}

type categoriesPayload struct {
	Categories []categoryPayload `json:"categories"`
}

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// parseCategoryResponse extracts and validates a single category object from
// a raw model response. The response may wrap the JSON in markdown fences,
// reasoning blocks, or surrounding prose.
func parseCategoryResponse(raw string) (categoryPayload, error) {
	text := extractJSON(raw)
	if text == "" {
		return categoryPayload{}, fmt.Errorf("no JSON object found in response")
	}

	var payload categoryPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return categoryPayload{}, fmt.Errorf("unmarshaling category JSON: %w", err)
	}
	if err := validatePayload(&payload); err != nil {
		return categoryPayload{}, err
	}
	return payload, nil
}

// parseCategoriesResponse extracts a list of category objects, accepting
// either a {"categories": [...]} wrapper or a bare JSON array.
func parseCategoriesResponse(raw string) ([]categoryPayload, error) {
	text := extractJSON(raw)
	if text == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var wrapper categoriesPayload
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil && len(wrapper.Categories) > 0 {
		return validateAll(wrapper.Categories)
	}

	var list []categoryPayload
	if err := json.Unmarshal([]byte(text), &list); err == nil && len(list) > 0 {
		return validateAll(list)
	}

	return nil, fmt.Errorf("response JSON holds no categories")
}

func validateAll(payloads []categoryPayload) ([]categoryPayload, error) {
	valid := make([]categoryPayload, 0, len(payloads))
	for i := range payloads {
		if err := validatePayload(&payloads[i]); err != nil {
			continue
		}
		valid = append(valid, payloads[i])
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no category passed field validation")
	}
	return valid, nil
}

// validatePayload enforces required fields and clamps confidence into [0, 1]
func validatePayload(p *categoryPayload) error {
	p.Name = strings.TrimSpace(p.Name)
	p.SuggestedFolder = strings.TrimSpace(strings.Trim(p.SuggestedFolder, "/"))
	if p.Name == "" {
		return fmt.Errorf("category missing required field %q", "name")
	}
	if p.SuggestedFolder == "" {
		return fmt.Errorf("category %q missing required field %q", p.Name, "suggested_folder")
	}
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
	return nil
}

// extractJSON pulls the most plausible JSON value out of a noisy response:
// reasoning blocks are stripped, a fenced code block wins if present,
// otherwise the first balanced object or array is scanned out.
func extractJSON(raw string) string {
	text := thinkBlockRe.ReplaceAllString(raw, "")
	text = strings.TrimSpace(text)

	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if candidate := strings.TrimSpace(m[1]); candidate != "" {
			text = candidate
		}
	}

	if json.Valid([]byte(text)) {
		return text
	}
	for _, open := range []byte{'{', '['} {
		if candidate := scanBalanced(text, open); candidate != "" {
			return candidate
		}
	}
	return ""
}

// scanBalanced returns the first balanced {...} or [...] in text, tracking
// string literals so braces inside values do not break the scan.
func scanBalanced(text string, open byte) string {
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}
