// Package tagging holds tag vocabulary helpers: normalization to the
// canonical lowercase-hyphenated form and parsing of interactive tag input.
package tagging

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	separatorRe = regexp.MustCompile(`[_\s]+`)
	invalidRe   = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRunRe = regexp.MustCompile(`-+`)
)

// Normalize converts a raw tag name to lowercase hyphenated form:
// "Code Review" -> "code-review", "API_Design" -> "api-design".
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = separatorRe.ReplaceAllString(tag, "-")
	tag = invalidRe.ReplaceAllString(tag, "")
	tag = hyphenRunRe.ReplaceAllString(tag, "-")
	return strings.Trim(tag, "-")
}

// NormalizeAll normalizes a tag list, dropping empties and duplicates while
// preserving first-seen order.
func NormalizeAll(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := Normalize(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// ParseUserInput parses interactive tag input: comma-separated names,
// 1-based numeric references into existing, and NEW:tag-name syntax.
// Duplicates are removed preserving order.
func ParseUserInput(input string, existing []string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	var result []string
	seen := map[string]bool{}
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			result = append(result, tag)
		}
	}

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(part), "NEW:") {
			add(Normalize(part[4:]))
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n >= 1 && n <= len(existing) {
				add(existing[n-1])
			}
			continue
		}
		add(Normalize(part))
	}
	return result
}

// SuggestFromVocabulary matches content against existing tags without any
// LLM involvement, for privacy mode. A tag matches when the tag itself or
// any hyphen-separated part of it appears in the content.
func SuggestFromVocabulary(content string, existing []string, max int) []string {
	contentLower := strings.ToLower(content)
	var suggestions []string
	for _, tag := range existing {
		matched := strings.Contains(contentLower, tag)
		if !matched {
			for _, part := range strings.Split(tag, "-") {
				if part != "" && strings.Contains(contentLower, part) {
					matched = true
					break
				}
			}
		}
		if matched {
			suggestions = append(suggestions, tag)
			if len(suggestions) >= max {
				break
			}
		}
	}
	return suggestions
}
