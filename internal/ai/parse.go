package ai

import (
	"encoding/json"
	"strconv"
	"strings"

	"flowd/internal/tagging"
)

// parseGroupings parses cluster suggestions in the "Name: 0, 2, 5" line
// format. Indices outside [0, n) are dropped; lines without a name or
// without any valid index are skipped.
func parseGroupings(out string, n int) []Grouping {
	out = strings.TrimSpace(out)
	if out == "" || strings.Contains(strings.ToLower(out), "none") {
		return nil
	}

	var result []Grouping
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		name, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)

		var indices []int
		for _, part := range strings.Split(rest, ",") {
			idx, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			if idx >= 0 && idx < n {
				indices = append(indices, idx)
			}
		}
		if name != "" && len(indices) > 0 {
			result = append(result, Grouping{Name: name, Indices: indices})
		}
	}
	return result
}

// parseDuration extracts the first integer from a reply and accepts it only
// if it is one of the allowed duration buckets.
func parseDuration(out string) int {
	fields := strings.FieldsFunc(out, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if len(fields) == 0 {
		return 0
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	switch minutes {
	case 5, 15, 30, 60, 120:
		return minutes
	}
	return 0
}

// parseTags parses a {"tags": [...]} reply, stripping markdown code fences
// the model sometimes wraps JSON in. Tags come back normalized, deduplicated,
// and capped at 5.
func parseTags(out string) []string {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}

	var payload struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return nil
	}
	tags := tagging.NormalizeAll(payload.Tags)
	if len(tags) > 5 {
		tags = tags[:5]
	}
	return tags
}
