package task

import "strings"

// DefaultDuration is assigned when no keyword bucket matches.
const DefaultDuration = 30

// durationBuckets are checked in order; the first bucket containing a keyword
// found in the title wins.
var durationBuckets = []struct {
	minutes  int
	keywords []string
}{
	{5, []string{"reply", "email", "respond", "call", "text", "ping", "confirm"}},
	{15, []string{"review", "read", "check", "schedule", "book", "update"}},
	{30, []string{"write", "draft", "organize", "prepare", "summarize"}},
	{60, []string{"plan", "research", "analyze", "meeting", "workshop"}},
	{120, []string{"refactor", "design", "implement", "build", "migrate", "develop"}},
}

// EstimateDurationHeuristic classifies a title into a duration bucket by
// keyword. Deterministic fallback for when the LLM estimator is unavailable.
func EstimateDurationHeuristic(title string) int {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return DefaultDuration
	}
	for _, bucket := range durationBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(t, kw) {
				return bucket.minutes
			}
		}
	}
	return DefaultDuration
}
