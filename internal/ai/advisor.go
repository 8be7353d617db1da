// Package ai provides best-effort LLM assistance for the task workflow:
// action-phrase coaching, duplicate classification, project clustering,
// duration estimation, and tag extraction.
package ai

import "context"

// Grouping is a suggested project: a name plus 0-based indices into the
// title list it was suggested for.
type Grouping struct {
	Name    string
	Indices []int
}

// Advisor is the suggestion capability consumed by the engine and funnel.
// Implementations must tolerate total backend unavailability: every method
// returns zero values on failure and never an error.
type Advisor interface {
	// SuggestActionPhrase rewrites a vague title into a concrete verb-first
	// next action. Empty string when unavailable.
	SuggestActionPhrase(ctx context.Context, title string) string

	// ClassifyDuplicate reports whether two titles describe the same task.
	// ok is false when no answer is available.
	ClassifyDuplicate(ctx context.Context, a, b string) (duplicate bool, ok bool)

	// SuggestGroupings proposes projects grouping related titles.
	SuggestGroupings(ctx context.Context, titles []string) []Grouping

	// EstimateDuration returns an allowed duration in minutes, or 0.
	EstimateDuration(ctx context.Context, title string) int

	// ExtractTags extracts 2-5 normalized tags from content. The existing
	// vocabulary is offered to the model for consistency.
	ExtractTags(ctx context.Context, content, contentType string, existing []string) []string
}

// Unavailable is the Advisor used when no LLM backend is configured.
type Unavailable struct{}

func (Unavailable) SuggestActionPhrase(context.Context, string) string { return "" }

func (Unavailable) ClassifyDuplicate(context.Context, string, string) (bool, bool) {
	return false, false
}

func (Unavailable) SuggestGroupings(context.Context, []string) []Grouping { return nil }

func (Unavailable) EstimateDuration(context.Context, string) int { return 0 }

func (Unavailable) ExtractTags(context.Context, string, string, []string) []string { return nil }
