package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Completer is a minimal text-completion backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const coachSystem = `You are a GTD coach. Given a vague task title, suggest one concrete next action (verb-first, specific).
Reply with only the suggested action phrase, no explanation. Keep it under 15 words.`

const dedupSystem = `Are these two tasks the same or about the same thing? Reply with exactly one word: duplicate or distinct.`

const clusterSystem = `Given a list of task titles, suggest 1-3 project names that group related tasks. For each project, list the 0-based indices of tasks that belong to it. Reply in this exact format, one line per project:
ProjectName: 0, 2, 5
Use only the indices given. If no grouping, reply: none`

const durationSystem = `Estimate how long this task takes. Reply with exactly one number of minutes from this set: 5, 15, 30, 60, 120. No other text.`

const taggingPrompt = `Extract 2-5 relevant tags for this content.

Rules:
- Use lowercase, hyphenated tags (e.g., "code-review", "api-design")
- Prefer existing tags when semantically similar: %s
- Include: topic, technology, action type if relevant
- Be specific but not overly narrow
- Do not include generic tags like "task", "todo", "work"

Content type: %s
Content: %s

Return JSON: {"tags": ["tag1", "tag2", ...]}`

const maxTagContentLength = 500

// Assistant implements Advisor on top of a Completer. Backend failures are
// logged at debug level and surface as zero values, never as errors.
type Assistant struct {
	llm    Completer
	logger *slog.Logger
}

// NewAssistant wraps a completion backend as an Advisor.
func NewAssistant(llm Completer, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{llm: llm, logger: logger}
}

func (a *Assistant) complete(ctx context.Context, prompt string) string {
	out, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Debug("llm completion failed", "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}

// SuggestActionPhrase returns a concrete next-action phrase for a title.
func (a *Assistant) SuggestActionPhrase(ctx context.Context, title string) string {
	prompt := fmt.Sprintf("%s\n\nTask: %s\nSuggested next action:", coachSystem, strings.TrimSpace(title))
	return a.complete(ctx, prompt)
}

// ClassifyDuplicate asks whether two titles describe the same task.
func (a *Assistant) ClassifyDuplicate(ctx context.Context, x, y string) (bool, bool) {
	prompt := fmt.Sprintf("%s\n\nA: %s\nB: %s\nAnswer:", dedupSystem, x, y)
	out := a.complete(ctx, prompt)
	if out == "" {
		return false, false
	}
	return strings.Contains(strings.ToLower(out), "duplicate"), true
}

// SuggestGroupings proposes project clusters for the given titles.
func (a *Assistant) SuggestGroupings(ctx context.Context, titles []string) []Grouping {
	if len(titles) == 0 {
		return nil
	}
	var numbered strings.Builder
	for i, t := range titles {
		fmt.Fprintf(&numbered, "%d: %s\n", i, t)
	}
	prompt := fmt.Sprintf("%s\n\nTasks:\n%s", clusterSystem, numbered.String())
	return parseGroupings(a.complete(ctx, prompt), len(titles))
}

// EstimateDuration returns an allowed duration bucket, or 0 when the backend
// is unavailable or replies outside the set.
func (a *Assistant) EstimateDuration(ctx context.Context, title string) int {
	prompt := fmt.Sprintf("%s\n\nTask: %s\nMinutes:", durationSystem, strings.TrimSpace(title))
	return parseDuration(a.complete(ctx, prompt))
}

// ExtractTags extracts normalized tags from content, preferring the
// existing vocabulary.
func (a *Assistant) ExtractTags(ctx context.Context, content, contentType string, existing []string) []string {
	preview := content
	if len(preview) > maxTagContentLength {
		preview = preview[:maxTagContentLength] + "..."
	}
	vocabulary := "(none yet)"
	if len(existing) > 0 {
		if len(existing) > 30 {
			existing = existing[:30]
		}
		vocabulary = strings.Join(existing, ", ")
	}
	prompt := fmt.Sprintf(taggingPrompt, vocabulary, contentType, preview)
	return parseTags(a.complete(ctx, prompt))
}
