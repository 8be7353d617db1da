package resource

import "time"

// ContentType classifies a saved resource's source
type ContentType string

const (
	ContentURL  ContentType = "url"
	ContentFile ContentType = "file"
	ContentText ContentType = "text"
)

// Resource is a saved reference: a URL, file, or text snippet with tags.
// Source is the natural key; re-saving the same source updates in place.
type Resource struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"content_type"`
	Source      string      `json:"source"`
	Title       string      `json:"title,omitempty"`
	Summary     string      `json:"summary,omitempty"`
	Tags        []string    `json:"tags"`
	RawContent  string      `json:"raw_content,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Tag is a vocabulary entry. Name is the unique lowercase-hyphenated key;
// tags are created implicitly on first usage increment.
type Tag struct {
	Name       string    `json:"name"`
	Aliases    []string  `json:"aliases"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}
