package task

import "time"

// ItemType classifies an item within the GTD funnel
type ItemType string

const (
	TypeInbox     ItemType = "inbox"
	TypeAction    ItemType = "action"
	TypeProject   ItemType = "project"
	TypeReference ItemType = "reference"
)

// ItemStatus represents the workflow status of an item
type ItemStatus string

const (
	StatusActive   ItemStatus = "active"
	StatusDone     ItemStatus = "done"
	StatusWaiting  ItemStatus = "waiting"
	StatusSomeday  ItemStatus = "someday"
	StatusArchived ItemStatus = "archived"
)

// MetaDeferUntil is the meta payload key holding the defer-until timestamp.
// An item carrying it stays active; visibility is gated until the time elapses.
const MetaDeferUntil = "defer_until"

// MetaEnergy is an optional meta payload hint ("high", "low") used by the
// focus dispatcher for long time windows.
const MetaEnergy = "energy"

// ValidDurations are the allowed estimated durations in minutes.
var ValidDurations = []int{5, 15, 30, 60, 120}

// Item is a single task, project, or reference in the system.
// Items are soft-deleted only: archival sets status, rows are never removed.
type Item struct {
	ID                string         `json:"id"`
	Type              ItemType       `json:"type"`
	Title             string         `json:"title"`
	Status            ItemStatus     `json:"status"`
	ContextTags       []string       `json:"context_tags"`
	ParentID          *string        `json:"parent_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	DueDate           *time.Time     `json:"due_date,omitempty"`
	Meta              map[string]any `json:"meta_payload"`
	EstimatedDuration *int           `json:"estimated_duration,omitempty"`
	UpdatedAt         *time.Time     `json:"updated_at,omitempty"`
}

// Clone returns a copy of the item with its own tag slice and meta map.
func (i *Item) Clone() *Item {
	c := *i
	c.ContextTags = append([]string(nil), i.ContextTags...)
	if i.Meta != nil {
		c.Meta = make(map[string]any, len(i.Meta))
		for k, v := range i.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}

// DeferUntil returns the parsed defer-until timestamp, if one is set.
// Malformed values are treated as absent.
func (i *Item) DeferUntil() (time.Time, bool) {
	if i.Meta == nil {
		return time.Time{}, false
	}
	raw, ok := i.Meta[MetaDeferUntil].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	return parseTimestamp(raw)
}

// SetDeferUntil stores a defer-until timestamp in the meta payload.
func (i *Item) SetDeferUntil(t time.Time) {
	if i.Meta == nil {
		i.Meta = map[string]any{}
	}
	i.Meta[MetaDeferUntil] = t.UTC().Format(time.RFC3339)
}

// IsValidDuration reports whether minutes is an allowed duration value.
func IsValidDuration(minutes int) bool {
	for _, d := range ValidDurations {
		if d == minutes {
			return true
		}
	}
	return false
}
