package task

import "time"

// ListOptions provides filtering options for listing items.
// ParentID follows the convention: nil means no filter, empty string means
// parent IS NULL, anything else matches that parent exactly.
type ListOptions struct {
	Types          []ItemType
	Statuses       []ItemStatus
	NotStatuses    []ItemStatus
	ParentID       *string
	CreatedBefore  *time.Time
	CompletedAfter *time.Time
	OrderDesc      bool
	Limit          int
}
