package task

import "errors"

var (
	// ErrEmptyTitle indicates a title was empty or whitespace-only.
	ErrEmptyTitle = errors.New("title cannot be empty")
	// ErrInvalidDuration indicates a duration outside the allowed values.
	ErrInvalidDuration = errors.New("duration must be one of 5, 15, 30, 60, 120 minutes")
	// ErrInvalidDeferMode indicates an unknown defer mode.
	ErrInvalidDeferMode = errors.New("invalid defer mode")
	// ErrMissingDeferTime indicates defer-until was requested without a time.
	ErrMissingDeferTime = errors.New("defer until requires a timestamp")
	// ErrNotProject indicates the target of a project assignment is not a project.
	ErrNotProject = errors.New("target item is not a project")
	// ErrItemNotFound indicates the item doesn't exist.
	ErrItemNotFound = errors.New("item not found")
)
