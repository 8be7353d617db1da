package resource

import "errors"

var (
	// ErrEmptySource indicates a save without a source.
	ErrEmptySource = errors.New("resource source cannot be empty")
	// ErrInvalidContentType indicates an unknown content type.
	ErrInvalidContentType = errors.New("content type must be url, file, or text")
	// ErrInvalidTagMerge indicates a merge with empty or identical tag names.
	ErrInvalidTagMerge = errors.New("tag merge requires two distinct non-empty tags")
)
