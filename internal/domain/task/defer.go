package task

import (
	"strings"
	"time"
)

// DeferMode selects how an item is deferred.
type DeferMode string

const (
	// DeferWaiting parks the item as waiting-on-someone.
	DeferWaiting DeferMode = "waiting"
	// DeferSomeday parks the item on the someday/maybe list.
	DeferSomeday DeferMode = "someday"
	// DeferUntil keeps the item active but hides it until a timestamp elapses.
	DeferUntil DeferMode = "until"
)

// DefaultDeferHour is the local hour applied when a defer date has no time.
const DefaultDeferHour = 9

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp accepts both timezone-aware (RFC3339) and naive timestamps.
// Naive values are interpreted in local time. Everything is normalized to UTC
// so stored and wall-clock times compare without mixed-awareness failures.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseDeferInput parses user-facing defer-until input into a UTC timestamp.
//
// Accepted values:
//   - tomorrow
//   - next week
//   - YYYY-MM-DD
//   - YYYY-MM-DD HH:MM
//
// Date-only values default to DefaultDeferHour local time.
func ParseDeferInput(raw string, now time.Time) (time.Time, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return time.Time{}, false
	}

	atDefaultHour := func(t time.Time) time.Time {
		local := t.In(time.Local)
		return time.Date(local.Year(), local.Month(), local.Day(), DefaultDeferHour, 0, 0, 0, time.Local).UTC()
	}

	switch value {
	case "tomorrow":
		return atDefaultHour(now.AddDate(0, 0, 1)), true
	case "next week":
		return atDefaultHour(now.AddDate(0, 0, 7)), true
	}

	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local); err == nil {
		return t.UTC(), true
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return atDefaultHour(t), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}

	return time.Time{}, false
}
