// Package focus recommends the single next action to work on, sized to
// the time remaining before the next calendar event.
package focus

import (
	"context"
	"fmt"
	"log/slog"

	"flowd/internal/calendar"
	"flowd/internal/domain/task"
)

const (
	// QuickWinThreshold is the window under which only short or admin
	// tasks are recommended.
	QuickWinThreshold = 30
	// DeepWorkThreshold is the window beyond which high-energy tasks
	// get priority.
	DeepWorkThreshold = 120
	// DefaultTimeWindow is assumed when the calendar is free or absent.
	DefaultTimeWindow = 60

	quickTaskMax = 15
	adminTag     = "@admin"
)

// Lister is the slice of the engine the dispatcher consumes.
type Lister interface {
	NextActions(ctx context.Context, parentID *string) ([]*task.Item, error)
}

// Recommendation is a focus pick with the window that shaped it.
type Recommendation struct {
	Item          *task.Item
	WindowMinutes int
	// NextEvent is the calendar event bounding the window, if any.
	NextEvent *calendar.Event
}

// Dispatcher picks the next action given the available time window.
// Skips are remembered until reset, so repeated calls walk the queue.
type Dispatcher struct {
	engine  Lister
	cal     *calendar.Cache
	logger  *slog.Logger
	skipped map[string]bool
}

func NewDispatcher(engine Lister, cal *calendar.Cache, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{engine: engine, cal: cal, logger: logger, skipped: make(map[string]bool)}
}

// Next recommends one task. Windows under QuickWinThreshold restrict to
// short or admin-tagged tasks; windows over DeepWorkThreshold prefer
// high-energy tasks; otherwise the oldest visible action wins. When the
// window filter matches nothing, the oldest visible action is the
// fallback. Returns nil when no actions remain.
func (d *Dispatcher) Next(ctx context.Context) (*Recommendation, error) {
	window := DefaultTimeWindow
	var event *calendar.Event
	if d.cal != nil {
		ev, err := d.cal.NextEvent(ctx)
		if err != nil {
			d.logger.Debug("calendar lookup failed", "error", err)
		} else if ev != nil {
			event = ev
			window = ev.MinutesUntilStart(d.cal.Now())
		}
	}

	actions, err := d.engine.NextActions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing next actions: %w", err)
	}
	candidates := make([]*task.Item, 0, len(actions))
	for _, it := range actions {
		if !d.skipped[it.ID] {
			candidates = append(candidates, it)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	pick := d.pickForWindow(candidates, window)
	if pick == nil {
		pick = candidates[0]
	}
	return &Recommendation{Item: pick, WindowMinutes: window, NextEvent: event}, nil
}

func (d *Dispatcher) pickForWindow(candidates []*task.Item, window int) *task.Item {
	switch {
	case window < QuickWinThreshold:
		for _, it := range candidates {
			if isQuick(it) {
				return it
			}
		}
		return nil
	case window > DeepWorkThreshold:
		for _, it := range candidates {
			if energy(it) == "high" {
				return it
			}
		}
		return candidates[0]
	default:
		return candidates[0]
	}
}

func isQuick(it *task.Item) bool {
	if it.EstimatedDuration != nil && *it.EstimatedDuration <= quickTaskMax {
		return true
	}
	for _, tag := range it.ContextTags {
		if tag == adminTag {
			return true
		}
	}
	return false
}

func energy(it *task.Item) string {
	if it.Meta == nil {
		return ""
	}
	if v, ok := it.Meta[task.MetaEnergy].(string); ok {
		return v
	}
	return ""
}

// SkipTask excludes a task from subsequent recommendations.
func (d *Dispatcher) SkipTask(id string) { d.skipped[id] = true }

// ResetSkipped clears all recorded skips.
func (d *Dispatcher) ResetSkipped() { d.skipped = make(map[string]bool) }
