package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flowd/internal/repository"

	"github.com/google/uuid"
)

// Service is the workflow engine: capture, visibility, lifecycle transitions,
// and project assignment. All item mutations in the system go through it.
type Service struct {
	items   ItemRepository
	tags    TagUsage
	advisor Advisor
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new workflow service. tags and advisor may be nil,
// which disables auto-tagging and LLM duration estimation.
func NewService(items ItemRepository, tags TagUsage, advisor Advisor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		items:   items,
		tags:    tags,
		advisor: advisor,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CaptureRequest describes a quick-capture input.
type CaptureRequest struct {
	Text string
	// Tags are explicit context tags; when present auto-tagging is skipped.
	Tags []string
	// Meta is an optional opaque payload attached to the item.
	Meta map[string]any
	// SkipAutoTag leaves tags empty without consulting the advisor.
	SkipAutoTag bool
}

// Capture creates an inbox item. Unless tags were given or SkipAutoTag is
// set, an auto-tagging attempt runs in the background: the returned item
// reflects the pre-tagging state and callers must re-fetch to observe tags.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*Item, error) {
	item, tag, err := s.insertCapture(ctx, req)
	if err != nil {
		return nil, err
	}
	if tag {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Warn("auto-tagging panicked", "item", item.ID, "panic", r)
				}
			}()
			s.autoTag(context.Background(), item.ID, item.Title)
		}()
	}
	return item, nil
}

// CaptureAndWait is the blocking capture variant for callers that must
// observe tags before returning, such as a one-shot CLI invocation.
// onTaggingStarted, when non-nil, is invoked before tagging runs.
func (s *Service) CaptureAndWait(ctx context.Context, req CaptureRequest, onTaggingStarted func()) (*Item, error) {
	item, tag, err := s.insertCapture(ctx, req)
	if err != nil {
		return nil, err
	}
	if !tag {
		return item, nil
	}
	if onTaggingStarted != nil {
		onTaggingStarted()
	}
	s.autoTag(ctx, item.ID, item.Title)
	tagged, err := s.items.Get(ctx, item.ID)
	if err != nil {
		return item, nil
	}
	return tagged, nil
}

func (s *Service) insertCapture(ctx context.Context, req CaptureRequest) (*Item, bool, error) {
	title := strings.TrimSpace(req.Text)
	if title == "" {
		return nil, false, ErrEmptyTitle
	}

	item := &Item{
		ID:          uuid.NewString(),
		Type:        TypeInbox,
		Title:       title,
		Status:      StatusActive,
		ContextTags: append([]string(nil), req.Tags...),
		CreatedAt:   s.now(),
		Meta:        req.Meta,
	}
	if item.Meta == nil {
		item.Meta = map[string]any{}
	}
	if err := s.items.Insert(ctx, item); err != nil {
		return nil, false, fmt.Errorf("inserting capture: %w", err)
	}

	tag := len(req.Tags) == 0 && !req.SkipAutoTag && s.advisor != nil
	return item, tag, nil
}

// autoTag extracts tags for a freshly captured item and merges them in.
// Best effort: all failures are logged and swallowed, and writes targeting
// an item deleted in the meantime are dropped.
func (s *Service) autoTag(ctx context.Context, itemID, text string) {
	var existing []string
	if s.tags != nil {
		names, err := s.tags.Names(ctx)
		if err != nil {
			s.logger.Debug("loading tag vocabulary failed", "error", err)
		} else {
			existing = names
		}
	}

	extracted := s.advisor.ExtractTags(ctx, text, "text", existing)
	if len(extracted) == 0 {
		return
	}

	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		s.logger.Debug("auto-tagging skipped, item gone", "item", itemID)
		return
	}
	item.ContextTags = mergeTags(item.ContextTags, extracted)
	if err := s.items.Update(ctx, item); err != nil {
		s.logger.Debug("auto-tagging update failed", "item", itemID, "error", err)
		return
	}
	if s.tags != nil {
		for _, tag := range extracted {
			if err := s.tags.IncrementUsage(ctx, tag); err != nil {
				s.logger.Debug("tag usage increment failed", "tag", tag, "error", err)
			}
		}
	}
}

// mergeTags unions two tag lists preserving first-seen order.
func mergeTags(current, incoming []string) []string {
	seen := make(map[string]bool, len(current)+len(incoming))
	merged := make([]string, 0, len(current)+len(incoming))
	for _, t := range current {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range incoming {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return merged
}

// GetItem returns one item by id, or nil if it doesn't exist.
func (s *Service) GetItem(ctx context.Context, id string) (*Item, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// UpdateItem persists changes to an item.
func (s *Service) UpdateItem(ctx context.Context, item *Item) error {
	if err := s.items.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// ListInbox returns visible inbox items: type=inbox, status=active, no
// parent, and any defer-until gate elapsed. FIFO by creation time.
func (s *Service) ListInbox(ctx context.Context) ([]*Item, error) {
	rootOnly := ""
	items, err := s.items.List(ctx, ListOptions{
		Types:    []ItemType{TypeInbox},
		Statuses: []ItemStatus{StatusActive},
		ParentID: &rootOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}
	return s.visibleNow(items), nil
}

// NextActions returns visible active actions, optionally scoped to a parent
// project. FIFO by creation time.
func (s *Service) NextActions(ctx context.Context, parentID *string) ([]*Item, error) {
	items, err := s.items.List(ctx, ListOptions{
		Types:    []ItemType{TypeAction},
		Statuses: []ItemStatus{StatusActive},
		ParentID: parentID,
	})
	if err != nil {
		return nil, fmt.Errorf("listing next actions: %w", err)
	}
	return s.visibleNow(items), nil
}

func (s *Service) visibleNow(items []*Item) []*Item {
	now := s.now()
	visible := make([]*Item, 0, len(items))
	for _, item := range items {
		if until, ok := item.DeferUntil(); ok && until.After(now) {
			continue
		}
		visible = append(visible, item)
	}
	return visible
}

// DeferItem defers an item. Waiting and someday set the status directly;
// until keeps status=active and records a visibility gate in the meta
// payload. A missing item is a silent no-op.
func (s *Service) DeferItem(ctx context.Context, id string, mode DeferMode, until *time.Time) error {
	switch mode {
	case DeferWaiting, DeferSomeday:
	case DeferUntil:
		if until == nil {
			return ErrMissingDeferTime
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDeferMode, mode)
	}

	item, err := s.GetItem(ctx, id)
	if err != nil || item == nil {
		return err
	}

	switch mode {
	case DeferWaiting:
		item.Status = StatusWaiting
	case DeferSomeday:
		item.Status = StatusSomeday
	case DeferUntil:
		item.SetDeferUntil(*until)
	}
	return s.UpdateItem(ctx, item)
}

// AssignItemToProject parents an item under a project and normalizes its
// type to action. Fails with ErrNotProject if the target doesn't resolve to
// a project item; a missing item is a silent no-op.
func (s *Service) AssignItemToProject(ctx context.Context, itemID, projectID string) error {
	proj, err := s.GetItem(ctx, projectID)
	if err != nil {
		return err
	}
	if proj == nil || proj.Type != TypeProject {
		return fmt.Errorf("%w: %s", ErrNotProject, projectID)
	}

	item, err := s.GetItem(ctx, itemID)
	if err != nil || item == nil {
		return err
	}
	item.ParentID = &projectID
	item.Type = TypeAction
	return s.UpdateItem(ctx, item)
}

// CreateProject creates a project item and reparents the given items under
// it as actions. Missing children are skipped.
func (s *Service) CreateProject(ctx context.Context, name string, itemIDs []string) (*Item, error) {
	title := strings.TrimSpace(name)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	proj := &Item{
		ID:        uuid.NewString(),
		Type:      TypeProject,
		Title:     title,
		Status:    StatusActive,
		CreatedAt: s.now(),
		Meta:      map[string]any{},
	}
	if err := s.items.Insert(ctx, proj); err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	for _, id := range itemIDs {
		item, err := s.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		item.ParentID = &proj.ID
		item.Type = TypeAction
		if err := s.UpdateItem(ctx, item); err != nil {
			return nil, err
		}
	}
	return proj, nil
}

// UngroupItems clears parent_id and sets type=action for the given items.
func (s *Service) UngroupItems(ctx context.Context, itemIDs []string) error {
	for _, id := range itemIDs {
		item, err := s.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			continue
		}
		item.ParentID = nil
		item.Type = TypeAction
		if err := s.UpdateItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveItem soft-deletes an item. Missing items are a silent no-op.
func (s *Service) ArchiveItem(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, StatusArchived, false)
}

// ResurfaceItem brings a waiting/someday/archived item back to active.
func (s *Service) ResurfaceItem(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, StatusActive, false)
}

// CompleteItem marks an item done and stamps UpdatedAt, which drives the
// "done this period" report queries.
func (s *Service) CompleteItem(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, StatusDone, true)
}

func (s *Service) setStatus(ctx context.Context, id string, status ItemStatus, stamp bool) error {
	item, err := s.GetItem(ctx, id)
	if err != nil || item == nil {
		return err
	}
	item.Status = status
	if stamp {
		now := s.now()
		item.UpdatedAt = &now
	}
	return s.UpdateItem(ctx, item)
}

// GetStale returns non-archived, non-done items created more than days ago.
func (s *Service) GetStale(ctx context.Context, days int) ([]*Item, error) {
	cutoff := s.now().AddDate(0, 0, -days)
	items, err := s.items.List(ctx, ListOptions{
		CreatedBefore: &cutoff,
		NotStatuses:   []ItemStatus{StatusArchived, StatusDone},
	})
	if err != nil {
		return nil, fmt.Errorf("listing stale items: %w", err)
	}
	return items, nil
}

// SomedaySuggestions returns items parked as someday, for weekly review.
func (s *Service) SomedaySuggestions(ctx context.Context) ([]*Item, error) {
	items, err := s.items.List(ctx, ListOptions{Statuses: []ItemStatus{StatusSomeday}})
	if err != nil {
		return nil, fmt.Errorf("listing someday items: %w", err)
	}
	return items, nil
}

// ProjectOpenTasks returns the project's children that keep it alive:
// status active, waiting, or someday (an active child with a future
// defer-until is still active and therefore counted).
func (s *Service) ProjectOpenTasks(ctx context.Context, projectID string) ([]*Item, error) {
	items, err := s.items.List(ctx, ListOptions{
		ParentID: &projectID,
		Statuses: []ItemStatus{StatusActive, StatusWaiting, StatusSomeday},
	})
	if err != nil {
		return nil, fmt.Errorf("listing project tasks: %w", err)
	}
	return items, nil
}

// ProjectHasActiveOrDeferredTasks reports whether a project is still alive.
func (s *Service) ProjectHasActiveOrDeferredTasks(ctx context.Context, projectID string) (bool, error) {
	open, err := s.ProjectOpenTasks(ctx, projectID)
	if err != nil {
		return false, err
	}
	return len(open) > 0, nil
}

// SetItemDuration sets the estimated duration manually. The value must be
// one of the allowed buckets and the item must exist.
func (s *Service) SetItemDuration(ctx context.Context, id string, minutes int) error {
	if !IsValidDuration(minutes) {
		return fmt.Errorf("%w: got %d", ErrInvalidDuration, minutes)
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	item.EstimatedDuration = &minutes
	return s.UpdateItem(ctx, item)
}

// EstimateItemDuration estimates and stores a duration for an item, via the
// advisor when available with the keyword heuristic as fallback. Returns 0
// for a missing item.
func (s *Service) EstimateItemDuration(ctx context.Context, id string, useLLM bool) (int, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil || item == nil {
		return 0, err
	}

	duration := 0
	if useLLM && s.advisor != nil {
		duration = s.advisor.EstimateDuration(ctx, item.Title)
	}
	if duration == 0 {
		duration = EstimateDurationHeuristic(item.Title)
	}
	item.EstimatedDuration = &duration
	if err := s.UpdateItem(ctx, item); err != nil {
		return 0, err
	}
	return duration, nil
}

// WeeklyReport renders a markdown summary of items completed in the last
// days, by completion stamp.
func (s *Service) WeeklyReport(ctx context.Context, days int) (string, error) {
	cutoff := s.now().AddDate(0, 0, -days)
	done, err := s.items.List(ctx, ListOptions{
		Statuses:       []ItemStatus{StatusDone},
		CompletedAfter: &cutoff,
		OrderDesc:      true,
	})
	if err != nil {
		return "", fmt.Errorf("listing completed items: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Flow Weekly Report\n\n")
	fmt.Fprintf(&b, "**Completed this week:** %d items\n\n## Done\n\n", len(done))
	for _, item := range done {
		title := item.Title
		if len(title) > 80 {
			title = title[:80] + "..."
		}
		fmt.Fprintf(&b, "- %s\n", title)
	}
	return b.String(), nil
}
