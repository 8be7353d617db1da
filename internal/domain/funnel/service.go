// Package funnel runs the four-stage inbox triage: duplicate review,
// project clustering, quick wins, and next-action coaching. A session
// works over an immutable snapshot of the inbox taken at start; every
// accepted change is persisted through the workflow engine and shadowed
// onto the snapshot so later stages see it.
package funnel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flowd/internal/ai"
	"flowd/internal/domain/task"
)

const (
	// QuickWinCutoff is the estimated-duration ceiling for stage three.
	QuickWinCutoff = 15
	// quickWinMax caps how many items stage three surfaces per session.
	quickWinMax = 20
)

// Workflow is the slice of the engine the funnel drives.
type Workflow interface {
	ListInbox(ctx context.Context) ([]*task.Item, error)
	GetItem(ctx context.Context, id string) (*task.Item, error)
	UpdateItem(ctx context.Context, item *task.Item) error
	ArchiveItem(ctx context.Context, id string) error
	CompleteItem(ctx context.Context, id string) error
	DeferItem(ctx context.Context, id string, mode task.DeferMode, until *time.Time) error
	CreateProject(ctx context.Context, name string, itemIDs []string) (*task.Item, error)
}

// Service creates funnel sessions.
type Service struct {
	engine  Workflow
	advisor ai.Advisor
	logger  *slog.Logger
}

func NewService(engine Workflow, advisor ai.Advisor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if advisor == nil {
		advisor = ai.Unavailable{}
	}
	return &Service{engine: engine, advisor: advisor, logger: logger}
}

// Session is one pass through the funnel. Not safe for concurrent use.
type Session struct {
	svc   *Service
	items []*task.Item

	dedupIdx  int
	twoMinIdx int
	coachIdx  int
}

// Start snapshots the current inbox and returns a session over it. Items
// captured after this point are not part of the session.
func (s *Service) Start(ctx context.Context) (*Session, error) {
	inbox, err := s.engine.ListInbox(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading inbox: %w", err)
	}
	items := make([]*task.Item, len(inbox))
	for i, it := range inbox {
		items[i] = it.Clone()
	}
	return &Session{svc: s, items: items}, nil
}

// Len reports the snapshot size.
func (sess *Session) Len() int { return len(sess.items) }

// active returns snapshot items not archived during this session.
func (sess *Session) active() []*task.Item {
	out := make([]*task.Item, 0, len(sess.items))
	for _, it := range sess.items {
		if it.Status != task.StatusArchived {
			out = append(out, it)
		}
	}
	return out
}

func (sess *Session) find(id string) *task.Item {
	for _, it := range sess.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Pair is one adjacent pair offered for duplicate review. Judged is false
// when no classifier verdict is available.
type Pair struct {
	A, B            *task.Item
	LikelyDuplicate bool
	Judged          bool
}

// DedupPair returns the next adjacent pair of non-archived items, or nil
// when the stage is exhausted. Each call advances the cursor by one, so
// items A, B, C yield (A,B) then (B,C).
func (sess *Session) DedupPair(ctx context.Context) *Pair {
	active := sess.active()
	if sess.dedupIdx+1 >= len(active) {
		return nil
	}
	a, b := active[sess.dedupIdx], active[sess.dedupIdx+1]
	sess.dedupIdx++

	dup, ok := sess.svc.advisor.ClassifyDuplicate(ctx, a.Title, b.Title)
	return &Pair{A: a, B: b, LikelyDuplicate: dup, Judged: ok}
}

// DedupMerge keeps one item of a pair and archives the other. The kept
// title becomes "kept / removed" so no wording is lost.
func (sess *Session) DedupMerge(ctx context.Context, keepID, removeID string) error {
	keep, err := sess.svc.engine.GetItem(ctx, keepID)
	if err != nil {
		return err
	}
	remove, err := sess.svc.engine.GetItem(ctx, removeID)
	if err != nil {
		return err
	}
	if keep == nil || remove == nil {
		return nil
	}

	keep.Title = keep.Title + " / " + remove.Title
	if err := sess.svc.engine.UpdateItem(ctx, keep); err != nil {
		return fmt.Errorf("merging titles: %w", err)
	}
	if err := sess.svc.engine.ArchiveItem(ctx, removeID); err != nil {
		return fmt.Errorf("archiving duplicate: %w", err)
	}

	if shadow := sess.find(keepID); shadow != nil {
		shadow.Title = keep.Title
	}
	if shadow := sess.find(removeID); shadow != nil {
		shadow.Status = task.StatusArchived
	}
	return nil
}

// DedupKeepBoth records that a pair is not a duplicate. The cursor already
// advanced when the pair was produced, so this is a no-op.
func (sess *Session) DedupKeepBoth() {}

// Cluster is a suggested project over session items.
type Cluster struct {
	Name    string
	ItemIDs []string
}

// ClusterSuggestions asks the advisor for project groupings over the
// remaining items. Out-of-range indices are dropped; a suggestion survives
// as long as at least one item resolves.
func (sess *Session) ClusterSuggestions(ctx context.Context) []Cluster {
	active := sess.active()
	if len(active) < 2 {
		return nil
	}
	titles := make([]string, len(active))
	for i, it := range active {
		titles[i] = it.Title
	}

	var clusters []Cluster
	for _, g := range sess.svc.advisor.SuggestGroupings(ctx, titles) {
		ids := make([]string, 0, len(g.Indices))
		for _, idx := range g.Indices {
			if idx < 0 || idx >= len(active) {
				continue
			}
			ids = append(ids, active[idx].ID)
		}
		if g.Name == "" || len(ids) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{Name: g.Name, ItemIDs: ids})
	}
	return clusters
}

// AcceptCluster creates the suggested project and reparents its items.
func (sess *Session) AcceptCluster(ctx context.Context, c Cluster) (*task.Item, error) {
	project, err := sess.svc.engine.CreateProject(ctx, c.Name, c.ItemIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range c.ItemIDs {
		if shadow := sess.find(id); shadow != nil {
			pid := project.ID
			shadow.ParentID = &pid
			shadow.Type = task.TypeAction
		}
	}
	return project, nil
}

// TwoMinuteItems returns the quick-win queue: non-archived, non-project
// items estimated at QuickWinCutoff minutes or less. Items with no
// estimate at all are offered only when nothing qualifies. Capped at
// quickWinMax.
func (sess *Session) TwoMinuteItems() []*task.Item {
	var short, unknown []*task.Item
	for _, it := range sess.active() {
		if it.Type == task.TypeProject {
			continue
		}
		switch {
		case it.EstimatedDuration != nil && *it.EstimatedDuration <= QuickWinCutoff:
			short = append(short, it)
		case it.EstimatedDuration == nil:
			unknown = append(unknown, it)
		}
	}
	queue := short
	if len(queue) == 0 {
		queue = unknown
	}
	if len(queue) > quickWinMax {
		queue = queue[:quickWinMax]
	}
	return queue
}

// TwoMinuteCurrent returns the quick-win item under the cursor, or nil.
func (sess *Session) TwoMinuteCurrent() *task.Item {
	queue := sess.TwoMinuteItems()
	if sess.twoMinIdx >= len(queue) {
		return nil
	}
	return queue[sess.twoMinIdx]
}

// TwoMinuteAdvance skips the current quick-win item.
func (sess *Session) TwoMinuteAdvance() { sess.twoMinIdx++ }

// TwoMinuteDoNow completes the current quick-win item.
func (sess *Session) TwoMinuteDoNow(ctx context.Context) error {
	cur := sess.TwoMinuteCurrent()
	if cur == nil {
		return nil
	}
	if err := sess.svc.engine.CompleteItem(ctx, cur.ID); err != nil {
		return err
	}
	cur.Status = task.StatusDone
	sess.twoMinIdx++
	return nil
}

// TwoMinuteDelete archives the current quick-win item. Archiving removes
// it from the active set, so the cursor stays put.
func (sess *Session) TwoMinuteDelete(ctx context.Context) error {
	cur := sess.TwoMinuteCurrent()
	if cur == nil {
		return nil
	}
	if err := sess.svc.engine.ArchiveItem(ctx, cur.ID); err != nil {
		return err
	}
	cur.Status = task.StatusArchived
	return nil
}

// TwoMinuteDefer defers the current quick-win item and moves on.
func (sess *Session) TwoMinuteDefer(ctx context.Context, mode task.DeferMode, until *time.Time) error {
	cur := sess.TwoMinuteCurrent()
	if cur == nil {
		return nil
	}
	if err := sess.svc.engine.DeferItem(ctx, cur.ID, mode, until); err != nil {
		return err
	}
	switch mode {
	case task.DeferWaiting:
		cur.Status = task.StatusWaiting
	case task.DeferSomeday:
		cur.Status = task.StatusSomeday
	case task.DeferUntil:
		if until != nil {
			cur.SetDeferUntil(*until)
		}
	}
	sess.twoMinIdx++
	return nil
}

// coachQueue is the remaining non-archived, non-project items.
func (sess *Session) coachQueue() []*task.Item {
	var queue []*task.Item
	for _, it := range sess.active() {
		if it.Type == task.TypeProject {
			continue
		}
		queue = append(queue, it)
	}
	return queue
}

// CoachCurrent returns the item under the coaching cursor, or nil.
func (sess *Session) CoachCurrent() *task.Item {
	queue := sess.coachQueue()
	if sess.coachIdx >= len(queue) {
		return nil
	}
	return queue[sess.coachIdx]
}

// CoachAdvance keeps the current title as-is and moves on.
func (sess *Session) CoachAdvance() { sess.coachIdx++ }

// CoachSuggest proposes a verb-first rewrite of the current item's title.
// Empty string when no advisor is available.
func (sess *Session) CoachSuggest(ctx context.Context) string {
	cur := sess.CoachCurrent()
	if cur == nil {
		return ""
	}
	return sess.svc.advisor.SuggestActionPhrase(ctx, cur.Title)
}

// CoachApplySuggestion renames an item to the given phrase and, when the
// item has no duration estimate yet, fills one in (advisor first, keyword
// heuristic as fallback). A missing item is a silent no-op.
func (sess *Session) CoachApplySuggestion(ctx context.Context, itemID, phrase string) error {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return task.ErrEmptyTitle
	}
	item, err := sess.svc.engine.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	item.Title = phrase
	if item.EstimatedDuration == nil {
		minutes := sess.svc.advisor.EstimateDuration(ctx, phrase)
		if !task.IsValidDuration(minutes) {
			minutes = task.EstimateDurationHeuristic(phrase)
		}
		item.EstimatedDuration = &minutes
	}
	if err := sess.svc.engine.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("applying coached title: %w", err)
	}

	if shadow := sess.find(itemID); shadow != nil {
		shadow.Title = item.Title
		shadow.EstimatedDuration = item.EstimatedDuration
	}
	sess.coachIdx++
	return nil
}
