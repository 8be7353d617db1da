package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flowd/internal/domain/task"
	"flowd/internal/repository/mocks"
	"flowd/internal/sqlite"
)

// stubAdvisor is a deterministic task.Advisor for tests.
type stubAdvisor struct {
	tags     []string
	duration int
}

func (s *stubAdvisor) ExtractTags(_ context.Context, _, _ string, _ []string) []string {
	return s.tags
}

func (s *stubAdvisor) EstimateDuration(_ context.Context, _ string) int {
	return s.duration
}

func newTestEngine(t *testing.T, advisor task.Advisor) (*task.Service, *sqlite.TagRepository, *sqlite.ItemRepository) {
	t.Helper()
	db := sqlite.NewTestDB(t)
	items := sqlite.NewItemRepository(db)
	tags := sqlite.NewTagRepository(db)
	return task.NewService(items, tags, advisor, nil), tags, items
}

func TestCaptureEmptyTitle(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)

	_, err := svc.Capture(context.Background(), task.CaptureRequest{Text: "   "})
	assert.ErrorIs(t, err, task.ErrEmptyTitle)
}

func TestCaptureAndWaitAutoTags(t *testing.T) {
	svc, tags, _ := newTestEngine(t, &stubAdvisor{tags: []string{"work", "email"}})
	ctx := context.Background()

	hookCalled := false
	item, err := svc.CaptureAndWait(ctx, task.CaptureRequest{Text: "Reply to Sam about the contract"}, func() {
		hookCalled = true
	})
	require.NoError(t, err)
	assert.True(t, hookCalled, "tagging hook should run before tagging")
	assert.Equal(t, []string{"work", "email"}, item.ContextTags)
	assert.Equal(t, task.TypeInbox, item.Type)
	assert.Equal(t, task.StatusActive, item.Status)

	workTag, err := tags.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, 1, workTag.UsageCount)
}

func TestCaptureExplicitTagsSkipAdvisor(t *testing.T) {
	svc, _, _ := newTestEngine(t, &stubAdvisor{tags: []string{"should-not-appear"}})

	hookCalled := false
	item, err := svc.CaptureAndWait(context.Background(), task.CaptureRequest{
		Text: "Buy milk",
		Tags: []string{"errands"},
	}, func() { hookCalled = true })
	require.NoError(t, err)
	assert.False(t, hookCalled, "explicit tags must short-circuit auto-tagging")
	assert.Equal(t, []string{"errands"}, item.ContextTags)
}

func TestCaptureSkipAutoTag(t *testing.T) {
	svc, _, _ := newTestEngine(t, &stubAdvisor{tags: []string{"should-not-appear"}})

	item, err := svc.CaptureAndWait(context.Background(), task.CaptureRequest{
		Text:        "Buy milk",
		SkipAutoTag: true,
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, item.ContextTags)
}

func TestListInboxVisibility(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	visible, err := svc.Capture(ctx, task.CaptureRequest{Text: "visible"})
	require.NoError(t, err)

	deferred, err := svc.Capture(ctx, task.CaptureRequest{Text: "deferred to future"})
	require.NoError(t, err)
	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, svc.DeferItem(ctx, deferred.ID, task.DeferUntil, &future))

	elapsed, err := svc.Capture(ctx, task.CaptureRequest{Text: "gate already elapsed"})
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, svc.DeferItem(ctx, elapsed.ID, task.DeferUntil, &past))

	waiting, err := svc.Capture(ctx, task.CaptureRequest{Text: "waiting on reply"})
	require.NoError(t, err)
	require.NoError(t, svc.DeferItem(ctx, waiting.ID, task.DeferWaiting, nil))

	inbox, err := svc.ListInbox(ctx)
	require.NoError(t, err)
	ids := make([]string, len(inbox))
	for i, it := range inbox {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{visible.ID, elapsed.ID}, ids)

	// A deferred-until item stays active; only visibility is gated
	got, err := svc.GetItem(ctx, deferred.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusActive, got.Status)
}

func TestDeferWaitingIdempotent(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	item, err := svc.Capture(ctx, task.CaptureRequest{Text: "waiting on vendor"})
	require.NoError(t, err)

	require.NoError(t, svc.DeferItem(ctx, item.ID, task.DeferWaiting, nil))
	require.NoError(t, svc.DeferItem(ctx, item.ID, task.DeferWaiting, nil))

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusWaiting, got.Status)
}

func TestDeferValidation(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	item, err := svc.Capture(ctx, task.CaptureRequest{Text: "something"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeferItem(ctx, item.ID, task.DeferUntil, nil), task.ErrMissingDeferTime)
	assert.ErrorIs(t, svc.DeferItem(ctx, item.ID, task.DeferMode("later"), nil), task.ErrInvalidDeferMode)

	// Missing item is a silent no-op
	assert.NoError(t, svc.DeferItem(ctx, "ghost", task.DeferWaiting, nil))
}

func TestAssignItemToNonProject(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	item, err := svc.Capture(ctx, task.CaptureRequest{Text: "orphan"})
	require.NoError(t, err)
	notProject, err := svc.Capture(ctx, task.CaptureRequest{Text: "not a project"})
	require.NoError(t, err)

	err = svc.AssignItemToProject(ctx, item.ID, notProject.ID)
	assert.ErrorIs(t, err, task.ErrNotProject)

	err = svc.AssignItemToProject(ctx, item.ID, "missing")
	assert.ErrorIs(t, err, task.ErrNotProject)

	// Failed assignment must not change the item
	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, task.TypeInbox, got.Type)
}

func TestCreateProjectGroupsItems(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	a, err := svc.Capture(ctx, task.CaptureRequest{Text: "book venue"})
	require.NoError(t, err)
	b, err := svc.Capture(ctx, task.CaptureRequest{Text: "send invites"})
	require.NoError(t, err)

	proj, err := svc.CreateProject(ctx, "Launch party", []string{a.ID, b.ID, "ghost"})
	require.NoError(t, err)
	assert.Equal(t, task.TypeProject, proj.Type)

	children, err := svc.ProjectOpenTasks(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	for _, child := range children {
		assert.Equal(t, task.TypeAction, child.Type)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, proj.ID, *child.ParentID)
	}

	// Grouped items leave the inbox
	inbox, err := svc.ListInbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestProjectAliveness(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	a, err := svc.Capture(ctx, task.CaptureRequest{Text: "draft outline"})
	require.NoError(t, err)
	proj, err := svc.CreateProject(ctx, "Write talk", []string{a.ID})
	require.NoError(t, err)

	alive, err := svc.ProjectHasActiveOrDeferredTasks(ctx, proj.ID)
	require.NoError(t, err)
	assert.True(t, alive)

	require.NoError(t, svc.CompleteItem(ctx, a.ID))
	alive, err = svc.ProjectHasActiveOrDeferredTasks(ctx, proj.ID)
	require.NoError(t, err)
	assert.False(t, alive)

	// Parking the task as someday revives the project
	require.NoError(t, svc.DeferItem(ctx, a.ID, task.DeferSomeday, nil))
	alive, err = svc.ProjectHasActiveOrDeferredTasks(ctx, proj.ID)
	require.NoError(t, err)
	assert.True(t, alive)
}

func TestCompleteStampsUpdatedAt(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	item, err := svc.Capture(ctx, task.CaptureRequest{Text: "file expenses"})
	require.NoError(t, err)
	require.NoError(t, svc.CompleteItem(ctx, item.ID))

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)
	require.NotNil(t, got.UpdatedAt)

	report, err := svc.WeeklyReport(ctx, 7)
	require.NoError(t, err)
	assert.Contains(t, report, "file expenses")
	assert.Contains(t, report, "1 items")
}

func TestGetStale(t *testing.T) {
	svc, _, items := newTestEngine(t, nil)
	ctx := context.Background()

	old := &task.Item{
		ID:        "old",
		Type:      task.TypeInbox,
		Title:     "forgotten",
		Status:    task.StatusActive,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -40),
	}
	require.NoError(t, items.Insert(ctx, old))

	archived := &task.Item{
		ID:        "archived",
		Type:      task.TypeInbox,
		Title:     "buried",
		Status:    task.StatusArchived,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -40),
	}
	require.NoError(t, items.Insert(ctx, archived))

	_, err := svc.Capture(ctx, task.CaptureRequest{Text: "fresh"})
	require.NoError(t, err)

	stale, err := svc.GetStale(ctx, 30)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].ID)
}

func TestSetItemDuration(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	item, err := svc.Capture(ctx, task.CaptureRequest{Text: "review budget"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetItemDuration(ctx, item.ID, 45), task.ErrInvalidDuration)
	assert.ErrorIs(t, svc.SetItemDuration(ctx, "ghost", 15), task.ErrItemNotFound)

	require.NoError(t, svc.SetItemDuration(ctx, item.ID, 15))
	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EstimatedDuration)
	assert.Equal(t, 15, *got.EstimatedDuration)
}

func TestEstimateItemDuration(t *testing.T) {
	t.Run("advisor answer wins", func(t *testing.T) {
		svc, _, _ := newTestEngine(t, &stubAdvisor{duration: 60})
		ctx := context.Background()

		item, err := svc.CaptureAndWait(ctx, task.CaptureRequest{Text: "plan offsite", SkipAutoTag: true}, nil)
		require.NoError(t, err)

		minutes, err := svc.EstimateItemDuration(ctx, item.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 60, minutes)
	})

	t.Run("heuristic fallback", func(t *testing.T) {
		svc, _, _ := newTestEngine(t, &stubAdvisor{duration: 0})
		ctx := context.Background()

		item, err := svc.CaptureAndWait(ctx, task.CaptureRequest{Text: "Reply to email from Kim", SkipAutoTag: true}, nil)
		require.NoError(t, err)

		minutes, err := svc.EstimateItemDuration(ctx, item.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 5, minutes)

		got, err := svc.GetItem(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, got.EstimatedDuration)
		assert.Equal(t, 5, *got.EstimatedDuration)
	})

	t.Run("missing item", func(t *testing.T) {
		svc, _, _ := newTestEngine(t, nil)
		minutes, err := svc.EstimateItemDuration(context.Background(), "ghost", false)
		require.NoError(t, err)
		assert.Zero(t, minutes)
	})
}

func TestCaptureInsertFailure(t *testing.T) {
	items := &mocks.ItemRepository{}
	items.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := task.NewService(items, nil, nil, nil)
	_, err := svc.Capture(context.Background(), task.CaptureRequest{Text: "doomed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
