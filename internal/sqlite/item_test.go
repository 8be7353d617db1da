package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowd/internal/domain/task"
	"flowd/internal/repository"
)

func testItem(id string, itemType task.ItemType, createdAt time.Time) *task.Item {
	return &task.Item{
		ID:        id,
		Type:      itemType,
		Title:     "Item " + id,
		Status:    task.StatusActive,
		CreatedAt: createdAt,
	}
}

func TestItemInsertAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	duration := 15
	item := &task.Item{
		ID:                "i1",
		Type:              task.TypeInbox,
		Title:             "Reply to Sam",
		Status:            task.StatusActive,
		ContextTags:       []string{"@email", "work"},
		CreatedAt:         time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		DueDate:           &due,
		Meta:              map[string]interface{}{"energy": "low"},
		EstimatedDuration: &duration,
	}
	require.NoError(t, repo.Insert(ctx, item))

	got, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "Reply to Sam", got.Title)
	assert.Equal(t, task.TypeInbox, got.Type)
	assert.Equal(t, []string{"@email", "work"}, got.ContextTags)
	assert.Equal(t, "low", got.Meta["energy"])
	require.NotNil(t, got.EstimatedDuration)
	assert.Equal(t, 15, *got.EstimatedDuration)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
	assert.Nil(t, got.ParentID)
	assert.Nil(t, got.UpdatedAt)
}

func TestItemGetNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewItemRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestItemUpdate(t *testing.T) {
	db := NewTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item := testItem("i1", task.TypeInbox, time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, item))

	item.Title = "Clarified title"
	item.Status = task.StatusDone
	item.ContextTags = []string{"deep-work"}
	now := time.Now().UTC()
	item.UpdatedAt = &now
	require.NoError(t, repo.Update(ctx, item))

	got, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "Clarified title", got.Title)
	assert.Equal(t, task.StatusDone, got.Status)
	assert.Equal(t, []string{"deep-work"}, got.ContextTags)
	assert.NotNil(t, got.UpdatedAt)
}

func TestItemUpdateNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewItemRepository(db)

	err := repo.Update(context.Background(), testItem("ghost", task.TypeInbox, time.Now().UTC()))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestItemListFilters(t *testing.T) {
	db := NewTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	project := testItem("p1", task.TypeProject, base)
	require.NoError(t, repo.Insert(ctx, project))

	a := testItem("a", task.TypeInbox, base.Add(1*time.Hour))
	require.NoError(t, repo.Insert(ctx, a))

	b := testItem("b", task.TypeAction, base.Add(2*time.Hour))
	pid := "p1"
	b.ParentID = &pid
	require.NoError(t, repo.Insert(ctx, b))

	c := testItem("c", task.TypeInbox, base.Add(3*time.Hour))
	c.Status = task.StatusArchived
	require.NoError(t, repo.Insert(ctx, c))

	t.Run("by type and status", func(t *testing.T) {
		items, err := repo.List(ctx, task.ListOptions{
			Types:    []task.ItemType{task.TypeInbox},
			Statuses: []task.ItemStatus{task.StatusActive},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "a", items[0].ID)
	})

	t.Run("not statuses", func(t *testing.T) {
		items, err := repo.List(ctx, task.ListOptions{
			NotStatuses: []task.ItemStatus{task.StatusArchived},
		})
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("parent filter", func(t *testing.T) {
		pid := "p1"
		items, err := repo.List(ctx, task.ListOptions{ParentID: &pid})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "b", items[0].ID)
	})

	t.Run("top level only", func(t *testing.T) {
		root := ""
		items, err := repo.List(ctx, task.ListOptions{
			ParentID: &root,
			Types:    []task.ItemType{task.TypeInbox},
		})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("created before", func(t *testing.T) {
		cutoff := base.Add(90 * time.Minute)
		items, err := repo.List(ctx, task.ListOptions{CreatedBefore: &cutoff})
		require.NoError(t, err)
		assert.Len(t, items, 2) // p1 and a
	})

	t.Run("fifo order", func(t *testing.T) {
		items, err := repo.List(ctx, task.ListOptions{Types: []task.ItemType{task.TypeInbox}})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0].ID)
		assert.Equal(t, "c", items[1].ID)
	})

	t.Run("descending with limit", func(t *testing.T) {
		items, err := repo.List(ctx, task.ListOptions{OrderDesc: true, Limit: 2})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "c", items[0].ID)
		assert.Equal(t, "b", items[1].ID)
	})
}

func TestItemListCompletedAfter(t *testing.T) {
	db := NewTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	old := testItem("old", task.TypeAction, time.Now().UTC().Add(-48*time.Hour))
	old.Status = task.StatusDone
	oldStamp := time.Now().UTC().Add(-36 * time.Hour)
	old.UpdatedAt = &oldStamp
	require.NoError(t, repo.Insert(ctx, old))

	recent := testItem("recent", task.TypeAction, time.Now().UTC().Add(-48*time.Hour))
	recent.Status = task.StatusDone
	recentStamp := time.Now().UTC().Add(-1 * time.Hour)
	recent.UpdatedAt = &recentStamp
	require.NoError(t, repo.Insert(ctx, recent))

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	items, err := repo.List(ctx, task.ListOptions{
		Statuses:       []task.ItemStatus{task.StatusDone},
		CompletedAfter: &cutoff,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "recent", items[0].ID)
}
