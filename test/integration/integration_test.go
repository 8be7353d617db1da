package integration_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flowd/internal/ai"
	"flowd/internal/calendar"
	"flowd/internal/domain/focus"
	"flowd/internal/domain/funnel"
	"flowd/internal/domain/indexqueue"
	"flowd/internal/domain/resource"
	"flowd/internal/domain/task"
	"flowd/internal/sqlite"
	"flowd/internal/vector"
)

// wordEmbedder embeds text as term-presence vectors over a fixed vocabulary,
// giving deterministic cosine similarity without a network embedder.
type wordEmbedder struct {
	vocabulary []string
}

func (e *wordEmbedder) embed(text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocabulary))
	for i, word := range e.vocabulary {
		if strings.Contains(lower, word) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *wordEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	return e.embed(text)
}

func (e *wordEmbedder) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	return e.embed(query)
}

type testEnv struct {
	db           *sqlite.DB
	itemRepo     *sqlite.ItemRepository
	resourceRepo *sqlite.ResourceRepository
	tagRepo      *sqlite.TagRepository
	jobRepo      *sqlite.JobRepository

	engine  *task.Service
	matcher *resource.Service
	queue   *indexqueue.Service
	funnel  *funnel.Service
	focus   *focus.Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	itemRepo := sqlite.NewItemRepository(db)
	resourceRepo := sqlite.NewResourceRepository(db)
	tagRepo := sqlite.NewTagRepository(db)
	jobRepo := sqlite.NewJobRepository(db)

	embedder := &wordEmbedder{vocabulary: []string{"sqlite", "vector", "cooking", "pasta", "golang"}}
	store, err := vector.NewSQLiteStore(db.DB, embedder)
	require.NoError(t, err)

	queue := indexqueue.NewService(jobRepo, resourceRepo, store, nil)
	engine := task.NewService(itemRepo, tagRepo, nil, nil)
	matcher := resource.NewService(resourceRepo, tagRepo, queue, nil, nil)
	funnelSvc := funnel.NewService(engine, ai.Unavailable{}, nil)
	dispatcher := focus.NewDispatcher(engine, calendar.NewCache(nil, 5*time.Minute), nil)

	return &testEnv{
		db:           db,
		itemRepo:     itemRepo,
		resourceRepo: resourceRepo,
		tagRepo:      tagRepo,
		jobRepo:      jobRepo,
		engine:       engine,
		matcher:      matcher,
		queue:        queue,
		funnel:       funnelSvc,
		focus:        dispatcher,
	}
}

func (env *testEnv) capture(t *testing.T, ctx context.Context, text string) *task.Item {
	t.Helper()
	item, err := env.engine.Capture(ctx, task.CaptureRequest{Text: text})
	require.NoError(t, err)
	return item
}

func TestIntegration_CaptureToFocus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first := env.capture(t, ctx, "Book flights for the offsite")
	second := env.capture(t, ctx, "Reply to email from finance")

	inbox, err := env.engine.ListInbox(ctx)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	require.Equal(t, first.ID, inbox[0].ID)

	require.NoError(t, env.engine.SetItemDuration(ctx, second.ID, 5))

	proj, err := env.engine.CreateProject(ctx, "Offsite", []string{first.ID, second.ID})
	require.NoError(t, err)
	require.Equal(t, task.TypeProject, proj.Type)

	inbox, err = env.engine.ListInbox(ctx)
	require.NoError(t, err)
	require.Empty(t, inbox)

	children, err := env.engine.NextActions(ctx, &proj.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)

	// No calendar event configured, so the dispatcher uses the default
	// window and recommends the oldest action.
	rec, err := env.focus.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, first.ID, rec.Item.ID)

	env.focus.SkipTask(rec.Item.ID)
	rec, err = env.focus.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, second.ID, rec.Item.ID)
}

func TestIntegration_FunnelTriage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	buy := env.capture(t, ctx, "Buy milk")
	purchase := env.capture(t, ctx, "Purchase milk")
	call := env.capture(t, ctx, "Call the dentist")
	require.NoError(t, env.engine.SetItemDuration(ctx, call.ID, 5))

	sess, err := env.funnel.Start(ctx)
	require.NoError(t, err)

	pair := sess.DedupPair(ctx)
	require.NotNil(t, pair)
	require.Equal(t, buy.ID, pair.A.ID)
	require.Equal(t, purchase.ID, pair.B.ID)
	require.NoError(t, sess.DedupMerge(ctx, buy.ID, purchase.ID))

	merged, err := env.engine.GetItem(ctx, buy.ID)
	require.NoError(t, err)
	require.Equal(t, "Buy milk / Purchase milk", merged.Title)

	removed, err := env.engine.GetItem(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, task.StatusArchived, removed.Status)

	quick := sess.TwoMinuteItems()
	require.NotEmpty(t, quick)
	require.Equal(t, call.ID, quick[0].ID)
	require.Equal(t, call.ID, sess.TwoMinuteCurrent().ID)
	require.NoError(t, sess.TwoMinuteDoNow(ctx))

	done, err := env.engine.GetItem(ctx, call.ID)
	require.NoError(t, err)
	require.Equal(t, task.StatusDone, done.Status)

	report, err := env.engine.WeeklyReport(ctx, 7)
	require.NoError(t, err)
	require.Contains(t, report, "Call the dentist")
}

func TestIntegration_ResourceIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	saved, err := env.matcher.Save(ctx, resource.SaveRequest{
		ContentType: resource.ContentURL,
		Source:      "https://example.com/sqlite-vectors",
		Title:       "Vector search in sqlite",
		Summary:     "Brute-force cosine over BLOB columns",
		Tags:        []string{"sqlite", "golang"},
	})
	require.NoError(t, err)

	_, err = env.matcher.Save(ctx, resource.SaveRequest{
		ContentType: resource.ContentText,
		Source:      "note:pasta",
		Title:       "Pasta recipes",
		Summary:     "Cooking notes",
		Tags:        []string{"cooking"},
	})
	require.NoError(t, err)

	// Save kicks an async drain; a synchronous pass makes completion
	// deterministic before asserting.
	_, err = env.queue.ProcessPendingJobsOnce(ctx, 10)
	require.NoError(t, err)

	pending, err := env.jobRepo.ListByStatus(ctx, indexqueue.StatusPending, 0)
	require.NoError(t, err)
	require.Empty(t, pending)

	hits, err := env.queue.Search(ctx, "sqlite vector", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, saved.ID, hits[0].ResourceID)
	require.Greater(t, hits[0].Score, 0.0)

	matches, err := env.matcher.FindByTags(ctx, []string{"sqlite"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, saved.ID, matches[0].ID)

	touched, err := env.matcher.MergeTags(ctx, "golang", "go")
	require.NoError(t, err)
	require.Equal(t, 1, touched)

	after, err := env.matcher.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.Contains(t, after.Tags, "go")
	require.NotContains(t, after.Tags, "golang")
}
