package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"flowd/internal/ai"
	"flowd/internal/calendar"
	"flowd/internal/config"
	"flowd/internal/domain/focus"
	"flowd/internal/domain/funnel"
	"flowd/internal/domain/indexqueue"
	"flowd/internal/domain/resource"
	"flowd/internal/domain/task"
	"flowd/internal/embedding"
	"flowd/internal/sqlite"
	"flowd/internal/vector"
)

var rootCmd = &cobra.Command{
	Use:   "flowd",
	Short: "flowd is a GTD-style personal task and resource system",
	Long: `flowd captures tasks into an inbox, triages them through a four-stage
funnel (duplicates, clustering, quick wins, coaching), and keeps a tagged
resource library with optional semantic search.`,
	SilenceUsage: true,
}

func main() {
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func registerCommands() {
	rootCmd.AddCommand(captureCmd())
	rootCmd.AddCommand(inboxCmd())
	rootCmd.AddCommand(nextCmd())
	rootCmd.AddCommand(doneCmd())
	rootCmd.AddCommand(archiveCmd())
	rootCmd.AddCommand(resurfaceCmd())
	rootCmd.AddCommand(tagCmd())
	rootCmd.AddCommand(deferCmd())
	rootCmd.AddCommand(durationCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(staleCmd())
	rootCmd.AddCommand(somedayCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(triageCmd())
	rootCmd.AddCommand(focusCmd())
	rootCmd.AddCommand(resourceCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(workerCmd())
}

// app holds the wired services for one CLI invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlite.DB
	engine   *task.Service
	matcher  *resource.Service
	queue    *indexqueue.Service
	funnel   *funnel.Service
	focus    *focus.Dispatcher
	advisor  ai.Advisor
	hasLLM   bool
	hasIndex bool
}

// withApp wires the full service graph, runs fn, and closes the database.
func withApp(fn func(*app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return err
	}

	items := sqlite.NewItemRepository(db)
	tags := sqlite.NewTagRepository(db)
	resources := sqlite.NewResourceRepository(db)
	jobs := sqlite.NewJobRepository(db)

	advisor, err := buildAdvisor(cfg.AI, logger)
	if err != nil {
		return err
	}

	store, err := buildVectorStore(cfg.Embedding, db)
	if err != nil {
		return err
	}

	queue := indexqueue.NewService(jobs, resources, store, logger)

	var taskAdvisor task.Advisor
	var tagger resource.Tagger
	if advisor != nil {
		taskAdvisor = advisor
		tagger = advisor
	}

	engine := task.NewService(items, tags, taskAdvisor, logger)
	matcher := resource.NewService(resources, tags, queue, tagger, logger)
	funnelSvc := funnel.NewService(engine, advisor, logger)

	cal := calendar.NewCache(nil, 5*time.Minute)
	dispatcher := focus.NewDispatcher(engine, cal, logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		engine:   engine,
		matcher:  matcher,
		queue:    queue,
		funnel:   funnelSvc,
		focus:    dispatcher,
		advisor:  advisor,
		hasLLM:   advisor != nil,
		hasIndex: store != nil,
	}
	return fn(a)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func buildAdvisor(cfg config.AIConfig, logger *slog.Logger) (ai.Advisor, error) {
	switch cfg.Provider {
	case "anthropic":
		client, err := ai.NewAnthropicClient(os.Getenv("ANTHROPIC_API_KEY"), cfg.Model)
		if err != nil {
			return nil, err
		}
		return ai.NewAssistant(client, logger), nil
	case "ollama":
		return ai.NewAssistant(ai.NewOllamaClient(cfg.BaseURL, cfg.Model), logger), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func buildVectorStore(cfg config.EmbeddingConfig, db *sqlite.DB) (vector.Store, error) {
	var embedder embedding.Embedder
	switch cfg.Provider {
	case "voyage":
		client, err := embedding.NewVoyageClient(os.Getenv("VOYAGE_API_KEY"), cfg.Model)
		if err != nil {
			return nil, err
		}
		embedder = client
	case "ollama":
		embedder = embedding.NewLocalClient(cfg.BaseURL, cfg.Model)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	return vector.NewSQLiteStore(db.DB, embedder)
}
