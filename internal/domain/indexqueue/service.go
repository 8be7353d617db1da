package indexqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"flowd/internal/domain/resource"
	"flowd/internal/repository"
	"flowd/internal/vector"

	"github.com/google/uuid"
)

const maxIndexContent = 2000

// Service drains durable index jobs into the vector store. A nil store
// means indexing is disabled: jobs still enqueue but drains are no-ops.
type Service struct {
	jobs      JobRepository
	resources ResourceGetter
	store     vector.Store
	logger    *slog.Logger
	now       func() time.Time

	// mu serializes drains so concurrent kicks don't double-process.
	mu sync.Mutex
}

func NewService(jobs JobRepository, resources ResourceGetter, store vector.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		jobs:      jobs,
		resources: resources,
		store:     store,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnqueueResourceIndex records a pending job for the resource and returns
// the job id. The snapshot fields let a job index even if the resource is
// deleted before the drain runs.
func (s *Service) EnqueueResourceIndex(ctx context.Context, resourceID string, contentType resource.ContentType, source, title, summary string) (string, error) {
	job := &Job{
		ID:          uuid.NewString(),
		ResourceID:  resourceID,
		ContentType: string(contentType),
		Source:      source,
		Title:       title,
		Summary:     summary,
		Status:      StatusPending,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}
	if err := s.jobs.Insert(ctx, job); err != nil {
		return "", fmt.Errorf("inserting index job: %w", err)
	}
	return job.ID, nil
}

// ProcessPendingJobs drains up to limit pending jobs in FIFO order and
// returns how many ended up done. One failing job does not stop the batch.
func (s *Service) ProcessPendingJobs(ctx context.Context, limit int) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	pending, err := s.jobs.ListByStatus(ctx, StatusPending, limit)
	if err != nil {
		return 0, fmt.Errorf("listing pending jobs: %w", err)
	}

	done := 0
	for _, job := range pending {
		s.setStatus(ctx, job.ID, StatusProcessing, "")
		if err := s.processJob(ctx, job); err != nil {
			s.logger.Warn("index job failed", "job", job.ID, "resource", job.ResourceID, "error", err)
			s.setStatus(ctx, job.ID, StatusError, err.Error())
			continue
		}
		s.setStatus(ctx, job.ID, StatusDone, "")
		done++
	}
	return done, nil
}

// ProcessPendingJobsOnce is ProcessPendingJobs under the drain lock.
func (s *Service) ProcessPendingJobsOnce(ctx context.Context, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ProcessPendingJobs(ctx, limit)
}

// DrainAsync kicks off a background drain. Errors are logged, not returned.
func (s *Service) DrainAsync(limit int) {
	if s.store == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("index drain panicked", "panic", r)
			}
		}()
		if _, err := s.ProcessPendingJobsOnce(context.Background(), limit); err != nil {
			s.logger.Warn("index drain failed", "error", err)
		}
	}()
}

// Search runs a semantic query against the vector store. When indexing is
// disabled it returns no hits.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]vector.Hit, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Query(ctx, query, topK)
}

func (s *Service) processJob(ctx context.Context, job *Job) error {
	title := job.Title
	summary := job.Summary
	source := job.Source
	raw := ""

	res, err := s.resources.Get(ctx, job.ResourceID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("resolving resource: %w", err)
	}
	if res != nil {
		title = res.Title
		summary = res.Summary
		source = res.Source
		raw = res.RawContent
	}

	text := buildIndexText(title, summary, raw, source)
	if text == "" {
		return fmt.Errorf("resource %s has no indexable text", job.ResourceID)
	}

	meta := map[string]string{"content_type": job.ContentType}
	if err := s.store.Upsert(ctx, job.ResourceID, title, text, source, meta); err != nil {
		return fmt.Errorf("upserting embedding: %w", err)
	}
	return nil
}

func (s *Service) setStatus(ctx context.Context, id string, status JobStatus, errMsg string) {
	if err := s.jobs.UpdateStatus(ctx, id, status, errMsg); err != nil {
		// A job deleted mid-drain loses its status write; nothing to do.
		s.logger.Debug("updating job status failed", "job", id, "status", status, "error", err)
	}
}

func buildIndexText(title, summary, raw, source string) string {
	if len(raw) > maxIndexContent {
		raw = raw[:maxIndexContent]
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{title, summary, raw, source} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}
