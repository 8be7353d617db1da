package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flowd/internal/repository"
	"flowd/internal/tagging"

	"github.com/google/uuid"
)

const defaultFindLimit = 100

// Service is the resource matcher: save/upsert, tag-overlap lookup, and tag
// vocabulary maintenance.
type Service struct {
	resources ResourceRepository
	tags      TagRepository
	indexer   Indexer
	tagger    Tagger
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a resource service. indexer and tagger may be nil,
// which disables index enqueueing and save-time tag extraction.
func NewService(resources ResourceRepository, tags TagRepository, indexer Indexer, tagger Tagger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resources: resources,
		tags:      tags,
		indexer:   indexer,
		tagger:    tagger,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SaveRequest describes a resource save.
type SaveRequest struct {
	ContentType ContentType
	Source      string
	Title       string
	Summary     string
	RawContent  string
	// Tags are explicit tags; when empty the tagger is consulted.
	Tags []string
}

// Save creates or updates a resource by source. An existing source is
// updated in place with tags merged (union, first-seen order preserved).
// A durable index job is enqueued and a background drain kicked off.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*Resource, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, ErrEmptySource
	}
	switch req.ContentType {
	case ContentURL, ContentFile, ContentText:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentType, req.ContentType)
	}

	incoming := tagging.NormalizeAll(req.Tags)
	if len(incoming) == 0 && s.tagger != nil {
		incoming = s.extractTags(ctx, req)
	}

	existing, err := s.resources.GetBySource(ctx, source)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("looking up resource: %w", err)
	}

	var saved *Resource
	var addedTags []string
	if existing != nil {
		existing.ContentType = req.ContentType
		if req.Title != "" {
			existing.Title = req.Title
		}
		if req.Summary != "" {
			existing.Summary = req.Summary
		}
		if req.RawContent != "" {
			existing.RawContent = req.RawContent
		}
		existing.Tags, addedTags = unionTags(existing.Tags, incoming)
		if err := s.resources.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("updating resource: %w", err)
		}
		saved = existing
	} else {
		saved = &Resource{
			ID:          uuid.NewString(),
			ContentType: req.ContentType,
			Source:      source,
			Title:       req.Title,
			Summary:     req.Summary,
			Tags:        incoming,
			RawContent:  req.RawContent,
			CreatedAt:   s.now(),
		}
		addedTags = incoming
		if err := s.resources.Insert(ctx, saved); err != nil {
			return nil, fmt.Errorf("inserting resource: %w", err)
		}
	}

	for _, tag := range addedTags {
		if err := s.tags.IncrementUsage(ctx, tag); err != nil {
			s.logger.Debug("tag usage increment failed", "tag", tag, "error", err)
		}
	}

	if s.indexer != nil {
		if _, err := s.indexer.EnqueueResourceIndex(ctx, saved.ID, saved.ContentType, saved.Source, saved.Title, saved.Summary); err != nil {
			s.logger.Warn("enqueueing index job failed", "resource", saved.ID, "error", err)
		} else {
			s.indexer.DrainAsync(defaultDrainLimit)
		}
	}

	return saved, nil
}

const defaultDrainLimit = 20

func (s *Service) extractTags(ctx context.Context, req SaveRequest) []string {
	vocabulary, err := s.tags.Names(ctx)
	if err != nil {
		s.logger.Debug("loading tag vocabulary failed", "error", err)
	}

	parts := []string{string(req.ContentType) + ": " + req.Source}
	if req.Title != "" {
		parts = append(parts, "Title: "+req.Title)
	}
	if req.Summary != "" {
		parts = append(parts, "Summary: "+req.Summary)
	} else if req.RawContent != "" {
		preview := req.RawContent
		if len(preview) > 500 {
			preview = preview[:500]
		}
		parts = append(parts, "Content: "+preview)
	}
	return s.tagger.ExtractTags(ctx, strings.Join(parts, "\n"), string(req.ContentType), vocabulary)
}

// unionTags merges incoming into current preserving first-seen order, and
// returns the merged list plus the tags that were actually new.
func unionTags(current, incoming []string) (merged, added []string) {
	seen := make(map[string]bool, len(current))
	merged = append(merged, current...)
	for _, t := range current {
		seen[t] = true
	}
	for _, t := range incoming {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
			added = append(added, t)
		}
	}
	return merged, added
}

// Get returns a resource by id, or nil if it doesn't exist.
func (s *Service) Get(ctx context.Context, id string) (*Resource, error) {
	r, err := s.resources.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting resource: %w", err)
	}
	return r, nil
}

// List returns resources, optionally filtered by content type.
func (s *Service) List(ctx context.Context, contentType ContentType, limit int) ([]*Resource, error) {
	return s.resources.List(ctx, contentType, limit)
}

// FindByTags returns resources sharing at least one tag with the query set,
// ranked descending by overlap count. An empty query yields no resources.
func (s *Service) FindByTags(ctx context.Context, tags []string) ([]*Resource, error) {
	normalized := tagging.NormalizeAll(tags)
	if len(normalized) == 0 {
		return nil, nil
	}
	found, err := s.resources.FindByTags(ctx, normalized, defaultFindLimit)
	if err != nil {
		return nil, fmt.Errorf("finding resources by tags: %w", err)
	}
	return found, nil
}

// IncrementTagUsage bumps a tag's usage count, creating it at 1 if absent.
func (s *Service) IncrementTagUsage(ctx context.Context, name string) error {
	return s.tags.IncrementUsage(ctx, tagging.Normalize(name))
}

// DecrementTagUsage lowers a tag's usage count, flooring at 0.
func (s *Service) DecrementTagUsage(ctx context.Context, name string) error {
	return s.tags.DecrementUsage(ctx, tagging.Normalize(name))
}

// TagNames returns the vocabulary ordered by usage.
func (s *Service) TagNames(ctx context.Context) ([]string, error) {
	return s.tags.Names(ctx)
}

// ListTags returns vocabulary entries ordered by usage.
func (s *Service) ListTags(ctx context.Context, limit int) ([]*Tag, error) {
	return s.tags.List(ctx, limit)
}

// MergeTags re-tags every resource holding old with new (without creating
// duplicates), folds old's usage count into new, and deletes old from the
// vocabulary. Returns the number of resources touched.
//
// This scans every resource holding the old tag; fine at personal scale.
func (s *Service) MergeTags(ctx context.Context, oldName, newName string) (int, error) {
	oldName = tagging.Normalize(oldName)
	newName = tagging.Normalize(newName)
	if oldName == "" || newName == "" || oldName == newName {
		return 0, ErrInvalidTagMerge
	}

	holders, err := s.resources.FindByTags(ctx, []string{oldName}, 0)
	if err != nil {
		return 0, fmt.Errorf("finding tagged resources: %w", err)
	}

	touched := 0
	for _, r := range holders {
		retagged := make([]string, 0, len(r.Tags))
		hasNew := false
		for _, t := range r.Tags {
			if t == oldName {
				continue
			}
			if t == newName {
				hasNew = true
			}
			retagged = append(retagged, t)
		}
		if !hasNew {
			retagged = append(retagged, newName)
		}
		r.Tags = retagged
		if err := s.resources.Update(ctx, r); err != nil {
			return touched, fmt.Errorf("retagging resource %s: %w", r.ID, err)
		}
		touched++
	}

	oldTag, err := s.tags.Get(ctx, oldName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return touched, nil
		}
		return touched, fmt.Errorf("loading tag %s: %w", oldName, err)
	}
	if oldTag.UsageCount > 0 {
		if err := s.tags.AddUsage(ctx, newName, oldTag.UsageCount); err != nil {
			return touched, fmt.Errorf("moving usage count: %w", err)
		}
	}
	if err := s.tags.Delete(ctx, oldName); err != nil {
		return touched, fmt.Errorf("deleting tag %s: %w", oldName, err)
	}
	return touched, nil
}
