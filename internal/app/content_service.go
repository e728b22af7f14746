// Package app implements the application services behind the primary ports.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/postforge/internal/clients"
	"github.com/example/postforge/internal/core/content"
	"github.com/example/postforge/internal/ports/primary"
	"github.com/example/postforge/internal/ports/secondary"
)

// ContentServiceImpl implements the ContentService interface. It is the
// lifecycle coordinator: it drives one content item through
// created -> rendered -> published, recording every transition in the store
// and wrapping every collaborator call in the retry policy.
type ContentServiceImpl struct {
	repo      secondary.ContentRepository
	generator secondary.IdeaGenerator
	images    secondary.ImageSource
	renderer  secondary.Renderer
	publisher secondary.Publisher

	retryCfg              clients.RetryConfig
	maxGenerationAttempts int
	log                   *logrus.Entry
}

// Options carries the tunable bounds for the coordinator.
type Options struct {
	// Retry bounds every external collaborator call.
	Retry clients.RetryConfig
	// MaxGenerationAttempts bounds how many times a duplicate idea triggers
	// regeneration before the run fails with DuplicateContentError.
	MaxGenerationAttempts int
	// Logger receives structured progress logs; nil discards them.
	Logger *logrus.Entry
}

// NewContentService creates a new ContentService with injected dependencies.
func NewContentService(
	repo secondary.ContentRepository,
	generator secondary.IdeaGenerator,
	images secondary.ImageSource,
	renderer secondary.Renderer,
	publisher secondary.Publisher,
	opts Options,
) *ContentServiceImpl {
	if opts.MaxGenerationAttempts < 1 {
		opts.MaxGenerationAttempts = 3
	}
	if opts.Logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		opts.Logger = logrus.NewEntry(discard)
	}
	return &ContentServiceImpl{
		repo:                  repo,
		generator:             generator,
		images:                images,
		renderer:              renderer,
		publisher:             publisher,
		retryCfg:              opts.Retry,
		maxGenerationAttempts: opts.MaxGenerationAttempts,
		log:                   opts.Logger,
	}
}

// ProducePost drives one content item from idea to published post.
//
// Generation and deduplication loop until a unique idea is found or the
// regeneration budget runs out. Once a record exists, any failure in the
// render/publish path marks it failed before the error surfaces, so the
// attempt stays auditable; the failed record is excluded from future dedup
// checks, deliberately allowing a fresh attempt at the same idea.
func (s *ContentServiceImpl) ProducePost(ctx context.Context, req primary.ProducePostRequest) (*primary.ProducePostResponse, error) {
	for attempt := 1; attempt <= s.maxGenerationAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		post, err := clients.Execute(ctx, s.retryCfg, func(ctx context.Context) (*secondary.GeneratedPost, error) {
			return s.generator.Generate(ctx, req.TopicHint)
		})
		if err != nil {
			return nil, &content.GenerationError{Err: err}
		}

		fingerprint := content.Fingerprint(post.Topic, post.Caption)

		duplicate, err := s.repo.ExistsByFingerprint(ctx, fingerprint)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicate content: %w", err)
		}
		if duplicate {
			s.log.WithFields(logrus.Fields{
				"attempt":     attempt,
				"fingerprint": fingerprint,
				"topic":       post.Topic,
			}).Warn("duplicate content detected, regenerating")
			continue
		}

		record := &secondary.ContentRecord{
			ID:          uuid.NewString(),
			Fingerprint: fingerprint,
			State:       content.InitialState(),
			Topic:       post.Topic,
			Caption:     post.Caption,
		}
		if err := s.repo.Insert(ctx, record); err != nil {
			var conflict *content.ConflictError
			if errors.As(err, &conflict) {
				// Lost a race with a concurrent attempt; treat as duplicate.
				s.log.WithField("fingerprint", fingerprint).Warn("insert conflict, regenerating")
				continue
			}
			return nil, fmt.Errorf("failed to record content: %w", err)
		}

		s.log.WithFields(logrus.Fields{
			"record_id": record.ID,
			"topic":     post.Topic,
		}).Info("content record created")

		return s.renderAndPublish(ctx, record, post)
	}

	return nil, &content.DuplicateContentError{Attempts: s.maxGenerationAttempts}
}

// renderAndPublish completes the lifecycle for an already-created record.
func (s *ContentServiceImpl) renderAndPublish(ctx context.Context, record *secondary.ContentRecord, post *secondary.GeneratedPost) (*primary.ProducePostResponse, error) {
	backgroundRef, err := clients.Execute(ctx, s.retryCfg, func(ctx context.Context) (string, error) {
		return s.images.Search(ctx, post.ImageQuery)
	})
	if err != nil {
		return nil, s.fail(ctx, record.ID, &content.RenderError{Err: fmt.Errorf("background search: %w", err)})
	}

	artifactRef, err := clients.Execute(ctx, s.retryCfg, func(ctx context.Context) (string, error) {
		return s.renderer.Render(ctx, post, backgroundRef)
	})
	if err != nil {
		return nil, s.fail(ctx, record.ID, &content.RenderError{Err: err})
	}
	if err := s.repo.UpdateState(ctx, record.ID, content.StateRendered, secondary.StateFields{ArtifactRef: artifactRef}); err != nil {
		return nil, s.fail(ctx, record.ID, fmt.Errorf("failed to record rendered state: %w", err))
	}

	s.log.WithFields(logrus.Fields{
		"record_id":    record.ID,
		"artifact_ref": artifactRef,
	}).Info("artifact rendered")

	publishRef, err := clients.Execute(ctx, s.retryCfg, func(ctx context.Context) (string, error) {
		return s.publisher.Publish(ctx, artifactRef, post.Caption)
	})
	if err != nil {
		return nil, s.fail(ctx, record.ID, &content.PublishError{Err: err})
	}
	if err := s.repo.UpdateState(ctx, record.ID, content.StatePublished, secondary.StateFields{PublishRef: publishRef}); err != nil {
		return nil, s.fail(ctx, record.ID, fmt.Errorf("failed to record published state: %w", err))
	}

	s.log.WithFields(logrus.Fields{
		"record_id":   record.ID,
		"publish_ref": publishRef,
	}).Info("post published")

	return &primary.ProducePostResponse{
		RecordID:    record.ID,
		Fingerprint: record.Fingerprint,
		Topic:       post.Topic,
		Caption:     post.Caption,
		ArtifactRef: artifactRef,
		PublishRef:  publishRef,
	}, nil
}

// fail marks the record failed so the attempt stays auditable, then returns
// the original error for the caller. A failure while marking failed is logged
// but never masks the original error.
func (s *ContentServiceImpl) fail(ctx context.Context, recordID string, cause error) error {
	err := s.repo.UpdateState(ctx, recordID, content.StateFailed, secondary.StateFields{ErrorInfo: cause.Error()})
	if err != nil {
		s.log.WithError(err).WithField("record_id", recordID).Error("failed to mark record failed")
	}
	return cause
}

// History returns recent content records, most-recent first.
func (s *ContentServiceImpl) History(ctx context.Context, filters primary.HistoryFilters) ([]*primary.ContentItem, error) {
	var state content.State
	if filters.State != "" {
		state = content.State(filters.State)
		if !state.Valid() {
			return nil, fmt.Errorf("unknown content state %q", filters.State)
		}
	}

	records, err := s.repo.ListRecent(ctx, secondary.ContentFilters{State: state, Limit: filters.Limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list content history: %w", err)
	}

	items := make([]*primary.ContentItem, len(records))
	for i, r := range records {
		items[i] = &primary.ContentItem{
			ID:          r.ID,
			State:       string(r.State),
			Topic:       r.Topic,
			Fingerprint: r.Fingerprint,
			ArtifactRef: r.ArtifactRef,
			PublishRef:  r.PublishRef,
			ErrorInfo:   r.ErrorInfo,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, nil
}
