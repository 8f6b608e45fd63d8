// Package publisher drives Publication aggregates from pending through
// the WordPress publish call to a terminal state.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/models"
	"github.com/yazgan/pressgen/internal/wordpress"
)

// PostPublisher is the publish call against the target platform.
type PostPublisher interface {
	PublishPost(ctx context.Context, target models.Target, post wordpress.PostRequest) (*wordpress.PostRef, error)
}

// PublicationRepo is the persistence contract the service consumes.
type PublicationRepo interface {
	Save(ctx context.Context, p *models.Publication) error
	FindByID(ctx context.Context, id string) (*models.Publication, error)
	FindByArticleID(ctx context.Context, articleID string) ([]*models.Publication, error)
	FindClaimable(ctx context.Context, now time.Time) ([]*models.Publication, error)
}

// Service coordinates one publish attempt at a time per aggregate. The
// caller (worker or handler) is the single writer; the service never
// mutates the same aggregate from two goroutines.
type Service struct {
	repo    PublicationRepo
	wp      PostPublisher
	events  EventSink
	breaker *gobreaker.CircuitBreaker
}

// NewService builds the publish driver. A circuit breaker guards the
// target platform so a down site fails fast instead of burning retries.
func NewService(repo PublicationRepo, wp PostPublisher, events EventSink) *Service {
	if events == nil {
		events = NoopSink{}
	}
	return &Service{
		repo:   repo,
		wp:     wp,
		events: events,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "wordpress-publish",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// CreateImmediate registers a pending publication for the article.
func (s *Service) CreateImmediate(ctx context.Context, article *models.Article, target models.Target, maxRetries int, mediaID int64) (*models.Publication, error) {
	p := models.NewImmediatePublication(article.ID, target, metadataFor(article, mediaID))
	if maxRetries > 0 {
		p.MaxRetries = maxRetries
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateScheduled registers a publication that becomes claimable at the
// given time.
func (s *Service) CreateScheduled(ctx context.Context, article *models.Article, target models.Target, maxRetries int, mediaID int64, at time.Time) (*models.Publication, error) {
	p := models.NewScheduledPublication(article.ID, target, metadataFor(article, mediaID), at)
	if maxRetries > 0 {
		p.MaxRetries = maxRetries
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func metadataFor(article *models.Article, mediaID int64) models.Metadata {
	return models.Metadata{
		Title:           article.Payload.Title,
		Content:         article.Payload.Content,
		MetaDescription: article.Payload.MetaDescription,
		Tags:            article.Payload.Tags,
		FeaturedMediaID: mediaID,
	}
}

// Publish runs one attempt: start, call the target, complete or fail.
// The returned error reflects the attempt outcome; state and error
// details live on the saved aggregate either way.
func (s *Service) Publish(ctx context.Context, p *models.Publication) error {
	if p.Due(time.Now()) {
		if err := p.Promote(time.Now()); err != nil {
			return err
		}
	}
	if err := p.Start(); err != nil {
		return err
	}
	if err := s.save(ctx, p); err != nil {
		return err
	}

	ref, err := s.callTarget(ctx, p)
	if err != nil {
		pe := models.AsPipelineError(err)
		if failErr := p.Fail(pe.ToPublicationError()); failErr != nil {
			return failErr
		}
		if saveErr := s.save(ctx, p); saveErr != nil {
			return saveErr
		}
		return pe
	}

	if err := p.Complete(ref.ExternalID(), ref.Link); err != nil {
		return err
	}
	if err := s.save(ctx, p); err != nil {
		return err
	}

	logger.Info().
		Str("publication_id", p.ID).
		Str("external_id", p.ExternalID).
		Str("external_url", p.ExternalUrl).
		Msg("publication completed")
	return nil
}

func (s *Service) callTarget(ctx context.Context, p *models.Publication) (*wordpress.PostRef, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.wp.PublishPost(ctx, p.Target, wordpress.PostRequest{
			Title:         p.Metadata.Title,
			Content:       p.Metadata.Content,
			Excerpt:       p.Metadata.MetaDescription,
			FeaturedMedia: p.Metadata.FeaturedMediaID,
			Meta:          tagMeta(p.Metadata.Tags),
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, models.NewPipelineError(models.CodePlatformError,
				"publish circuit open, target considered down", true, err)
		}
		return nil, err
	}
	return result.(*wordpress.PostRef), nil
}

func tagMeta(tags []string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	meta := make(map[string]string, 1)
	meta["pressgen_tags"] = joinTags(tags)
	return meta
}

func joinTags(tags []string) string {
	out := ""
	for i, tag := range tags {
		if i > 0 {
			out += ", "
		}
		out += tag
	}
	return out
}

// Retry returns a failed publication to pending. Hard errors (not failed,
// budget exhausted) surface unchanged.
func (s *Service) Retry(ctx context.Context, id string) (*models.Publication, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Retry(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Cancel marks intent; it does not abort a network call already in
// flight.
func (s *Service) Cancel(ctx context.Context, id string) (*models.Publication, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Cancel(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProcessDue claims pending and due publications one at a time and
// publishes each. Attempt failures are recorded on the aggregate and do
// not stop the sweep.
func (s *Service) ProcessDue(ctx context.Context) error {
	claimable, err := s.repo.FindClaimable(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to find claimable publications: %w", err)
	}

	for _, p := range claimable {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.Publish(ctx, p); err != nil {
			logger.Warn().
				Err(err).
				Str("publication_id", p.ID).
				Int("retry_count", p.RetryCount).
				Bool("can_retry", p.CanRetry()).
				Msg("publish attempt failed")

			// Auto-retry only failures the taxonomy marks retryable;
			// the rest stay failed for an operator to resume.
			if p.CanRetry() && p.LastError != nil && p.LastError.Retryable {
				if _, retryErr := s.Retry(ctx, p.ID); retryErr != nil {
					logger.Error().Err(retryErr).Str("publication_id", p.ID).Msg("retry bookkeeping failed")
				}
			}
		}
	}
	return nil
}

// save persists the aggregate and then flushes its lifecycle events.
func (s *Service) save(ctx context.Context, p *models.Publication) error {
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("failed to save publication: %w", err)
	}
	for _, event := range p.DrainEvents() {
		s.events.Emit(event)
	}
	return nil
}
