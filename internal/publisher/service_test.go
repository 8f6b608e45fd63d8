package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazgan/pressgen/internal/models"
	"github.com/yazgan/pressgen/internal/wordpress"
)

type memRepo struct {
	store map[string]*models.Publication
}

func newMemRepo() *memRepo {
	return &memRepo{store: make(map[string]*models.Publication)}
}

func (r *memRepo) Save(_ context.Context, p *models.Publication) error {
	copied := *p
	r.store[p.ID] = models.RehydratePublication(copied)
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*models.Publication, error) {
	p, ok := r.store[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *p
	return models.RehydratePublication(copied), nil
}

func (r *memRepo) FindByArticleID(_ context.Context, articleID string) ([]*models.Publication, error) {
	var out []*models.Publication
	for _, p := range r.store {
		if p.ArticleID == articleID {
			copied := *p
			out = append(out, models.RehydratePublication(copied))
		}
	}
	return out, nil
}

func (r *memRepo) FindClaimable(_ context.Context, now time.Time) ([]*models.Publication, error) {
	var out []*models.Publication
	for _, p := range r.store {
		if p.Status == models.PublicationPending || p.Due(now) {
			copied := *p
			out = append(out, models.RehydratePublication(copied))
		}
	}
	return out, nil
}

type stubPoster struct {
	ref   *wordpress.PostRef
	err   error
	calls int
	last  wordpress.PostRequest
}

func (s *stubPoster) PublishPost(_ context.Context, _ models.Target, post wordpress.PostRequest) (*wordpress.PostRef, error) {
	s.calls++
	s.last = post
	if s.err != nil {
		return nil, s.err
	}
	return s.ref, nil
}

type memSink struct {
	events []models.LifecycleEvent
}

func (s *memSink) Emit(e models.LifecycleEvent) {
	s.events = append(s.events, e)
}

func (s *memSink) kinds() []string {
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func testArticle() *models.Article {
	return &models.Article{
		ID: "article-1",
		Payload: models.ArticlePayload{
			Title:           "Quarterly Report Shows Growth",
			Content:         "<p>Revenue climbed across all segments.</p>",
			MetaDescription: "A summary of the quarter.",
			Tags:            []string{"finance", "reports"},
		},
	}
}

func testTarget() models.Target {
	return models.Target{
		Platform: "wordpress",
		SiteUrl:  "https://blog.example.com",
		Username: "editor",
		Status:   "publish",
	}
}

func TestPublishCompletesAndRecordsExternalRef(t *testing.T) {
	repo := newMemRepo()
	poster := &stubPoster{ref: &wordpress.PostRef{ID: 42, Link: "https://blog.example.com/?p=42"}}
	sink := &memSink{}
	svc := NewService(repo, poster, sink)

	p, err := svc.CreateImmediate(context.Background(), testArticle(), testTarget(), 0, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PublicationPending, p.Status)
	assert.Equal(t, models.DefaultMaxRetries, p.MaxRetries)

	require.NoError(t, svc.Publish(context.Background(), p))

	assert.Equal(t, models.PublicationCompleted, p.Status)
	assert.Equal(t, "42", p.ExternalID)
	assert.Equal(t, "https://blog.example.com/?p=42", p.ExternalUrl)

	saved, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublicationCompleted, saved.Status)
	assert.Equal(t, "42", saved.ExternalID)

	assert.Equal(t, []string{"created", "started", "completed"}, sink.kinds())

	assert.Equal(t, "Quarterly Report Shows Growth", poster.last.Title)
	assert.Equal(t, int64(7), poster.last.FeaturedMedia)
	assert.Equal(t, "finance, reports", poster.last.Meta["pressgen_tags"])
}

func TestPublishFailureRecordsTypedError(t *testing.T) {
	repo := newMemRepo()
	poster := &stubPoster{err: models.NewPipelineError(models.CodeRateLimited, "too many requests", true, nil)}
	svc := NewService(repo, poster, NoopSink{})

	p, err := svc.CreateImmediate(context.Background(), testArticle(), testTarget(), 2, 0)
	require.NoError(t, err)

	err = svc.Publish(context.Background(), p)
	require.Error(t, err)

	assert.Equal(t, models.PublicationFailed, p.Status)
	require.NotNil(t, p.LastError)
	assert.Equal(t, models.CodeRateLimited, p.LastError.Code)
	assert.True(t, p.LastError.Retryable)
	assert.False(t, p.LastError.Occurred.IsZero())

	saved, findErr := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, findErr)
	assert.Equal(t, models.PublicationFailed, saved.Status)
}

func TestRetryReturnsFailedPublicationToPending(t *testing.T) {
	repo := newMemRepo()
	poster := &stubPoster{err: models.NewPipelineError(models.CodePlatformError, "backend down", true, nil)}
	svc := NewService(repo, poster, NoopSink{})

	p, err := svc.CreateImmediate(context.Background(), testArticle(), testTarget(), 2, 0)
	require.NoError(t, err)
	require.Error(t, svc.Publish(context.Background(), p))

	retried, err := svc.Retry(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublicationPending, retried.Status)
	assert.Equal(t, 1, retried.RetryCount)
	assert.Nil(t, retried.StartedAt)
}

func TestRetryExhaustedBudgetIsHardError(t *testing.T) {
	repo := newMemRepo()
	poster := &stubPoster{err: models.NewPipelineError(models.CodePlatformError, "backend down", true, nil)}
	svc := NewService(repo, poster, NoopSink{})

	p, err := svc.CreateImmediate(context.Background(), testArticle(), testTarget(), 1, 0)
	require.NoError(t, err)
	require.Error(t, svc.Publish(context.Background(), p))

	retried, err := svc.Retry(context.Background(), p.ID)
	require.NoError(t, err)
	require.Error(t, svc.Publish(context.Background(), retried))

	_, err = svc.Retry(context.Background(), p.ID)
	assert.ErrorIs(t, err, models.ErrMaxRetriesExceeded)
}

func TestCancelIsTerminal(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &stubPoster{}, NoopSink{})

	p, err := svc.CreateImmediate(context.Background(), testArticle(), testTarget(), 0, 0)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublicationCancelled, cancelled.Status)
	assert.True(t, cancelled.IsTerminal())

	_, err = svc.Retry(context.Background(), p.ID)
	require.Error(t, err)
}

func TestProcessDuePromotesAndPublishesScheduled(t *testing.T) {
	repo := newMemRepo()
	poster := &stubPoster{ref: &wordpress.PostRef{ID: 9, Link: "https://blog.example.com/?p=9"}}
	svc := NewService(repo, poster, NoopSink{})

	past := time.Now().Add(-time.Minute)
	p, err := svc.CreateScheduled(context.Background(), testArticle(), testTarget(), 0, 0, past)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	notYet, err := svc.CreateScheduled(context.Background(), testArticle(), testTarget(), 0, 0, future)
	require.NoError(t, err)

	require.NoError(t, svc.ProcessDue(context.Background()))
	assert.Equal(t, 1, poster.calls)

	done, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublicationCompleted, done.Status)

	waiting, err := repo.FindByID(context.Background(), notYet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublicationScheduled, waiting.Status)
}

func TestProcessDueLeavesNonRetryableFailureForOperator(t *testing.T) {
	repo := newMemRepo()
	poster := &stubPoster{err: models.NewPipelineError(models.CodeAuthFailed, "invalid application password", false, nil)}
	svc := NewService(repo, poster, NoopSink{})

	p, err := svc.CreateImmediate(context.Background(), testArticle(), testTarget(), 2, 0)
	require.NoError(t, err)

	require.NoError(t, svc.ProcessDue(context.Background()))

	// The sweep must not spend budget on a failure marked non-retryable.
	saved, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublicationFailed, saved.Status)
	assert.Equal(t, 0, saved.RetryCount)
	require.NotNil(t, saved.LastError)
	assert.Equal(t, models.CodeAuthFailed, saved.LastError.Code)
	assert.False(t, saved.LastError.Retryable)

	// An operator can still resume it manually with the full budget.
	retried, err := svc.Retry(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublicationPending, retried.Status)
	assert.Equal(t, 1, retried.RetryCount)
}

func TestProcessDueContinuesPastFailedAttempt(t *testing.T) {
	repo := newMemRepo()
	poster := &stubPoster{err: models.NewPipelineError(models.CodeNetworkError, "connection reset", true, nil)}
	svc := NewService(repo, poster, NoopSink{})

	first, err := svc.CreateImmediate(context.Background(), testArticle(), testTarget(), 1, 0)
	require.NoError(t, err)
	second, err := svc.CreateImmediate(context.Background(), testArticle(), testTarget(), 1, 0)
	require.NoError(t, err)

	require.NoError(t, svc.ProcessDue(context.Background()))
	assert.Equal(t, 2, poster.calls)

	for _, id := range []string{first.ID, second.ID} {
		p, findErr := repo.FindByID(context.Background(), id)
		require.NoError(t, findErr)
		// the sweep consumed the retry budget by returning each to pending
		assert.Equal(t, models.PublicationPending, p.Status)
		assert.Equal(t, 1, p.RetryCount)
	}
}
