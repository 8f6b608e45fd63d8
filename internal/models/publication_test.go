package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTarget() Target {
	return Target{
		Platform:    "wordpress",
		SiteUrl:     "https://blog.example.com",
		Username:    "editor",
		AppPassword: "secret",
	}
}

func testMetadata() Metadata {
	return Metadata{Title: "Hello", Content: "<p>World</p>"}
}

func TestNewImmediatePublication(t *testing.T) {
	p := NewImmediatePublication("article-1", testTarget(), testMetadata())

	assert.Equal(t, PublicationPending, p.Status)
	assert.Equal(t, "article-1", p.ArticleID)
	assert.Equal(t, DefaultMaxRetries, p.MaxRetries)
	assert.Zero(t, p.RetryCount)
	assert.NotEmpty(t, p.ID)
	assert.Nil(t, p.StartedAt)

	events := p.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "created", events[0].Kind)
	assert.Equal(t, "wordpress:https://blog.example.com", events[0].Target)
}

func TestNewScheduledPublication(t *testing.T) {
	at := time.Now().Add(time.Hour)
	p := NewScheduledPublication("article-1", testTarget(), testMetadata(), at)

	assert.Equal(t, PublicationScheduled, p.Status)
	require.NotNil(t, p.ScheduledAt)
	assert.False(t, p.Due(time.Now()))
	assert.True(t, p.Due(at.Add(time.Minute)))
}

func TestTransitionTableIsExhaustive(t *testing.T) {
	all := []PublicationStatus{
		PublicationPending, PublicationScheduled, PublicationInProgress,
		PublicationCompleted, PublicationFailed, PublicationCancelled,
	}
	allowed := map[PublicationStatus]map[PublicationStatus]bool{
		PublicationPending:    {PublicationInProgress: true, PublicationCancelled: true},
		PublicationScheduled:  {PublicationPending: true, PublicationCancelled: true},
		PublicationInProgress: {PublicationCompleted: true, PublicationFailed: true, PublicationCancelled: true},
		PublicationFailed:     {PublicationPending: true, PublicationCancelled: true},
		PublicationCompleted:  {},
		PublicationCancelled:  {},
	}

	for _, from := range all {
		for _, to := range all {
			p := NewImmediatePublication("a", testTarget(), testMetadata())
			p.Status = from
			err := p.transition(to)
			if allowed[from][to] {
				assert.NoError(t, err, "%s -> %s should be allowed", from, to)
			} else {
				var illegal *IllegalTransitionError
				require.ErrorAs(t, err, &illegal, "%s -> %s should be rejected", from, to)
				assert.Equal(t, from, illegal.From)
				assert.Equal(t, to, illegal.To)
				assert.Equal(t, from, p.Status, "rejected transition must not mutate status")
			}
		}
	}
}

func TestStartCompleteFlow(t *testing.T) {
	p := NewImmediatePublication("a", testTarget(), testMetadata())

	require.NoError(t, p.Start())
	assert.Equal(t, PublicationInProgress, p.Status)
	require.NotNil(t, p.StartedAt)

	require.NoError(t, p.Complete("123", "https://blog.example.com/?p=123"))
	assert.Equal(t, PublicationCompleted, p.Status)
	assert.Equal(t, "123", p.ExternalID)
	require.NotNil(t, p.CompletedAt)
	assert.Nil(t, p.LastError)
	assert.True(t, p.IsTerminal())

	kinds := eventKinds(p.DrainEvents())
	assert.Equal(t, []string{"created", "started", "completed"}, kinds)
}

func TestCompleteRequiresExternalID(t *testing.T) {
	p := NewImmediatePublication("a", testTarget(), testMetadata())
	require.NoError(t, p.Start())

	err := p.Complete("  ", "")
	assert.ErrorIs(t, err, ErrMissingExternalID)
	assert.Equal(t, PublicationInProgress, p.Status)
}

func TestCompleteClearsPriorError(t *testing.T) {
	p := NewImmediatePublication("a", testTarget(), testMetadata())
	require.NoError(t, p.Start())
	require.NoError(t, p.Fail(PublicationError{Code: "NETWORK_ERROR", Retryable: true}))
	require.NoError(t, p.Retry())
	require.NoError(t, p.Start())
	require.NoError(t, p.Complete("9", ""))

	assert.Nil(t, p.LastError)
}

func TestFailAndRetrySequence(t *testing.T) {
	p := NewImmediatePublication("a", testTarget(), testMetadata())

	require.NoError(t, p.Start())
	require.NoError(t, p.Fail(PublicationError{Code: "NETWORK_ERROR", Message: "dial tcp: timeout", Retryable: true}))

	assert.Equal(t, PublicationFailed, p.Status)
	require.NotNil(t, p.LastError)
	assert.Equal(t, "NETWORK_ERROR", p.LastError.Code)
	assert.True(t, p.LastError.Retryable)
	assert.False(t, p.LastError.Occurred.IsZero())
	assert.True(t, p.CanRetry())

	require.NoError(t, p.Retry())
	assert.Equal(t, PublicationPending, p.Status)
	assert.Equal(t, 1, p.RetryCount)
	assert.Nil(t, p.StartedAt)
	assert.Nil(t, p.CompletedAt)

	kinds := eventKinds(p.DrainEvents())
	assert.Equal(t, []string{"created", "started", "failed", "retried"}, kinds)
}

func TestRetryExhaustedIsHardError(t *testing.T) {
	p := NewImmediatePublication("a", testTarget(), testMetadata())
	p.Status = PublicationFailed
	p.RetryCount = p.MaxRetries

	err := p.Retry()
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, PublicationFailed, p.Status)
	assert.Equal(t, p.MaxRetries, p.RetryCount)
}

func TestRetryOnlyFromFailed(t *testing.T) {
	p := NewImmediatePublication("a", testTarget(), testMetadata())

	var illegal *IllegalTransitionError
	assert.ErrorAs(t, p.Retry(), &illegal)
}

func TestFailFromTerminalRejected(t *testing.T) {
	p := NewImmediatePublication("a", testTarget(), testMetadata())
	require.NoError(t, p.Cancel())

	err := p.Fail(PublicationError{Code: "NETWORK_ERROR"})
	assert.ErrorIs(t, err, ErrTerminalState)
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	for _, from := range []PublicationStatus{
		PublicationPending, PublicationScheduled, PublicationInProgress, PublicationFailed,
	} {
		p := NewImmediatePublication("a", testTarget(), testMetadata())
		p.Status = from
		require.NoError(t, p.Cancel(), "cancel from %s", from)
		assert.Equal(t, PublicationCancelled, p.Status)
		assert.True(t, p.IsTerminal())
	}

	p := NewImmediatePublication("a", testTarget(), testMetadata())
	p.Status = PublicationCompleted
	assert.Error(t, p.Cancel())
}

func TestPromote(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	p := NewScheduledPublication("a", testTarget(), testMetadata(), past)
	require.NoError(t, p.Promote(time.Now()))
	assert.Equal(t, PublicationPending, p.Status)

	future := time.Now().Add(time.Hour)
	q := NewScheduledPublication("a", testTarget(), testMetadata(), future)
	assert.Error(t, q.Promote(time.Now()), "not yet due")

	r := NewImmediatePublication("a", testTarget(), testMetadata())
	assert.Error(t, r.Promote(time.Now()), "only scheduled publications promote")
}

func TestRehydrate(t *testing.T) {
	now := time.Now().UTC()
	stored := Publication{
		ID:         "pub-1",
		ArticleID:  "article-1",
		Target:     testTarget(),
		Status:     PublicationFailed,
		RetryCount: 2,
		MaxRetries: 3,
		LastError:  &PublicationError{Code: "PLATFORM_ERROR", Retryable: true, Occurred: now},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	p := RehydratePublication(stored)
	assert.Equal(t, "pub-1", p.ID)
	assert.Equal(t, PublicationFailed, p.Status)
	assert.True(t, p.CanRetry())
	assert.Empty(t, p.DrainEvents(), "rehydration emits no events")

	require.NoError(t, p.Retry())
	assert.Equal(t, 3, p.RetryCount)
	assert.ErrorIs(t, func() error { _ = p.Start(); _ = p.Fail(PublicationError{Code: "X"}); return p.Retry() }(), ErrMaxRetriesExceeded)
}

func eventKinds(events []LifecycleEvent) []string {
	kinds := make([]string, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
