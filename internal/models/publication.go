package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicationStatus is the lifecycle state of a publication attempt.
type PublicationStatus string

const (
	PublicationPending    PublicationStatus = "pending"
	PublicationScheduled  PublicationStatus = "scheduled"
	PublicationInProgress PublicationStatus = "in_progress"
	PublicationCompleted  PublicationStatus = "completed"
	PublicationFailed     PublicationStatus = "failed"
	PublicationCancelled  PublicationStatus = "cancelled"
)

// DefaultMaxRetries is the retry budget for a new publication.
const DefaultMaxRetries = 3

// transitions is the authoritative table of allowed status changes.
// Anything not listed here is rejected with an IllegalTransitionError.
var transitions = map[PublicationStatus][]PublicationStatus{
	PublicationPending:    {PublicationInProgress, PublicationCancelled},
	PublicationScheduled:  {PublicationPending, PublicationCancelled},
	PublicationInProgress: {PublicationCompleted, PublicationFailed, PublicationCancelled},
	PublicationFailed:     {PublicationPending, PublicationCancelled},
	PublicationCompleted:  {},
	PublicationCancelled:  {},
}

// Target identifies the external platform a publication goes to. The
// credentials are read-only configuration; the pipeline never mutates them.
type Target struct {
	Platform    string `json:"platform"`
	SiteUrl     string `json:"site_url"`
	Username    string `json:"username"`
	AppPassword string `json:"-"`
	Status      string `json:"status,omitempty"` // WordPress post status: draft, publish
}

// Descriptor is a credential-free label for logs and events.
func (t Target) Descriptor() string {
	return t.Platform + ":" + strings.TrimSuffix(t.SiteUrl, "/")
}

// PublicationError captures why a publication attempt failed and whether a
// retry may succeed.
type PublicationError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Occurred  time.Time `json:"occurred"`
}

// Metadata is the snapshot of article fields used for the publish call.
type Metadata struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"meta_description,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	FeaturedMediaID int64    `json:"featured_media_id,omitempty"`
}

// LifecycleEvent is emitted on every transition for observability hooks.
type LifecycleEvent struct {
	Kind          string            `json:"kind"` // created, scheduled, promoted, started, completed, failed, retried, cancelled
	PublicationID string            `json:"publication_id"`
	ArticleID     string            `json:"article_id"`
	Target        string            `json:"target"`
	Status        PublicationStatus `json:"status"`
	At            time.Time         `json:"at"`
}

// Publication is the aggregate tracking one publish attempt of one article
// to one target. It is not safe for concurrent mutation; callers must
// ensure a single writer per aggregate.
type Publication struct {
	ID          string            `json:"id"`
	ArticleID   string            `json:"article_id"`
	Target      Target            `json:"target"`
	Status      PublicationStatus `json:"status"`
	Metadata    Metadata          `json:"metadata"`
	ExternalID  string            `json:"external_id,omitempty"`
	ExternalUrl string            `json:"external_url,omitempty"`
	LastError   *PublicationError `json:"last_error,omitempty"`
	RetryCount  int               `json:"retry_count"`
	MaxRetries  int               `json:"max_retries"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	events []LifecycleEvent
}

// NewImmediatePublication creates a pending publication ready to start.
func NewImmediatePublication(articleID string, target Target, meta Metadata) *Publication {
	p := newPublication(articleID, target, meta)
	p.Status = PublicationPending
	p.record("created")
	return p
}

// NewScheduledPublication creates a publication that becomes eligible to
// start once scheduledAt has passed.
func NewScheduledPublication(articleID string, target Target, meta Metadata, scheduledAt time.Time) *Publication {
	p := newPublication(articleID, target, meta)
	p.Status = PublicationScheduled
	p.ScheduledAt = &scheduledAt
	p.record("scheduled")
	return p
}

func newPublication(articleID string, target Target, meta Metadata) *Publication {
	now := time.Now().UTC()
	return &Publication{
		ID:         uuid.NewString(),
		ArticleID:  articleID,
		Target:     target,
		Metadata:   meta,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RehydratePublication reconstructs a publication from persisted state.
// It performs no transition checks; the stored state is taken as-is.
func RehydratePublication(p Publication) *Publication {
	restored := p
	restored.events = nil
	return &restored
}

// CanTransition reports whether the table allows moving to the target
// status from the current one.
func (p *Publication) CanTransition(to PublicationStatus) bool {
	for _, allowed := range transitions[p.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (p *Publication) transition(to PublicationStatus) error {
	if !p.CanTransition(to) {
		return &IllegalTransitionError{From: p.Status, To: to}
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Start moves a pending publication to in_progress and stamps startedAt.
func (p *Publication) Start() error {
	if err := p.transition(PublicationInProgress); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.StartedAt = &now
	p.record("started")
	return nil
}

// Promote moves a due scheduled publication to pending so the regular
// start path can pick it up.
func (p *Publication) Promote(now time.Time) error {
	if p.Status != PublicationScheduled {
		return &IllegalTransitionError{From: p.Status, To: PublicationPending}
	}
	if p.ScheduledAt != nil && p.ScheduledAt.After(now) {
		return &IllegalTransitionError{From: p.Status, To: PublicationPending}
	}
	if err := p.transition(PublicationPending); err != nil {
		return err
	}
	p.record("promoted")
	return nil
}

// Complete records the external reference the target returned and clears
// any prior error. Legal only from in_progress.
func (p *Publication) Complete(externalID, externalUrl string) error {
	if strings.TrimSpace(externalID) == "" {
		return ErrMissingExternalID
	}
	if err := p.transition(PublicationCompleted); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.ExternalID = externalID
	p.ExternalUrl = externalUrl
	p.CompletedAt = &now
	p.LastError = nil
	p.record("completed")
	return nil
}

// Fail records the error and leaves the aggregate failed. Failure may be
// recorded from any non-terminal state since an attempt can break before
// or after start.
func (p *Publication) Fail(pubErr PublicationError) error {
	if p.Status == PublicationCompleted || p.Status == PublicationCancelled {
		return ErrTerminalState
	}
	if pubErr.Occurred.IsZero() {
		pubErr.Occurred = time.Now().UTC()
	}
	p.Status = PublicationFailed
	p.LastError = &pubErr
	p.UpdatedAt = time.Now().UTC()
	p.record("failed")
	return nil
}

// Retry returns a failed publication to pending, consuming one unit of the
// retry budget. Exhausted budget is a hard error and leaves the aggregate
// untouched.
func (p *Publication) Retry() error {
	if p.Status != PublicationFailed {
		return &IllegalTransitionError{From: p.Status, To: PublicationPending}
	}
	if p.RetryCount >= p.MaxRetries {
		return ErrMaxRetriesExceeded
	}
	if err := p.transition(PublicationPending); err != nil {
		return err
	}
	p.RetryCount++
	p.StartedAt = nil
	p.CompletedAt = nil
	p.record("retried")
	return nil
}

// CanRetry reports retry eligibility without mutating anything.
func (p *Publication) CanRetry() bool {
	return p.Status == PublicationFailed && p.RetryCount < p.MaxRetries
}

// Cancel is legal from any non-terminal state and is itself terminal.
func (p *Publication) Cancel() error {
	if err := p.transition(PublicationCancelled); err != nil {
		return err
	}
	p.record("cancelled")
	return nil
}

// IsTerminal reports whether no further transitions are possible.
func (p *Publication) IsTerminal() bool {
	return len(transitions[p.Status]) == 0
}

// Due reports whether a scheduled publication is ready to be promoted.
func (p *Publication) Due(now time.Time) bool {
	return p.Status == PublicationScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now)
}

func (p *Publication) record(kind string) {
	p.events = append(p.events, LifecycleEvent{
		Kind:          kind,
		PublicationID: p.ID,
		ArticleID:     p.ArticleID,
		Target:        p.Target.Descriptor(),
		Status:        p.Status,
		At:            time.Now().UTC(),
	})
}

// DrainEvents returns the lifecycle events accumulated since the last
// drain. The driving service forwards them to the event sink after a
// successful save.
func (p *Publication) DrainEvents() []LifecycleEvent {
	out := p.events
	p.events = nil
	return out
}
