package publisher

import (
	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/models"
)

// EventSink receives lifecycle events after the aggregate state that
// produced them has been saved.
type EventSink interface {
	Emit(event models.LifecycleEvent)
}

// LogSink writes lifecycle events to the structured log.
type LogSink struct{}

func (LogSink) Emit(event models.LifecycleEvent) {
	logger.Info().
		Str("event", event.Kind).
		Str("publication_id", event.PublicationID).
		Str("article_id", event.ArticleID).
		Str("target", event.Target).
		Str("status", string(event.Status)).
		Time("at", event.At).
		Msg("publication lifecycle")
}

// NoopSink drops events, used in tests and when hooks are disabled.
type NoopSink struct{}

func (NoopSink) Emit(models.LifecycleEvent) {}
