package service

import (
	"context"
	"log/slog"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
)

// logFailure logs client errors as warnings and everything else as errors.
func logFailure(l *slog.Logger, event string, err error) {
	if e, ok := apperr.As(err); ok {
		l.Warn(event, "status", e.Status, "reason", e.Message)
		return
	}
	l.Error(event, "status", 500, "error", err)
}

// publish is best effort: a failed publish is logged and otherwise ignored.
func publish(ctx context.Context, l *slog.Logger, pub events.Publisher, topic, key string, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, key, ev); err != nil {
		l.Warn("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
