package communitycontent

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ItemSubmitted(ctx context.Context, item *Item) error { return nil }

func (n *NoopEventSink) ItemApproved(ctx context.Context, item *Item, by Principal) error {
	return nil
}

func (n *NoopEventSink) ItemDeleted(ctx context.Context, itemID uuid.UUID, by Principal) error {
	return nil
}

// LoggingEventSink writes moderation events to a structured logger.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink backed by logger. A nil logger
// uses slog.Default().
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger.With("component", "moderation")}
}

func (l *LoggingEventSink) ItemSubmitted(ctx context.Context, item *Item) error {
	l.logger.InfoContext(ctx, "Item submitted",
		"item_id", item.ID,
		"kind", item.Kind,
		"author", item.AuthorEmail,
		"state", item.State())
	return nil
}

func (l *LoggingEventSink) ItemApproved(ctx context.Context, item *Item, by Principal) error {
	l.logger.InfoContext(ctx, "Item approved", "item_id", item.ID, "operator", by.Email)
	return nil
}

func (l *LoggingEventSink) ItemDeleted(ctx context.Context, itemID uuid.UUID, by Principal) error {
	l.logger.InfoContext(ctx, "Item deleted", "item_id", itemID, "operator", by.Email)
	return nil
}
