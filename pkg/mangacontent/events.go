package mangacontent

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LoggingEventSink writes lifecycle events to a structured logger.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink backed by logger, or slog.Default when nil.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger.With("component", "events")}
}

func (l *LoggingEventSink) MangaSubmitted(ctx context.Context, m *Manga) error {
	l.logger.InfoContext(ctx, "Manga submitted for moderation", "manga_id", m.ID, "owner_id", m.OwnerID)
	return nil
}

func (l *LoggingEventSink) MangaApproved(ctx context.Context, m *Manga) error {
	l.logger.InfoContext(ctx, "Manga approved", "manga_id", m.ID, "moderated_by", m.ModeratedBy)
	return nil
}

func (l *LoggingEventSink) MangaRejected(ctx context.Context, m *Manga) error {
	l.logger.InfoContext(ctx, "Manga rejected", "manga_id", m.ID, "moderated_by", m.ModeratedBy, "reason", m.RejectionReason)
	return nil
}

func (l *LoggingEventSink) MangaDeleted(ctx context.Context, id uuid.UUID) error {
	l.logger.InfoContext(ctx, "Manga deleted", "manga_id", id)
	return nil
}

func (l *LoggingEventSink) FileAttached(ctx context.Context, m *Manga, f *FileAttachment) error {
	l.logger.InfoContext(ctx, "File attached",
		"manga_id", m.ID,
		"file_id", f.BlobID,
		"kind", f.Kind,
		"page_number", f.PageNumber,
		"size", f.Size,
	)
	return nil
}
