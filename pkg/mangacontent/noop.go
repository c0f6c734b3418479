package mangacontent

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) MangaSubmitted(ctx context.Context, m *Manga) error { return nil }

func (n *NoopEventSink) MangaApproved(ctx context.Context, m *Manga) error { return nil }

func (n *NoopEventSink) MangaRejected(ctx context.Context, m *Manga) error { return nil }

func (n *NoopEventSink) MangaDeleted(ctx context.Context, id uuid.UUID) error { return nil }

func (n *NoopEventSink) FileAttached(ctx context.Context, m *Manga, f *FileAttachment) error {
	return nil
}
