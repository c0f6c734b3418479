package mangacontent

import (
	"context"

	"github.com/google/uuid"
)

// Service is the moderated manga lifecycle. Every method authorizes the
// requester itself; who is nil for anonymous requests.
type Service interface {
	// Public reads, approved content only
	ListApproved(ctx context.Context) ([]*Manga, error)
	GetApproved(ctx context.Context, id uuid.UUID) (*Manga, error)

	// Authenticated reads
	ListOwn(ctx context.Context, who *Identity) ([]*Manga, error)
	ListPending(ctx context.Context, who *Identity) ([]*Manga, error)

	// Metadata lifecycle
	CreateManga(ctx context.Context, who *Identity, req CreateMangaRequest) (*Manga, error)
	UpdateManga(ctx context.Context, who *Identity, id uuid.UUID, req UpdateMangaRequest) (*Manga, error)
	DeleteManga(ctx context.Context, who *Identity, id uuid.UUID) error

	// Moderation
	Approve(ctx context.Context, who *Identity, id uuid.UUID) (*Manga, error)
	Reject(ctx context.Context, who *Identity, id uuid.UUID, reason string) (*Manga, error)

	// Files
	UploadCover(ctx context.Context, who *Identity, id uuid.UUID, req UploadRequest) (*Manga, error)
	AttachFile(ctx context.Context, who *Identity, id uuid.UUID, req UploadRequest) (*Manga, *FileAttachment, error)

	// Delivery
	OpenCover(ctx context.Context, id uuid.UUID) (*Manga, *Blob, error)
	ListFiles(ctx context.Context, who *Identity, id uuid.UUID) (*Manga, []FileAttachment, error)
	OpenFile(ctx context.Context, who *Identity, id uuid.UUID, blobID string) (*FileAttachment, *Blob, error)
}
