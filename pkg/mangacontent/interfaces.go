package mangacontent

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for binary storage backends.
// Blob ids are opaque to callers.
type BlobStore interface {
	// Put streams r into a new blob and returns its id once the write has completed
	Put(ctx context.Context, req PutBlobRequest, r io.Reader) (string, error)

	// Open returns a read stream for the blob; missing blobs yield ErrBlobNotFound
	Open(ctx context.Context, blobID string) (*Blob, error)

	// Delete removes the blob; deleting an absent blob succeeds
	Delete(ctx context.Context, blobID string) error
}

// PutBlobRequest describes a blob being written.
type PutBlobRequest struct {
	Name        string
	ContentType string
	Metadata    map[string]string
}

// Repository defines persistence for manga entities.
type Repository interface {
	CreateManga(ctx context.Context, m *Manga) error
	GetManga(ctx context.Context, id uuid.UUID) (*Manga, error)
	// UpdateManga replaces the stored entity, attachments and cover included
	UpdateManga(ctx context.Context, m *Manga) error
	DeleteManga(ctx context.Context, id uuid.UUID) error
	// ListManga returns matches ordered by creation time, newest first
	ListManga(ctx context.Context, filter ListFilter) ([]*Manga, error)
}

// ListFilter narrows ListManga. Zero fields match everything.
type ListFilter struct {
	OwnerID *uuid.UUID
	Status  *Status
}

// Locker serializes mutations of a single manga.
type Locker interface {
	// Lock blocks until key is held or ctx is done
	Lock(ctx context.Context, key string) (func(), error)
}

// Directory is the external identity collaborator.
type Directory interface {
	// Lookup resolves an identity id to its current role
	Lookup(ctx context.Context, id uuid.UUID) (Identity, error)
	// CheckCredentials returns the identity for a matching email and password
	CheckCredentials(ctx context.Context, email, password string) (Identity, error)
}

// EventSink receives lifecycle notifications.
type EventSink interface {
	MangaSubmitted(ctx context.Context, m *Manga) error
	MangaApproved(ctx context.Context, m *Manga) error
	MangaRejected(ctx context.Context, m *Manga) error
	MangaDeleted(ctx context.Context, id uuid.UUID) error
	FileAttached(ctx context.Context, m *Manga, f *FileAttachment) error
}
