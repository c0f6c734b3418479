package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/manga-content/pkg/mangacontent"
)

type object struct {
	data        []byte
	name        string
	contentType string
	metadata    map[string]string
}

// Backend is an in-memory implementation of the mangacontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// Put buffers the whole stream before the blob becomes visible.
func (b *Backend) Put(ctx context.Context, req mangacontent.PutBlobRequest, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &mangacontent.StorageError{Backend: "memory", Key: req.Name, Op: "put", Err: err}
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[id] = object{
		data:        data,
		name:        req.Name,
		contentType: contentType,
		metadata:    metadata,
	}
	return id, nil
}

// Open returns a reader over the stored bytes.
func (b *Backend) Open(ctx context.Context, blobID string) (*mangacontent.Blob, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[blobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", mangacontent.ErrBlobNotFound, blobID)
	}

	return &mangacontent.Blob{
		ReadCloser:  io.NopCloser(bytes.NewReader(obj.data)),
		ID:          blobID,
		Name:        obj.name,
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}, nil
}

// Delete removes the blob. Absent blobs are ignored.
func (b *Backend) Delete(ctx context.Context, blobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, blobID)
	return nil
}

// Exists reports whether blobID is stored.
func (b *Backend) Exists(blobID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.objects[blobID]
	return ok
}

// Metadata returns a copy of the metadata stored with blobID.
func (b *Backend) Metadata(blobID string) (map[string]string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[blobID]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(obj.metadata))
	for k, v := range obj.metadata {
		out[k] = v
	}
	return out, true
}

// Len returns the number of stored blobs.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.objects)
}
