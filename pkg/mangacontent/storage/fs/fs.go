package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tendant/manga-content/pkg/mangacontent"
	"github.com/tendant/manga-content/pkg/mangacontent/objectkey"
)

// Backend is a filesystem implementation of the mangacontent.BlobStore interface.
// Each blob is a data file plus a JSON sidecar holding its attributes.
type Backend struct {
	baseDir string
	keys    objectkey.Generator
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
	// KeyGenerator maps blob ids to relative paths (default: Git-like sharding)
	KeyGenerator objectkey.Generator
}

type sidecar struct {
	Name        string            `json:"name"`
	ContentType string            `json:"contentType"`
	Size        int64             `json:"size"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	keys := config.KeyGenerator
	if keys == nil {
		keys = objectkey.NewRecommendedGenerator()
	}

	return &Backend{
		baseDir: config.BaseDir,
		keys:    keys,
	}, nil
}

// Put writes to a temporary file and renames it into place once the stream
// has been fully copied.
func (b *Backend) Put(ctx context.Context, req mangacontent.PutBlobRequest, r io.Reader) (string, error) {
	id := uuid.New()
	filePath := b.path(id)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", b.storageError(id.String(), "put", fmt.Errorf("failed to create directory: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".upload-*")
	if err != nil {
		return "", b.storageError(id.String(), "put", fmt.Errorf("failed to create file: %w", err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	size, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", b.storageError(id.String(), "put", fmt.Errorf("failed to write file: %w", err))
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	meta, err := json.Marshal(sidecar{
		Name:        req.Name,
		ContentType: contentType,
		Size:        size,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return "", b.storageError(id.String(), "put", err)
	}
	if err := os.WriteFile(filePath+".json", meta, 0644); err != nil {
		return "", b.storageError(id.String(), "put", fmt.Errorf("failed to write metadata: %w", err))
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(filePath + ".json")
		return "", b.storageError(id.String(), "put", fmt.Errorf("failed to commit file: %w", err))
	}

	return id.String(), nil
}

// Open opens the data file and its sidecar.
func (b *Backend) Open(ctx context.Context, blobID string) (*mangacontent.Blob, error) {
	id, err := uuid.Parse(blobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", mangacontent.ErrBlobNotFound, blobID)
	}
	filePath := b.path(id)

	raw, err := os.ReadFile(filePath + ".json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", mangacontent.ErrBlobNotFound, blobID)
	} else if err != nil {
		return nil, b.storageError(blobID, "open", fmt.Errorf("failed to read metadata: %w", err))
	}
	var meta sidecar
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, b.storageError(blobID, "open", fmt.Errorf("corrupt metadata: %w", err))
	}

	file, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", mangacontent.ErrBlobNotFound, blobID)
	} else if err != nil {
		return nil, b.storageError(blobID, "open", fmt.Errorf("failed to open file: %w", err))
	}

	return &mangacontent.Blob{
		ReadCloser:  file,
		ID:          blobID,
		Name:        meta.Name,
		ContentType: meta.ContentType,
		Size:        meta.Size,
	}, nil
}

// Delete removes the data file and its sidecar. Absent blobs are ignored.
func (b *Backend) Delete(ctx context.Context, blobID string) error {
	id, err := uuid.Parse(blobID)
	if err != nil {
		return nil
	}
	filePath := b.path(id)

	for _, p := range []string{filePath, filePath + ".json"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return b.storageError(blobID, "delete", fmt.Errorf("failed to delete file: %w", err))
		}
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

func (b *Backend) path(id uuid.UUID) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(b.keys.GenerateKey(id)))
}

func (b *Backend) storageError(key, op string, err error) error {
	return &mangacontent.StorageError{Backend: "fs", Key: key, Op: op, Err: err}
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if filepath.Clean(dir) == filepath.Clean(b.baseDir) {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
