package gridfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tendant/manga-content/pkg/mangacontent"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config options for the GridFS backend
type Config struct {
	URI            string // MongoDB connection string
	Database       string
	Bucket         string // GridFS bucket name (default: mangaFiles)
	ChunkSizeBytes int32  // Optional chunk size override
	ConnectTimeout time.Duration
}

// Backend stores blobs as chunked GridFS files. Blob ids are ObjectID hex strings.
type Backend struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

// New connects to MongoDB and opens the bucket. The handle is created once
// and shared by every request.
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.URI == "" {
		return nil, errors.New("mongodb uri is required")
	}
	if config.Database == "" {
		return nil, errors.New("mongodb database is required")
	}
	if config.Bucket == "" {
		config.Bucket = "mangaFiles"
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.ConnectTimeout).
		SetServerSelectionTimeout(config.ConnectTimeout)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	backend, err := NewWithDatabase(client.Database(config.Database), config)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	backend.client = client
	return backend, nil
}

// NewWithDatabase opens the bucket on an existing database handle.
func NewWithDatabase(db *mongo.Database, config Config) (*Backend, error) {
	if config.Bucket == "" {
		config.Bucket = "mangaFiles"
	}
	bucketOpts := options.GridFSBucket().SetName(config.Bucket)
	if config.ChunkSizeBytes > 0 {
		bucketOpts.SetChunkSizeBytes(config.ChunkSizeBytes)
	}
	bucket, err := gridfs.NewBucket(db, bucketOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open gridfs bucket: %w", err)
	}
	return &Backend{bucket: bucket}, nil
}

// Put copies the stream into chunks. The files document is written on
// Close, so an aborted upload leaves no visible file.
func (b *Backend) Put(ctx context.Context, req mangacontent.PutBlobRequest, r io.Reader) (string, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	metadata := bson.M{"contentType": contentType}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	stream, err := b.bucket.OpenUploadStream(req.Name, options.GridFSUpload().SetMetadata(metadata))
	if err != nil {
		return "", b.storageError(req.Name, "put", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return "", b.storageError(req.Name, "put", err)
	}
	if err := stream.Close(); err != nil {
		return "", b.storageError(req.Name, "put", err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", b.storageError(req.Name, "put", fmt.Errorf("unexpected file id type %T", stream.FileID))
	}
	return id.Hex(), nil
}

// Open starts a chunked download.
func (b *Backend) Open(ctx context.Context, blobID string) (*mangacontent.Blob, error) {
	id, err := primitive.ObjectIDFromHex(blobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", mangacontent.ErrBlobNotFound, blobID)
	}

	stream, err := b.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", mangacontent.ErrBlobNotFound, blobID)
		}
		return nil, b.storageError(blobID, "open", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	file := stream.GetFile()
	blob := &mangacontent.Blob{
		ReadCloser: stream,
		ID:         blobID,
		Name:       file.Name,
		Size:       file.Length,
	}
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			blob.ContentType = ct
		}
	}
	return blob, nil
}

// Delete removes the files document and its chunks. Missing files are ignored.
func (b *Backend) Delete(ctx context.Context, blobID string) error {
	id, err := primitive.ObjectIDFromHex(blobID)
	if err != nil {
		return nil
	}
	if err := b.bucket.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return b.storageError(blobID, "delete", err)
	}
	return nil
}

// Close disconnects the client when the backend owns it.
func (b *Backend) Close(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	return b.client.Disconnect(ctx)
}

func (b *Backend) storageError(key, op string, err error) error {
	return &mangacontent.StorageError{Backend: "gridfs", Key: key, Op: op, Err: err}
}
