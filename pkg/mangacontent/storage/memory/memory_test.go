package memory_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/manga-content/pkg/mangacontent"
	memorystorage "github.com/tendant/manga-content/pkg/mangacontent/storage/memory"
)

var _ mangacontent.BlobStore = (*memorystorage.Backend)(nil)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testData := "Hello, World! This is test data."

	var blobID string

	t.Run("Put", func(t *testing.T) {
		id, err := backend.Put(ctx, mangacontent.PutBlobRequest{
			Name:        "page-1.png",
			ContentType: "image/png",
			Metadata:    map[string]string{"kind": "image"},
		}, strings.NewReader(testData))
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		blobID = id
	})

	t.Run("Open", func(t *testing.T) {
		blob, err := backend.Open(ctx, blobID)
		require.NoError(t, err)
		defer blob.Close()

		data, err := io.ReadAll(blob)
		require.NoError(t, err)
		assert.Equal(t, testData, string(data))
		assert.Equal(t, "image/png", blob.ContentType)
		assert.Equal(t, "page-1.png", blob.Name)
		assert.Equal(t, int64(len(testData)), blob.Size)

		md, ok := backend.Metadata(blobID)
		require.True(t, ok)
		assert.Equal(t, "image", md["kind"])
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, blobID))
		assert.False(t, backend.Exists(blobID))

		_, err := backend.Open(ctx, blobID)
		assert.ErrorIs(t, err, mangacontent.ErrBlobNotFound)
		assert.ErrorIs(t, err, mangacontent.ErrNotFound)
	})

	t.Run("Delete absent blob is idempotent", func(t *testing.T) {
		assert.NoError(t, backend.Delete(ctx, blobID))
		assert.NoError(t, backend.Delete(ctx, "never-existed"))
	})

	t.Run("Default content type", func(t *testing.T) {
		id, err := backend.Put(ctx, mangacontent.PutBlobRequest{Name: "x"}, strings.NewReader("x"))
		require.NoError(t, err)
		blob, err := backend.Open(ctx, id)
		require.NoError(t, err)
		defer blob.Close()
		assert.Equal(t, "application/octet-stream", blob.ContentType)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestMemoryBackend_FailedWriteLeavesNothing(t *testing.T) {
	backend := memorystorage.New()

	_, err := backend.Put(context.Background(), mangacontent.PutBlobRequest{Name: "broken.png"}, failingReader{})
	require.Error(t, err)

	var storageErr *mangacontent.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "put", storageErr.Op)
	assert.Equal(t, 0, backend.Len())
}

func TestMemoryBackend_Concurrency(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := backend.Put(ctx, mangacontent.PutBlobRequest{Name: fmt.Sprintf("p%d", i)}, strings.NewReader("data"))
			if assert.NoError(t, err) {
				ids <- id
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	for id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, backend.Delete(ctx, id))
			assert.NoError(t, backend.Delete(ctx, id))
		}(id)
	}
	wg.Wait()
	assert.Equal(t, 0, backend.Len())
}
