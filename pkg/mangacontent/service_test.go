package mangacontent_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/manga-content/pkg/mangacontent"
	"github.com/tendant/manga-content/pkg/mangacontent/repo/memory"
	memorystorage "github.com/tendant/manga-content/pkg/mangacontent/storage/memory"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc       mangacontent.Service
	repo      *flakyRepository
	store     *flakyStore
	owner     *mangacontent.Identity
	stranger  *mangacontent.Identity
	moderator *mangacontent.Identity
	admin     *mangacontent.Identity
}

// flakyRepository fails updates on demand
type flakyRepository struct {
	*memory.Repository
	failUpdate bool
}

func (r *flakyRepository) UpdateManga(ctx context.Context, m *mangacontent.Manga) error {
	if r.failUpdate {
		return errors.New("connection reset")
	}
	return r.Repository.UpdateManga(ctx, m)
}

// flakyStore fails deletes on demand
type flakyStore struct {
	*memorystorage.Backend
	failDelete bool
}

func (s *flakyStore) Delete(ctx context.Context, blobID string) error {
	if s.failDelete {
		return &mangacontent.StorageError{Backend: "memory", Key: blobID, Op: "delete", Err: errors.New("disk gone")}
	}
	return s.Backend.Delete(ctx, blobID)
}

func setupTestService(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:      &flakyRepository{Repository: memory.New()},
		store:     &flakyStore{Backend: memorystorage.New()},
		owner:     &mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleUser},
		stranger:  &mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleUser},
		moderator: &mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleModerator},
		admin:     &mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleAdmin},
	}

	tick := testNow
	var mu sync.Mutex
	svc, err := mangacontent.New(
		mangacontent.WithRepository(f.repo),
		mangacontent.WithBlobStore(f.store),
		mangacontent.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick = tick.Add(time.Second)
			return tick
		}),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func createRequest() mangacontent.CreateMangaRequest {
	return mangacontent.CreateMangaRequest{
		Title:       "Paper Lanterns",
		Genre:       []string{"fantasy"},
		Chapters:    4,
		Description: "Spirits after dark",
		ReleaseYear: 2021,
	}
}

func imageUpload(name string, data string, page *int) mangacontent.UploadRequest {
	return mangacontent.UploadRequest{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(data)),
		PageNumber:  page,
		Body:        strings.NewReader(data),
	}
}

func (f *fixture) createWithCover(t *testing.T) *mangacontent.Manga {
	t.Helper()
	ctx := context.Background()
	m, err := f.svc.CreateManga(ctx, f.owner, createRequest())
	require.NoError(t, err)
	m, err = f.svc.UploadCover(ctx, f.owner, m.ID, imageUpload("cover.png", "cover-bytes", nil))
	require.NoError(t, err)
	return m
}

func pagePtr(n int) *int { return &n }

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []mangacontent.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []mangacontent.Option{},
			expectError: true,
		},
		{
			name: "repository without blob store should fail",
			options: []mangacontent.Option{
				mangacontent.WithRepository(memory.New()),
			},
			expectError: true,
		},
		{
			name: "with repository and blob store should succeed",
			options: []mangacontent.Option{
				mangacontent.WithRepository(memory.New()),
				mangacontent.WithBlobStore(memorystorage.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := mangacontent.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestModerationLifecycle(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	m, err := f.svc.CreateManga(ctx, f.owner, createRequest())
	require.NoError(t, err)
	assert.Equal(t, mangacontent.StatusPending, m.Status)
	assert.Equal(t, f.owner.ID, m.OwnerID)
	assert.Empty(t, m.Files)

	// pending content is invisible to the public
	public, err := f.svc.ListApproved(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)
	_, err = f.svc.GetApproved(ctx, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrNotFound)

	pending, err := f.svc.ListPending(ctx, f.moderator)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.svc.ListPending(ctx, f.owner)
	assert.ErrorIs(t, err, mangacontent.ErrForbidden)

	approved, err := f.svc.Approve(ctx, f.moderator, m.ID)
	require.NoError(t, err)
	assert.Equal(t, mangacontent.StatusApproved, approved.Status)
	require.NotNil(t, approved.ModeratedBy)
	assert.Equal(t, f.moderator.ID, *approved.ModeratedBy)

	public, err = f.svc.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)

	// any owner edit sends it back to review
	title := "Paper Lanterns Vol. 2"
	edited, err := f.svc.UpdateManga(ctx, f.owner, m.ID, mangacontent.UpdateMangaRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, mangacontent.StatusPending, edited.Status)
	assert.Nil(t, edited.ModeratedBy)
	assert.Nil(t, edited.ModeratedAt)
	assert.Equal(t, title, edited.Title)

	rejected, err := f.svc.Reject(ctx, f.admin, m.ID, "Missing chapter 3")
	require.NoError(t, err)
	assert.Equal(t, mangacontent.StatusRejected, rejected.Status)
	assert.Equal(t, "Missing chapter 3", rejected.RejectionReason)

	own, err := f.svc.ListOwn(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mangacontent.StatusRejected, own[0].Status)

	others, err := f.svc.ListOwn(ctx, f.stranger)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestModerationAuthorization(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	m, err := f.svc.CreateManga(ctx, f.owner, createRequest())
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.owner, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrForbidden)

	_, err = f.svc.Approve(ctx, nil, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrUnauthenticated)

	_, err = f.svc.Approve(ctx, f.moderator, uuid.New())
	assert.ErrorIs(t, err, mangacontent.ErrNotFound)

	_, err = f.svc.Reject(ctx, f.moderator, m.ID, strings.Repeat("r", 501))
	assert.ErrorIs(t, err, mangacontent.ErrInvalidInput)

	_, err = f.svc.CreateManga(ctx, nil, createRequest())
	assert.ErrorIs(t, err, mangacontent.ErrUnauthenticated)

	title := "Hijacked"
	_, err = f.svc.UpdateManga(ctx, f.stranger, m.ID, mangacontent.UpdateMangaRequest{Title: &title})
	assert.ErrorIs(t, err, mangacontent.ErrForbidden)

	_, err = f.svc.UpdateManga(ctx, f.admin, m.ID, mangacontent.UpdateMangaRequest{Title: &title})
	assert.NoError(t, err)
}

func TestCreateManga_Validation(t *testing.T) {
	f := setupTestService(t)

	req := createRequest()
	req.Chapters = 0
	_, err := f.svc.CreateManga(context.Background(), f.owner, req)

	var verr *mangacontent.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "chapters", verr.Field)
}

func TestAttachFile_RequiresCover(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	m, err := f.svc.CreateManga(ctx, f.owner, createRequest())
	require.NoError(t, err)

	_, _, err = f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p1.png", "page", nil))
	assert.ErrorIs(t, err, mangacontent.ErrCoverRequired)
	assert.Equal(t, 0, f.store.Len())
}

func TestAttachFile_PageNumbering(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)

	_, first, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p1.png", "one", nil))
	require.NoError(t, err)
	require.NotNil(t, first.PageNumber)
	assert.Equal(t, 1, *first.PageNumber)
	assert.Equal(t, mangacontent.KindImage, first.Kind)
	assert.Equal(t, "p1.png", first.OriginalName)

	_, explicit, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p5.png", "five", pagePtr(5)))
	require.NoError(t, err)
	assert.Equal(t, 5, *explicit.PageNumber)

	_, next, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p6.png", "six", nil))
	require.NoError(t, err)
	assert.Equal(t, 6, *next.PageNumber)

	blobsBefore := f.store.Len()
	_, _, err = f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("dup.png", "dup", pagePtr(5)))
	assert.ErrorIs(t, err, mangacontent.ErrConflict)
	assert.EqualError(t, err, "Image page 5 already exists")
	assert.Equal(t, blobsBefore, f.store.Len(), "rejected upload must not leave a blob")

	_, pdf, err := f.svc.AttachFile(ctx, f.owner, m.ID, mangacontent.UploadRequest{
		Filename:    "extras.pdf",
		ContentType: "application/pdf",
		Size:        3,
		PageNumber:  pagePtr(9),
		Body:        strings.NewReader("pdf"),
	})
	require.NoError(t, err)
	assert.Nil(t, pdf.PageNumber)
	assert.Equal(t, mangacontent.KindPDF, pdf.Kind)

	md, ok := f.store.Metadata(first.BlobID)
	require.True(t, ok)
	assert.Equal(t, m.ID.String(), md["mangaId"])
	assert.Equal(t, "1", md["pageNumber"])

	_, files, err := f.svc.ListFiles(ctx, f.owner, m.ID)
	require.NoError(t, err)
	require.Len(t, files, 4)
	assert.Equal(t, first.BlobID, files[0].BlobID)
	assert.Equal(t, explicit.BlobID, files[1].BlobID)
	assert.Equal(t, next.BlobID, files[2].BlobID)
	assert.Equal(t, pdf.BlobID, files[3].BlobID)
}

func TestAttachFile_ConcurrentPagesGetDistinctNumbers(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)

	const uploads = 8
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p.png", "page", nil))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, files, err := f.svc.ListFiles(ctx, f.owner, m.ID)
	require.NoError(t, err)
	require.Len(t, files, uploads)
	for i, file := range files {
		require.NotNil(t, file.PageNumber)
		assert.Equal(t, i+1, *file.PageNumber)
	}
}

func TestAttachFile_Rejections(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)

	_, _, err := f.svc.AttachFile(ctx, f.owner, m.ID, mangacontent.UploadRequest{
		Filename: "run.exe", ContentType: "application/octet-stream", Size: 4, Body: strings.NewReader("MZ.."),
	})
	assert.ErrorIs(t, err, mangacontent.ErrInvalidInput)

	_, _, err = f.svc.AttachFile(ctx, f.owner, m.ID, mangacontent.UploadRequest{
		Filename: "big.png", ContentType: "image/png", Size: mangacontent.MaxUploadSize + 1, Body: strings.NewReader(""),
	})
	assert.ErrorIs(t, err, mangacontent.ErrInvalidInput)

	_, _, err = f.svc.AttachFile(ctx, f.stranger, m.ID, imageUpload("p.png", "x", nil))
	assert.ErrorIs(t, err, mangacontent.ErrForbidden)

	_, _, err = f.svc.AttachFile(ctx, f.moderator, m.ID, imageUpload("p.png", "x", nil))
	assert.ErrorIs(t, err, mangacontent.ErrForbidden)

	_, err = f.svc.UploadCover(ctx, f.owner, m.ID, mangacontent.UploadRequest{
		Filename: "cover.pdf", ContentType: "application/pdf", Size: 3, Body: strings.NewReader("pdf"),
	})
	assert.ErrorIs(t, err, mangacontent.ErrInvalidInput)
}

func TestAttachFile_ResubmitsApprovedManga(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)

	_, err := f.svc.Approve(ctx, f.moderator, m.ID)
	require.NoError(t, err)

	updated, _, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p1.png", "one", nil))
	require.NoError(t, err)
	assert.Equal(t, mangacontent.StatusPending, updated.Status)
	assert.Nil(t, updated.ModeratedBy)
}

func TestAttachFile_CompensatesFailedSave(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)
	blobsBefore := f.store.Len()

	f.repo.failUpdate = true
	_, _, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p1.png", "one", nil))
	require.Error(t, err)
	assert.Equal(t, blobsBefore, f.store.Len(), "blob written before the failed save must be removed")

	f.repo.failUpdate = false
	stored, err := f.repo.GetManga(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Files)
}

func TestUploadCover_ReplacesPrevious(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)
	oldCover := m.Cover.BlobID

	updated, err := f.svc.UploadCover(ctx, f.owner, m.ID, imageUpload("new.png", "new-cover", nil))
	require.NoError(t, err)
	require.NotNil(t, updated.Cover)
	assert.NotEqual(t, oldCover, updated.Cover.BlobID)
	assert.Contains(t, updated.Cover.Filename, "-cover-")
	assert.False(t, f.store.Exists(oldCover))
	assert.True(t, f.store.Exists(updated.Cover.BlobID))
	assert.Equal(t, 1, f.store.Len())
}

func TestUploadCover_FailedSaveKeepsOldCover(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)

	f.repo.failUpdate = true
	_, err := f.svc.UploadCover(ctx, f.owner, m.ID, imageUpload("new.png", "new-cover", nil))
	require.Error(t, err)
	f.repo.failUpdate = false

	assert.True(t, f.store.Exists(m.Cover.BlobID))
	assert.Equal(t, 1, f.store.Len())
}

func TestDelivery(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)

	_, page, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p1.png", "page-one-bytes", nil))
	require.NoError(t, err)

	// pending: only privileged viewers see the files
	_, _, err = f.svc.OpenFile(ctx, nil, m.ID, page.BlobID)
	assert.ErrorIs(t, err, mangacontent.ErrNotFound)
	_, _, err = f.svc.ListFiles(ctx, f.stranger, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrNotFound)
	_, _, err = f.svc.OpenCover(ctx, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrNotFound)

	file, blob, err := f.svc.OpenFile(ctx, f.moderator, m.ID, page.BlobID)
	require.NoError(t, err)
	data, err := io.ReadAll(blob)
	require.NoError(t, err)
	require.NoError(t, blob.Close())
	assert.Equal(t, "page-one-bytes", string(data))
	assert.Equal(t, "image/png", blob.ContentType)
	assert.Equal(t, "p1.png", file.OriginalName)

	_, _, err = f.svc.OpenFile(ctx, f.owner, m.ID, "not-a-file")
	assert.ErrorIs(t, err, mangacontent.ErrFileNotFound)

	_, err = f.svc.Approve(ctx, f.moderator, m.ID)
	require.NoError(t, err)

	_, blob, err = f.svc.OpenFile(ctx, nil, m.ID, page.BlobID)
	require.NoError(t, err)
	data, err = io.ReadAll(blob)
	require.NoError(t, err)
	blob.Close()
	assert.True(t, bytes.Equal([]byte("page-one-bytes"), data))

	_, cover, err := f.svc.OpenCover(ctx, m.ID)
	require.NoError(t, err)
	data, err = io.ReadAll(cover)
	require.NoError(t, err)
	cover.Close()
	assert.Equal(t, "cover-bytes", string(data))
}

func TestOpenCover_Missing(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	m, err := f.svc.CreateManga(ctx, f.owner, createRequest())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.moderator, m.ID)
	require.NoError(t, err)

	_, _, err = f.svc.OpenCover(ctx, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrCoverNotFound)
}

func TestDeleteManga(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)
	for i := 0; i < 3; i++ {
		_, _, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p.png", "page", nil))
		require.NoError(t, err)
	}
	require.Equal(t, 4, f.store.Len())

	err := f.svc.DeleteManga(ctx, f.stranger, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrForbidden)

	require.NoError(t, f.svc.DeleteManga(ctx, f.moderator, m.ID))
	assert.Equal(t, 0, f.store.Len())

	_, err = f.repo.GetManga(ctx, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrNotFound)

	err = f.svc.DeleteManga(ctx, f.owner, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrNotFound)
}

func TestDeleteManga_BlobsAlreadyGone(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)
	_, file, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("p.png", "page", nil))
	require.NoError(t, err)

	require.NoError(t, f.store.Backend.Delete(ctx, m.Cover.BlobID))
	require.NoError(t, f.store.Backend.Delete(ctx, file.BlobID))
	require.Equal(t, 0, f.store.Len())

	require.NoError(t, f.svc.DeleteManga(ctx, f.owner, m.ID))

	_, err = f.repo.GetManga(ctx, m.ID)
	assert.ErrorIs(t, err, mangacontent.ErrNotFound)
}

func TestAttachFile_EmptyFile(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)

	_, file, err := f.svc.AttachFile(ctx, f.owner, m.ID, imageUpload("blank.png", "", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), file.Size)
	require.NotNil(t, file.PageNumber)
	assert.Equal(t, 1, *file.PageNumber)

	_, blob, err := f.svc.OpenFile(ctx, f.owner, m.ID, file.BlobID)
	require.NoError(t, err)
	defer blob.Close()
	data, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDeleteManga_BlobFailureKeepsEntity(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.createWithCover(t)

	f.store.failDelete = true
	err := f.svc.DeleteManga(ctx, f.owner, m.ID)
	var serr *mangacontent.StorageError
	require.ErrorAs(t, err, &serr)

	_, err = f.repo.GetManga(ctx, m.ID)
	require.NoError(t, err, "entity must survive a failed blob cleanup")

	f.store.failDelete = false
	require.NoError(t, f.svc.DeleteManga(ctx, f.owner, m.ID))
}

// recordingSink collects lifecycle events in order
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) record(event string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) MangaSubmitted(ctx context.Context, m *mangacontent.Manga) error {
	return r.record("submitted")
}

func (r *recordingSink) MangaApproved(ctx context.Context, m *mangacontent.Manga) error {
	return r.record("approved")
}

func (r *recordingSink) MangaRejected(ctx context.Context, m *mangacontent.Manga) error {
	return r.record("rejected")
}

func (r *recordingSink) MangaDeleted(ctx context.Context, id uuid.UUID) error {
	return r.record("deleted")
}

func (r *recordingSink) FileAttached(ctx context.Context, m *mangacontent.Manga, f *mangacontent.FileAttachment) error {
	return r.record("file_attached")
}

func TestEventSink(t *testing.T) {
	sink := &recordingSink{}
	svc, err := mangacontent.New(
		mangacontent.WithRepository(memory.New()),
		mangacontent.WithBlobStore(memorystorage.New()),
		mangacontent.WithEventSink(sink),
	)
	require.NoError(t, err)

	ctx := context.Background()
	owner := &mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleUser}
	mod := &mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleModerator}

	m, err := svc.CreateManga(ctx, owner, createRequest())
	require.NoError(t, err)
	_, err = svc.UploadCover(ctx, owner, m.ID, imageUpload("cover.png", "c", nil))
	require.NoError(t, err)
	_, _, err = svc.AttachFile(ctx, owner, m.ID, imageUpload("p1.png", "p", nil))
	require.NoError(t, err)
	_, err = svc.Reject(ctx, mod, m.ID, "blurry")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, mod, m.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteManga(ctx, owner, m.ID))

	assert.Equal(t, []string{
		"submitted",
		"submitted",
		"file_attached",
		"submitted",
		"rejected",
		"approved",
		"deleted",
	}, sink.events)
}

func TestLoggingEventSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := mangacontent.NewLoggingEventSink(logger)

	m := &mangacontent.Manga{ID: uuid.New(), OwnerID: uuid.New(), Status: mangacontent.StatusPending}
	require.NoError(t, sink.MangaSubmitted(context.Background(), m))
	require.NoError(t, sink.MangaDeleted(context.Background(), m.ID))

	out := buf.String()
	assert.Contains(t, out, m.ID.String())
	assert.Equal(t, 2, strings.Count(out, "\n"))
}
