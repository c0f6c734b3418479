package mangacontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	memorylock "github.com/tendant/manga-content/pkg/mangacontent/lock/memory"
	"github.com/tendant/manga-content/pkg/mangacontent/objectkey"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	locker     Locker
	eventSink  EventSink
	logger     *slog.Logger
	now        func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the entity store
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob store holding covers and files
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithLocker replaces the in-process per-manga lock
func WithLocker(locker Locker) Option {
	return func(s *service) {
		s.locker = locker
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		locker:    memorylock.New(),
		eventSink: NewNoopEventSink(),
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Public reads

func (s *service) ListApproved(ctx context.Context) ([]*Manga, error) {
	status := StatusApproved
	items, err := s.repository.ListManga(ctx, ListFilter{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to list approved manga: %w", err)
	}
	return items, nil
}

func (s *service) GetApproved(ctx context.Context, id uuid.UUID) (*Manga, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(nil, m, ActionReadPublic); err != nil {
		return nil, err
	}
	return m, nil
}

// Authenticated reads

func (s *service) ListOwn(ctx context.Context, who *Identity) ([]*Manga, error) {
	if err := Authorize(who, nil, ActionListOwn); err != nil {
		return nil, err
	}
	owner := who.ID
	items, err := s.repository.ListManga(ctx, ListFilter{OwnerID: &owner})
	if err != nil {
		return nil, fmt.Errorf("failed to list manga for owner %s: %w", owner, err)
	}
	return items, nil
}

func (s *service) ListPending(ctx context.Context, who *Identity) ([]*Manga, error) {
	if err := Authorize(who, nil, ActionListPending); err != nil {
		return nil, err
	}
	status := StatusPending
	items, err := s.repository.ListManga(ctx, ListFilter{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending manga: %w", err)
	}
	return items, nil
}

// Metadata lifecycle

func (s *service) CreateManga(ctx context.Context, who *Identity, req CreateMangaRequest) (*Manga, error) {
	if err := Authorize(who, nil, ActionCreate); err != nil {
		return nil, err
	}
	now := s.now()
	if err := req.Normalize(now); err != nil {
		return nil, err
	}

	m := &Manga{
		ID:          uuid.New(),
		Title:       req.Title,
		Genre:       req.Genre,
		Chapters:    req.Chapters,
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
		OwnerID:     who.ID,
		Status:      StatusPending,
		Files:       []FileAttachment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreateManga(ctx, m); err != nil {
		return nil, &MangaError{MangaID: m.ID, Op: "create", Err: err}
	}

	s.fire(ctx, "submitted", func() error { return s.eventSink.MangaSubmitted(ctx, m) })
	return m, nil
}

func (s *service) UpdateManga(ctx context.Context, who *Identity, id uuid.UUID, req UpdateMangaRequest) (*Manga, error) {
	m, unlock, err := s.lockAndGet(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := Authorize(who, m, ActionEdit); err != nil {
		return nil, err
	}
	now := s.now()
	if err := req.Normalize(now); err != nil {
		return nil, err
	}

	req.apply(m)
	m.Resubmit(now)

	if err := s.repository.UpdateManga(ctx, m); err != nil {
		return nil, &MangaError{MangaID: id, Op: "update", Err: err}
	}

	s.fire(ctx, "submitted", func() error { return s.eventSink.MangaSubmitted(ctx, m) })
	return m, nil
}

func (s *service) DeleteManga(ctx context.Context, who *Identity, id uuid.UUID) error {
	m, unlock, err := s.lockAndGet(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := Authorize(who, m, ActionDelete); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, blobID := range m.BlobIDs() {
		blobID := blobID
		g.Go(func() error {
			return s.blobStore.Delete(gctx, blobID)
		})
	}
	if err := g.Wait(); err != nil {
		return &MangaError{MangaID: id, Op: "delete_files", Err: err}
	}

	if err := s.repository.DeleteManga(ctx, id); err != nil {
		return &MangaError{MangaID: id, Op: "delete", Err: err}
	}

	s.fire(ctx, "deleted", func() error { return s.eventSink.MangaDeleted(ctx, id) })
	return nil
}

// Moderation

func (s *service) Approve(ctx context.Context, who *Identity, id uuid.UUID) (*Manga, error) {
	if err := Authorize(who, nil, ActionModerate); err != nil {
		return nil, err
	}
	m, unlock, err := s.lockAndGet(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m.Approve(who.ID, s.now())
	if err := s.repository.UpdateManga(ctx, m); err != nil {
		return nil, &MangaError{MangaID: id, Op: "approve", Err: err}
	}

	s.fire(ctx, "approved", func() error { return s.eventSink.MangaApproved(ctx, m) })
	return m, nil
}

func (s *service) Reject(ctx context.Context, who *Identity, id uuid.UUID, reason string) (*Manga, error) {
	if err := Authorize(who, nil, ActionModerate); err != nil {
		return nil, err
	}
	if _, err := NormalizeRejectionReason(reason); err != nil {
		return nil, err
	}
	m, unlock, err := s.lockAndGet(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := m.Reject(who.ID, reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.repository.UpdateManga(ctx, m); err != nil {
		return nil, &MangaError{MangaID: id, Op: "reject", Err: err}
	}

	s.fire(ctx, "rejected", func() error { return s.eventSink.MangaRejected(ctx, m) })
	return m, nil
}

// Files

func (s *service) UploadCover(ctx context.Context, who *Identity, id uuid.UUID, req UploadRequest) (*Manga, error) {
	m, unlock, err := s.lockAndGet(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := Authorize(who, m, ActionUploadCover); err != nil {
		return nil, err
	}
	kind, err := ClassifyUpload(req.Filename, req.ContentType, true)
	if err != nil {
		return nil, err
	}
	if err := ValidateUploadSize(req.Size); err != nil {
		return nil, err
	}

	now := s.now()
	filename := objectkey.CoverFilename(m.ID, req.Filename, now)
	blobID, err := s.blobStore.Put(ctx, PutBlobRequest{
		Name:        filename,
		ContentType: req.ContentType,
		Metadata:    blobMetadata(m, who, kind, req.Filename, nil),
	}, req.Body)
	if err != nil {
		return nil, err
	}

	previous := m.Cover
	m.Cover = &Cover{BlobID: blobID, Filename: filename, UploadedAt: now}
	m.Resubmit(now)

	if err := s.repository.UpdateManga(ctx, m); err != nil {
		s.discardBlob(ctx, blobID)
		return nil, &MangaError{MangaID: id, Op: "upload_cover", Err: err}
	}

	if previous != nil && previous.BlobID != blobID {
		if err := s.blobStore.Delete(ctx, previous.BlobID); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete replaced cover", "manga_id", id, "file_id", previous.BlobID, "error", err)
		}
	}

	s.fire(ctx, "submitted", func() error { return s.eventSink.MangaSubmitted(ctx, m) })
	return m, nil
}

func (s *service) AttachFile(ctx context.Context, who *Identity, id uuid.UUID, req UploadRequest) (*Manga, *FileAttachment, error) {
	m, unlock, err := s.lockAndGet(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	if err := Authorize(who, m, ActionUpload); err != nil {
		return nil, nil, err
	}
	if m.Cover == nil {
		return nil, nil, ErrCoverRequired
	}
	kind, err := ClassifyUpload(req.Filename, req.ContentType, false)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateUploadSize(req.Size); err != nil {
		return nil, nil, err
	}
	page, err := AssignPageNumber(m.Files, kind, req.PageNumber)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	filename := objectkey.StoredFilename(m.ID, req.Filename, now)
	blobID, err := s.blobStore.Put(ctx, PutBlobRequest{
		Name:        filename,
		ContentType: req.ContentType,
		Metadata:    blobMetadata(m, who, kind, req.Filename, page),
	}, req.Body)
	if err != nil {
		return nil, nil, err
	}

	m.Files = append(m.Files, FileAttachment{
		BlobID:       blobID,
		Filename:     filename,
		OriginalName: req.Filename,
		ContentType:  req.ContentType,
		Size:         req.Size,
		Kind:         kind,
		PageNumber:   page,
		UploadedAt:   now,
	})
	m.Resubmit(now)

	if err := s.repository.UpdateManga(ctx, m); err != nil {
		s.discardBlob(ctx, blobID)
		return nil, nil, &MangaError{MangaID: id, Op: "attach_file", Err: err}
	}

	file := m.Files[len(m.Files)-1]
	s.fire(ctx, "file_attached", func() error { return s.eventSink.FileAttached(ctx, m, &file) })
	s.fire(ctx, "submitted", func() error { return s.eventSink.MangaSubmitted(ctx, m) })
	return m, &file, nil
}

// Delivery

func (s *service) OpenCover(ctx context.Context, id uuid.UUID) (*Manga, *Blob, error) {
	m, err := s.GetApproved(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m.Cover == nil {
		return nil, nil, ErrCoverNotFound
	}
	blob, err := s.blobStore.Open(ctx, m.Cover.BlobID)
	if err != nil {
		return nil, nil, err
	}
	return m, blob, nil
}

func (s *service) ListFiles(ctx context.Context, who *Identity, id uuid.UUID) (*Manga, []FileAttachment, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := Authorize(who, m, ActionRead); err != nil {
		return nil, nil, err
	}
	return m, OrderedFiles(m.Files), nil
}

func (s *service) OpenFile(ctx context.Context, who *Identity, id uuid.UUID, blobID string) (*FileAttachment, *Blob, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := Authorize(who, m, ActionRead); err != nil {
		return nil, nil, err
	}
	f, ok := m.FindFile(blobID)
	if !ok {
		return nil, nil, ErrFileNotFound
	}
	blob, err := s.blobStore.Open(ctx, f.BlobID)
	if err != nil {
		return nil, nil, err
	}
	if blob.ContentType == "" {
		blob.ContentType = f.ContentType
	}
	file := *f
	return &file, blob, nil
}

// Helpers

func (s *service) get(ctx context.Context, id uuid.UUID) (*Manga, error) {
	m, err := s.repository.GetManga(ctx, id)
	if err != nil {
		return nil, &MangaError{MangaID: id, Op: "get", Err: err}
	}
	return m, nil
}

// lockAndGet holds the per-manga lock for the whole read-modify-write.
func (s *service) lockAndGet(ctx context.Context, id uuid.UUID) (*Manga, func(), error) {
	unlock, err := s.locker.Lock(ctx, id.String())
	if err != nil {
		return nil, nil, &MangaError{MangaID: id, Op: "lock", Err: err}
	}
	m, err := s.get(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return m, unlock, nil
}

// discardBlob removes a blob whose entity update failed.
func (s *service) discardBlob(ctx context.Context, blobID string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.blobStore.Delete(ctx, blobID); err != nil && !errors.Is(err, ErrBlobNotFound) {
		s.logger.ErrorContext(ctx, "Failed to remove orphaned blob", "file_id", blobID, "error", err)
	}
}

func (s *service) fire(ctx context.Context, event string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", event, "error", err)
	}
}

func blobMetadata(m *Manga, who *Identity, kind Kind, original string, page *int) map[string]string {
	md := map[string]string{
		"mangaId":      m.ID.String(),
		"ownerId":      m.OwnerID.String(),
		"uploadedBy":   who.ID.String(),
		"kind":         string(kind),
		"originalName": original,
	}
	if page != nil {
		md["pageNumber"] = strconv.Itoa(*page)
	}
	return md
}
