package mangacontent

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Status is the moderation state of a manga.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Kind classifies an attached file.
type Kind string

const (
	KindImage   Kind = "image"
	KindPDF     Kind = "pdf"
	KindArchive Kind = "archive"
)

// Role is the role carried by an identity.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Identity is an authenticated requester as returned by the identity directory.
type Identity struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// IsModerator reports whether the identity may moderate content.
func (i Identity) IsModerator() bool {
	return i.Role == RoleModerator || i.Role == RoleAdmin
}

// Manga is a submitted work with one moderation lifecycle.
type Manga struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Genre       []string  `json:"genre"`
	Chapters    int       `json:"chapters"`
	Description string    `json:"description"`
	ReleaseYear int       `json:"releaseYear"`
	Rating      float64   `json:"rating"`
	OwnerID     uuid.UUID `json:"ownerId"`

	Status          Status     `json:"status"`
	ModeratedBy     *uuid.UUID `json:"moderatedBy"`
	ModeratedAt     *time.Time `json:"moderatedAt"`
	RejectionReason string     `json:"rejectionReason"`

	Cover *Cover           `json:"cover"`
	Files []FileAttachment `json:"files"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so stores can hand out values without sharing slices.
func (m *Manga) Clone() *Manga {
	if m == nil {
		return nil
	}
	c := *m
	c.Genre = append([]string(nil), m.Genre...)
	if m.ModeratedBy != nil {
		id := *m.ModeratedBy
		c.ModeratedBy = &id
	}
	if m.ModeratedAt != nil {
		t := *m.ModeratedAt
		c.ModeratedAt = &t
	}
	if m.Cover != nil {
		cover := *m.Cover
		c.Cover = &cover
	}
	c.Files = make([]FileAttachment, len(m.Files))
	for i, f := range m.Files {
		c.Files[i] = f
		if f.PageNumber != nil {
			n := *f.PageNumber
			c.Files[i].PageNumber = &n
		}
	}
	return &c
}

// IsOwnedBy reports whether id owns the manga.
func (m *Manga) IsOwnedBy(id uuid.UUID) bool {
	return m.OwnerID == id
}

// FindFile returns the attachment stored under blobID.
func (m *Manga) FindFile(blobID string) (*FileAttachment, bool) {
	for i := range m.Files {
		if m.Files[i].BlobID == blobID {
			return &m.Files[i], true
		}
	}
	return nil, false
}

// BlobIDs returns the cover blob and every attachment blob.
func (m *Manga) BlobIDs() []string {
	ids := make([]string, 0, len(m.Files)+1)
	if m.Cover != nil && m.Cover.BlobID != "" {
		ids = append(ids, m.Cover.BlobID)
	}
	for _, f := range m.Files {
		ids = append(ids, f.BlobID)
	}
	return ids
}

// Cover is the single cover slot of a manga.
type Cover struct {
	BlobID     string    `json:"fileId"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// FileAttachment is one page or document belonging to a manga.
type FileAttachment struct {
	BlobID       string    `json:"fileId"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	Kind         Kind      `json:"kind"`
	PageNumber   *int      `json:"pageNumber"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Blob is an open blob read stream with its stored attributes.
type Blob struct {
	io.ReadCloser
	ID          string
	Name        string
	ContentType string
	Size        int64
}
