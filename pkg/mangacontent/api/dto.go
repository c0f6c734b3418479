package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/manga-content/pkg/mangacontent"
)

// GenreList accepts either a single genre string or a list of genres
type GenreList []string

func (g *GenreList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*g = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return mangacontent.Invalid("genre", "genre must be a string or a list of strings")
	}
	*g = GenreList{single}
	return nil
}

// CreateMangaRequest is the request body for creating a manga
type CreateMangaRequest struct {
	Title       string    `json:"title"`
	Genre       GenreList `json:"genre"`
	Chapters    int       `json:"chapters"`
	Description string    `json:"description"`
	ReleaseYear int       `json:"releaseYear"`
}

// UpdateMangaRequest is the request body for a partial metadata edit
type UpdateMangaRequest struct {
	Title       *string    `json:"title"`
	Genre       *GenreList `json:"genre"`
	Chapters    *int       `json:"chapters"`
	Description *string    `json:"description"`
	ReleaseYear *int       `json:"releaseYear"`
}

func (r UpdateMangaRequest) toService() mangacontent.UpdateMangaRequest {
	req := mangacontent.UpdateMangaRequest{
		Title:       r.Title,
		Chapters:    r.Chapters,
		Description: r.Description,
		ReleaseYear: r.ReleaseYear,
	}
	if r.Genre != nil {
		req.Genre = append([]string{}, (*r.Genre)...)
	}
	return req
}

// RejectRequest is the request body for rejecting a manga
type RejectRequest struct {
	Reason string `json:"reason"`
}

// TokenRequest is the request body for issuing a token
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the response body for an issued token
type TokenResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	User      mangacontent.Identity `json:"user"`
}

// FileResponse is the response body for an attached file
type FileResponse struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	OriginalName string            `json:"originalName"`
	ContentType  string            `json:"contentType"`
	Size         int64             `json:"size"`
	Kind         mangacontent.Kind `json:"kind"`
	PageNumber   *int              `json:"pageNumber"`
	UploadedAt   time.Time         `json:"uploadedAt"`
	StreamURL    string            `json:"streamUrl"`
}

// PagesResponse is the response body for a file listing
type PagesResponse struct {
	MangaID uuid.UUID           `json:"mangaId"`
	Status  mangacontent.Status `json:"status"`
	Files   []FileResponse      `json:"files"`
}

// UploadResponse is the response body for an attached file
type UploadResponse struct {
	Message string              `json:"message"`
	Status  mangacontent.Status `json:"status"`
	File    FileResponse        `json:"file"`
}

// CoverResponse is the response body for an uploaded cover
type CoverResponse struct {
	Message  string              `json:"message"`
	Status   mangacontent.Status `json:"status"`
	CoverURL string              `json:"coverUrl"`
}

func streamURL(mangaID uuid.UUID, blobID string) string {
	return fmt.Sprintf("/manga/%s/pages?fileId=%s", mangaID, blobID)
}

func coverURL(mangaID uuid.UUID) string {
	return fmt.Sprintf("/manga/%s/cover", mangaID)
}

func toFileResponse(mangaID uuid.UUID, f mangacontent.FileAttachment) FileResponse {
	return FileResponse{
		ID:           f.BlobID,
		Filename:     f.Filename,
		OriginalName: f.OriginalName,
		ContentType:  f.ContentType,
		Size:         f.Size,
		Kind:         f.Kind,
		PageNumber:   f.PageNumber,
		UploadedAt:   f.UploadedAt,
		StreamURL:    streamURL(mangaID, f.BlobID),
	}
}

func toFileResponses(mangaID uuid.UUID, files []mangacontent.FileAttachment) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(mangaID, f))
	}
	return out
}
