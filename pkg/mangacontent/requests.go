package mangacontent

import (
	"io"
	"strings"
	"time"
)

// Request DTOs

// MinReleaseYear is the earliest accepted release year.
const MinReleaseYear = 1900

// CreateMangaRequest contains the metadata of a new manga. Every field is required.
type CreateMangaRequest struct {
	Title       string
	Genre       []string
	Chapters    int
	Description string
	ReleaseYear int
}

// UpdateMangaRequest contains a partial metadata edit. Nil fields are left unchanged.
type UpdateMangaRequest struct {
	Title       *string
	Genre       []string
	Chapters    *int
	Description *string
	ReleaseYear *int
}

// IsEmpty reports whether the request changes nothing.
func (r UpdateMangaRequest) IsEmpty() bool {
	return r.Title == nil && r.Genre == nil && r.Chapters == nil && r.Description == nil && r.ReleaseYear == nil
}

// UploadRequest carries one uploaded file.
type UploadRequest struct {
	Filename    string
	ContentType string
	Size        int64
	// PageNumber is optional and only honored for images
	PageNumber *int
	Body       io.Reader
}

// Normalize trims text fields and validates the request against now.
func (r *CreateMangaRequest) Normalize(now time.Time) error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	if r.Title == "" {
		return Invalid("title", "Title is required")
	}
	genre, err := normalizeGenre(r.Genre)
	if err != nil {
		return err
	}
	r.Genre = genre
	if err := validateChapters(r.Chapters); err != nil {
		return err
	}
	if r.Description == "" {
		return Invalid("description", "Description is required")
	}
	return validateReleaseYear(r.ReleaseYear, now)
}

// Normalize trims and validates the fields present in the request.
func (r *UpdateMangaRequest) Normalize(now time.Time) error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return Invalid("title", "Title is required")
		}
		r.Title = &title
	}
	if r.Genre != nil {
		genre, err := normalizeGenre(r.Genre)
		if err != nil {
			return err
		}
		r.Genre = genre
	}
	if r.Chapters != nil {
		if err := validateChapters(*r.Chapters); err != nil {
			return err
		}
	}
	if r.Description != nil {
		description := strings.TrimSpace(*r.Description)
		if description == "" {
			return Invalid("description", "Description is required")
		}
		r.Description = &description
	}
	if r.ReleaseYear != nil {
		return validateReleaseYear(*r.ReleaseYear, now)
	}
	return nil
}

// apply copies the edited fields onto m.
func (r UpdateMangaRequest) apply(m *Manga) {
	if r.Title != nil {
		m.Title = *r.Title
	}
	if r.Genre != nil {
		m.Genre = append([]string(nil), r.Genre...)
	}
	if r.Chapters != nil {
		m.Chapters = *r.Chapters
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	if r.ReleaseYear != nil {
		m.ReleaseYear = *r.ReleaseYear
	}
}

func normalizeGenre(genre []string) ([]string, error) {
	out := make([]string, 0, len(genre))
	for _, g := range genre {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return nil, Invalid("genre", "At least one genre is required")
	}
	return out, nil
}

func validateChapters(chapters int) error {
	if chapters < 1 {
		return Invalid("chapters", "Chapters must be a positive integer")
	}
	return nil
}

func validateReleaseYear(year int, now time.Time) error {
	if year < MinReleaseYear || year > now.Year() {
		return Invalid("releaseYear", "Release year must be between %d and %d", MinReleaseYear, now.Year())
	}
	return nil
}
