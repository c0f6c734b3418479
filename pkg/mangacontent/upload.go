package mangacontent

import (
	"path/filepath"
	"strconv"
	"strings"
)

// MaxUploadSize is the largest accepted file in bytes (50 MiB).
const MaxUploadSize int64 = 50 * 1024 * 1024

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

var documentTypes = map[string]Kind{
	"application/pdf":              KindPDF,
	"application/zip":              KindArchive,
	"application/x-zip-compressed": KindArchive,
}

var documentExtensions = map[string]bool{
	".pdf": true,
	".zip": true,
}

// ClassifyUpload checks the declared content type and extension against the
// allow-list and returns the attachment kind. Covers accept images only.
func ClassifyUpload(filename, contentType string, cover bool) (Kind, error) {
	mimeType := normalizeContentType(contentType)
	ext := strings.ToLower(filepath.Ext(filename))

	if imageTypes[mimeType] && imageExtensions[ext] {
		return KindImage, nil
	}
	if cover {
		return "", Invalid("file", "Cover must be an image (jpeg, png, webp, gif)")
	}
	if kind, ok := documentTypes[mimeType]; ok && documentExtensions[ext] {
		return kind, nil
	}
	return "", Invalid("file", "Unsupported file type: %s (%s)", mimeType, ext)
}

// ValidateUploadSize rejects oversized files. Empty files are accepted.
func ValidateUploadSize(size int64) error {
	if size < 0 {
		return Invalid("file", "Invalid file size")
	}
	if size > MaxUploadSize {
		return Invalid("file", "File exceeds the %d MiB limit", MaxUploadSize/(1024*1024))
	}
	return nil
}

// ParsePageNumber parses a form value. An empty value means the page number
// is omitted.
func ParsePageNumber(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return nil, Invalid("pageNumber", "pageNumber must be a positive integer")
	}
	return &n, nil
}

// AssignPageNumber resolves the page number of a new attachment. Non-image
// kinds never carry one. Explicit numbers must be positive and unused,
// omitted ones continue after the highest existing image page.
func AssignPageNumber(files []FileAttachment, kind Kind, requested *int) (*int, error) {
	if kind != KindImage {
		return nil, nil
	}

	highest := 0
	for _, f := range files {
		if f.Kind != KindImage || f.PageNumber == nil {
			continue
		}
		if requested != nil && *f.PageNumber == *requested {
			return nil, &PageConflictError{PageNumber: *requested}
		}
		if *f.PageNumber > highest {
			highest = *f.PageNumber
		}
	}

	if requested != nil {
		if *requested < 1 {
			return nil, Invalid("pageNumber", "pageNumber must be a positive integer")
		}
		n := *requested
		return &n, nil
	}
	next := highest + 1
	return &next, nil
}

func normalizeContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
