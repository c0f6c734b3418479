package mangacontent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error classes. The HTTP layer maps each class to one status code.
var (
	// ErrInvalidInput indicates malformed or unsupported input
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated indicates a missing, expired or invalid credential
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden indicates a valid identity without sufficient privilege
	ErrForbidden = errors.New("access denied")

	// ErrNotFound indicates an unknown id or concealed existence
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation
	ErrConflict = errors.New("conflict")
)

// Specific errors, each wrapping one class.
var (
	ErrMangaNotFound      = fmt.Errorf("manga %w", ErrNotFound)
	ErrFileNotFound       = fmt.Errorf("file %w", ErrNotFound)
	ErrCoverNotFound      = fmt.Errorf("cover %w", ErrNotFound)
	ErrBlobNotFound       = fmt.Errorf("blob %w", ErrNotFound)
	ErrIdentityNotFound   = fmt.Errorf("identity %w", ErrNotFound)
	ErrPageExists         = fmt.Errorf("page number %w", ErrConflict)
	ErrDuplicateIdentity  = fmt.Errorf("identity already exists: %w", ErrConflict)
	ErrCoverRequired      = &ValidationError{Field: "file", Message: "Upload cover before pages"}
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
)

// ValidationError describes rejected input. Message is safe to show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PageConflictError reports an image page number that is already taken.
type PageConflictError struct {
	PageNumber int
}

func (e *PageConflictError) Error() string {
	return fmt.Sprintf("Image page %d already exists", e.PageNumber)
}

func (e *PageConflictError) Unwrap() error {
	return ErrPageExists
}

// MangaError represents an error related to a manga operation
type MangaError struct {
	MangaID uuid.UUID
	Op      string
	Err     error
}

func (e *MangaError) Error() string {
	return fmt.Sprintf("manga operation %s failed for manga %s: %v", e.Op, e.MangaID, e.Err)
}

func (e *MangaError) Unwrap() error {
	return e.Err
}

// StorageError represents a failure in a blob backend or entity store.
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for %s key %s: %v", e.Op, e.Backend, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
