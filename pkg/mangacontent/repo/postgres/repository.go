package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/manga-content/pkg/mangacontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements mangacontent.Repository using PostgreSQL. The cover
// and attachments are embedded JSONB documents of the manga row.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const mangaColumns = `id, title, genre, chapters, description, release_year, rating,
	owner_id, status, moderated_by, moderated_at, rejection_reason,
	cover, files, created_at, updated_at`

// handlePostgresError maps driver errors onto the error classes of mangacontent.
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "users") {
				return mangacontent.ErrDuplicateIdentity
			}
			return fmt.Errorf("%w: duplicate entry (%s)", mangacontent.ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: referenced record not found", mangacontent.ErrInvalidInput)
		case "23502": // not_null_violation
			return fmt.Errorf("%w: required field %s is missing", mangacontent.ErrInvalidInput, pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("%w: constraint %s violated", mangacontent.ErrInvalidInput, pgErr.ConstraintName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateManga(ctx context.Context, m *mangacontent.Manga) error {
	cover, files, err := encodeAttachments(m)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO manga (` + mangaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14::jsonb, $15, $16)`

	_, err = r.db.Exec(ctx, query,
		m.ID, m.Title, m.Genre, m.Chapters, m.Description, m.ReleaseYear, m.Rating,
		m.OwnerID, string(m.Status), m.ModeratedBy, m.ModeratedAt, m.RejectionReason,
		cover, files, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return handlePostgresError("create manga", err)
	}
	return nil
}

func (r *Repository) GetManga(ctx context.Context, id uuid.UUID) (*mangacontent.Manga, error) {
	query := `SELECT ` + mangaColumns + ` FROM manga WHERE id = $1`

	m, err := scanManga(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mangacontent.ErrMangaNotFound
		}
		return nil, handlePostgresError("get manga", err)
	}
	return m, nil
}

func (r *Repository) UpdateManga(ctx context.Context, m *mangacontent.Manga) error {
	cover, files, err := encodeAttachments(m)
	if err != nil {
		return err
	}

	query := `
		UPDATE manga SET
			title = $2, genre = $3, chapters = $4, description = $5,
			release_year = $6, rating = $7, status = $8, moderated_by = $9,
			moderated_at = $10, rejection_reason = $11, cover = $12::jsonb,
			files = $13::jsonb, updated_at = $14
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		m.ID, m.Title, m.Genre, m.Chapters, m.Description,
		m.ReleaseYear, m.Rating, string(m.Status), m.ModeratedBy,
		m.ModeratedAt, m.RejectionReason, cover,
		files, m.UpdatedAt)
	if err != nil {
		return handlePostgresError("update manga", err)
	}
	if tag.RowsAffected() == 0 {
		return mangacontent.ErrMangaNotFound
	}
	return nil
}

func (r *Repository) DeleteManga(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM manga WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete manga", err)
	}
	if tag.RowsAffected() == 0 {
		return mangacontent.ErrMangaNotFound
	}
	return nil
}

func (r *Repository) ListManga(ctx context.Context, filter mangacontent.ListFilter) ([]*mangacontent.Manga, error) {
	where := "1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.OwnerID != nil {
		where += fmt.Sprintf(" AND owner_id = $%d", argIndex)
		args = append(args, *filter.OwnerID)
		argIndex++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(*filter.Status))
	}

	query := `SELECT ` + mangaColumns + ` FROM manga WHERE ` + where + ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, handlePostgresError("list manga", err)
	}
	defer rows.Close()

	result := make([]*mangacontent.Manga, 0)
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, handlePostgresError("scan manga", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list manga", err)
	}
	return result, nil
}

func scanManga(row pgx.Row) (*mangacontent.Manga, error) {
	var (
		m         mangacontent.Manga
		status    string
		coverJSON []byte
		filesJSON []byte
	)
	err := row.Scan(
		&m.ID, &m.Title, &m.Genre, &m.Chapters, &m.Description, &m.ReleaseYear, &m.Rating,
		&m.OwnerID, &status, &m.ModeratedBy, &m.ModeratedAt, &m.RejectionReason,
		&coverJSON, &filesJSON, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.Status = mangacontent.Status(status)
	if len(coverJSON) > 0 && string(coverJSON) != "null" {
		var cover mangacontent.Cover
		if err := json.Unmarshal(coverJSON, &cover); err != nil {
			return nil, fmt.Errorf("corrupt cover for manga %s: %w", m.ID, err)
		}
		m.Cover = &cover
	}
	m.Files = []mangacontent.FileAttachment{}
	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &m.Files); err != nil {
			return nil, fmt.Errorf("corrupt files for manga %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

// encodeAttachments renders the embedded documents as JSON text parameters.
func encodeAttachments(m *mangacontent.Manga) (cover interface{}, files string, err error) {
	if m.Cover != nil {
		raw, err := json.Marshal(m.Cover)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode cover: %w", err)
		}
		cover = string(raw)
	}
	list := m.Files
	if list == nil {
		list = []mangacontent.FileAttachment{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode files: %w", err)
	}
	return cover, string(raw), nil
}
