package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tendant/manga-content/pkg/mangacontent"
	"golang.org/x/crypto/bcrypt"
)

// Directory resolves identities from the users table.
type Directory struct {
	db DBTX
}

// NewDirectory creates a PostgreSQL identity directory.
func NewDirectory(db DBTX) *Directory {
	return &Directory{db: db}
}

// AddUser inserts an identity with a bcrypt-hashed password.
func (d *Directory) AddUser(ctx context.Context, email, password string, role mangacontent.Role) (mangacontent.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return mangacontent.Identity{}, err
	}

	identity := mangacontent.Identity{ID: uuid.New(), Role: role}
	_, err = d.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role) VALUES ($1, $2, $3, $4)`,
		identity.ID, strings.ToLower(strings.TrimSpace(email)), string(hash), string(role))
	if err != nil {
		return mangacontent.Identity{}, handlePostgresError("add user", err)
	}
	return identity, nil
}

func (d *Directory) Lookup(ctx context.Context, id uuid.UUID) (mangacontent.Identity, error) {
	var role string
	err := d.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mangacontent.Identity{}, mangacontent.ErrIdentityNotFound
		}
		return mangacontent.Identity{}, handlePostgresError("lookup user", err)
	}
	return mangacontent.Identity{ID: id, Role: mangacontent.Role(role)}, nil
}

func (d *Directory) CheckCredentials(ctx context.Context, email, password string) (mangacontent.Identity, error) {
	var (
		identity mangacontent.Identity
		role     string
		hash     string
	)
	err := d.db.QueryRow(ctx,
		`SELECT id, role, password_hash FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&identity.ID, &role, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mangacontent.Identity{}, mangacontent.ErrInvalidCredentials
		}
		return mangacontent.Identity{}, handlePostgresError("check credentials", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return mangacontent.Identity{}, mangacontent.ErrInvalidCredentials
	}
	identity.Role = mangacontent.Role(role)
	return identity, nil
}
