package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/manga-content/pkg/mangacontent"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	identity     mangacontent.Identity
	email        string
	passwordHash []byte
}

// Directory is an in-memory identity directory for development and tests.
type Directory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*account
	byEmail map[string]*account
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		byID:    make(map[uuid.UUID]*account),
		byEmail: make(map[string]*account),
	}
}

// AddUser registers an identity with a bcrypt-hashed password.
func (d *Directory) AddUser(ctx context.Context, email, password string, role mangacontent.Role) (mangacontent.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return mangacontent.Identity{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byEmail[email]; exists {
		return mangacontent.Identity{}, mangacontent.ErrDuplicateIdentity
	}
	acc := &account{
		identity:     mangacontent.Identity{ID: uuid.New(), Role: role},
		email:        email,
		passwordHash: hash,
	}
	d.byID[acc.identity.ID] = acc
	d.byEmail[email] = acc
	return acc.identity, nil
}

// Put registers an identity without credentials.
func (d *Directory) Put(identity mangacontent.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.byID[identity.ID] = &account{identity: identity}
}

func (d *Directory) Lookup(ctx context.Context, id uuid.UUID) (mangacontent.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acc, ok := d.byID[id]
	if !ok {
		return mangacontent.Identity{}, mangacontent.ErrIdentityNotFound
	}
	return acc.identity, nil
}

func (d *Directory) CheckCredentials(ctx context.Context, email, password string) (mangacontent.Identity, error) {
	d.mu.RLock()
	acc, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	d.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		return mangacontent.Identity{}, mangacontent.ErrInvalidCredentials
	}
	return acc.identity, nil
}
