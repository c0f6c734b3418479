package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/manga-content/pkg/mangacontent"
)

// Repository implements mangacontent.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	manga map[uuid.UUID]*mangacontent.Manga
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		manga: make(map[uuid.UUID]*mangacontent.Manga),
	}
}

func (r *Repository) CreateManga(ctx context.Context, m *mangacontent.Manga) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.manga[m.ID]; exists {
		return fmt.Errorf("manga %s already exists: %w", m.ID, mangacontent.ErrConflict)
	}
	// Store a copy to avoid external modifications
	r.manga[m.ID] = m.Clone()
	return nil
}

func (r *Repository) GetManga(ctx context.Context, id uuid.UUID) (*mangacontent.Manga, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.manga[id]
	if !exists {
		return nil, mangacontent.ErrMangaNotFound
	}
	return m.Clone(), nil
}

func (r *Repository) UpdateManga(ctx context.Context, m *mangacontent.Manga) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.manga[m.ID]; !exists {
		return mangacontent.ErrMangaNotFound
	}
	r.manga[m.ID] = m.Clone()
	return nil
}

func (r *Repository) DeleteManga(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.manga[id]; !exists {
		return mangacontent.ErrMangaNotFound
	}
	delete(r.manga, id)
	return nil
}

func (r *Repository) ListManga(ctx context.Context, filter mangacontent.ListFilter) ([]*mangacontent.Manga, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*mangacontent.Manga, 0)
	for _, m := range r.manga {
		if filter.OwnerID != nil && m.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		result = append(result, m.Clone())
	}

	mangacontent.SortNewestFirst(result)
	return result, nil
}
