package objectkey

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator maps a blob id to the storage key used by path-based backends.
type Generator interface {
	GenerateKey(blobID uuid.UUID) string
}

// FlatGenerator stores every blob under a single prefix: blobs/{id}
type FlatGenerator struct {
	Prefix string
}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{Prefix: "blobs"}
}

func (g *FlatGenerator) GenerateKey(blobID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", g.Prefix, blobID)
}

// GitLikeGenerator provides Git-style sharded keys: blobs/ab/cd1234ef5678...
type GitLikeGenerator struct {
	Prefix string
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewGitLikeGenerator() *GitLikeGenerator {
	return &GitLikeGenerator{
		Prefix:      "blobs",
		ShardLength: 2,
	}
}

func (g *GitLikeGenerator) GenerateKey(blobID uuid.UUID) string {
	id := strings.ReplaceAll(blobID.String(), "-", "")

	shard := g.ShardLength
	if shard <= 0 || shard > len(id) {
		shard = 2
	}
	return fmt.Sprintf("%s/%s/%s", g.Prefix, id[:shard], id[shard:])
}

// NewRecommendedGenerator returns the generator used by default.
func NewRecommendedGenerator() Generator {
	return NewGitLikeGenerator()
}

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with '_'.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StoredFilename names a page or document: {mangaID}-{unixMillis}-{sanitized}
func StoredFilename(mangaID uuid.UUID, original string, at time.Time) string {
	return fmt.Sprintf("%s-%d-%s", mangaID, at.UnixMilli(), SanitizeFilename(original))
}

// CoverFilename names a cover: {mangaID}-cover-{unixMillis}-{sanitized}
func CoverFilename(mangaID uuid.UUID, original string, at time.Time) string {
	return fmt.Sprintf("%s-cover-%d-%s", mangaID, at.UnixMilli(), SanitizeFilename(original))
}
