// Package storage persists chunk content alongside the vector index.
package storage

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// Storage defines chunk content persistence. Vectors live in the vector index;
// rows here are keyed by the same chunk IDs.
type Storage interface {
	// BatchCreateChunks inserts all chunks in one transaction.
	BatchCreateChunks(ctx context.Context, chunks []models.EmbeddedChunk) error
	// GetChunks returns the chunks found for ids, keyed by ID.
	GetChunks(ctx context.Context, ids []string) (map[string]models.Chunk, error)
	DeleteChunks(ctx context.Context, ids []string) error
	DeleteAllChunks(ctx context.Context) error

	ListSources(ctx context.Context) ([]models.SourceSummary, error)
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
