// Package vector stores chunk embeddings and answers nearest-neighbour queries.
package vector

import (
	"context"
	"errors"
)

// ErrCorrupt is returned by Load when the index file cannot be decoded.
var ErrCorrupt = errors.New("corrupt vector index file")

// Index holds chunk vectors keyed by chunk ID and persists them to one file.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Dimensions() int
	Close() error
}

// VectorResult is one hit; Score is the inner product with the query.
type VectorResult struct {
	ID    string
	Score float64
}
