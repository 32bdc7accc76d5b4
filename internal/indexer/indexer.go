package indexer

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

// ChunkStore receives processed chunks. Add must either persist the whole batch or nothing.
type ChunkStore interface {
	Add(ctx context.Context, chunks []models.Chunk) error
}

// Indexer runs the ingest flow: process a file, then add its chunks to the store.
type Indexer struct {
	processor *Processor
	store     ChunkStore
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingest events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer over the given processor and store.
func NewIndexer(processor *Processor, store ChunkStore, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		processor: processor,
		store:     store,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexFile processes the file at path and adds its chunks, tagged with displayName.
// It returns the number of chunks added. On any error nothing is added.
func (idx *Indexer) IndexFile(ctx context.Context, path, displayName string) (int, error) {
	idx.logger.Debug("indexing file", zap.String("path", path), zap.String("name", displayName))

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: stat file: %v", models.ErrExtraction, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: not a regular file: %s", models.ErrExtraction, path)
	}

	chunks, err := idx.processor.Process(path, displayName)
	if err != nil {
		idx.logger.Warn("processing failed", zap.String("name", displayName), zap.Error(err))
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s", models.ErrEmptyDocument, displayName)
	}

	if err := idx.store.Add(ctx, chunks); err != nil {
		idx.logger.Error("adding chunks failed", zap.String("name", displayName), zap.Error(err))
		return 0, fmt.Errorf("add chunks: %w", err)
	}
	idx.logger.Info("indexed file",
		zap.String("name", displayName),
		zap.Int("chunks", len(chunks)),
		zap.Int64("bytes", info.Size()),
	)
	return len(chunks), nil
}
