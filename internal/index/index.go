// Package index is the persisted document index: chunk vectors in a binary file and
// chunk content in SQLite, both under one directory.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

const (
	vectorsFile = "vectors.bin"
	chunksFile  = "chunks.db"
)

// Retriever is a search bound to a fixed k.
type Retriever func(ctx context.Context, query string) ([]models.Chunk, error)

// Store holds embedded chunks. It starts absent when nothing was persisted yet and
// becomes present on the first successful Add.
type Store struct {
	dir      string
	embedder embedding.Embedder
	vectors  vector.Index
	chunks   storage.Storage
	present  bool
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and add events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens the index directory, creating it if needed, and loads any persisted
// vectors. A missing or corrupt vector file is logged and leaves the index absent,
// as does one written by a different embedder than the one given.
func Open(dir string, embedder embedding.Embedder, opts ...Option) (*Store, error) {
	s := &Store{
		dir:      dir,
		embedder: embedder,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	vectors, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	s.vectors = vectors

	chunks, err := storage.NewSQLiteStorage(filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	s.chunks = chunks

	path := s.vectorsPath()
	switch err := vectors.Load(path); {
	case err == nil:
		if err := s.checkManifest(); err != nil {
			s.logger.Warn("vector index built by another embedder, starting without one",
				zap.String("path", path), zap.String("embedder", embedder.Name()), zap.Error(err))
			if s.vectors, err = vector.NewMemoryIndex(embedder.Dimensions()); err != nil {
				return nil, err
			}
			break
		}
		s.present = true
		s.logger.Info("loaded vector index", zap.String("path", path), zap.Int("vectors", vectors.Size()))
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("no vector index yet", zap.String("path", path))
	default:
		s.logger.Warn("vector index unreadable, starting without one", zap.String("path", path), zap.Error(err))
	}
	return s, nil
}

func (s *Store) checkManifest() error {
	m, err := readManifest(filepath.Join(s.dir, manifestFile))
	if err != nil {
		return err
	}
	if m.Embedder != s.embedder.Name() || m.Dimensions != s.embedder.Dimensions() {
		return fmt.Errorf("recorded %s/%d, have %s/%d",
			m.Embedder, m.Dimensions, s.embedder.Name(), s.embedder.Dimensions())
	}
	return nil
}

// start begins a new vector file for this embedder. Leftovers from an earlier
// index are dropped first, so a failed save never pairs old vectors with the new
// manifest.
func (s *Store) start(ctx context.Context) error {
	path := s.vectorsPath()
	if info, err := os.Lstat(path); err == nil && info.Mode().IsRegular() {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove stale vectors: %w", err)
		}
	}
	if err := s.chunks.DeleteAllChunks(ctx); err != nil {
		return fmt.Errorf("clear stale chunks: %w", err)
	}
	return writeManifest(filepath.Join(s.dir, manifestFile), manifest{
		Embedder:   s.embedder.Name(),
		Dimensions: s.embedder.Dimensions(),
	})
}

func (s *Store) vectorsPath() string {
	return filepath.Join(s.dir, vectorsFile)
}

// HasDocuments reports whether an index exists.
func (s *Store) HasDocuments() bool {
	return s.present
}

// Add embeds chunks and persists them before returning. The batch is all or nothing:
// on any failure the stored rows and in-memory vectors are rolled back.
func (s *Store) Add(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks: %v", models.ErrRetrieval, err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", models.ErrRetrieval, len(embeddings), len(chunks))
	}

	records := make([]models.EmbeddedChunk, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = uuid.NewString()
		records[i] = models.EmbeddedChunk{ID: ids[i], Chunk: c, Embedding: embeddings[i]}
	}

	if !s.present {
		if err := s.start(ctx); err != nil {
			return err
		}
	}

	if err := s.chunks.BatchCreateChunks(ctx, records); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	if err := s.vectors.Add(ctx, ids, embeddings); err != nil {
		s.rollback(ids, false)
		return fmt.Errorf("index vectors: %w", err)
	}
	if err := s.vectors.Save(s.vectorsPath()); err != nil {
		s.rollback(ids, true)
		return fmt.Errorf("persist vectors: %w", err)
	}

	s.present = true
	s.logger.Debug("added chunks", zap.Int("chunks", len(chunks)), zap.Int("total", s.vectors.Size()))
	return nil
}

func (s *Store) rollback(ids []string, vectorsAdded bool) {
	ctx := context.Background()
	if vectorsAdded {
		if err := s.vectors.Remove(ctx, ids); err != nil {
			s.logger.Error("rollback of vectors failed", zap.Int("vectors", len(ids)), zap.Error(err))
		}
	}
	if err := s.chunks.DeleteChunks(ctx, ids); err != nil {
		s.logger.Error("rollback of stored chunks failed", zap.Int("chunks", len(ids)), zap.Error(err))
	}
}

// Search returns at most k chunks, most similar first. An absent or empty index
// yields no chunks and no error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if !s.present || s.vectors.Size() == 0 || k <= 0 {
		return nil, nil
	}
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", models.ErrRetrieval, err)
	}
	hits, err := s.vectors.Search(ctx, emb, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrieval, err)
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	byID, err := s.chunks.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load chunks: %v", models.ErrRetrieval, err)
	}

	results := make([]models.Chunk, 0, len(hits))
	for _, h := range hits {
		c, ok := byID[h.ID]
		if !ok {
			s.logger.Warn("vector without stored chunk", zap.String("id", h.ID))
			continue
		}
		results = append(results, c)
	}
	return results, nil
}

// Retriever returns Search bound to k.
func (s *Store) Retriever(k int) Retriever {
	return func(ctx context.Context, query string) ([]models.Chunk, error) {
		return s.Search(ctx, query, k)
	}
}

// Stats describes the index for status reporting.
type Stats struct {
	Present    bool   `json:"present"`
	Documents  int64  `json:"documents"`
	Chunks     int64  `json:"chunks"`
	Vectors    int    `json:"vectors"`
	Dimensions int    `json:"dimensions"`
	DiskUsage  int64  `json:"disk_usage_bytes"`
	Files      int    `json:"files"`
	Embedder   string `json:"embedder"`
}

// Stats gathers counts from both halves of the index.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	docs, err := s.chunks.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunks, err := s.chunks.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	usage, err := storage.Usage(s.dir)
	if err != nil {
		return nil, fmt.Errorf("disk usage: %w", err)
	}
	return &Stats{
		Present:    s.present,
		Documents:  docs,
		Chunks:     chunks,
		Vectors:    s.vectors.Size(),
		Dimensions: s.vectors.Dimensions(),
		DiskUsage:  usage.Bytes,
		Files:      usage.Files,
		Embedder:   s.embedder.Name(),
	}, nil
}

// Sources lists ingested documents with their chunk counts.
func (s *Store) Sources(ctx context.Context) ([]models.SourceSummary, error) {
	return s.chunks.ListSources(ctx)
}

// Close releases the chunk store and the embedder.
func (s *Store) Close() error {
	err := s.chunks.Close()
	if cerr := s.embedder.Close(); err == nil {
		err = cerr
	}
	return err
}
