// Package session holds the state of one assistant session: uploaded files and the
// conversation. Every upload and question runs under one lock, so the index sees
// serialized reads and writes.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

// Ingester indexes one file on disk under a display name.
type Ingester interface {
	IndexFile(ctx context.Context, path, displayName string) (int, error)
}

// Answerer answers one question.
type Answerer interface {
	Answer(ctx context.Context, query string) models.AnswerResult
}

// Catalog reports what the index holds.
type Catalog interface {
	Stats(ctx context.Context) (*index.Stats, error)
	Sources(ctx context.Context) ([]models.SourceSummary, error)
}

// Info describes the configured collaborators for status output.
type Info struct {
	LLMModel         string `json:"llm_model"`
	EmbeddingModel   string `json:"embedding_model"`
	WebSearchEnabled bool   `json:"web_search_enabled"`
}

// Status is the session and index summary.
type Status struct {
	Index    *index.Stats           `json:"index"`
	Uploads  []models.SourceSummary `json:"uploads"`
	Messages int                    `json:"messages"`
	Info
}

// Session serializes uploads and questions against one index.
type Session struct {
	mu        sync.Mutex
	uploadDir string
	ingester  Ingester
	answerer  Answerer
	catalog   Catalog
	info      Info
	uploads   []models.SourceSummary
	messages  []models.Message
	logger    *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithInfo sets the model names reported by Status.
func WithInfo(info Info) Option {
	return func(s *Session) { s.info = info }
}

// New creates the upload directory and returns an empty session.
func New(uploadDir string, ingester Ingester, answerer Answerer, catalog Catalog, opts ...Option) (*Session, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	s := &Session{
		uploadDir: uploadDir,
		ingester:  ingester,
		answerer:  answerer,
		catalog:   catalog,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Upload saves r under the upload directory and indexes it. Only the base name of
// filename is kept. A name already ingested in this session is rejected with
// ErrDuplicateUpload. On failure the saved file is removed and the index is unchanged.
func (s *Session) Upload(ctx context.Context, filename string, r io.Reader) (int, error) {
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == string(filepath.Separator) {
		return 0, fmt.Errorf("%w: invalid file name %q", models.ErrExtraction, filename)
	}
	if !extract.Supported(name) {
		return 0, fmt.Errorf("%w: %w: %s", models.ErrExtraction, models.ErrUnsupportedFormat, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.uploads {
		if u.Filename == name {
			return 0, fmt.Errorf("%w: %s", models.ErrDuplicateUpload, name)
		}
	}

	path := filepath.Join(s.uploadDir, name)
	if err := writeFile(path, r); err != nil {
		return 0, fmt.Errorf("save upload: %w", err)
	}
	n, err := s.ingester.IndexFile(ctx, path, name)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.logger.Warn("remove failed upload", zap.String("path", path), zap.Error(rmErr))
		}
		return 0, err
	}

	s.uploads = append(s.uploads, models.SourceSummary{Filename: name, Chunks: n})
	s.logger.Info("document ingested", zap.String("name", name), zap.Int("chunks", n))
	return n, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Ask answers question and appends both sides of the exchange to the conversation.
func (s *Session) Ask(ctx context.Context, question string) models.AnswerResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, models.Message{Role: models.RoleUser, Content: question})
	result := s.answerer.Answer(ctx, question)
	s.messages = append(s.messages, models.Message{
		Role:    models.RoleAssistant,
		Content: result.Answer,
		Sources: result.Sources,
		Route:   result.RouteUsed,
	})
	return result
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

// Uploads returns the files ingested in this session, in upload order.
func (s *Session) Uploads() []models.SourceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SourceSummary(nil), s.uploads...)
}

// Documents lists every document in the index, including earlier sessions.
func (s *Session) Documents(ctx context.Context) ([]models.SourceSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Sources(ctx)
}

// Status summarizes the index and the session.
func (s *Session) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.catalog.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Index:    stats,
		Uploads:  append([]models.SourceSummary(nil), s.uploads...),
		Messages: len(s.messages),
		Info:     s.info,
	}, nil
}
