// Package embedding maps text to fixed-length vectors.
package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Name identifies the vector space. Vectors from embedders with different
	// names are not comparable.
	Name() string
	Close() error
}

// New builds the embedder selected by cfg.Provider. An ONNX model that cannot be
// loaded is a configuration error; pick the "hash" provider to run without one.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	case "openai":
		return NewHTTPEmbedder(HTTPConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Dimensions:  cfg.Dimensions,
			BatchSize:   cfg.BatchSize,
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.Timeout,
			CacheSize:   cfg.CacheSize,
		})
	case "onnx", "":
		emb, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			logger.Error("ONNX embedder unavailable", zap.String("model_path", cfg.ModelPath), zap.Error(err))
			return nil, fmt.Errorf("%w: onnx embedder: %w", models.ErrConfiguration, err)
		}
		logger.Debug("ONNX embedder loaded", zap.String("name", emb.Name()))
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
