package embedding

import (
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_hash(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "hash", Dimensions: 16}, nil)
	require.NoError(t, err)
	assert.IsType(t, &HashEmbedder{}, e)
	assert.Equal(t, 16, e.Dimensions())
}

func TestNew_onnxMissingModelFails(t *testing.T) {
	cfg := config.EmbeddingConfig{
		Provider:   "onnx",
		ModelPath:  filepath.Join(t.TempDir(), "missing.onnx"),
		Dimensions: 384,
		MaxTokens:  32,
	}
	e, err := New(cfg, nil)
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Nil(t, e)
}

func TestEmbedderNames(t *testing.T) {
	assert.Equal(t, "hash", NewHashEmbedder(8).Name())

	h, err := NewHTTPEmbedder(HTTPConfig{APIKey: "k", Model: "text-embedding-3-small", Dimensions: 8})
	require.NoError(t, err)
	assert.Equal(t, "openai:text-embedding-3-small", h.Name())
}

func TestNew_openaiWithoutKey(t *testing.T) {
	_, err := New(config.EmbeddingConfig{Provider: "openai", Dimensions: 3}, nil)
	assert.Error(t, err)
}

func TestNew_unknown(t *testing.T) {
	_, err := New(config.EmbeddingConfig{Provider: "bag"}, nil)
	assert.Error(t, err)
}
