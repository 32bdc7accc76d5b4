// Package config provides configuration loading and structs for kotae.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	WebSearch WebSearchConfig `yaml:"web_search"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Router    RouterConfig    `yaml:"router"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds the persisted index directory and the upload directory.
type StorageConfig struct {
	IndexPath string `yaml:"index_path"`
	UploadDir string `yaml:"upload_dir"`
}

// ChunkingConfig holds text splitter settings.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig selects and configures the embedding provider.
// Provider is one of "onnx", "openai" or "hash".
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	ModelPath   string        `yaml:"model_path"`
	Dimensions  int           `yaml:"dimensions"`
	MaxTokens   int           `yaml:"max_tokens"`
	CacheSize   int           `yaml:"cache_size"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LLMConfig configures the OpenAI-compatible chat completions endpoint.
// Temperature is a pointer so an explicit 0 survives defaulting.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature *float64      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// WebSearchConfig configures the Serper client.
type WebSearchConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	NewsEndpoint      string        `yaml:"news_endpoint"`
	APIKey            string        `yaml:"api_key"`
	MaxResults        int           `yaml:"max_results"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// RetrievalConfig holds the k values used by the answer composer.
type RetrievalConfig struct {
	TopK           int `yaml:"top_k"`
	RetrieverK     int `yaml:"retriever_k"`
	ContextChunks  int `yaml:"context_chunks"`
	WebSourceCount int `yaml:"web_source_count"`
}

// RouterConfig holds the routing keyword list.
type RouterConfig struct {
	Keywords []string `yaml:"keywords"`
}

var knownProviders = map[string]bool{"onnx": true, "openai": true, "hash": true}

// Load reads the config file at path, loads .env, applies environment overrides and
// defaults, and expands paths. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		configDir = filepath.Dir(path)
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return &cfg, nil
}

// Validate checks settings that would make the pipeline misbehave.
// Missing API keys are allowed; the affected calls degrade at runtime.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", models.ErrConfiguration, c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, %d), got %d",
			models.ErrConfiguration, c.Chunking.ChunkSize, c.Chunking.ChunkOverlap)
	}
	if c.WebSearch.MaxResults <= 0 {
		return fmt.Errorf("%w: web_search.max_results must be positive", models.ErrConfiguration)
	}
	if c.Retrieval.TopK <= 0 || c.Retrieval.RetrieverK <= 0 || c.Retrieval.ContextChunks <= 0 {
		return fmt.Errorf("%w: retrieval k values must be positive", models.ErrConfiguration)
	}
	if !knownProviders[c.Embedding.Provider] {
		return fmt.Errorf("%w: unknown embedding provider %q", models.ErrConfiguration, c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive", models.ErrConfiguration)
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return c.Server.Addr()
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" is relative to the home directory; other relative paths are left as given.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
