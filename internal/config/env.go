package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/joho/godotenv"
)

// loadDotEnv loads a .env file from the config directory, if one exists.
// Variables already set in the environment win.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg with the recognised environment variables.
func applyEnv(cfg *Config) error {
	setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setString(&cfg.WebSearch.APIKey, "SERPER_API_KEY")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.BaseURL, "KOTAE_LLM_BASE_URL")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Storage.IndexPath, "VECTOR_DB_PATH")

	if err := setInt(&cfg.Chunking.ChunkSize, "CHUNK_SIZE"); err != nil {
		return err
	}
	if err := setInt(&cfg.Chunking.ChunkOverlap, "CHUNK_OVERLAP"); err != nil {
		return err
	}
	if err := setInt(&cfg.WebSearch.MaxResults, "MAX_SEARCH_RESULTS"); err != nil {
		return err
	}
	if v := os.Getenv("KOTAE_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: KOTAE_DEBUG: %v", models.ErrConfiguration, err)
		}
		cfg.Debug = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", models.ErrConfiguration, key, v)
	}
	*dst = n
	return nil
}
