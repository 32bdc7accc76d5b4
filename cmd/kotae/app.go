package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/router"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/hyperjump/kotae/internal/websearch"
	"github.com/hyperjump/kotae/pkg/utils"
	"go.uber.org/zap"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists or if the default file is missing, so running
// from a project directory keeps data paths relative to it.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			} else if _, err := os.Stat(defaultConfigPath); err != nil {
				path = fallback
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// app holds the wired components for one process.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *index.Store
	model   *llm.Client
	session *session.Session
}

func newApp(opts *globalOptions) (*app, error) {
	cfg, resolved, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	debug := cfg.Debug || opts.debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))

	a, err := initializeComponents(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*app, error) {
	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	store, err := index.Open(cfg.Storage.IndexPath, embedder, index.WithLogger(logger))
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("open index: %w", err)
	}

	chunker, err := indexer.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		store.Close()
		return nil, err
	}
	ing := indexer.NewIndexer(
		indexer.NewProcessor(extract.NewExtractor(), chunker),
		store,
		indexer.WithLogger(logger),
	)

	model := llm.NewClient(cfg.LLM)
	web := websearch.NewClient(cfg.WebSearch, websearch.WithLogger(logger))
	composer := answer.NewComposer(
		store,
		web,
		router.New(cfg.Router.Keywords),
		model,
		cfg.Retrieval,
		answer.WithLogger(logger),
	)

	sess, err := session.New(cfg.Storage.UploadDir, ing, composer, store,
		session.WithLogger(logger),
		session.WithInfo(session.Info{
			LLMModel:         cfg.LLM.Model,
			EmbeddingModel:   cfg.Embedding.Model,
			WebSearchEnabled: cfg.WebSearch.APIKey != "",
		}),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, store: store, model: model, session: sess}, nil
}

// checkLLM logs whether the model answers a short prompt. Failure is not fatal.
func (a *app) checkLLM(ctx context.Context) {
	if err := a.model.Ping(ctx); err != nil {
		a.logger.Warn("LLM connectivity check failed", zap.String("model", a.model.Model()), zap.Error(err))
		return
	}
	a.logger.Info("LLM connectivity check passed", zap.String("model", a.model.Model()))
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close index", zap.Error(err))
	}
	_ = a.logger.Sync()
}
