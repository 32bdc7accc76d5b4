// Package answer composes answers from documents, web results or both.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/router"
	"github.com/hyperjump/kotae/internal/websearch"
	"go.uber.org/zap"
)

// DocumentIndex is the part of the index the composer reads.
type DocumentIndex interface {
	HasDocuments() bool
	Search(ctx context.Context, query string, k int) ([]models.Chunk, error)
	Retriever(k int) index.Retriever
}

// WebSearcher returns web results. It reports failures by returning none.
type WebSearcher interface {
	EnhancedSearch(ctx context.Context, query string, includeNews bool) []models.SearchResult
}

// Composer routes a question and runs the matching strategy. Its methods never
// fail: every failure becomes an AnswerResult tagged with a source sentinel.
type Composer struct {
	docs     DocumentIndex
	searcher WebSearcher
	router   *router.Router
	model    llm.Model
	cfg      config.RetrievalConfig
	logger   *zap.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger for degradation points.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// NewComposer wires the collaborators. idx may be nil when no index can be opened.
// Zero retrieval settings fall back to 5, 4, 3 and 3.
func NewComposer(idx DocumentIndex, web WebSearcher, rt *router.Router, model llm.Model, cfg config.RetrievalConfig, opts ...Option) *Composer {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.RetrieverK <= 0 {
		cfg.RetrieverK = 4
	}
	if cfg.ContextChunks <= 0 {
		cfg.ContextChunks = 3
	}
	if cfg.WebSourceCount <= 0 {
		cfg.WebSourceCount = 3
	}
	c := &Composer{
		docs:     idx,
		searcher: web,
		router:   rt,
		model:    model,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Composer) hasDocuments() bool {
	return c.docs != nil && c.docs.HasDocuments()
}

// Route reports which strategy Answer would use for query.
func (c *Composer) Route(query string) models.Route {
	return c.router.Route(query, c.hasDocuments())
}

// Answer routes query and runs the selected strategy.
func (c *Composer) Answer(ctx context.Context, query string) (result models.AnswerResult) {
	route := c.Route(query)
	defer c.recoverInto(&result, route)

	c.logger.Debug("routing question", zap.String("query", query), zap.Stringer("route", route))
	switch route {
	case models.RouteWeb:
		return c.web(ctx, query)
	case models.RouteHybrid:
		return c.hybrid(ctx, query)
	default:
		return c.document(ctx, query)
	}
}

// Document answers from the indexed documents.
func (c *Composer) Document(ctx context.Context, query string) (result models.AnswerResult) {
	defer c.recoverInto(&result, models.RouteDocument)
	return c.document(ctx, query)
}

// Web answers from web search results.
func (c *Composer) Web(ctx context.Context, query string) (result models.AnswerResult) {
	defer c.recoverInto(&result, models.RouteWeb)
	return c.web(ctx, query)
}

// Hybrid runs both other strategies and merges their answers.
func (c *Composer) Hybrid(ctx context.Context, query string) (result models.AnswerResult) {
	defer c.recoverInto(&result, models.RouteHybrid)
	return c.hybrid(ctx, query)
}

func (c *Composer) recoverInto(result *models.AnswerResult, route models.Route) {
	if r := recover(); r != nil {
		c.logger.Error("answer composition panicked", zap.Any("panic", r), zap.Stringer("route", route))
		*result = errorResult(requestErrorPrefix, fmt.Errorf("%v", r), route)
	}
}

func (c *Composer) document(ctx context.Context, query string) models.AnswerResult {
	if !c.hasDocuments() {
		return models.AnswerResult{
			Answer:    NoDocumentsAnswer,
			Sources:   []string{models.SourceSystem},
			RouteUsed: models.RouteDocument,
		}
	}

	chunks, err := c.docs.Search(ctx, query, c.cfg.TopK)
	if err != nil {
		c.logger.Warn("document retrieval failed", zap.String("query", query), zap.Error(err))
		return models.AnswerResult{
			Answer:    NoDocumentsAnswer,
			Sources:   []string{models.SourceSystem},
			RouteUsed: models.RouteDocument,
		}
	}
	if len(chunks) == 0 {
		return models.AnswerResult{
			Answer:    NoRelevantAnswer,
			Sources:   []string{models.SourceDocuments},
			RouteUsed: models.RouteDocument,
		}
	}

	answer, used, err := c.grounded(ctx, query)
	sources := filenames(used)
	if err != nil {
		c.logger.Warn("grounded answer failed, retrying with retrieved context",
			zap.String("query", query), zap.Error(err))
		resp, ferr := c.model.Invoke(ctx, fallbackPrompt(chunks, c.cfg.ContextChunks, query))
		if ferr != nil {
			c.logger.Error("fallback answer failed", zap.String("query", query), zap.Error(ferr))
			return errorResult(documentErrorPrefix, ferr, models.RouteDocument)
		}
		answer = resp.Content
		sources = filenames(chunks)
	}

	if strings.TrimSpace(answer) == "" {
		answer = NoGeneratedAnswer
	}
	sources = models.UniqueStrings(sources)
	if len(sources) == 0 {
		sources = []string{models.SourceDocuments}
	}
	return models.AnswerResult{Answer: answer, Sources: sources, RouteUsed: models.RouteDocument}
}

// grounded retrieves with the retriever's k, stuffs every chunk into one prompt
// and returns the answer with the chunks it was given.
func (c *Composer) grounded(ctx context.Context, query string) (string, []models.Chunk, error) {
	chunks, err := c.docs.Retriever(c.cfg.RetrieverK)(ctx, query)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve: %w", err)
	}
	resp, err := c.model.Invoke(ctx, stuffPrompt(chunks, query))
	if err != nil {
		return "", nil, err
	}
	return resp.Content, chunks, nil
}

func (c *Composer) web(ctx context.Context, query string) models.AnswerResult {
	if c.searcher == nil {
		return errorResult(webErrorPrefix, errors.New("web search is not configured"), models.RouteWeb)
	}
	results := c.searcher.EnhancedSearch(ctx, query, true)
	if len(results) == 0 {
		return models.AnswerResult{
			Answer:    NoWebResultsAnswer,
			Sources:   []string{models.SourceWeb},
			RouteUsed: models.RouteWeb,
		}
	}

	resp, err := c.model.Invoke(ctx, webPrompt(websearch.Format(results), query))
	if err != nil {
		c.logger.Error("web answer failed", zap.String("query", query), zap.Error(err))
		return errorResult(webErrorPrefix, err, models.RouteWeb)
	}

	n := min(len(results), c.cfg.WebSourceCount)
	sources := make([]string, n)
	for i := 0; i < n; i++ {
		sources[i] = results[i].Link
	}
	return models.AnswerResult{Answer: resp.Content, Sources: sources, RouteUsed: models.RouteWeb}
}

// hybrid always runs both strategies, even when the document side has nothing.
func (c *Composer) hybrid(ctx context.Context, query string) models.AnswerResult {
	doc := c.document(ctx, query)
	online := c.web(ctx, query)

	resp, err := c.model.Invoke(ctx, hybridPrompt(doc.Answer, online.Answer, query))
	if err != nil {
		c.logger.Error("hybrid answer failed", zap.String("query", query), zap.Error(err))
		return errorResult(hybridErrorPrefix, err, models.RouteHybrid)
	}
	return models.AnswerResult{
		Answer:    resp.Content,
		Sources:   models.UniqueStrings(doc.Sources, online.Sources),
		RouteUsed: models.RouteHybrid,
	}
}

func errorResult(prefix string, err error, route models.Route) models.AnswerResult {
	return models.AnswerResult{
		Answer:    prefix + err.Error(),
		Sources:   []string{models.SourceError},
		RouteUsed: route,
	}
}
