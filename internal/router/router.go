// Package router picks the answer strategy for a question from lexical signals.
package router

import (
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Router classifies questions by counting routing keywords.
type Router struct {
	keywords []string
}

// New builds a router over keywords. Keywords are lower-cased and trimmed;
// blanks and repeats are dropped.
func New(keywords []string) *Router {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(kw)))
	}
	return &Router{keywords: models.UniqueStrings(normalized)}
}

// Keywords returns a copy of the keyword set.
func (r *Router) Keywords() []string {
	return append([]string(nil), r.keywords...)
}

// Matches counts the keywords occurring as substrings of the normalized query.
func (r *Router) Matches(query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	n := 0
	for _, kw := range r.keywords {
		if strings.Contains(q, kw) {
			n++
		}
	}
	return n
}

// Route returns Web when there are no documents or at least two keywords match,
// Hybrid for exactly one match and Document otherwise.
func (r *Router) Route(query string, hasDocuments bool) models.Route {
	if !hasDocuments {
		return models.RouteWeb
	}
	switch n := r.Matches(query); {
	case n >= 2:
		return models.RouteWeb
	case n == 1:
		return models.RouteHybrid
	default:
		return models.RouteDocument
	}
}
