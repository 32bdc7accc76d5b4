package websearch

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// NoResults is rendered by Format for an empty result list.
const NoResults = "No web search results found."

// Format renders results as a numbered block for the model prompt.
func Format(results []models.SearchResult) string {
	if len(results) == 0 {
		return NoResults
	}
	var b strings.Builder
	b.WriteString("### Web Search Results:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%s**\n   %s\n   Source: %s\n\n", i+1, r.Title, r.Snippet, r.Link)
	}
	return b.String()
}
