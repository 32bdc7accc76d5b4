package models

// Route is the answer strategy chosen for a question.
type Route string

const (
	RouteDocument Route = "document"
	RouteWeb      Route = "web"
	RouteHybrid   Route = "hybrid"
)

func (r Route) String() string { return string(r) }

// Source tags used when an answer carries no real source.
const (
	SourceSystem    = "system"
	SourceDocuments = "documents"
	SourceWeb       = "web"
	SourceError     = "error"
)

// SearchResult is a single web search hit. Lifetime is one query.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// AnswerResult is what the composer returns for every question.
type AnswerResult struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	RouteUsed Route    `json:"route_used"`
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the session conversation.
type Message struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"`
	Route   Route    `json:"route,omitempty"`
}

// UniqueStrings returns the values in first-seen order with duplicates removed.
// Empty strings are dropped.
func UniqueStrings(values ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range values {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
