package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(url string) config.WebSearchConfig {
	return config.WebSearchConfig{
		Endpoint:     url + "/search",
		NewsEndpoint: url + "/news",
		APIKey:       "serper-key",
		MaxResults:   5,
		Timeout:      2 * time.Second,
	}
}

func observedClient(cfg config.WebSearchConfig) (*Client, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return NewClient(cfg, WithLogger(zap.New(core))), logs
}

func serperServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "serper-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "go generics", req.Q)
		assert.Equal(t, 5, req.Num)

		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`{"organic":[
				{"title":"Go Generics","snippet":"Type parameters","link":"https://go.dev/doc/tutorial/generics"},
				{"title":"Blog","snippet":"Intro","link":"https://go.dev/blog/intro-generics"}
			]}`))
		case "/news":
			_, _ = w.Write([]byte(`{"news":[
				{"title":"Repeat","snippet":"dup","link":"https://go.dev/blog/intro-generics"},
				{"title":"Go 1.24","snippet":"Released","link":"https://go.dev/blog/go1.24"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestClient_Search(t *testing.T) {
	srv := serperServer(t)
	defer srv.Close()

	results := NewClient(testConfig(srv.URL)).Search(context.Background(), "go generics", 5)
	require.Len(t, results, 2)
	assert.Equal(t, models.SearchResult{
		Title:   "Go Generics",
		Snippet: "Type parameters",
		Link:    "https://go.dev/doc/tutorial/generics",
	}, results[0])
}

func TestClient_EnhancedSearch(t *testing.T) {
	srv := serperServer(t)
	defer srv.Close()
	c := NewClient(testConfig(srv.URL))

	withNews := c.EnhancedSearch(context.Background(), "go generics", true)
	links := make([]string, len(withNews))
	for i, r := range withNews {
		links[i] = r.Link
	}
	assert.Equal(t, []string{
		"https://go.dev/doc/tutorial/generics",
		"https://go.dev/blog/intro-generics",
		"https://go.dev/blog/go1.24",
	}, links)

	assert.Len(t, c.EnhancedSearch(context.Background(), "go generics", false), 2)
}

func TestClient_SearchFailuresReturnEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		noKey   bool
		message string
	}{
		{
			name:    "missing credentials",
			noKey:   true,
			message: "web search skipped: SERPER_API_KEY not set",
		},
		{
			name: "non-success status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			message: "web search rejected",
		},
		{
			name: "malformed response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"organic": [`))
			},
			message: "web search response could not be decoded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				if tt.handler != nil {
					tt.handler(w, r)
				}
			}))
			defer srv.Close()

			cfg := testConfig(srv.URL)
			if tt.noKey {
				cfg.APIKey = ""
			}
			c, logs := observedClient(cfg)

			assert.Empty(t, c.Search(context.Background(), "q", 3))
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.message, logs.All()[0].Message)
			if tt.noKey {
				assert.Zero(t, atomic.LoadInt32(&calls))
			}
		})
	}
}

func TestClient_SearchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, logs := observedClient(testConfig(url))
	assert.Empty(t, c.Search(context.Background(), "q", 3))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "web search network failure", logs.All()[0].Message)
}

func TestClient_SearchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	c, logs := observedClient(cfg)

	start := time.Now()
	assert.Empty(t, c.Search(context.Background(), "slow", 3))
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "web search timed out", logs.All()[0].Message)
}

func TestClient_NewsFailureKeepsOrganic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/news" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"organic":[{"title":"A","snippet":"a","link":"https://a"}]}`))
	}))
	defer srv.Close()

	results := NewClient(testConfig(srv.URL)).EnhancedSearch(context.Background(), "q", true)
	assert.Len(t, results, 1)
}
