package config

import "time"

// DefaultKeywords are the lexical signals the router counts.
var DefaultKeywords = []string{
	"latest", "current", "2024", "2023", "recent", "today",
	"explain", "how does", "what is", "vs", "compared to",
	"alternatives", "price", "cost", "stock", "trend",
}

// ApplyDefaults sets default values for any zero values in cfg.
// ChunkOverlap is only defaulted when ChunkSize is also unset, so an explicit
// zero overlap survives.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 120 * time.Second
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "./data/vector_db"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "./data/uploads"
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
		if cfg.Chunking.ChunkOverlap == 0 {
			cfg.Chunking.ChunkOverlap = 200
		}
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Embedding.ModelPath == "" && cfg.Embedding.Provider == "onnx" {
		cfg.Embedding.ModelPath = "./data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-flash"
	}
	if cfg.LLM.Temperature == nil {
		t := 0.7
		cfg.LLM.Temperature = &t
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 120 * time.Second
	}
	if cfg.WebSearch.Endpoint == "" {
		cfg.WebSearch.Endpoint = "https://google.serper.dev/search"
	}
	if cfg.WebSearch.NewsEndpoint == "" {
		cfg.WebSearch.NewsEndpoint = "https://google.serper.dev/news"
	}
	if cfg.WebSearch.MaxResults == 0 {
		cfg.WebSearch.MaxResults = 5
	}
	if cfg.WebSearch.Timeout == 0 {
		cfg.WebSearch.Timeout = 10 * time.Second
	}
	if cfg.WebSearch.RequestsPerSecond == 0 {
		cfg.WebSearch.RequestsPerSecond = 2
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.RetrieverK == 0 {
		cfg.Retrieval.RetrieverK = 4
	}
	if cfg.Retrieval.ContextChunks == 0 {
		cfg.Retrieval.ContextChunks = 3
	}
	if cfg.Retrieval.WebSourceCount == 0 {
		cfg.Retrieval.WebSourceCount = 3
	}
	if cfg.Router.Keywords == nil {
		cfg.Router.Keywords = append([]string(nil), DefaultKeywords...)
	}
}
