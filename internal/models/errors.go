package models

import "errors"

// Error kinds. Components wrap these with fmt.Errorf("...: %w", err).
var (
	// ErrConfiguration marks invalid settings such as chunk size or overlap.
	ErrConfiguration = errors.New("configuration error")
	// ErrExtraction marks a document that cannot be opened or parsed.
	ErrExtraction = errors.New("extraction error")
	// ErrRetrieval marks an unavailable embedder or index.
	ErrRetrieval = errors.New("retrieval failure")
	// ErrExternalCall marks a failed LLM, embedding or web search call.
	ErrExternalCall = errors.New("external call failure")

	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrEmptyResponse      = errors.New("empty response")
	ErrDuplicateUpload    = errors.New("file already uploaded in this session")
	ErrEmptyDocument      = errors.New("document produced no chunks")
)
