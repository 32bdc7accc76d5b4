// Package models defines the data shared across ingestion, retrieval and answering:
// chunks, web results, routes, conversation messages and answer results.
package models

// ChunkMetadata records where a chunk came from.
type ChunkMetadata struct {
	SourceFilename string `json:"source_filename"`
	// SequenceIndex is the position of the chunk within its source document, starting at 0.
	SequenceIndex int    `json:"sequence_index"`
	SourcePath    string `json:"source_path"`
}

// Chunk is a unit of retrievable text. Chunks are never mutated after creation.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// EmbeddedChunk is a chunk stored in the index together with its vector.
type EmbeddedChunk struct {
	ID        string    `json:"id"`
	Chunk     Chunk     `json:"chunk"`
	Embedding []float32 `json:"-"`
}

// SourceSummary describes one ingested document as seen by the content store.
type SourceSummary struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}
