package indexer

import (
	"github.com/hyperjump/kotae/internal/models"
)

// TextExtractor reads a file into raw text.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Processor turns one file into an ordered sequence of chunks.
type Processor struct {
	extractor TextExtractor
	chunker   *Chunker
}

// NewProcessor composes an extractor and a chunker.
func NewProcessor(extractor TextExtractor, chunker *Chunker) *Processor {
	return &Processor{extractor: extractor, chunker: chunker}
}

// Process extracts path and splits the text. Every chunk is tagged with
// displayName, its position in the document, and path. Extraction errors are
// returned unchanged.
func (p *Processor) Process(path, displayName string) ([]models.Chunk, error) {
	text, err := p.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	pieces := p.chunker.Split(text)
	chunks := make([]models.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = models.Chunk{
			Content: piece,
			Metadata: models.ChunkMetadata{
				SourceFilename: displayName,
				SequenceIndex:  i,
				SourcePath:     path,
			},
		}
	}
	return chunks, nil
}
