package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/extract/extracttest"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(string) (string, error) { return s.text, s.err }

type recordingStore struct {
	batches [][]models.Chunk
	err     error
}

func (r *recordingStore) Add(_ context.Context, chunks []models.Chunk) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, chunks)
	return nil
}

const threePagePDFText = "\n--- Page 1 ---\nIntroduction to the retrieval pipeline. " +
	"Documents are split into chunks before embedding.\n--- Page 2 ---\n" +
	"Chunks are embedded and stored in the vector index for similarity search.\n--- Page 3 ---\n"

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(stubExtractor{text: threePagePDFText}, mustChunker(t, 60, 10))

	chunks, err := p.Process("/uploads/intro.pdf", "intro.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, "intro.pdf", ch.Metadata.SourceFilename)
		assert.Equal(t, "/uploads/intro.pdf", ch.Metadata.SourcePath)
		assert.Equal(t, i, ch.Metadata.SequenceIndex)
		assert.NotEmpty(t, ch.Content)
		assert.LessOrEqual(t, len([]rune(ch.Content)), 60)
	}
	assert.Contains(t, chunks[0].Content, "--- Page 1 ---")
	assert.Contains(t, chunks[len(chunks)-1].Content, "--- Page 3 ---")
}

func TestProcessor_ProcessPropagatesExtractionError(t *testing.T) {
	cause := errors.New("bad xref")
	p := NewProcessor(stubExtractor{err: cause}, mustChunker(t, 100, 10))
	_, err := p.Process("broken.pdf", "broken.pdf")
	assert.ErrorIs(t, err, cause)
}

func TestProcessor_ProcessRealFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n\nFirst paragraph.\n\nSecond paragraph."), 0600))

	p := NewProcessor(extract.NewExtractor(), mustChunker(t, 20, 0))
	chunks, err := p.Process(path, "notes.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"# Notes", "First paragraph.", "Second paragraph."}, contents(chunks))
}

func TestProcessor_ProcessThreePagePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload-1.pdf")
	pdfBytes := extracttest.PDF(
		"Introduction to the retrieval pipeline. Documents are split into chunks before embedding.",
		"Chunks are embedded and stored in the vector index for similarity search.",
		"",
	)
	require.NoError(t, os.WriteFile(path, pdfBytes, 0600))

	p := NewProcessor(extract.NewExtractor(), mustChunker(t, 60, 10))
	chunks, err := p.Process(path, "intro.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, "intro.pdf", ch.Metadata.SourceFilename)
		assert.Equal(t, path, ch.Metadata.SourcePath)
		assert.Equal(t, i, ch.Metadata.SequenceIndex)
		assert.LessOrEqual(t, len([]rune(ch.Content)), 60)
	}
	assert.Contains(t, chunks[0].Content, "--- Page 1 ---")
	assert.Contains(t, chunks[len(chunks)-1].Content, "--- Page 3 ---")
}

func contents(chunks []models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func writeTemp(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0600))
	return path
}

func TestIndexer_IndexFile(t *testing.T) {
	store := &recordingStore{}
	idx := NewIndexer(NewProcessor(stubExtractor{text: threePagePDFText}, mustChunker(t, 60, 10)), store)

	n, err := idx.IndexFile(context.Background(), writeTemp(t, "intro.pdf"), "intro.pdf")
	require.NoError(t, err)
	require.Len(t, store.batches, 1)
	assert.Equal(t, len(store.batches[0]), n)
}

func TestIndexer_IndexFileExtractionFailureAddsNothing(t *testing.T) {
	store := &recordingStore{}
	idx := NewIndexer(NewProcessor(stubExtractor{err: models.ErrExtraction}, mustChunker(t, 60, 10)), store)

	n, err := idx.IndexFile(context.Background(), writeTemp(t, "scan.pdf"), "scan.pdf")
	assert.ErrorIs(t, err, models.ErrExtraction)
	assert.Zero(t, n)
	assert.Empty(t, store.batches)
}

func TestIndexer_IndexFileEmptyDocument(t *testing.T) {
	store := &recordingStore{}
	idx := NewIndexer(NewProcessor(stubExtractor{text: "   "}, mustChunker(t, 60, 10)), store)

	_, err := idx.IndexFile(context.Background(), writeTemp(t, "empty.txt"), "empty.txt")
	assert.ErrorIs(t, err, models.ErrEmptyDocument)
	assert.Empty(t, store.batches)
}

func TestIndexer_IndexFileMissing(t *testing.T) {
	idx := NewIndexer(NewProcessor(stubExtractor{text: "x"}, mustChunker(t, 60, 10)), &recordingStore{})
	_, err := idx.IndexFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), "nope.pdf")
	assert.ErrorIs(t, err, models.ErrExtraction)
}

func TestIndexer_IndexFileDirectory(t *testing.T) {
	idx := NewIndexer(NewProcessor(stubExtractor{text: "x"}, mustChunker(t, 60, 10)), &recordingStore{})
	_, err := idx.IndexFile(context.Background(), t.TempDir(), "dir")
	assert.ErrorIs(t, err, models.ErrExtraction)
}

func TestIndexer_IndexFileStoreError(t *testing.T) {
	cause := errors.New("disk full")
	idx := NewIndexer(NewProcessor(stubExtractor{text: "some text"}, mustChunker(t, 60, 10)), &recordingStore{err: cause})
	_, err := idx.IndexFile(context.Background(), writeTemp(t, "a.txt"), "a.txt")
	assert.ErrorIs(t, err, cause)
}
