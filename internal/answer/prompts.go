package answer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Fixed answers returned when a strategy cannot produce a model answer.
const (
	NoDocumentsAnswer     = "No documents available. Please upload some documents first."
	NoRelevantAnswer      = "No relevant documents found for this query."
	NoGeneratedAnswer     = "No answer could be generated from the documents."
	NoWebResultsAnswer    = "No web search results found. This might be due to network issues or search limitations."
	documentErrorPrefix   = "Error processing documents: "
	webErrorPrefix        = "Web search error: "
	hybridErrorPrefix     = "Hybrid search error: "
	requestErrorPrefix    = "Error processing your request: "
	stuffPromptTemplate   = "Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n%s\n\nQuestion: %s\nHelpful Answer:"
	fallbackPromptFormat  = "Based on the following documents, please provide a comprehensive answer to the question:\n\nDocuments:\n%s\n\nQuestion: %s\n\nAnswer:"
	webPromptTemplate     = "Based on the following web search results, provide a comprehensive and factual answer. \nSynthesize information from multiple sources and provide a well-structured response.\n\n%s\n\nQuestion: %s\n\nDetailed Answer:"
	hybridPromptTemplate  = "You have information from both uploaded documents and web search. \nProvide a unified, factually correct, and helpful answer that combines relevant information from both sources.\n\nDocument-based answer: %s\n\nWeb-based answer: %s\n\nQuestion: %s\n\nFinal Answer:"
	fallbackDocumentEntry = "Document %d:\n%s"
)

func stuffPrompt(chunks []models.Chunk, question string) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return fmt.Sprintf(stuffPromptTemplate, strings.Join(parts, "\n\n"), question)
}

// fallbackPrompt numbers at most limit chunks from 1.
func fallbackPrompt(chunks []models.Chunk, limit int, question string) string {
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf(fallbackDocumentEntry, i+1, c.Content)
	}
	return fmt.Sprintf(fallbackPromptFormat, strings.Join(parts, "\n\n"), question)
}

func webPrompt(formatted, question string) string {
	return fmt.Sprintf(webPromptTemplate, formatted, question)
}

func hybridPrompt(docAnswer, webAnswer, question string) string {
	return fmt.Sprintf(hybridPromptTemplate, docAnswer, webAnswer, question)
}

func filenames(chunks []models.Chunk) []string {
	names := make([]string, len(chunks))
	for i, c := range chunks {
		names[i] = c.Metadata.SourceFilename
	}
	return names
}
