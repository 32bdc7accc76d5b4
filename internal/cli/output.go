// Package cli renders answers and status for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

var (
	routeColors = map[models.Route]*color.Color{
		models.RouteDocument: color.New(color.FgGreen, color.Bold),
		models.RouteWeb:      color.New(color.FgCyan, color.Bold),
		models.RouteHybrid:   color.New(color.FgMagenta, color.Bold),
	}
	sourceColor = color.New(color.FgBlue)
	errorColor  = color.New(color.FgRed)
	faintColor  = color.New(color.Faint)
)

// JoinArgs joins positional args so a question works with or without shell quoting.
func JoinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// WriteAnswer writes result to w in the given format.
func WriteAnswer(w io.Writer, result models.AnswerResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}

	label, ok := routeColors[result.RouteUsed]
	if !ok {
		label = faintColor
	}
	label.Fprintf(w, "[%s]\n", result.RouteUsed)
	fmt.Fprintf(w, "%s\n", result.Answer)
	if len(result.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for _, src := range result.Sources {
		c := sourceColor
		if src == models.SourceError {
			c = errorColor
		}
		c.Fprintf(w, "  - %s\n", src)
	}
	return nil
}

// WriteUpload reports the outcome of ingesting one file.
func WriteUpload(w io.Writer, filename string, chunks int, err error) {
	if err != nil {
		errorColor.Fprintf(w, "✗ %s: %v\n", filename, err)
		return
	}
	fmt.Fprintf(w, "✓ %s: %d chunks\n", filename, chunks)
}

// WriteMessages writes the conversation, one block per message.
func WriteMessages(w io.Writer, messages []models.Message) {
	for _, m := range messages {
		faintColor.Fprintf(w, "%s:", m.Role)
		fmt.Fprintf(w, " %s\n", utils.Truncate(m.Content, 200))
	}
}

// WriteStatus writes index and model status.
func WriteStatus(w io.Writer, status *session.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	if s := status.Index; s != nil {
		fmt.Fprintf(w, "index_present:     %t\n", s.Present)
		fmt.Fprintf(w, "documents:         %d   # distinct source files\n", s.Documents)
		fmt.Fprintf(w, "chunks:            %d   # stored text chunks\n", s.Chunks)
		fmt.Fprintf(w, "vectors:           %d   # entries in the vector file\n", s.Vectors)
		fmt.Fprintf(w, "dimensions:        %d\n", s.Dimensions)
		fmt.Fprintf(w, "disk_usage_bytes:  %d   # %d files\n", s.DiskUsage, s.Files)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# models")
	fmt.Fprintf(w, "llm_model:         %s\n", status.LLMModel)
	fmt.Fprintf(w, "embedding_model:   %s\n", status.EmbeddingModel)
	fmt.Fprintf(w, "web_search:        %t\n", status.WebSearchEnabled)
	if len(status.Uploads) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# uploaded this session")
		for _, u := range status.Uploads {
			fmt.Fprintf(w, "%s (%d chunks)\n", u.Filename, u.Chunks)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
