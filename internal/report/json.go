package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/jsprobe/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
// HTML characters are not escaped so endpoint query strings stay readable.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one page result in JSON format.
func (w *JSONWriter) Write(result *model.PageResult) (int, error) {
	return w.writeJSON(result)
}

// WriteBatch outputs a batch run in JSON format.
func (w *JSONWriter) WriteBatch(batch *model.BatchResult) (int, error) {
	return w.writeJSON(batch)
}

// writeJSON encodes v and writes it, followed by a newline, to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}

	if err := enc.Encode(v); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}

// JSONReport wraps results with the version of the tool that produced them.
// Exactly one of Result and Batch is set.
type JSONReport struct {
	// Version is the jsprobe version that generated this report.
	Version string `json:"version"`

	// Result is set for single-page reports.
	Result *model.PageResult `json:"result,omitempty"`

	// Batch is set for batch reports.
	Batch *model.BatchResult `json:"batch,omitempty"`
}

// FullJSONWriter outputs reports with a metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the jsprobe version string.
	version string
}

// NewFullJSONWriter creates a writer for reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs one page result wrapped with metadata.
func (w *FullJSONWriter) Write(result *model.PageResult) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Result: result})
}

// WriteBatch outputs a batch run wrapped with metadata.
func (w *FullJSONWriter) WriteBatch(batch *model.BatchResult) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Batch: batch})
}
