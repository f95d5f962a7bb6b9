package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/jsprobe/internal/model"
)

// SimpleWriter outputs plain text reports: the page URL, a preview of each
// JSON finding, and the endpoint list. The layout is meant for reading in
// a terminal and is not a stable format for other tools.
type SimpleWriter struct {
	baseWriter

	// previewLength is the number of characters shown per finding.
	previewLength int

	// showResources adds the referenced script and stylesheet files.
	showResources bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithPreviewLength sets how many characters of each finding are shown.
// Zero or less shows findings in full.
func WithPreviewLength(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.previewLength = n
	}
}

// WithResources enables the resource section.
func WithResources(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showResources = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:    newBaseWriter(output),
		previewLength: DefaultPreviewLength,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one page result.
func (w *SimpleWriter) Write(result *model.PageResult) (int, error) {
	var sb strings.Builder
	w.writeResult(&sb, result)
	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs every outcome in input order. Failed URLs get a
// single line with the reason.
func (w *SimpleWriter) WriteBatch(batch *model.BatchResult) (int, error) {
	var sb strings.Builder
	for _, o := range batch.Outcomes {
		if !o.OK() {
			fmt.Fprintf(&sb, "\nFailed to analyze %s: %s\n", o.URL, o.ErrorMessage)
			continue
		}
		w.writeResult(&sb, o.Result)
	}
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeResult(sb *strings.Builder, result *model.PageResult) {
	fmt.Fprintf(sb, "\nResults for %s\n", result.URL)

	sb.WriteString("\nJSON Data Found:\n")
	for i, f := range result.Findings {
		fmt.Fprintf(sb, "\n%d. %s...\n", i+1, Preview(f, w.previewLength))
	}

	sb.WriteString("\nPotential JS Endpoints:\n")
	for _, endpoint := range result.Endpoints.Sorted() {
		fmt.Fprintf(sb, "- %s\n", endpoint)
	}

	if w.showResources && len(result.Resources) > 0 {
		sb.WriteString("\nReferenced Resources:\n")
		for _, ref := range result.Resources {
			fmt.Fprintf(sb, "- %s\n", ref)
		}
	}
}
