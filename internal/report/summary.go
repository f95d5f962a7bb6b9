package report

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/jsprobe/internal/model"
)

// SummaryWriter outputs a one-row-per-URL overview table.
// It is meant for batch runs where the full listing would be too long to
// scan by eye.
type SummaryWriter struct {
	baseWriter

	// style is the go-pretty table style.
	style table.Style
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithTableStyle sets the table style. Default is table.StyleRounded.
func WithTableStyle(style table.Style) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.style = style
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{
		baseWriter: newBaseWriter(output),
		style:      table.StyleRounded,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single-row table for one page result.
func (w *SummaryWriter) Write(result *model.PageResult) (int, error) {
	t := w.newTable()
	t.AppendRow(resultRow(result))
	return io.WriteString(w.output, t.Render()+"\n")
}

// WriteBatch outputs one row per outcome and a footer with totals.
func (w *SummaryWriter) WriteBatch(batch *model.BatchResult) (int, error) {
	t := w.newTable()

	var findings, endpoints, resources int
	for _, o := range batch.Outcomes {
		if !o.OK() {
			t.AppendRow(table.Row{o.URL, "failed: " + o.ErrorMessage, "-", "-", "-"})
			continue
		}
		t.AppendRow(resultRow(o.Result))
		findings += len(o.Result.Findings)
		endpoints += o.Result.Endpoints.Len()
		resources += len(o.Result.Resources)
	}

	t.AppendFooter(table.Row{
		"Total",
		strconv.Itoa(batch.SucceededCount()) + " ok / " + strconv.Itoa(batch.FailedCount()) + " failed",
		findings,
		endpoints,
		resources,
	})

	return io.WriteString(w.output, t.Render()+"\n")
}

func (w *SummaryWriter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(w.style)
	t.AppendHeader(table.Row{"URL", "Status", "Findings", "Endpoints", "Resources"})
	return t
}

func resultRow(result *model.PageResult) table.Row {
	return table.Row{
		result.URL,
		"ok",
		len(result.Findings),
		result.Endpoints.Len(),
		len(result.Resources),
	}
}
