package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/nao1215/jsprobe/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one page result in Markdown format.
func (w *MarkdownWriter) Write(result *model.PageResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("jsprobe Report")
	md.PlainText("")
	w.writeResult(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a batch run in Markdown format.
func (w *MarkdownWriter) WriteBatch(batch *model.BatchResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("jsprobe Batch Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + batch.RunID + "`"},
			{"Started", batch.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", batch.Elapsed.Round(time.Millisecond).String()},
			{"Succeeded", strconv.Itoa(batch.SucceededCount())},
			{"Failed", strconv.Itoa(batch.FailedCount())},
		},
	})
	md.PlainText("")

	if batch.FailedCount() > 0 {
		md.Warningf("%d of %d URL(s) could not be analyzed.", batch.FailedCount(), len(batch.Outcomes))
		md.PlainText("")
	}

	for _, o := range batch.Outcomes {
		if !o.OK() {
			md.H2(o.URL)
			md.PlainText("")
			md.Cautionf("Analysis failed: %s", o.ErrorMessage)
			md.PlainText("")
			continue
		}
		w.writeResult(md, o.Result)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeResult writes the sections for one page.
func (w *MarkdownWriter) writeResult(md *markdown.Markdown, result *model.PageResult) {
	md.H2(result.URL)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Analyzed", result.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
			{"JSON Findings", strconv.Itoa(len(result.Findings))},
			{"Endpoints", strconv.Itoa(result.Endpoints.Len())},
			{"Resources", strconv.Itoa(len(result.Resources))},
		},
	})
	md.PlainText("")

	if result.IsEmpty() {
		md.Note("Nothing was extracted from this page.")
		md.PlainText("")
		return
	}

	w.writeFindings(md, result.Findings)
	w.writeList(md, "Endpoints", result.Endpoints.Sorted())
	w.writeList(md, "Resources", result.Resources)
}

// writeFindings writes a table of findings followed by their values.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, findings []model.JSONFinding) {
	if len(findings) == 0 {
		return
	}

	md.H3("JSON Findings")
	md.PlainText("")

	rows := make([][]string, len(findings))
	for i, f := range findings {
		name := f.Name
		if name == "" {
			name = "-"
		}
		rows[i] = []string{strconv.Itoa(i + 1), f.Kind.String(), escapeCell(name), string(f.Source)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Kind", "Name", "Source"},
		Rows:   rows,
	})
	md.PlainText("")

	for i, f := range findings {
		md.PlainTextf("**%d.**", i+1)
		md.CodeBlocks(markdown.SyntaxHighlightJSON, Preview(f, 0))
		md.PlainText("")
	}
}

// writeList writes a titled bullet list, skipping empty lists.
func (w *MarkdownWriter) writeList(md *markdown.Markdown, title string, items []string) {
	if len(items) == 0 {
		return
	}

	md.H3(title)
	md.PlainText("")

	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "`" + item + "`"
	}
	md.BulletList(quoted...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [jsprobe](https://github.com/nao1215/jsprobe)*")
}

// escapeCell keeps a value from breaking the table layout.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
