// Package report renders analysis results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text listing of findings and endpoints
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown documents for sharing
//   - SummaryWriter: one-table overview of a batch run
//
// Writers render a single model.PageResult or a whole model.BatchResult.
// They never change the data they are given.
package report
