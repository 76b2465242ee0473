// Package report renders analysis reports.
//
// Writers implement the Writer interface so they can be used
// interchangeably and combined with MultiWriter:
//   - SimpleWriter: plain text summary for terminals
//   - JSONWriter: the report as JSON, optionally wrapped with its score
//   - MarkdownWriter: a Markdown document for sharing
//
// Export writes the downloadable JSON artifact of a report.
package report
