// Package report renders composite audit reports.
//
// Three writers are provided:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub-flavored Markdown with a mermaid chart
//
// Writers implement the Writer interface and can be combined with MultiWriter.
package report
