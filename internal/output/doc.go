// Package output formats review results for display or machine consumption.
//
// Four formats are supported:
//   - text: human-readable terminal output (default)
//   - json: the full AggregateResult
//   - markdown: PR-comment-friendly with collapsible sections per severity
//   - sarif: SARIF v2.1.0 for CI code-scanning upload
//
// Use [GetWriter] to obtain a [Writer] for a given format string, or
// [WriteReport] to write to a file or stdout.
package output
