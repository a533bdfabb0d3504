// Package output formats review results for display or machine consumption.
//
// Three formats are supported:
//   - text     — human-readable terminal output (default)
//   - json     — full structured JSON result
//   - markdown — PR-comment-friendly with a collapsible fixes section
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*review.Result]. [WriteResult] is
// a convenience helper that handles destination selection.
package output
