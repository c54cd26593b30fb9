// Package output renders review results for machines or people.
//
// Three formats are supported:
//   - json     the path-to-review object, the default and the only format meant for tools
//   - text     human-readable terminal output
//   - markdown PR-comment-friendly with a summary table and one section per file
//
// Use [GetWriter] to obtain a [Writer] for a given format string, or
// [WriteResult] to render into memory and then write to a file or stdout.
package output
