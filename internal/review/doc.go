// Package review turns per-file diffs into review text.
//
// [Run] renders one prompt per file from a text/template [Template], sends it
// to a [providers.Generator] and collects the answers into a [Result], an
// ordered map from file path to review. Files are reviewed one at a time by
// default; with Options.Workers above one they are reviewed concurrently on a
// bounded errgroup while the result keeps the diff's file order. Any failure
// aborts the run.
//
// Secrets are removed from diffs and file content according to a
// [redact.Policy] before a prompt is rendered.
package review
