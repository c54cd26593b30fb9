package output

import (
	"io"
	"strings"

	"github.com/dshills/prreview/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report with one
// collapsible section per file.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, result *review.Result) error {
	ew := &errWriter{w: w}

	ew.printf("## Pull Request Review\n\n")

	if result.Len() == 0 {
		ew.println("No changed files. :white_check_mark:")
		return ew.err
	}

	ew.printf("| File | Review |\n")
	ew.printf("|------|--------|\n")
	for _, e := range result.Entries() {
		ew.printf("| `%s` | %s |\n", e.Path, summaryLine(e.Review))
	}
	ew.println("")

	for _, e := range result.Entries() {
		ew.printf("<details open>\n<summary><code>%s</code></summary>\n\n", e.Path)
		ew.printf("%s\n\n", strings.TrimSpace(e.Review))
		ew.printf("</details>\n\n")
	}

	return ew.err
}

// summaryLine returns the first non-empty line of a review, shortened to fit
// a table cell.
func summaryLine(text string) string {
	const limit = 80
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.ReplaceAll(line, "|", `\|`)
		if r := []rune(line); len(r) > limit {
			line = string(r[:limit-1]) + "…"
		}
		return line
	}
	return "_empty_"
}
