package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/prreview/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, result *review.Result) error {
	ew := &errWriter{w: w}

	ew.println("Pull Request Review")
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files reviewed: %d\n", result.Len())
	ew.println(strings.Repeat("─", 60))

	if result.Len() == 0 {
		ew.println("\nNo changed files.")
		return ew.err
	}

	for _, e := range result.Entries() {
		ew.printf("\n%s\n", e.Path)
		ew.println(strings.Repeat("─", 40))
		for _, line := range strings.Split(strings.TrimRight(e.Review, "\n"), "\n") {
			if line == "" {
				ew.println("")
				continue
			}
			ew.printf("  %s\n", line)
		}
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
