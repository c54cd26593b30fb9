package output

import (
	"encoding/json"
	"io"

	"github.com/dshills/prreview/internal/review"
)

// JSONWriter outputs the result as a single JSON object mapping each file
// path to its review, indented by two spaces and followed by a newline.
// HTML characters are written as-is.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, result *review.Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
