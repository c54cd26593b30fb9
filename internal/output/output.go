package output

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dshills/prreview/internal/review"
)

// Writer writes a review result in a specific format.
type Writer interface {
	Write(w io.Writer, result *review.Result) error
}

// SerializationError reports a result that could not be rendered.
type SerializationError struct {
	Format string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("rendering %s output: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// DestinationError reports a rendered result that could not be written.
type DestinationError struct {
	Dest string
	Err  error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Dest, e.Err)
}

func (e *DestinationError) Unwrap() error { return e.Err }

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "json", "":
		return &JSONWriter{}, nil
	case "text":
		return &TextWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteResult renders result and writes it to outPath, or to stdout when
// outPath is empty. The document is rendered in memory first so that nothing
// reaches the destination unless rendering succeeds.
func WriteResult(result *review.Result, format, outPath string, stdout io.Writer) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	if result == nil {
		result = review.NewResult()
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, result); err != nil {
		return &SerializationError{Format: format, Err: err}
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return &DestinationError{Dest: outPath, Err: err}
		}
		return nil
	}
	if _, err := stdout.Write(buf.Bytes()); err != nil {
		return &DestinationError{Dest: "stdout", Err: err}
	}
	return nil
}
