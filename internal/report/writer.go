package report

import (
	"fmt"
	"io"

	"github.com/nao1215/linkgraph/internal/config"
	"github.com/nao1215/linkgraph/internal/crawler"
)

// Writer writes a finished run in one output format.
type Writer interface {
	// Write outputs the run and returns the number of bytes written.
	Write(result *crawler.Result) (int, error)
}

// MultiWriter writes to multiple Writers in order and stops on the
// first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to every writer and returns the total bytes written.
func (m *MultiWriter) Write(result *crawler.Result) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// New returns the writer for format. version is embedded in formats
// that carry metadata.
func New(format string, output io.Writer, version string) (Writer, error) {
	switch format {
	case config.FormatCSV:
		return NewCSVWriter(output), nil
	case config.FormatJSON:
		return NewJSONWriter(output, version, WithPrettyPrint()), nil
	case config.FormatMarkdown:
		return NewMarkdownWriter(output, version), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
