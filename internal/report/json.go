package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/linkgraph/internal/config"
	"github.com/nao1215/linkgraph/internal/crawler"
)

// JSONWriter outputs runs as a single JSON document.
type JSONWriter struct {
	baseWriter

	version string

	// indent enables pretty-printed output.
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter stamping documents with version.
func NewJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the exported document.
type JSONReport struct {
	Version    string           `json:"version"`
	Seed       string           `json:"seed"`
	Mode       config.Mode      `json:"mode"`
	MaxDepth   int              `json:"max_depth"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Error      string           `json:"error,omitempty"`
	Stats      crawler.Stats    `json:"stats"`
	Records    []crawler.Record `json:"records"`
}

// NewJSONReport wraps result with version information.
func NewJSONReport(result *crawler.Result, version string) *JSONReport {
	r := &JSONReport{
		Version:    version,
		Seed:       result.Seed,
		Mode:       result.Mode,
		MaxDepth:   result.MaxDepth,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Stats:      result.Stats,
		Records:    result.Records,
	}
	if r.Records == nil {
		r.Records = []crawler.Record{}
	}
	if result.Err != nil {
		r.Error = result.Err.Error()
	}
	return r
}

// Write outputs the run wrapped with metadata.
func (w *JSONWriter) Write(result *crawler.Result) (int, error) {
	var (
		data []byte
		err  error
	)
	doc := NewJSONReport(result, w.version)
	if w.indent {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
