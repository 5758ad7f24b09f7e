package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/linkgraph/internal/crawler"
)

// CSVHeader is the first line of every CSV export.
const CSVHeader = "Target,Source,Depth"

// fieldEscaper percent-encodes the two characters that would break a row.
// Fields are never quoted.
var fieldEscaper = strings.NewReplacer(",", "%2C", "\n", "%0A")

// EscapeField makes s safe to use as an unquoted CSV field.
func EscapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// CSVWriter writes one row per record: the visited URL, the page it was
// found on, and its depth.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the header and every record in result order.
func (w *CSVWriter) Write(result *crawler.Result) (int, error) {
	cw := &countingWriter{w: w.output}
	bw := bufio.NewWriter(cw)

	_, _ = bw.WriteString(CSVHeader + "\n")
	for _, rec := range result.Records {
		_, _ = bw.WriteString(EscapeField(rec.URL))
		_ = bw.WriteByte(',')
		_, _ = bw.WriteString(EscapeField(rec.FoundAt))
		_ = bw.WriteByte(',')
		_, _ = bw.WriteString(strconv.Itoa(rec.Depth))
		_ = bw.WriteByte('\n')
	}

	// bufio.Writer keeps the first error; Flush reports it.
	err := bw.Flush()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
