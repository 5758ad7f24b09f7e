package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/linkgraph/internal/crawler"
)

// SummaryWriter outputs a short human-readable run summary, meant for the
// terminal when the export itself goes to a file.
type SummaryWriter struct {
	baseWriter

	verbose bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithVerbose adds the full counter breakdown.
func WithVerbose(verbose bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.verbose = verbose
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SummaryWriter) Write(result *crawler.Result) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Seed:      %s\n", result.Seed)
	fmt.Fprintf(&sb, "Mode:      %s (max depth %d)\n", result.Mode, result.MaxDepth)
	fmt.Fprintf(&sb, "Duration:  %s\n", result.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Records:   %d\n", len(result.Records))

	if result.Err != nil {
		fmt.Fprintf(&sb, "Status:    ABORTED - %v\n", result.Err)
	} else {
		sb.WriteString("Status:    Complete\n")
	}

	if w.verbose {
		s := result.Stats
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  units spawned:    %d\n", s.UnitsSpawned)
		fmt.Fprintf(&sb, "  units rejected:   %d\n", s.UnitsRejected)
		fmt.Fprintf(&sb, "  pages fetched:    %d\n", s.PagesFetched)
		fmt.Fprintf(&sb, "  fetch failures:   %d\n", s.FetchFailures)
		fmt.Fprintf(&sb, "  edges reported:   %d/%d\n", s.EdgesReported, s.EdgesQueued)
		fmt.Fprintf(&sb, "  report failures:  %d\n", s.ReportFailures)
	}
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}
