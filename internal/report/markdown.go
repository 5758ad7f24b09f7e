package report

import (
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/linkgraph/internal/crawler"
)

// MarkdownWriter outputs runs as a Markdown document with a run table,
// the per-depth distribution and the record table.
type MarkdownWriter struct {
	baseWriter

	version string
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, version string) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(result *crawler.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeDepths(md, result)
	w.writeRecords(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *crawler.Result) {
	title := cases.Title(language.English).String(string(result.Mode))
	md.H1(title + " Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + result.Seed + "`"},
			{"Max Depth", strconv.Itoa(result.MaxDepth)},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration().Round(time.Millisecond).String()},
			{"Records", strconv.Itoa(len(result.Records))},
			{"Pages Fetched", strconv.FormatInt(result.Stats.PagesFetched, 10)},
			{"Edges Reported", strconv.FormatInt(result.Stats.EdgesReported, 10)},
			{"Status", statusText(result)},
		},
	})
	md.PlainText("")

	switch {
	case result.Err != nil:
		md.Cautionf("The crawl was aborted: %v. Records are partial.", result.Err)
	case result.Stats.FetchFailures > 0:
		md.Warningf("%d page(s) could not be fetched and were skipped.", result.Stats.FetchFailures)
	case result.Stats.ReportFailures > 0:
		md.Importantf("%d edge report(s) did not reach the graph sink.", result.Stats.ReportFailures)
	default:
		md.Tip("Crawl completed without errors.")
	}
	md.PlainText("")
}

func statusText(result *crawler.Result) string {
	if result.Err != nil {
		return "❌ Aborted"
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeDepths(md *markdown.Markdown, result *crawler.Result) {
	md.H2("Depth Distribution")
	md.PlainText("")

	counts := result.DepthCounts()
	if len(counts) == 0 {
		md.PlainText("No URLs were recorded.")
		md.PlainText("")
		return
	}

	depths := make([]int, 0, len(counts))
	for d := range counts {
		depths = append(depths, d)
	}
	slices.Sort(depths)

	rows := make([][]string, len(depths))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URLs per Depth"),
		piechart.WithShowData(true),
	)
	for i, d := range depths {
		rows[i] = []string{strconv.Itoa(d), strconv.Itoa(counts[d])}
		chart.LabelAndIntValue("Depth "+strconv.Itoa(d), uint64(counts[d])) //nolint:gosec // counts are non-negative
	}

	md.Table(markdown.TableSet{
		Header: []string{"Depth", "URLs"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, result *crawler.Result) {
	md.H2("Visited URLs")
	md.PlainText("")

	if len(result.Records) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Records))
	for i, rec := range result.Records {
		rows[i] = []string{rec.URL, rec.FoundAt, strconv.Itoa(rec.Depth)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Target", "Source", "Depth"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by linkgraph %s*", w.version)
}
