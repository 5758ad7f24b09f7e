package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/linkgraph/internal/config"
	"github.com/nao1215/linkgraph/internal/crawler"
)

func createTestResult() *crawler.Result {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &crawler.Result{
		Seed:       "http://example.com/",
		Mode:       config.ModeHTML,
		MaxDepth:   2,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Records: []crawler.Record{
			{URL: "http://example.com/", FoundAt: "http://example.com/", Depth: 0},
			{URL: "http://example.com/a", FoundAt: "http://example.com/", Depth: 1},
			{URL: "http://example.com/b", FoundAt: "http://example.com/", Depth: 1},
			{URL: "http://example.com/c", FoundAt: "http://example.com/a", Depth: 2},
		},
		Stats: crawler.Stats{PagesFetched: 3, EdgesQueued: 6, EdgesReported: 6},
	}
}

func TestEscapeField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "http://x/", want: "http://x/"},
		{in: "http://x/?q=1,2", want: "http://x/?q=1%2C2"},
		{in: "http://y\nz", want: "http://y%0Az"},
		{in: ",\n,", want: "%2C%0A%2C"},
		{in: `"quoted"`, want: `"quoted"`},
	}
	for _, tt := range tests {
		if got := EscapeField(tt.in); got != tt.want {
			t.Errorf("EscapeField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("header and rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewCSVWriter(&buf).Write(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		want := "Target,Source,Depth\n" +
			"http://example.com/,http://example.com/,0\n" +
			"http://example.com/a,http://example.com/,1\n" +
			"http://example.com/b,http://example.com/,1\n" +
			"http://example.com/c,http://example.com/a,2\n"
		if buf.String() != want {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("separators are escaped without quoting", func(t *testing.T) {
		t.Parallel()

		result := &crawler.Result{Records: []crawler.Record{
			{URL: "http://x/?q=1,2", FoundAt: "http://y\nz", Depth: 3},
		}}

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).Write(result); err != nil {
			t.Fatal(err)
		}
		want := "Target,Source,Depth\nhttp://x/?q=1%2C2,http://y%0Az,3\n"
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})

	t.Run("empty run writes only the header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).Write(&crawler.Result{}); err != nil {
			t.Fatal(err)
		}
		if buf.String() != CSVHeader+"\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("output error is returned", func(t *testing.T) {
		t.Parallel()

		if _, err := NewCSVWriter(failingWriter{}).Write(createTestResult()); err == nil {
			t.Error("expected write error")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("wraps the run with metadata", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, "1.2.3").Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc JSONReport
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Version != "1.2.3" || doc.Seed != "http://example.com/" || doc.MaxDepth != 2 {
			t.Errorf("unexpected metadata %+v", doc)
		}
		if len(doc.Records) != 4 || doc.Records[3].FoundAt != "http://example.com/a" {
			t.Errorf("unexpected records %+v", doc.Records)
		}
		if doc.Stats.EdgesReported != 6 {
			t.Errorf("expected stats to be carried, got %+v", doc.Stats)
		}
		if doc.Error != "" {
			t.Errorf("expected no error field, got %q", doc.Error)
		}
	})

	t.Run("pretty print and error field", func(t *testing.T) {
		t.Parallel()

		result := createTestResult()
		result.Err = errors.New("fetch http://example.com/d: status 500")

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, "dev", WithPrettyPrint()).Write(result); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "\n  \"seed\"") {
			t.Error("expected indented output")
		}
		if !strings.Contains(out, `"error": "fetch http://example.com/d: status 500"`) {
			t.Errorf("expected error field, got:\n%s", out)
		}
	})

	t.Run("empty records encode as an array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, "dev").Write(&crawler.Result{}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), `"records":[]`) {
			t.Errorf("expected empty array, got %s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("complete run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, "1.0.0").Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Html Crawl Report",
			"`http://example.com/`",
			"## Depth Distribution",
			"pie",
			"## Visited URLs",
			"http://example.com/c",
			"linkgraph 1.0.0",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("aborted run", func(t *testing.T) {
		t.Parallel()

		result := createTestResult()
		result.Mode = config.ModeWiki
		result.Err = errors.New("boom")

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, "dev").Write(result); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "# Wiki Crawl Report") {
			t.Error("expected wiki title")
		}
		if !strings.Contains(out, "[!CAUTION]") || !strings.Contains(out, "boom") {
			t.Errorf("expected caution alert with error, got:\n%s", out)
		}
	})

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, "dev").Write(&crawler.Result{Mode: config.ModeHTML}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No URLs were recorded.") {
			t.Error("expected empty distribution note")
		}
	})
}

func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSummaryWriter(&buf, WithVerbose(true)).Write(createTestResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Seed:      http://example.com/", "Records:   4", "Status:    Complete", "edges reported:   6/6"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	for _, format := range []string{config.FormatCSV, config.FormatJSON, config.FormatMarkdown} {
		if _, err := New(format, &buf, "dev"); err != nil {
			t.Errorf("New(%q) failed: %v", format, err)
		}
	}
	if _, err := New("xml", &buf, "dev"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := NewMultiWriter(NewCSVWriter(&a), NewSummaryWriter(&b))
	n, err := m.Write(createTestResult())
	if err != nil {
		t.Fatal(err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
	}
}
