package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/linkgraph/internal/config"
)

// site is a test web server that counts requests per path.
type site struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newSite(t *testing.T, pages map[string]string) *site {
	t.Helper()

	s := &site{hits: make(map[string]int)}
	mux := http.NewServeMux()
	for path, body := range pages {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			s.hits[r.URL.Path]++
			s.mu.Unlock()
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(body))
		})
	}
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *site) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

type recordingReporter struct {
	mu    sync.Mutex
	edges []Edge
	err   error
}

func (r *recordingReporter) Upsert(_ context.Context, source, target string, depth int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = append(r.edges, Edge{Source: source, Target: target, Depth: depth})
	return r.err
}

func (r *recordingReporter) all() []Edge {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Edge(nil), r.edges...)
}

func links(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, h)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func testConfig(seed string, depth int) *config.Config {
	cfg := config.NewConfig()
	cfg.SeedURL = seed
	cfg.MaxDepth = depth
	cfg.Threads = 4
	return cfg
}

func runEngine(t *testing.T, cfg *config.Config, client *http.Client, opts ...Option) (*Result, error) {
	t.Helper()

	opts = append([]Option{
		WithFetcher(NewHTTPFetcher(client)),
		WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)
	engine, err := NewEngine(cfg, opts...)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine.Run(t.Context())
}

func recordURLs(records []Record) map[string]Record {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		m[r.URL] = r
	}
	return m
}

func TestEngine_Run(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/{$}": links("/a", "/b", "/a", "#top", "mailto:someone@example.com", "/c?x=1"),
		"/a":   links("/", "/d"),
		"/b":   links("/d"),
		"/c":   links(),
		"/d":   links("/e"),
	})
	root := s.URL + "/"

	reporter := &recordingReporter{}
	result, err := runEngine(t, testConfig(root, 2), s.Client(), WithReporter(reporter))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := recordURLs(result.Records)
	want := map[string]int{
		root:             0,
		s.URL + "/a":     1,
		s.URL + "/b":     1,
		s.URL + "/c?x=1": 1,
		s.URL + "/d":     2,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(got), result.Records)
	}
	for u, depth := range want {
		rec, ok := got[u]
		if !ok {
			t.Errorf("missing record for %s", u)
			continue
		}
		if rec.Depth != depth {
			t.Errorf("%s: expected depth %d, got %d", u, depth, rec.Depth)
		}
	}

	if rec := got[root]; rec.FoundAt != root {
		t.Errorf("expected seed to be found at itself, got %s", rec.FoundAt)
	}
	if rec := got[s.URL+"/a"]; rec.FoundAt != root {
		t.Errorf("expected /a to be found at the seed, got %s", rec.FoundAt)
	}
	if from := got[s.URL+"/d"].FoundAt; from != s.URL+"/a" && from != s.URL+"/b" {
		t.Errorf("expected /d to be found at /a or /b, got %s", from)
	}

	t.Run("each page is fetched at most once", func(t *testing.T) {
		for _, p := range []string{"/", "/a", "/b", "/c"} {
			if n := s.hitCount(p); n != 1 {
				t.Errorf("%s fetched %d times", p, n)
			}
		}
	})

	t.Run("pages at the depth limit are not fetched", func(t *testing.T) {
		if n := s.hitCount("/d"); n != 0 {
			t.Errorf("expected /d not to be fetched, got %d hits", n)
		}
	})

	t.Run("every admitted unit reports an edge", func(t *testing.T) {
		// seed, five from the root, two from /a, one from /b
		edges := reporter.all()
		if len(edges) != 9 {
			t.Errorf("expected 9 edges, got %d: %+v", len(edges), edges)
		}
		if result.Stats.EdgesReported != 9 {
			t.Errorf("expected 9 reported edges in stats, got %d", result.Stats.EdgesReported)
		}
		var found bool
		for _, e := range edges {
			if e.Source == s.URL+"/a" && e.Target == s.URL+"/d" && e.Depth == 2 {
				found = true
			}
		}
		if !found {
			t.Error("expected edge /a -> /d at depth 2")
		}
	})

	t.Run("stats", func(t *testing.T) {
		if result.Stats.PagesFetched != 4 {
			t.Errorf("expected 4 fetched pages, got %d", result.Stats.PagesFetched)
		}
		if result.Stats.UnitsSpawned != 10 {
			t.Errorf("expected 10 spawned units, got %d", result.Stats.UnitsSpawned)
		}
		if result.FinishedAt.Before(result.StartedAt) {
			t.Error("expected finish after start")
		}
	})
}

func TestEngine_DepthZero(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{"/{$}": links("/a")})

	result, err := runEngine(t, testConfig(s.URL, 0), s.Client())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].URL != s.URL+"/" {
		t.Errorf("expected only the seed, got %+v", result.Records)
	}
	if n := s.hitCount("/"); n != 0 {
		t.Errorf("expected no fetch at depth 0, got %d", n)
	}
}

func TestEngine_StripQuery(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/{$}": links("/c?x=1", "/c?x=2", "/c"),
		"/c":   links(),
	})

	cfg := testConfig(s.URL+"/", 1)
	cfg.StripQuery = true
	result, err := runEngine(t, cfg, s.Client())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := recordURLs(result.Records)
	if len(got) != 2 {
		t.Fatalf("expected seed and /c, got %+v", result.Records)
	}
	if _, ok := got[s.URL+"/c"]; !ok {
		t.Errorf("expected query-less /c record, got %+v", result.Records)
	}
}

func TestEngine_Filters(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/{$}":    links("/docs/a", "/docs/private/b", "/blog/c"),
		"/docs/a": links(),
		"/blog/c": links(),
	})

	cfg := testConfig(s.URL+"/", 1)
	cfg.Filters = []string{"/docs/", s.URL + "/"}
	cfg.Ignore = []string{"private", "blog"}
	result, err := runEngine(t, cfg, s.Client())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := recordURLs(result.Records)
	if _, ok := got[s.URL+"/docs/a"]; !ok {
		t.Error("expected /docs/a to be admitted")
	}
	if _, ok := got[s.URL+"/docs/private/b"]; ok {
		t.Error("expected ignore to win over filter")
	}
	if _, ok := got[s.URL+"/blog/c"]; ok {
		t.Error("expected /blog/c to be ignored")
	}
}

func TestAdmit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		filters []string
		ignore  []string
		want    bool
	}{
		{name: "no rules", url: "http://x/", want: true},
		{name: "filter match", url: "http://x/a", filters: []string{"/a"}, want: true},
		{name: "filter miss", url: "http://x/b", filters: []string{"/a"}, want: false},
		{name: "ignore match", url: "http://x/a", ignore: []string{"/a"}, want: false},
		{name: "ignore wins over filter", url: "xab", filters: []string{"a"}, ignore: []string{"b"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := admit(tt.url, tt.filters, tt.ignore); got != tt.want {
				t.Errorf("admit(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestEngine_FetchFailure(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/{$}": links("/fail", "/a"),
		"/a":   links(),
	}

	t.Run("fatal by default", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, pages)
		result, err := runEngine(t, testConfig(s.URL+"/", 2), s.Client())
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
		if result == nil || !errors.Is(result.Err, ErrFetch) {
			t.Errorf("expected partial result carrying the error, got %+v", result)
		}
	})

	t.Run("continue on error skips the branch", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, pages)
		cfg := testConfig(s.URL+"/", 2)
		cfg.ContinueOnError = true
		result, err := runEngine(t, cfg, s.Client())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := recordURLs(result.Records)
		if _, ok := got[s.URL+"/fail"]; !ok {
			t.Error("expected failed page to stay recorded")
		}
		if _, ok := got[s.URL+"/a"]; !ok {
			t.Error("expected sibling branch to be crawled")
		}
		if result.Stats.FetchFailures != 1 {
			t.Errorf("expected 1 fetch failure, got %d", result.Stats.FetchFailures)
		}
	})
}

func TestEngine_ReportFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{"/{$}": links("/a"), "/a": links()})
	reporter := &recordingReporter{err: errors.New("graph sink offline")}

	result, err := runEngine(t, testConfig(s.URL+"/", 1), s.Client(), WithReporter(reporter))
	if err != nil {
		t.Fatalf("expected report failures to be logged only, got %v", err)
	}
	if result.Stats.ReportFailures != 2 {
		t.Errorf("expected 2 report failures, got %d", result.Stats.ReportFailures)
	}
	if len(result.Records) != 2 {
		t.Errorf("expected crawl to complete, got %+v", result.Records)
	}
}

func TestEngine_NoFetcher(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(testConfig("http://example.com/", 1)); !errors.Is(err, ErrNoFetcher) {
		t.Errorf("expected ErrNoFetcher, got %v", err)
	}
}

func newWiki(t *testing.T) *site {
	t.Helper()

	article := func(hrefs ...string) string {
		var b strings.Builder
		b.WriteString(`<html><body><div id="mw-navigation"><a href="/wiki/Main_Page">main</a></div><div id="mw-content-text">`)
		for _, h := range hrefs {
			fmt.Fprintf(&b, `<a href="%s">x</a>`, h)
		}
		b.WriteString(`</div></body></html>`)
		return b.String()
	}

	s := newSite(t, map[string]string{
		"/wiki/Alpha": article("/wiki/Beta", "/wiki/File:Alpha.png", "/wiki/Gamma#History", "/wiki/Gamma"),
		"/wiki/Beta":  article("/wiki/Alpha"),
		"/wiki/Gamma": article(),
	})
	s.Config.Handler.(*http.ServeMux).HandleFunc(RandomArticlePath, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		http.Redirect(w, r, "/wiki/Alpha", http.StatusFound)
	})
	return s
}

func TestEngine_Wiki(t *testing.T) {
	t.Parallel()

	t.Run("random hops are reported but not recorded", func(t *testing.T) {
		t.Parallel()

		s := newWiki(t)
		cfg := testConfig(s.URL, 1)
		cfg.Mode = config.ModeWiki
		cfg.WikiAmount = 3

		reporter := &recordingReporter{}
		result, err := runEngine(t, cfg, s.Client(), WithReporter(reporter))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		got := recordURLs(result.Records)
		if len(got) != 2 {
			t.Fatalf("expected Beta and Gamma, got %+v", result.Records)
		}
		for _, name := range []string{"Beta", "Gamma"} {
			rec, ok := got[s.URL+"/wiki/"+name]
			if !ok {
				t.Errorf("missing record for %s", name)
				continue
			}
			if rec.FoundAt != s.URL+"/wiki/Alpha" {
				t.Errorf("%s: expected to be found at Alpha, got %s", name, rec.FoundAt)
			}
		}

		if n := s.hitCount(RandomArticlePath); n != 3 {
			t.Errorf("expected every random hop to be fetched, got %d", n)
		}

		var randomEdges int
		for _, e := range reporter.all() {
			if strings.HasSuffix(e.Target, RandomArticlePath) {
				randomEdges++
			}
		}
		if randomEdges != 3 {
			t.Errorf("expected 3 random hop edges, got %d", randomEdges)
		}
	})

	t.Run("fixed link index follows one link", func(t *testing.T) {
		t.Parallel()

		s := newWiki(t)
		cfg := testConfig(s.URL, 1)
		cfg.Mode = config.ModeWiki
		cfg.WikiAmount = 1
		index := 1
		cfg.WikiLinkIndex = &index

		result, err := runEngine(t, cfg, s.Client())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(result.Records) != 1 || result.Records[0].URL != s.URL+"/wiki/Gamma" {
			t.Errorf("expected only Gamma, got %+v", result.Records)
		}
	})

	t.Run("filters apply to the random hop", func(t *testing.T) {
		t.Parallel()

		s := newWiki(t)
		cfg := testConfig(s.URL, 1)
		cfg.Mode = config.ModeWiki
		cfg.WikiAmount = 2
		cfg.Ignore = []string{":"}

		result, err := runEngine(t, cfg, s.Client())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(result.Records) != 0 {
			t.Errorf("expected no records, got %+v", result.Records)
		}
		if n := s.hitCount(RandomArticlePath); n != 0 {
			t.Errorf("expected the random page not to be fetched, got %d hits", n)
		}
		if result.Stats.UnitsRejected != 2 {
			t.Errorf("expected both walks to be rejected, got %d", result.Stats.UnitsRejected)
		}
	})

	t.Run("fixed link index past the end ends the walk", func(t *testing.T) {
		t.Parallel()

		s := newWiki(t)
		cfg := testConfig(s.URL, 1)
		cfg.Mode = config.ModeWiki
		cfg.WikiAmount = 1
		index := 5
		cfg.WikiLinkIndex = &index

		result, err := runEngine(t, cfg, s.Client())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(result.Records) != 0 {
			t.Errorf("expected no records, got %+v", result.Records)
		}
	})
}
