package crawler

import (
	"net/url"
	"slices"
	"testing"

	"github.com/nao1215/linkgraph/internal/config"
)

func TestExtractAnchors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "every anchor in document order",
			html: `<html><body><a href="/a">A</a><p><a href="http://x/b">B</a></p><a name="top">no href</a></body></html>`,
			want: []string{"/a", "http://x/b"},
		},
		{
			name: "non-anchor hrefs are ignored",
			html: `<link href="/style.css"><img src="/i.png"><a href="#frag">F</a>`,
			want: []string{"#frag"},
		},
		{
			name: "malformed markup still yields links",
			html: `<div><a href="/ok">ok</a><p><a href='/next'>next`,
			want: []string{"/ok", "/next"},
		},
		{
			// The parser reopens the unclosed anchor inside <p>, so /ok is
			// seen twice. Dedup in the engine absorbs the repeat.
			name: "unclosed anchor is reopened by the parser",
			html: `<div><a href="/ok">ok<p><a href='/next'>next`,
			want: []string{"/ok", "/ok", "/next"},
		},
		{
			name: "empty body",
			html: ``,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractAnchors([]byte(tt.html))
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenericPolicy(t *testing.T) {
	t.Parallel()

	p := GenericPolicy{}
	seed, err := url.Parse("http://example.com/")
	if err != nil {
		t.Fatal(err)
	}

	seeds := p.Seeds(seed)
	if len(seeds) != 1 || seeds[0].URL != "http://example.com/" || seeds[0].Depth != 0 {
		t.Errorf("unexpected seeds %+v", seeds)
	}
	if _, ok := p.Accept("   "); ok {
		t.Error("expected blank candidate to be rejected")
	}
	if got, ok := p.Accept("/a"); !ok || got != "/a" {
		t.Errorf("expected /a to be accepted unchanged, got %q %v", got, ok)
	}
	if p.Transient(seed) {
		t.Error("generic pages are never transient")
	}
}

func TestEncyclopediaPolicy(t *testing.T) {
	t.Parallel()

	site, err := url.Parse("https://en.example.org/wiki/Main_Page")
	if err != nil {
		t.Fatal(err)
	}

	intPtr := func(i int) *int { return &i }

	t.Run("seeds start random walks at the site root", func(t *testing.T) {
		t.Parallel()

		p := NewEncyclopediaPolicy(site, 3, nil)
		seeds := p.Seeds(site)
		if len(seeds) != 3 {
			t.Fatalf("expected 3 seeds, got %d", len(seeds))
		}
		for _, s := range seeds {
			if s.URL != "https://en.example.org/wiki/Special:Random" {
				t.Errorf("unexpected seed %s", s.URL)
			}
		}
	})

	t.Run("extracts article links from main content only", func(t *testing.T) {
		t.Parallel()

		body := `<html><body>
			<div id="mw-navigation"><a href="/wiki/Nav">nav</a></div>
			<div id="mw-content-text">
				<a href="/wiki/Go_(programming_language)">Go</a>
				<a href="https://other.org/">external</a>
				<a href="/wiki/File:Logo.png">file</a>
			</div></body></html>`

		p := NewEncyclopediaPolicy(site, 1, nil)
		got := p.ExtractCandidates([]byte(body), site)
		want := []string{"/wiki/Go_(programming_language)", "/wiki/File:Logo.png"}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("accept rejects namespaces and fragments", func(t *testing.T) {
		t.Parallel()

		p := NewEncyclopediaPolicy(site, 1, nil)
		tests := []struct {
			href string
			want string
			ok   bool
		}{
			{href: "/wiki/Graph_theory", want: "https://en.example.org/wiki/Graph_theory", ok: true},
			{href: "/wiki/Help:Contents", ok: false},
			{href: "/wiki/Graph_theory#History", ok: false},
			{href: "/w/index.php", ok: false},
		}
		for _, tt := range tests {
			got, ok := p.Accept(tt.href)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Accept(%q) = %q %v, want %q %v", tt.href, got, ok, tt.want, tt.ok)
			}
		}
	})

	t.Run("fanout", func(t *testing.T) {
		t.Parallel()

		links := []string{"a", "b", "c"}
		tests := []struct {
			name  string
			index *int
			want  []string
		}{
			{name: "all links without index", index: nil, want: links},
			{name: "only the indexed link", index: intPtr(1), want: []string{"b"}},
			{name: "index past the end yields nothing", index: intPtr(3), want: nil},
		}
		for _, tt := range tests {
			p := NewEncyclopediaPolicy(site, 1, tt.index)
			if got := p.Fanout(links); !slices.Equal(got, tt.want) {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			}
		}
	})

	t.Run("only the random article is transient", func(t *testing.T) {
		t.Parallel()

		p := NewEncyclopediaPolicy(site, 1, nil)
		random, _ := url.Parse("https://en.example.org/wiki/Special:Random")
		article, _ := url.Parse("https://en.example.org/wiki/Graph_theory")
		if !p.Transient(random) {
			t.Error("expected random hop to be transient")
		}
		if p.Transient(article) {
			t.Error("expected article not to be transient")
		}
	})
}

func TestNewPolicy(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.SeedURL = "https://en.example.org/"

	p, err := NewPolicy(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "html" {
		t.Errorf("expected html policy, got %s", p.Name())
	}

	cfg.Mode = config.ModeWiki
	if p, err = NewPolicy(cfg); err != nil || p.Name() != "wiki" {
		t.Errorf("expected wiki policy, got %v %v", p, err)
	}

	cfg.Mode = "gopher"
	if _, err := NewPolicy(cfg); err == nil {
		t.Error("expected error for unknown mode")
	}
}
