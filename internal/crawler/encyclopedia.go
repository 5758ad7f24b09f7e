package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// RandomArticlePath redirects to a random article. Visiting it is a
	// random-walk hop.
	RandomArticlePath = "/wiki/Special:Random"

	// articlePrefix is the path prefix of article links.
	articlePrefix = "/wiki/"

	// contentSelector matches article links inside the main content body.
	contentSelector = `#mw-content-text a[href^="/wiki/"]`
)

// EncyclopediaPolicy performs random walks over wiki article links.
// Every walk starts at RandomArticlePath. Only links inside the main
// content that point at articles are followed; namespaced pages
// ("File:", "Help:") and in-page anchors are skipped.
type EncyclopediaPolicy struct {
	amount    int
	linkIndex *int
	root      *url.URL
}

// NewEncyclopediaPolicy creates a policy starting amount walks on the
// site of siteURL. Only its scheme and host are used.
// When linkIndex is non-nil only the link at that position is followed.
func NewEncyclopediaPolicy(siteURL *url.URL, amount int, linkIndex *int) *EncyclopediaPolicy {
	return &EncyclopediaPolicy{
		amount:    amount,
		linkIndex: linkIndex,
		root:      &url.URL{Scheme: siteURL.Scheme, Host: siteURL.Host, Path: "/"},
	}
}

// Name implements Policy.
func (p *EncyclopediaPolicy) Name() string { return "wiki" }

// Seeds returns one random-article unit per walk.
func (p *EncyclopediaPolicy) Seeds(_ *url.URL) []Unit {
	random := p.root.ResolveReference(&url.URL{Path: RandomArticlePath}).String()

	units := make([]Unit, p.amount)
	for i := range units {
		units[i] = Unit{URL: random, From: random, Depth: 0}
	}
	return units
}

// ExtractCandidates returns article hrefs from the main content body.
func (p *EncyclopediaPolicy) ExtractCandidates(body []byte, _ *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	links := make([]string, 0)
	doc.Find(contentSelector).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links
}

// Accept rejects hrefs containing a namespace separator or a fragment
// and resolves the rest against the site root.
func (p *EncyclopediaPolicy) Accept(candidate string) (string, bool) {
	if !strings.HasPrefix(candidate, articlePrefix) || strings.ContainsAny(candidate, ":#") {
		return "", false
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	return p.root.ResolveReference(ref).String(), true
}

// Fanout follows every candidate, or only the one at the fixed index.
// An index past the end yields no new work.
func (p *EncyclopediaPolicy) Fanout(candidates []string) []string {
	if p.linkIndex == nil {
		return candidates
	}
	i := *p.linkIndex
	if i < 0 || i >= len(candidates) {
		return nil
	}
	return candidates[i : i+1]
}

// Transient reports whether u is the random-article hop.
func (p *EncyclopediaPolicy) Transient(u *url.URL) bool {
	return u.Path == RandomArticlePath
}
