package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// GenericPolicy follows every anchor of an arbitrary HTML page.
type GenericPolicy struct{}

// Name implements Policy.
func (GenericPolicy) Name() string { return "html" }

// Seeds returns the seed itself at depth 0.
func (GenericPolicy) Seeds(seed *url.URL) []Unit {
	s := seed.String()
	return []Unit{{URL: s, From: s, Depth: 0}}
}

// ExtractCandidates returns the href of every <a> element, in document order.
func (GenericPolicy) ExtractCandidates(body []byte, _ *url.URL) []string {
	return ExtractAnchors(body)
}

// Accept accepts every non-empty candidate.
func (GenericPolicy) Accept(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	return candidate, candidate != ""
}

// Fanout follows every accepted candidate.
func (GenericPolicy) Fanout(candidates []string) []string {
	return candidates
}

// Transient is always false: every generic page is deduplicated.
func (GenericPolicy) Transient(*url.URL) bool { return false }

// ExtractAnchors returns the raw href of every <a href> in body.
func ExtractAnchors(body []byte) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		// html.Parse only fails on reader errors, which bytes.Reader never returns.
		return nil
	}

	links := make([]string, 0)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := getAttr(n, "href"); ok {
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// getAttr returns the value of the named attribute.
func getAttr(n *html.Node, name string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}
