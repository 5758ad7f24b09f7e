package crawler

import (
	"fmt"
	"net/url"

	"github.com/nao1215/linkgraph/internal/config"
)

// Policy is the mode-specific part of a traversal. It is chosen once per
// run and consulted by the engine for every page.
type Policy interface {
	// Name identifies the policy in logs.
	Name() string

	// Seeds returns the units the run starts with.
	Seeds(seed *url.URL) []Unit

	// ExtractCandidates returns raw link candidates found in body.
	// It never fails: malformed markup yields fewer links.
	ExtractCandidates(body []byte, page *url.URL) []string

	// Accept reports whether a raw candidate may be followed and returns
	// it in the form the engine should normalize.
	Accept(candidate string) (string, bool)

	// Fanout selects which accepted candidates become new units.
	Fanout(candidates []string) []string

	// Transient reports whether u is a hop that is neither deduplicated
	// nor recorded.
	Transient(u *url.URL) bool
}

// NewPolicy returns the policy for cfg.Mode.
func NewPolicy(cfg *config.Config) (Policy, error) {
	switch cfg.Mode {
	case config.ModeHTML:
		return GenericPolicy{}, nil
	case config.ModeWiki:
		site, err := url.Parse(cfg.SeedURL)
		if err != nil {
			return nil, fmt.Errorf("parse seed url: %w", err)
		}
		return NewEncyclopediaPolicy(site, cfg.WikiAmount, cfg.WikiLinkIndex), nil
	default:
		return nil, config.ErrUnknownMode
	}
}
