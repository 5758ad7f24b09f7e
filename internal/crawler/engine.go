package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/linkgraph/internal/config"
	"github.com/nao1215/linkgraph/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// EdgeReporter upserts one directed edge and its two nodes into a graph sink.
type EdgeReporter interface {
	Upsert(ctx context.Context, source, target string, depth int) error
}

// Engine runs depth-bounded, filtered, deduplicated traversals.
type Engine struct {
	cfg      *config.Config
	seed     *url.URL
	policy   Policy
	fetcher  Fetcher
	reporter EdgeReporter
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher sets the page fetcher. It is required.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithReporter sets the edge sink. Without one, edges are only counted.
func WithReporter(r EdgeReporter) Option {
	return func(e *Engine) {
		e.reporter = r
	}
}

// WithPolicy overrides the policy derived from the config mode.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine for cfg. cfg must already be valid and is
// not modified.
func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	seed, err := url.Parse(cfg.SeedURL)
	if err != nil {
		return nil, fmt.Errorf("parse seed url: %w", err)
	}

	e := &Engine{cfg: cfg, seed: seed}
	for _, opt := range opts {
		opt(e)
	}

	if e.fetcher == nil {
		return nil, ErrNoFetcher
	}
	if e.policy == nil {
		if e.policy, err = NewPolicy(cfg); err != nil {
			return nil, err
		}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Run traverses the graph from the seed until no work is left.
// The returned Result is never nil; on failure it holds the partial
// visited set and the error is also returned.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	c := &crawl{
		Engine:  e,
		visited: NewVisitedSet(),
		fetches: semaphore.NewWeighted(int64(e.cfg.Threads)),
	}

	var dispatch EdgeFunc
	if e.reporter != nil {
		dispatch = c.dispatchEdge
	}
	c.coord = NewCoordinator(ctx, c.process, dispatch,
		WithReportConcurrency(e.cfg.ReportConcurrency),
		WithCoordinatorLogger(e.logger),
	)

	result := &Result{
		Seed:      e.cfg.SeedURL,
		Mode:      e.cfg.Mode,
		MaxDepth:  e.cfg.MaxDepth,
		StartedAt: time.Now(),
	}

	e.logger.Info("crawl started",
		"seed", e.cfg.SeedURL,
		"mode", e.policy.Name(),
		"depth", e.cfg.MaxDepth,
		"threads", e.cfg.Threads,
	)

	c.coord.Start()
	for _, u := range e.policy.Seeds(e.seed) {
		c.spawn(u)
	}
	err := c.coord.Wait()
	c.coord.Stop()

	result.FinishedAt = time.Now()
	result.Records = c.visited.Snapshot()
	result.Stats = c.stats.snapshot()
	result.Err = err

	if err != nil {
		e.logger.Error("crawl aborted", "error", err, "records", len(result.Records))
		return result, err
	}

	e.logger.Info("crawl completed",
		"records", len(result.Records),
		"duration", result.Duration().Round(time.Millisecond),
	)
	return result, nil
}

// crawl is the state of one Run.
type crawl struct {
	*Engine

	coord   *Coordinator
	visited *VisitedSet
	fetches *semaphore.Weighted
	stats   counters
}

func (c *crawl) spawn(u Unit) {
	c.stats.unitsSpawned.Add(1)
	c.metrics.UnitSpawned()
	c.coord.Spawn(u)
}

func (c *crawl) reject(reason string) {
	c.stats.unitsRejected.Add(1)
	c.metrics.UnitRejected(reason)
}

// process runs the per-unit state machine:
// normalize, filter, depth gate, edge report, dedup and record,
// post-record depth gate, fetch, extract, expand.
func (c *crawl) process(ctx context.Context, u Unit) error {
	target, ok := c.normalize(u.URL)
	if !ok {
		c.reject(metrics.ReasonInvalid)
		return nil
	}
	targetURL := target.String()

	if !c.admit(targetURL) {
		c.logger.Debug("url filtered", "url", targetURL)
		c.reject(metrics.ReasonFiltered)
		return nil
	}

	if u.Depth > c.cfg.MaxDepth {
		c.reject(metrics.ReasonDepth)
		return nil
	}

	c.queueEdge(Edge{Source: u.From, Target: targetURL, Depth: u.Depth})

	transient := c.policy.Transient(target)
	if !transient {
		if !c.visited.TryRecord(Record{URL: targetURL, FoundAt: u.From, Depth: u.Depth}) {
			c.reject(metrics.ReasonVisited)
			return nil
		}
		c.metrics.Recorded(u.Depth)
	}

	if u.Depth+1 > c.cfg.MaxDepth {
		return nil
	}

	page, err := c.fetch(ctx, targetURL, u.Depth)
	if err != nil {
		if c.cfg.ContinueOnError && errors.Is(err, ErrFetch) {
			c.logger.Warn("fetch failed, skipping branch", "url", targetURL, "error", err)
			return nil
		}
		return err
	}

	// A transient hop is attributed to the page it landed on.
	from := targetURL
	if transient {
		from = page.URL.String()
	}

	candidates := c.policy.ExtractCandidates(page.Body, page.URL)
	accepted := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		if link, ok := c.policy.Accept(cand); ok {
			accepted = append(accepted, link)
		}
	}
	next := c.policy.Fanout(accepted)

	c.logger.Info("found links", "url", from, "depth", u.Depth, "links", len(candidates), "following", len(next))

	for _, link := range next {
		c.spawn(Unit{URL: link, From: from, Depth: u.Depth + 1})
	}
	return nil
}

// fetch retrieves a page while holding one slot of the worker budget.
func (c *crawl) fetch(ctx context.Context, pageURL string, depth int) (*Page, error) {
	if err := c.fetches.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.fetches.Release(1)

	c.logger.Debug("crawling", "url", pageURL, "depth", depth)

	done := c.metrics.FetchStarted()
	page, err := c.fetcher.Fetch(ctx, pageURL)
	done(err)
	if err != nil {
		if errors.Is(err, ErrFetch) {
			c.stats.fetchFailures.Add(1)
		}
		return nil, err
	}

	c.stats.pagesFetched.Add(1)
	c.logger.Info("fetched", "url", pageURL, "status", page.StatusCode)
	return page, nil
}

func (c *crawl) queueEdge(e Edge) {
	c.stats.edgesQueued.Add(1)
	c.metrics.EdgeQueued()
	c.coord.Report(e)
}

func (c *crawl) dispatchEdge(ctx context.Context, e Edge) {
	err := c.reporter.Upsert(ctx, e.Source, e.Target, e.Depth)
	c.metrics.EdgeReported(err)
	if err != nil {
		c.stats.reportFailures.Add(1)
		c.logger.Warn("edge report failed", "source", e.Source, "target", e.Target, "error", err)
		return
	}
	c.stats.edgesReported.Add(1)
}

// normalize resolves raw against the seed and canonicalizes it.
// Only absolute http and https URLs survive.
func (c *crawl) normalize(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}

	u := c.seed.ResolveReference(ref)
	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	if c.cfg.StripQuery {
		u.RawQuery = ""
		u.ForceQuery = false
	}
	return u, true
}

// admit applies the substring filters. Filters require at least one
// match; ignore rejects on any match and takes precedence.
func (c *crawl) admit(u string) bool {
	return admit(u, c.cfg.Filters, c.cfg.Ignore)
}

func admit(u string, filters, ignore []string) bool {
	if len(filters) > 0 && !containsAny(u, filters) {
		return false
	}
	return !containsAny(u, ignore)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
