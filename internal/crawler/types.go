package crawler

import (
	"sync/atomic"
	"time"

	"github.com/nao1215/linkgraph/internal/config"
)

// Unit is one pending fetch-and-expand operation.
type Unit struct {
	// URL is the candidate as found on the page. It may be relative.
	URL string

	// From is the page the candidate was found on.
	From string

	// Depth is the distance from the seed.
	Depth int
}

// Edge is one pending report of a discovered link to the graph sink.
type Edge struct {
	Source string
	Target string
	Depth  int
}

// Record is one accepted visit. Records are never modified after creation.
type Record struct {
	// URL is the normalized URL that was claimed.
	URL string `json:"url"`

	// FoundAt is the page the URL was discovered on.
	FoundAt string `json:"found_at"`

	// Depth is the distance from the seed.
	Depth int `json:"depth"`
}

// Stats counts what happened during a run.
type Stats struct {
	UnitsSpawned   int64 `json:"units_spawned"`
	UnitsRejected  int64 `json:"units_rejected"`
	PagesFetched   int64 `json:"pages_fetched"`
	FetchFailures  int64 `json:"fetch_failures"`
	EdgesQueued    int64 `json:"edges_queued"`
	EdgesReported  int64 `json:"edges_reported"`
	ReportFailures int64 `json:"report_failures"`
}

// Result is the outcome of a run. It is returned even when the run fails,
// so the partial visited set can still be archived or exported.
type Result struct {
	Seed       string      `json:"seed"`
	Mode       config.Mode `json:"mode"`
	MaxDepth   int         `json:"max_depth"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Records    []Record    `json:"records"`
	Stats      Stats       `json:"stats"`

	// Err is the fatal error that ended the run, if any.
	Err error `json:"-"`
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// DepthCounts returns the number of records per depth.
func (r *Result) DepthCounts() map[int]int {
	counts := make(map[int]int)
	for _, rec := range r.Records {
		counts[rec.Depth]++
	}
	return counts
}

// counters is the live, concurrently updated form of Stats.
type counters struct {
	unitsSpawned   atomic.Int64
	unitsRejected  atomic.Int64
	pagesFetched   atomic.Int64
	fetchFailures  atomic.Int64
	edgesQueued    atomic.Int64
	edgesReported  atomic.Int64
	reportFailures atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		UnitsSpawned:   c.unitsSpawned.Load(),
		UnitsRejected:  c.unitsRejected.Load(),
		PagesFetched:   c.pagesFetched.Load(),
		FetchFailures:  c.fetchFailures.Load(),
		EdgesQueued:    c.edgesQueued.Load(),
		EdgesReported:  c.edgesReported.Load(),
		ReportFailures: c.reportFailures.Load(),
	}
}
