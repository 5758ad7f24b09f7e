package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonInvalid  = "invalid"
	ReasonFiltered = "filtered"
	ReasonDepth    = "depth"
	ReasonVisited  = "visited"
)

// Collector holds the crawl metrics of one process.
// Every method is safe on a nil *Collector, so callers never need to
// check whether metrics are enabled.
type Collector struct {
	registry *prometheus.Registry

	unitsSpawned  prometheus.Counter
	unitsRejected *prometheus.CounterVec
	recorded      *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	inFlight      prometheus.Gauge
	edges         *prometheus.CounterVec
}

// New creates a Collector registered on its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		unitsSpawned: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkgraph_units_spawned_total",
			Help: "Traversal units scheduled.",
		}),
		unitsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgraph_units_rejected_total",
			Help: "Traversal units dropped before fetching.",
		}, []string{"reason"}),
		recorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgraph_urls_recorded_total",
			Help: "URLs added to the visited set.",
		}, []string{"depth"}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgraph_fetches_total",
			Help: "Page fetches by result.",
		}, []string{"result"}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkgraph_fetch_duration_seconds",
			Help:    "Duration of page fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "linkgraph_fetches_in_flight",
			Help: "Page fetches currently running.",
		}),
		edges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgraph_edges_total",
			Help: "Edge reports by state.",
		}, []string{"state"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// UnitSpawned counts a scheduled unit.
func (c *Collector) UnitSpawned() {
	if c == nil {
		return
	}
	c.unitsSpawned.Inc()
}

// UnitRejected counts a unit dropped for reason.
func (c *Collector) UnitRejected(reason string) {
	if c == nil {
		return
	}
	c.unitsRejected.WithLabelValues(reason).Inc()
}

// Recorded counts a URL added to the visited set at depth.
func (c *Collector) Recorded(depth int) {
	if c == nil {
		return
	}
	c.recorded.WithLabelValues(strconv.Itoa(depth)).Inc()
}

// FetchStarted marks a fetch as running and returns the function that
// completes it. Pass the fetch error, or nil.
func (c *Collector) FetchStarted() func(err error) {
	if c == nil {
		return func(error) {}
	}
	start := time.Now()
	c.inFlight.Inc()
	return func(err error) {
		c.inFlight.Dec()
		c.fetchDuration.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.fetches.WithLabelValues(result).Inc()
	}
}

// EdgeQueued counts an edge handed to the report loop.
func (c *Collector) EdgeQueued() {
	if c == nil {
		return
	}
	c.edges.WithLabelValues("queued").Inc()
}

// EdgeReported counts a finished edge dispatch.
func (c *Collector) EdgeReported(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.edges.WithLabelValues("failed").Inc()
		return
	}
	c.edges.WithLabelValues("reported").Inc()
}
