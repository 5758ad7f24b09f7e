package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultReportInterval is how often pending edge reports are dispatched.
const DefaultReportInterval = 10 * time.Millisecond

// UnitFunc processes one unit. A non-nil error ends the run.
type UnitFunc func(ctx context.Context, u Unit) error

// EdgeFunc dispatches one edge report. It has no error: failures are
// the dispatcher's to log.
type EdgeFunc func(ctx context.Context, e Edge)

// Coordinator owns the two work pools of a run.
//
// Primary units run on an errgroup. A unit spawns its children before it
// returns, so the group's counter can only reach zero when no unit is
// running and none can appear; Wait returning is therefore the end of the
// traversal. The first error cancels the group context.
//
// Edge reports are appended to a pending slice and dispatched in batches
// by a separate loop, so reporting never blocks crawling.
type Coordinator struct {
	group *errgroup.Group
	ctx   context.Context
	work  UnitFunc

	dispatch       EdgeFunc
	reportCtx      context.Context
	reportInterval time.Duration
	reportLimit    int
	mu             sync.Mutex
	pending        []Edge
	stopLoop       context.CancelFunc
	loopDone       chan struct{}
	startOnce      sync.Once
	stopOnce       sync.Once

	logger *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithReportInterval sets how often pending edge reports are dispatched.
func WithReportInterval(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.reportInterval = d
		}
	}
}

// WithReportConcurrency limits concurrent edge dispatches.
func WithReportConcurrency(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.reportLimit = n
		}
	}
}

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a coordinator whose units run under ctx.
// dispatch may be nil, in which case edge reports are dropped.
func NewCoordinator(ctx context.Context, work UnitFunc, dispatch EdgeFunc, opts ...CoordinatorOption) *Coordinator {
	group, groupCtx := errgroup.WithContext(ctx)
	// Edges queued before a cancellation are still flushed by Stop, so
	// reportCtx must not inherit the run's cancellation.
	c := &Coordinator{
		group:          group,
		ctx:            groupCtx,
		work:           work,
		dispatch:       dispatch,
		reportCtx:      context.WithoutCancel(ctx),
		reportInterval: DefaultReportInterval,
		reportLimit:    8,
		loopDone:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Spawn schedules u. It must be called before Wait, or from inside a
// running unit.
func (c *Coordinator) Spawn(u Unit) {
	c.group.Go(func() error {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		return c.work(c.ctx, u)
	})
}

// Wait blocks until every spawned unit has finished and returns the
// first error.
func (c *Coordinator) Wait() error {
	return c.group.Wait()
}

// Report queues an edge for dispatch. It never blocks on the sink.
func (c *Coordinator) Report(e Edge) {
	if c.dispatch == nil {
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, e)
	c.mu.Unlock()
}

// Pending returns the number of queued, undispatched edges.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Start launches the edge report loop.
func (c *Coordinator) Start() {
	c.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(c.reportCtx)
		c.stopLoop = cancel
		if c.dispatch == nil {
			close(c.loopDone)
			return
		}
		go c.reportLoop(loopCtx)
	})
}

// Stop ends the edge report loop after one final flush and waits for
// every in-flight dispatch. It is safe to call more than once.
func (c *Coordinator) Stop() {
	c.Start()
	c.stopOnce.Do(func() {
		c.stopLoop()
		<-c.loopDone
	})
}

func (c *Coordinator) reportLoop(ctx context.Context) {
	defer close(c.loopDone)

	var dispatches errgroup.Group
	dispatches.SetLimit(c.reportLimit)

	ticker := time.NewTicker(c.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n := c.flush(&dispatches)
			_ = dispatches.Wait() //nolint:errcheck // dispatch goroutines always return nil
			c.logger.Debug("edge report loop stopped", "final_flush", n)
			return
		case <-ticker.C:
			c.flush(&dispatches)
		}
	}
}

// flush takes every pending edge and dispatches it. It returns the batch size.
func (c *Coordinator) flush(dispatches *errgroup.Group) int {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, e := range batch {
		dispatches.Go(func() error {
			c.dispatch(c.reportCtx, e)
			return nil
		})
	}
	return len(batch)
}
