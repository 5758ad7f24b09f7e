// Package crawler traverses a link graph from a seed URL.
//
// # Components
//
//   - Engine: the per-unit state machine (normalize, filter, depth gate,
//     edge report, dedup, fetch, extract, expand)
//   - Coordinator: primary units on an errgroup plus a batched edge
//     report loop
//   - VisitedSet: atomic test-and-insert dedup store
//   - Policy: mode-specific extraction and fan-out (GenericPolicy,
//     EncyclopediaPolicy)
//   - HTTPFetcher: GET with a fixed user agent and a body limit
//
// # Termination
//
// A unit spawns its children before returning, so the coordinator's
// counter reaches zero only once the traversal is exhausted. A failed
// fetch aborts the run unless the config asks to continue past it.
//
// # Concurrency
//
// Fan-out is unbounded: every accepted link becomes a goroutine at once.
// Fetches, which hold sockets and memory, are bounded by a weighted
// semaphore sized by the worker budget.
//
// # Usage
//
//	engine, err := crawler.NewEngine(cfg,
//	    crawler.WithFetcher(crawler.NewHTTPFetcher(client)),
//	    crawler.WithReporter(gephiClient),
//	)
//	result, err := engine.Run(ctx)
package crawler
