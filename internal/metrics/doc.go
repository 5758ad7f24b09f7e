// Package metrics provides Prometheus collectors for a crawl and an
// optional HTTP listener that exposes them.
package metrics
