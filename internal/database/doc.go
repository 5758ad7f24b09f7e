// Package database archives finished crawl runs in SQLite.
//
// Each run is one row in runs (seed, mode, depth bound, timing, stats and
// the fatal error if any) plus one row per visited URL in visits. The
// archive is only written after a run ends; the crawler never reads it,
// so every run starts with an empty visited set. The history command
// reads it back to compare runs of the same seed.
//
// The driver is modernc.org/sqlite, which needs no cgo.
package database
