// Package report writes finished crawl runs.
//
// Writers:
//   - CSVWriter: "Target,Source,Depth" rows with ',' and '\n' percent-encoded
//   - JSONWriter: the run with its stats and a version stamp
//   - MarkdownWriter: run table, depth distribution chart and record table
//   - SummaryWriter: a few lines for the terminal
//
// New selects a writer by format name; MultiWriter composes several.
package report
