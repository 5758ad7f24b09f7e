// Package pipeline runs the post-crawl steps over a finished result.
//
// A typical pipeline archives the run, writes the export and prints a
// summary. Aborted runs are archived with their error; export steps skip
// them unless told otherwise.
package pipeline
