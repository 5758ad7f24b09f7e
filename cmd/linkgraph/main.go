// Package main provides the entry point for the linkgraph CLI.
//
// linkgraph crawls a hyperlink graph from a seed URL, streams every
// discovered edge to a Gephi workspace and exports the visited set.
//
// Usage:
//
//	linkgraph html --url https://example.com --depth 2
//	linkgraph wiki --url https://en.wikipedia.org --amount 5
//
// See --help for all available options.
package main

func main() {
	Execute()
}
