package main

import (
	"github.com/nao1215/linkgraph/internal/config"
	"github.com/spf13/cobra"
)

// NewHTMLCmd creates the html command.
func NewHTMLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "html",
		Short: "Crawl every hyperlink reachable from a seed URL",
		Long: `Html follows every anchor of every fetched page, breadth first and in
parallel, until the maximum depth is reached.

Each URL is visited at most once. Every discovered link is streamed to Gephi
as a directed edge, and the visited set is exported as CSV (Target,Source,Depth)
unless another format is requested.

Examples:
  # Crawl two levels deep and print the CSV to stdout
  linkgraph html --url https://example.com --depth 2

  # Stay inside the docs, skip logout links, write to a file
  linkgraph html --url https://example.com --f /docs/ --ignore logout -o out/links.csv

  # Crawl without a running Gephi
  linkgraph html --url https://example.com --gephi ""

  # Crawl an onion service through an existing Tor proxy
  linkgraph html --url http://exampleonion.onion --proxy 127.0.0.1:9050`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawlCmd(cmd, config.ModeHTML)
		},
	}

	addCrawlFlags(cmd)
	return cmd
}
