package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for linkgraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkgraph",
		Short: "Concurrent link-graph crawler with live Gephi streaming",
		Long: `linkgraph crawls the hyperlink graph reachable from a seed URL.

Every discovered link is streamed to a Gephi graph workspace as it is found,
and the set of visited URLs is exported when the crawl completes.

Two traversal modes are available:
  html  follows every anchor of every page up to a maximum depth
  wiki  performs random walks over the article graph of a wiki`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewHTMLCmd())
	cmd.AddCommand(NewWikiCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
