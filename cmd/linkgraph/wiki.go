package main

import (
	"github.com/nao1215/linkgraph/internal/config"
	"github.com/spf13/cobra"
)

// NewWikiCmd creates the wiki command.
func NewWikiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wiki",
		Short: "Random-walk the article graph of a wiki",
		Long: `Wiki starts --amount independent walks at the random-article page of the
site given by --url. The random hop is fetched but not recorded; links on
the article it lands on are depth 1.

From each article only links into the main article namespace are followed.
With --link, only the link at that index is followed, turning each walk into
a single path.

--f and --ignore also apply to the random-article URL itself
(/wiki/Special:Random). A filter it does not contain, or an ignore entry it
does contain such as ":", rejects every walk before the first hop and the
run records nothing.

Examples:
  # Ten random walks, three hops each
  linkgraph wiki --url https://en.wikipedia.org --depth 3

  # Five walks that always follow the first article link
  linkgraph wiki --url https://en.wikipedia.org --amount 5 --link 0 --depth 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawlCmd(cmd, config.ModeWiki)
		},
	}

	addCrawlFlags(cmd)
	cmd.Flags().Int("amount", config.DefaultWikiAmount, "Number of independent random walks")
	cmd.Flags().Int("link", 0, "Follow only the article link at this index (default: follow all)")

	return cmd
}
