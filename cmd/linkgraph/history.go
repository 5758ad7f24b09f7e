package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/linkgraph/internal/config"
	"github.com/nao1215/linkgraph/internal/database"
	"github.com/spf13/cobra"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-url]",
		Short: "List archived crawls and compare their visited URLs",
		Long: `History reads the local run archive written by html and wiki.

Without arguments it lists every archived seed. With a seed it compares the
visited URL sets of the two latest runs of that seed and shows:
- URLs visited by the newer run only
- URLs visited by the older run only

Examples:
  # List every archived seed
  linkgraph history

  # List the runs of a seed
  linkgraph history --list https://example.com

  # Compare the latest two runs of a seed
  linkgraph history https://example.com

  # Compare run 7 against run 3
  linkgraph history --run 7 --with 3

  # Output the comparison as JSON
  linkgraph history --json https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List the archived runs of the seed")
	cmd.Flags().Int64P("run", "r", 0, "Run ID to inspect (use --list to see available IDs)")
	cmd.Flags().Int64P("with", "w", 0, "Older run ID to compare --run against")
	cmd.Flags().BoolP("json", "j", false, "Output the comparison in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory holding the run archive")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	list, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	runID, err := flags.GetInt64("run")
	if err != nil {
		return err
	}
	withID, err := flags.GetInt64("with")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	var seed string
	if len(args) > 0 {
		seed = args[0]
	}

	// Validate arguments before opening the database.
	if (runID == 0) != (withID == 0) {
		return errors.New("--run and --with must be given together")
	}
	if list && seed == "" {
		return errors.New("seed url is required with --list")
	}

	out := cmd.OutOrStdout()

	archive, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if errors.Is(err, database.ErrArchiveNotFound) {
		fmt.Fprintln(out, "No runs archived yet.")
		fmt.Fprintln(out, "\nUse 'linkgraph html --url <url>' to crawl a site.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	ctx := cmd.Context()

	switch {
	case runID != 0:
		return compareRuns(ctx, out, archive, withID, runID, jsonOutput)
	case list:
		return listRuns(ctx, out, archive, seed)
	case seed == "":
		return listSeeds(ctx, out, archive)
	default:
		return compareLatest(ctx, out, archive, seed, jsonOutput)
	}
}

// listSeeds lists every seed that has archived runs.
func listSeeds(ctx context.Context, out io.Writer, archive *database.Archive) error {
	seeds, err := archive.ListSeeds(ctx)
	if err != nil {
		return err
	}

	if len(seeds) == 0 {
		fmt.Fprintln(out, "No runs archived yet.")
		return nil
	}

	fmt.Fprintf(out, "Archived seeds (%d):\n\n", len(seeds))
	for _, s := range seeds {
		fmt.Fprintf(out, "  • %s\n", s)
	}
	fmt.Fprintln(out, "\nUse 'linkgraph history --list <seed-url>' to see the runs of a seed.")
	return nil
}

// listRuns lists the archived runs of seed, newest first.
func listRuns(ctx context.Context, out io.Writer, archive *database.Archive, seed string) error {
	runs, err := archive.ListRuns(ctx, seed)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs found for %s\n", seed)
		return nil
	}

	fmt.Fprintf(out, "Runs of %s (%d):\n\n", seed, len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-5s  %-5s  %-7s  %s\n", "ID", "Started", "Mode", "Depth", "Records", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 64))
	for _, r := range runs {
		status := "complete"
		if r.Error != "" {
			status = "aborted"
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-5s  %-5d  %-7d  %s\n",
			r.ID,
			r.StartedAt.Local().Format(historyTimeLayout),
			r.Mode,
			r.MaxDepth,
			r.RecordCount,
			status,
		)
	}

	fmt.Fprintln(out, "\nUse 'linkgraph history <seed-url>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'linkgraph history --run <id> --with <id>' to compare specific runs.")
	return nil
}

// compareLatest diffs the two newest runs of seed.
func compareLatest(ctx context.Context, out io.Writer, archive *database.Archive, seed string, jsonOutput bool) error {
	runs, err := archive.LatestRuns(ctx, seed, 2)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no runs found for %s", seed)
	}
	if len(runs) < 2 {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}
	return compareRuns(ctx, out, archive, runs[1].ID, runs[0].ID, jsonOutput)
}

// compareRuns prints the diff of head against base.
func compareRuns(ctx context.Context, out io.Writer, archive *database.Archive, baseID, headID int64, jsonOutput bool) error {
	diff, err := archive.CompareRuns(ctx, baseID, headID)
	if err != nil {
		return fmt.Errorf("failed to compare runs: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(diff)
	}
	return outputDiffText(out, diff)
}

// outputDiffText prints a RunDiff for humans.
func outputDiffText(out io.Writer, diff *database.RunDiff) error {
	fmt.Fprintf(out, "Comparison for %s\n", diff.Head.Seed)
	fmt.Fprintf(out, "  base: run %d (%s, %d records)\n",
		diff.Base.ID, diff.Base.StartedAt.Local().Format(historyTimeLayout), diff.Base.RecordCount)
	fmt.Fprintf(out, "  head: run %d (%s, %d records)\n\n",
		diff.Head.ID, diff.Head.StartedAt.Local().Format(historyTimeLayout), diff.Head.RecordCount)

	if !diff.HasChanges() {
		fmt.Fprintf(out, "No changes (%d URLs in both runs)\n", diff.Unchanged)
		return nil
	}

	if len(diff.Added) > 0 {
		fmt.Fprintf(out, "Added (%d):\n", len(diff.Added))
		for _, r := range diff.Added {
			fmt.Fprintf(out, "  + %s (depth %d)\n", r.URL, r.Depth)
		}
		fmt.Fprintln(out)
	}
	if len(diff.Removed) > 0 {
		fmt.Fprintf(out, "Removed (%d):\n", len(diff.Removed))
		for _, r := range diff.Removed {
			fmt.Fprintf(out, "  - %s (depth %d)\n", r.URL, r.Depth)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Unchanged: %d\n", diff.Unchanged)
	return nil
}
