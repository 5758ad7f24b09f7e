package database

import (
	"context"

	"github.com/nao1215/linkgraph/internal/crawler"
)

// RunDiff is the difference between the visited sets of two runs.
type RunDiff struct {
	Base RunMetadata `json:"base"`
	Head RunMetadata `json:"head"`

	// Added holds URLs visited by Head but not by Base.
	Added []crawler.Record `json:"added"`

	// Removed holds URLs visited by Base but not by Head.
	Removed []crawler.Record `json:"removed"`

	// Unchanged counts URLs visited by both.
	Unchanged int `json:"unchanged"`
}

// HasChanges reports whether the visited sets differ.
func (d *RunDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// CompareRuns diffs run base against run head. Records are matched by URL
// only; a URL found at a different depth counts as unchanged.
func (a *Archive) CompareRuns(ctx context.Context, baseID, headID int64) (*RunDiff, error) {
	base, err := a.GetRun(ctx, baseID)
	if err != nil {
		return nil, err
	}
	head, err := a.GetRun(ctx, headID)
	if err != nil {
		return nil, err
	}

	baseVisits, err := a.GetRunVisits(ctx, baseID)
	if err != nil {
		return nil, err
	}
	headVisits, err := a.GetRunVisits(ctx, headID)
	if err != nil {
		return nil, err
	}

	diff := DiffRecords(baseVisits, headVisits)
	diff.Base = *base
	diff.Head = *head
	return diff, nil
}

// DiffRecords compares two visited sets by URL.
func DiffRecords(base, head []crawler.Record) *RunDiff {
	inBase := make(map[string]struct{}, len(base))
	for _, r := range base {
		inBase[r.URL] = struct{}{}
	}
	inHead := make(map[string]struct{}, len(head))
	for _, r := range head {
		inHead[r.URL] = struct{}{}
	}

	diff := &RunDiff{
		Added:   []crawler.Record{},
		Removed: []crawler.Record{},
	}
	for _, r := range head {
		if _, ok := inBase[r.URL]; ok {
			diff.Unchanged++
		} else {
			diff.Added = append(diff.Added, r)
		}
	}
	for _, r := range base {
		if _, ok := inHead[r.URL]; !ok {
			diff.Removed = append(diff.Removed, r)
		}
	}
	return diff
}
